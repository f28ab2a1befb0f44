// Package app assembles a node, Light or Switch, from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/bridge"
	"github.com/robotalks/lightlink/pkg/button"
	"github.com/robotalks/lightlink/pkg/config"
	"github.com/robotalks/lightlink/pkg/console"
	"github.com/robotalks/lightlink/pkg/display"
	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/mqtt"
	"github.com/robotalks/lightlink/pkg/node"
	"github.com/robotalks/lightlink/pkg/packet"
	"github.com/robotalks/lightlink/pkg/radio/link"
	"github.com/robotalks/lightlink/pkg/scheduler"
)

// Node is the protocol state machine of either role.
type Node interface {
	fx.LoopAdder
	Snapshot() node.Snapshot
}

// App is an assembled node.
type App struct {
	Config  *config.Config
	Address packet.Address
	Role    packet.Role
	Radio   *link.Radio
	Events  *bridge.Bridge
	Sched   *scheduler.Scheduler
	Display *display.Mux
	Node    Node
	Buttons *button.Source
	Console *console.Shell
}

// Dial opens the radio link of conf and assembles the node.
func Dial(ctx context.Context, conf *config.Config, role packet.Role) (*App, error) {
	addr, err := conf.Identity()
	if err != nil {
		return nil, err
	}
	glog.Infof("%s Node [%04X] address %s, link %s", role, addr.ShortID(), addr, conf.LinkURL)
	rw, err := link.Open(ctx, conf.LinkURL, addr.String())
	if err != nil {
		return nil, fmt.Errorf("open link %s error: %w", conf.LinkURL, err)
	}
	return New(conf, addr, role, rw)
}

// New assembles the node on top of rw.
func New(conf *config.Config, addr packet.Address, role packet.Role, rw link.PacketReadWriter) (*App, error) {
	a := &App{
		Config:  conf,
		Address: addr,
		Role:    role,
		Radio:   link.New(rw),
		Display: display.NewMux(&display.Log{Name: fmt.Sprintf("%s %04X", role, addr.ShortID())}),
	}
	a.Events = bridge.New(a.Radio, conf.BroadcastInterval)
	a.Radio.SetEventHandler(a.Events)
	a.Sched = scheduler.New(a.Radio, a.Events, conf.BroadcastInterval)

	if conf.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL, "lightlink-status-")
		if err != nil {
			return nil, fmt.Errorf("status MQTT URL error: %w", err)
		}
		a.Display.Add(display.NewPublisher(q, role.String(), addr.String()))
	}
	if c := conf.Coil; c.Endpoint != "" {
		a.Display.Add(display.NewCoil(c.Endpoint, byte(c.UnitID), uint16(c.Address), uint16(c.Count), c.Timeout))
	}

	switch role {
	case packet.RoleLight:
		a.Node = node.NewLight(addr, a.Radio, a.Events, a.Sched, a.Display)
		a.Sched.Start()
	case packet.RoleSwitch:
		a.Node = node.NewSwitch(addr, a.Radio, a.Events, a.Sched, a.Display)
	default:
		return nil, fmt.Errorf("unsupported role %s", role)
	}

	if conf.Button.Enabled {
		a.Buttons = button.NewSource(conf.Button.Device, a.Events)
		a.Buttons.ToggleButton = conf.Button.Toggle
		a.Buttons.StateButton = conf.Button.State
	}
	if conf.Console {
		a.Console = console.New(a.Events, a.Node)
	}
	return a, nil
}

// AddToLoop implements LoopAdder.
func (a *App) AddToLoop(loop *fx.Loop) {
	a.Events.SetWaker(loop.TriggerNext)
	loop.AddRunnable(fx.NamedRun("radio", a.Radio))
	loop.Add(a.Node, a.Display)
	if a.Buttons != nil {
		loop.AddRunnable(a.Buttons)
	}
	if a.Console != nil {
		loop.AddRunnable(a.Console)
	}
}

// Name implements Named.
func (a *App) Name() string {
	return fmt.Sprintf("%s Node [%04X]", a.Role, a.Address.ShortID())
}

// Run implements Runnable. It runs the node loop until ctx is done or
// the loop stops on a fatal error.
func (a *App) Run(ctx context.Context) error {
	loop := fx.NewLoop()
	loop.Interval = a.Config.PollInterval
	loop.Add(a)
	defer a.Radio.Stop()
	return loop.Run(ctx)
}

// Close releases the outputs.
func (a *App) Close() error {
	return a.Display.Close()
}
