package node

import (
	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/bridge"
	"github.com/robotalks/lightlink/pkg/display"
	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/packet"
	"github.com/robotalks/lightlink/pkg/radio"
	"github.com/robotalks/lightlink/pkg/scheduler"
)

// Light is the status holding node. It advertises itself until switched
// to Ready, then owns the bulb status: toggles from the button, the
// console or any received packet flip it, and every heartbeat
// republishes it.
type Light struct {
	core
	Sched   *scheduler.Scheduler
	Display display.Display

	peer packet.Address
}

// NewLight creates a Light in Advertising with the bulb off.
func NewLight(addr packet.Address, r radio.Radio, events *bridge.Bridge, sched *scheduler.Scheduler, d display.Display) *Light {
	l := &Light{Sched: sched, Display: d}
	l.Address, l.Role, l.Radio, l.Events = addr, packet.RoleLight, r, events
	l.init(StateAdvertising)
	l.table = table{
		StateAdvertising: {
			{trigger: bridge.TriggerPacket, act: l.storePeer},
			{trigger: bridge.TriggerBroadcast, polled: true, act: l.broadcast},
			{trigger: bridge.TriggerRemoteSwitch, act: l.switchTo(StateReady)},
			{trigger: bridge.TriggerLocalSwitch, act: l.switchTo(StateReady)},
		},
		StateReady: {
			{trigger: bridge.TriggerPacket, act: l.remoteToggle},
			{trigger: bridge.TriggerBroadcast, polled: true, act: l.broadcast},
			{trigger: bridge.TriggerRemoteSwitch, act: l.switchTo(StateAdvertising)},
			{trigger: bridge.TriggerRemoteToggle, act: l.consoleToggle},
			{trigger: bridge.TriggerLocalSwitch, act: l.switchTo(StateAdvertising)},
			{trigger: bridge.TriggerLocalToggle, act: l.buttonToggle},
		},
	}
	l.updateSnapshot(l.peer, 0)
	return l
}

// AddToLoop implements LoopAdder.
func (l *Light) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvProtocol, l)
}

// Control implements Controller. It is one pass of the state machine.
func (l *Light) Control(cc fx.ControlContext) error {
	err := l.Step()
	if l.Events.Pending(bridge.TriggerPacket) {
		cc.TriggerNext()
	}
	return err
}

// Step runs one pass without a loop.
func (l *Light) Step() error {
	defer func() { l.updateSnapshot(l.peer, l.Sched.Sent()) }()
	l.reportRadioErrors()
	if l.stateChanged {
		l.mode, l.stateChanged = l.state, false
		l.displayAll()
	}
	return l.dispatch()
}

// State returns the current state. Loop side.
func (l *Light) State() State {
	return l.state
}

// Status returns the bulb status. Loop side.
func (l *Light) Status() bool {
	return l.status
}

// Peer returns the address of the last peer heard. Loop side.
func (l *Light) Peer() packet.Address {
	return l.peer
}

func (l *Light) frame() packet.Frame {
	f := packet.Frame{Address: l.Address, Role: packet.RoleLight}
	if l.mode == StateAdvertising {
		f.Command = packet.CommandAdvertise
	} else {
		f.Command, f.Status = packet.CommandStatusReport, l.status
	}
	return f
}

func (l *Light) displayAll() {
	if l.Display == nil {
		return
	}
	l.Display.ShowMode(l.mode.ModeText())
	l.Display.ShowID(display.IDText(l.shortID()))
	l.Display.ShowStatus(l.status)
}

func (l *Light) flip() {
	l.status = !l.status
	l.displayAll()
}

func (l *Light) switchTo(next State) func() error {
	return func() error {
		l.changeState(next)
		return nil
	}
}

func (l *Light) storePeer() error {
	if l.receive() {
		l.peer = packet.DecodeAddress(&l.rx)
		glog.V(1).Infof("peer %s heard while advertising", l.peer)
	}
	return nil
}

func (l *Light) broadcast() error {
	_, err := l.Sched.ScheduleOrFire(l.frame())
	return err
}

// remoteToggle handles a packet from the Switch in Ready.
func (l *Light) remoteToggle() error {
	if !l.receive() {
		return nil
	}
	l.peer = packet.DecodeAddress(&l.rx)
	l.flip()
	l.Events.ScheduleBroadcast()
	l.emit(EventLedToggle, packet.RoleSwitch, l.peer.ShortID(), BulbText(l.status))
	return nil
}

// consoleToggle sends the status before flipping it, the rescheduled
// heartbeat publishes the new one.
func (l *Light) consoleToggle() error {
	if err := l.Sched.Send(l.frame()); err != nil {
		return err
	}
	l.flip()
	l.Events.ScheduleBroadcast()
	l.emit(EventLedToggle, l.Role, l.shortID(), BulbText(l.status))
	return nil
}

func (l *Light) buttonToggle() error {
	l.flip()
	if err := l.Sched.Send(l.frame()); err != nil {
		return err
	}
	l.emit(EventLedToggle, l.Role, l.shortID(), BulbText(l.status))
	return nil
}
