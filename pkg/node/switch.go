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

// Switch is the controller node. It listens passively until it hears a
// Light, binds to it and mirrors its reported status. Toggles are sent
// to the bound Light as commands, the Light's next report confirms them.
type Switch struct {
	core
	Sched   *scheduler.Scheduler
	Display display.Display

	light      packet.Address
	lightKnown bool
}

// NewSwitch creates a Switch in Scanning.
func NewSwitch(addr packet.Address, r radio.Radio, events *bridge.Bridge, sched *scheduler.Scheduler, d display.Display) *Switch {
	s := &Switch{Sched: sched, Display: d}
	s.Address, s.Role, s.Radio, s.Events = addr, packet.RoleSwitch, r, events
	s.init(StateScanning)
	s.table = table{
		StateScanning: {
			{trigger: bridge.TriggerPacket, act: s.scan},
			{trigger: bridge.TriggerRemoteSwitch, act: s.bind},
			{trigger: bridge.TriggerLocalSwitch, act: s.bind},
		},
		StateBound: {
			{trigger: bridge.TriggerPacket, act: s.track},
			{trigger: bridge.TriggerRemoteSwitch, act: s.unbind},
			{trigger: bridge.TriggerRemoteToggle, act: s.sendToggle},
			{trigger: bridge.TriggerLocalSwitch, act: s.unbind},
			{trigger: bridge.TriggerLocalToggle, act: s.sendToggle},
		},
	}
	s.updateSnapshot(s.light, 0)
	return s
}

// AddToLoop implements LoopAdder.
func (s *Switch) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvProtocol, s)
}

// Control implements Controller.
func (s *Switch) Control(cc fx.ControlContext) error {
	err := s.Step()
	if s.Events.Pending(bridge.TriggerPacket) {
		cc.TriggerNext()
	}
	return err
}

// Step runs one pass without a loop.
func (s *Switch) Step() error {
	defer func() { s.updateSnapshot(s.light, s.Sched.Sent()) }()
	s.reportRadioErrors()
	if s.stateChanged {
		s.mode, s.stateChanged = s.state, false
		s.displayAll()
	}
	return s.dispatch()
}

// State returns the current state. Loop side.
func (s *Switch) State() State {
	return s.state
}

// Status returns the last status reported by the bound Light. Loop side.
func (s *Switch) Status() bool {
	return s.status
}

// Light returns the address of the Light heard last. Loop side.
func (s *Switch) Light() (packet.Address, bool) {
	return s.light, s.lightKnown
}

func (s *Switch) displayAll() {
	if s.Display == nil {
		return
	}
	s.Display.ShowMode(s.mode.ModeText())
	s.Display.ShowID(display.IDText(s.shortID()))
	s.Display.ShowStatus(s.status)
}

// heardLight loads a received packet and reports it if sent by a Light.
func (s *Switch) heardLight() (packet.Address, packet.Control, bool) {
	if !s.receive() {
		return packet.Address{}, 0, false
	}
	ctl := packet.Decode(&s.rx)
	if ctl.Role() != packet.RoleLight {
		return packet.Address{}, 0, false
	}
	return packet.DecodeAddress(&s.rx), ctl, true
}

// scan binds to the first Light heard.
func (s *Switch) scan() error {
	addr, ctl, ok := s.heardLight()
	if !ok {
		return nil
	}
	s.light, s.lightKnown = addr, true
	if ctl.Command() == packet.CommandStatusReport {
		s.status = ctl.Status()
	}
	s.changeState(StateBound)
	return nil
}

func (s *Switch) bind() error {
	if !s.lightKnown {
		glog.Warningf("Switch Node [%04X]: no Light heard yet", s.shortID())
		return nil
	}
	s.changeState(StateBound)
	return nil
}

func (s *Switch) unbind() error {
	s.changeState(StateScanning)
	return nil
}

// track mirrors status reports of the bound Light.
func (s *Switch) track() error {
	addr, ctl, ok := s.heardLight()
	if !ok || addr != s.light || ctl.Command() != packet.CommandStatusReport {
		return nil
	}
	if on := ctl.Status(); on != s.status {
		s.status = on
		s.displayAll()
		s.emit(EventLedToggle, packet.RoleLight, addr.ShortID(), BulbText(on))
	}
	return nil
}

func (s *Switch) sendToggle() error {
	err := s.Sched.Send(packet.Frame{Address: s.Address, Role: packet.RoleSwitch, Command: packet.CommandToggle})
	if err != nil {
		return err
	}
	s.emit(EventLedToggle, s.Role, s.shortID(), BulbText(!s.status))
	return nil
}
