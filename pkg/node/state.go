// Package node implements the protocol state machines of the Light and
// Switch nodes. A node is a loop Controller: all protocol state is owned
// by the loop, interrupt context only reaches it through the bridge.
package node

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/bridge"
	"github.com/robotalks/lightlink/pkg/packet"
	"github.com/robotalks/lightlink/pkg/radio"
)

// State is the protocol state of a node.
type State int

// States
const (
	StateAdvertising State = iota
	StateReady
	StateScanning
	StateBound
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAdvertising:
		return "ADVERTISE"
	case StateReady:
		return "READY"
	case StateScanning:
		return "SCAN"
	case StateBound:
		return "BOUND"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ModeText is the short mode text shown on the display.
func (s State) ModeText() string {
	if s == StateAdvertising {
		return "ADVERT"
	}
	return s.String()
}

// Event kinds
const (
	EventStateChanging = "State changing"
	EventLedToggle     = "Led Toggle"
)

// Event is one human readable transition or toggle event.
type Event struct {
	Kind string
	Role packet.Role
	ID   uint16
	Text string
}

// String formats the event line.
func (e Event) String() string {
	return fmt.Sprintf("%s event at %s Node [%04X]. %s", e.Kind, e.Role, e.ID, e.Text)
}

// EventHandler receives events in addition to the log.
type EventHandler func(Event)

// BulbText is the event text for a status.
func BulbText(on bool) string {
	if on {
		return "Light Bulb is ON"
	}
	return "Light Bulb is OFF"
}

// ModeEventText is the event text for entering state.
func ModeEventText(s State) string {
	return "Mode: " + s.String()
}

// Snapshot is a consistent copy of a node's state for other goroutines.
type Snapshot struct {
	Role           packet.Role
	Address        packet.Address
	State          State
	Status         bool
	Peer           packet.Address
	PacketsPending int
	Sent           uint64
}

// transition is one row of a state's table. Rows are evaluated in
// trigger priority order and each consumes its trigger before acting.
// A polled row is run on every pass and consumes its trigger itself.
type transition struct {
	trigger bridge.Trigger
	polled  bool
	act     func() error
}

type table map[State][]transition

// core is shared by both roles.
type core struct {
	Address packet.Address
	Role    packet.Role
	Radio   radio.Radio
	Events  *bridge.Bridge
	OnEvent EventHandler

	state        State
	mode         State
	stateChanged bool
	status       bool
	rx           packet.Buffer
	table        table

	snapLock sync.Mutex
	snap     Snapshot
}

func (c *core) init(state State) {
	c.state, c.mode, c.stateChanged = state, state, true
	c.rx.Reset()
}

func (c *core) shortID() uint16 {
	return c.Address.ShortID()
}

func (c *core) emit(kind string, role packet.Role, id uint16, text string) {
	ev := Event{Kind: kind, Role: role, ID: id, Text: text}
	glog.Info(ev.String())
	if h := c.OnEvent; h != nil {
		h(ev)
	}
}

// changeState switches to next. The entry action runs once at the start
// of the next pass. Requests for the state already switched to are
// collapsed.
func (c *core) changeState(next State) {
	if c.state == next {
		return
	}
	c.state, c.stateChanged = next, true
	c.emit(EventStateChanging, c.Role, c.shortID(), ModeEventText(next))
}

// reportRadioErrors logs and clears accumulated radio errors.
func (c *core) reportRadioErrors() {
	if errs := c.Events.TakeRadioErrors(); errs != 0 {
		glog.Errorf("radio error occurred, events: %#x (%s)", uint64(errs), errs)
	}
}

// dispatch runs the table of the state the pass started in.
func (c *core) dispatch() error {
	for _, t := range c.table[c.state] {
		if !t.polled && !c.Events.Take(t.trigger) {
			continue
		}
		if err := t.act(); err != nil {
			return err
		}
	}
	return nil
}

// receive copies the oldest held packet into the rx buffer and releases
// it. The pending counter has already been decremented by the caller.
func (c *core) receive() bool {
	data, err := c.Radio.ReceivedPacket()
	if err != nil {
		glog.Errorf("get received packet error: %v", err)
		return false
	}
	loadErr := packet.Load(&c.rx, data)
	if err := c.Radio.ReleaseReceivedPacket(); err != nil {
		glog.Warningf("release received packet: %v", err)
	}
	if loadErr != nil {
		glog.Warningf("received packet dropped: %v", loadErr)
		return false
	}
	glog.V(3).Infof("RX %s %s", packet.DecodeAddress(&c.rx), packet.Decode(&c.rx))
	return true
}

func (c *core) updateSnapshot(peer packet.Address, sent uint64) {
	c.snapLock.Lock()
	defer c.snapLock.Unlock()
	c.snap = Snapshot{
		Role:           c.Role,
		Address:        c.Address,
		State:          c.state,
		Status:         c.status,
		Peer:           peer,
		PacketsPending: c.Events.PacketsPending(),
		Sent:           sent,
	}
}

// Snapshot returns the state as of the end of the last pass.
// It is safe to call from any goroutine.
func (c *core) Snapshot() Snapshot {
	c.snapLock.Lock()
	defer c.snapLock.Unlock()
	return c.snap
}
