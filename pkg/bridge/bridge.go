// Package bridge hands radio, timer, button and console notifications over
// to the processing loop.
//
// Every entry point of Bridge except the ones documented as loop side may
// be called from any context: it only touches atomic counters and flags,
// never blocks, and never calls into the radio transmit or receive path.
package bridge

import (
	"sync/atomic"
	"time"

	"github.com/robotalks/lightlink/pkg/radio"
)

// DefaultBroadcastInterval is the heartbeat period.
const DefaultBroadcastInterval = time.Second

// Trigger names one pending signal. Triggers are declared in the order
// the state machine evaluates them within a pass.
type Trigger int

// Triggers in priority order
const (
	TriggerPacket Trigger = iota
	TriggerBroadcast
	TriggerRemoteSwitch
	TriggerRemoteToggle
	TriggerLocalSwitch
	TriggerLocalToggle

	numTriggers
)

var triggerNames = [numTriggers]string{
	"packet",
	"broadcast",
	"remote-switch",
	"remote-toggle",
	"local-switch",
	"local-toggle",
}

// String implements fmt.Stringer.
func (t Trigger) String() string {
	if t >= 0 && t < numTriggers {
		return triggerNames[t]
	}
	return "unknown"
}

// Triggers returns all triggers in priority order.
func Triggers() []Trigger {
	triggers := make([]Trigger, numTriggers)
	for n := range triggers {
		triggers[n] = Trigger(n)
	}
	return triggers
}

// Button identifies a physical push button.
type Button int

// Buttons
const (
	ButtonToggle Button = iota
	ButtonState
)

// Bridge holds the pending events shared between interrupt context and
// the loop.
type Bridge struct {
	// Timer re-arms the heartbeat when it expires.
	Timer    radio.TimerArmer
	Interval time.Duration

	packetsPending atomic.Int64
	flags          [numTriggers]atomic.Bool
	radioErrors    atomic.Uint64
	waker          atomic.Pointer[func()]
}

// New creates a Bridge re-arming timer with interval.
func New(timer radio.TimerArmer, interval time.Duration) *Bridge {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &Bridge{Timer: timer, Interval: interval}
}

// SetWaker registers fn to be called after every signal, usually the
// loop's TriggerNext so pending events are handled without waiting for
// the next poll.
func (b *Bridge) SetWaker(fn func()) {
	if fn == nil {
		b.waker.Store(nil)
		return
	}
	b.waker.Store(&fn)
}

// HandleRadioEvents implements radio.EventHandler.
func (b *Bridge) HandleRadioEvents(ev radio.Events) {
	if ev&radio.EventRxPacketReceived != 0 {
		b.packetsPending.Add(1)
	}
	if errs := ev &^ (radio.EventRxPacketReceived | radio.EventTxPacketSent); errs != 0 {
		b.orRadioErrors(uint64(errs))
	}
	b.wake()
}

// TimerExpired is the heartbeat timer callback.
func (b *Bridge) TimerExpired() {
	b.flags[TriggerBroadcast].Store(true)
	if b.Timer != nil {
		b.Timer.ArmTimer(b.Interval, b.TimerExpired)
	}
	b.wake()
}

// ButtonChanged is the button callback. Only the pressed edge counts.
func (b *Bridge) ButtonChanged(button Button, pressed bool) {
	if !pressed {
		return
	}
	switch button {
	case ButtonToggle:
		b.flags[TriggerLocalToggle].Store(true)
	case ButtonState:
		b.flags[TriggerLocalSwitch].Store(true)
	default:
		return
	}
	b.wake()
}

// RequestToggle is raised by the administrative console.
func (b *Bridge) RequestToggle() {
	b.flags[TriggerRemoteToggle].Store(true)
	b.wake()
}

// RequestStateChange is raised by the administrative console.
func (b *Bridge) RequestStateChange() {
	b.flags[TriggerRemoteSwitch].Store(true)
	b.wake()
}

// ScheduleBroadcast marks a broadcast due for the next pass.
// Loop side.
func (b *Bridge) ScheduleBroadcast() {
	b.flags[TriggerBroadcast].Store(true)
}

// Pending reports whether trigger is pending without consuming it.
func (b *Bridge) Pending(trigger Trigger) bool {
	if trigger == TriggerPacket {
		return b.packetsPending.Load() > 0
	}
	if trigger < 0 || trigger >= numTriggers {
		return false
	}
	return b.flags[trigger].Load()
}

// Take consumes one occurrence of trigger and reports whether there was
// one. A packet is taken by decrementing the counter, which never goes
// below zero. Loop side.
func (b *Bridge) Take(trigger Trigger) bool {
	if trigger == TriggerPacket {
		for {
			n := b.packetsPending.Load()
			if n <= 0 {
				return false
			}
			if b.packetsPending.CompareAndSwap(n, n-1) {
				return true
			}
		}
	}
	if trigger < 0 || trigger >= numTriggers {
		return false
	}
	return b.flags[trigger].Swap(false)
}

// PacketsPending returns the number of packets signaled but not taken.
func (b *Bridge) PacketsPending() int {
	return int(b.packetsPending.Load())
}

// TakeRadioErrors returns the accumulated radio error bits and clears them.
// Loop side.
func (b *Bridge) TakeRadioErrors() radio.Events {
	return radio.Events(b.radioErrors.Swap(0))
}

func (b *Bridge) orRadioErrors(bits uint64) {
	for {
		old := b.radioErrors.Load()
		if old&bits == bits || b.radioErrors.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

func (b *Bridge) wake() {
	if fn := b.waker.Load(); fn != nil {
		(*fn)()
	}
}
