// Package radio defines the narrow radio capability the protocol core
// drives, and the event bits the radio reports.
package radio

import (
	"fmt"
	"time"
)

// Events is the bitmask of radio events delivered to an EventHandler.
type Events uint64

// Radio events
const (
	EventRxPacketReceived Events = 1 << iota
	EventRxFrameError
	EventRxFIFOOverflow
	EventRxAddressFiltered
	EventRxPacketAborted
	EventTxPacketSent
	EventTxAborted
	EventTxBlocked
	EventTxUnderflow
)

// Event classes
const (
	EventsRxCompletion = EventRxPacketReceived |
		EventRxFrameError |
		EventRxFIFOOverflow |
		EventRxAddressFiltered |
		EventRxPacketAborted
	EventsTxCompletion = EventTxPacketSent |
		EventTxAborted |
		EventTxBlocked |
		EventTxUnderflow
)

var eventNames = []string{
	"rx-packet-received",
	"rx-frame-error",
	"rx-fifo-overflow",
	"rx-address-filtered",
	"rx-packet-aborted",
	"tx-packet-sent",
	"tx-aborted",
	"tx-blocked",
	"tx-underflow",
}

// String implements fmt.Stringer.
func (e Events) String() string {
	if e == 0 {
		return "none"
	}
	s := fmt.Sprintf("0x%x[", uint64(e))
	first := true
	for n, name := range eventNames {
		if e&(1<<uint(n)) == 0 {
			continue
		}
		if !first {
			s += ","
		}
		s += name
		first = false
	}
	return s + "]"
}

// EventHandler is called by the radio when events occur. It is called
// from the radio's own context and must not block or call back into the
// radio's transmit or receive path.
type EventHandler interface {
	HandleRadioEvents(Events)
}

// HandleEventsFunc is the func form of EventHandler.
type HandleEventsFunc func(Events)

// HandleRadioEvents implements EventHandler.
func (f HandleEventsFunc) HandleRadioEvents(ev Events) {
	f(ev)
}

// TimerArmer arms the radio's single one-shot timer. Arming again
// replaces the pending expiry. The callback runs in the radio's context.
type TimerArmer interface {
	ArmTimer(delay time.Duration, expired func())
}

// Radio is the capability the protocol core depends on.
type Radio interface {
	TimerArmer

	// Transmit loads buf into the transmit FIFO and starts transmission.
	// It returns immediately; completion is reported later as
	// EventTxPacketSent or one of the tx failure events.
	// A *FIFOSizeError means the radio could not allocate a FIFO of
	// len(buf) bytes.
	Transmit(buf []byte) error
	// ReceivedPacket returns the oldest complete packet held by the radio.
	// The returned slice is owned by the radio and stays valid until
	// ReleaseReceivedPacket. ErrInvalidHandle is returned if none is held.
	ReceivedPacket() ([]byte, error)
	// ReleaseReceivedPacket releases the oldest held packet.
	ReleaseReceivedPacket() error
	// SetEventHandler registers the event callback.
	SetEventHandler(EventHandler)
}
