// Package stub implements radio.Radio in memory for host-side testing.
package stub

import (
	"sync"
	"time"

	"github.com/robotalks/lightlink/pkg/radio"
)

// Radio records transmitted frames and holds injected ones.
// Nothing happens asynchronously: events are delivered from the caller
// of InjectRx, CompleteTx and FireTimer.
type Radio struct {
	FIFOSize int
	// TxErr is returned by the next Transmit calls when set.
	TxErr error

	mu       sync.Mutex
	handler  radio.EventHandler
	txLog    [][]byte
	rx       [][]byte
	armed    []time.Duration
	expired  func()
	releases int
}

// New creates a stub Radio with a FIFO of fifoSize bytes.
func New(fifoSize int) *Radio {
	return &Radio{FIFOSize: fifoSize}
}

// SetEventHandler implements radio.Radio.
func (r *Radio) SetEventHandler(h radio.EventHandler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Transmit implements radio.Radio.
func (r *Radio) Transmit(buf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FIFOSize > 0 && len(buf) > r.FIFOSize {
		return &radio.FIFOSizeError{Allocated: r.FIFOSize, Requested: len(buf)}
	}
	if r.TxErr != nil {
		return r.TxErr
	}
	frame := make([]byte, len(buf))
	copy(frame, buf)
	r.txLog = append(r.txLog, frame)
	return nil
}

// ArmTimer implements radio.TimerArmer.
func (r *Radio) ArmTimer(delay time.Duration, expired func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = append(r.armed, delay)
	r.expired = expired
}

// ReceivedPacket implements radio.Radio.
func (r *Radio) ReceivedPacket() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rx) == 0 {
		return nil, radio.ErrInvalidHandle
	}
	return r.rx[0], nil
}

// ReleaseReceivedPacket implements radio.Radio.
func (r *Radio) ReleaseReceivedPacket() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rx) == 0 {
		return &radio.StatusError{Op: "release", Err: radio.ErrInvalidHandle}
	}
	r.rx = r.rx[1:]
	r.releases++
	return nil
}

// InjectRx holds a copy of data and signals EventRxPacketReceived.
func (r *Radio) InjectRx(data []byte) {
	frame := make([]byte, len(data))
	copy(frame, data)
	r.mu.Lock()
	r.rx = append(r.rx, frame)
	r.mu.Unlock()
	r.Raise(radio.EventRxPacketReceived)
}

// Raise delivers ev to the registered handler.
func (r *Radio) Raise(ev radio.Events) {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		h.HandleRadioEvents(ev)
	}
}

// FireTimer runs the pending timer callback, if armed, and reports
// whether one was armed.
func (r *Radio) FireTimer() bool {
	r.mu.Lock()
	fn := r.expired
	r.expired = nil
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// GetTxLog returns copies of all transmitted frames.
func (r *Radio) GetTxLog() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.txLog))
	for n, frame := range r.txLog {
		out[n] = append([]byte(nil), frame...)
	}
	return out
}

// ClearTxLog forgets transmitted frames.
func (r *Radio) ClearTxLog() {
	r.mu.Lock()
	r.txLog = nil
	r.mu.Unlock()
}

// Armed returns the delays of every ArmTimer call.
func (r *Radio) Armed() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.armed...)
}

// Held returns the number of injected frames not released.
func (r *Radio) Held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rx)
}

// Releases returns the number of successful releases.
func (r *Radio) Releases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases
}
