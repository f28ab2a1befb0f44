// Package link implements radio.Radio on top of a PacketReadWriter, so the
// protocol core runs on a host with MQTT, TCP or websocket standing in for
// the air.
package link

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/radio"
)

// Defaults
const (
	DefaultFIFOSize  = 16
	DefaultHoldSlots = 4
)

// Radio emulates a half-duplex packet radio.
// Received frames are held in a small ring until the owner releases them.
// Event callbacks and timer callbacks are serialized, like interrupt
// handlers on a single core.
type Radio struct {
	ReadWriter PacketReadWriter
	// FIFOSize is the transmit FIFO size in bytes, also the only accepted
	// received frame size.
	FIFOSize int

	irqLock sync.Mutex
	handler radio.EventHandler

	holdLock sync.Mutex
	hold     [][]byte
	head     int
	held     int

	busy atomic.Bool

	timerLock sync.Mutex
	timer     *time.Timer
	timerGen  uint64
}

// New creates a Radio with default FIFO size and hold slots.
func New(rw PacketReadWriter) *Radio {
	return NewWith(rw, DefaultFIFOSize, DefaultHoldSlots)
}

// NewWith creates a Radio with the FIFO size and number of hold slots.
func NewWith(rw PacketReadWriter, fifoSize, holdSlots int) *Radio {
	if holdSlots <= 0 {
		holdSlots = DefaultHoldSlots
	}
	return &Radio{
		ReadWriter: rw,
		FIFOSize:   fifoSize,
		hold:       make([][]byte, holdSlots),
	}
}

// SetEventHandler implements radio.Radio.
func (r *Radio) SetEventHandler(h radio.EventHandler) {
	r.irqLock.Lock()
	r.handler = h
	r.irqLock.Unlock()
}

// Transmit implements radio.Radio.
func (r *Radio) Transmit(buf []byte) error {
	if len(buf) > r.FIFOSize {
		return &radio.FIFOSizeError{Allocated: r.FIFOSize, Requested: len(buf)}
	}
	if !r.busy.CompareAndSwap(false, true) {
		return &radio.StatusError{Op: "transmit", Err: radio.ErrBusy}
	}
	frame := make([]byte, len(buf))
	copy(frame, buf)
	go func() {
		err := r.ReadWriter.WritePacket(frame)
		r.busy.Store(false)
		if err != nil {
			glog.V(2).Infof("tx aborted: %v", err)
			r.raise(radio.EventTxAborted)
			return
		}
		r.raise(radio.EventTxPacketSent)
	}()
	return nil
}

// ArmTimer implements radio.TimerArmer.
func (r *Radio) ArmTimer(delay time.Duration, expired func()) {
	r.timerLock.Lock()
	defer r.timerLock.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(delay, func() {
		r.timerLock.Lock()
		current := gen == r.timerGen
		r.timerLock.Unlock()
		// a replaced timer may already be running
		if !current {
			return
		}
		r.irqLock.Lock()
		defer r.irqLock.Unlock()
		expired()
	})
}

// ReceivedPacket implements radio.Radio.
func (r *Radio) ReceivedPacket() ([]byte, error) {
	r.holdLock.Lock()
	defer r.holdLock.Unlock()
	if r.held == 0 {
		return nil, radio.ErrInvalidHandle
	}
	return r.hold[r.head], nil
}

// ReleaseReceivedPacket implements radio.Radio.
func (r *Radio) ReleaseReceivedPacket() error {
	r.holdLock.Lock()
	defer r.holdLock.Unlock()
	if r.held == 0 {
		return &radio.StatusError{Op: "release", Err: radio.ErrInvalidHandle}
	}
	r.hold[r.head] = nil
	r.head = (r.head + 1) % len(r.hold)
	r.held--
	return nil
}

// Held returns the number of frames currently held.
func (r *Radio) Held() int {
	r.holdLock.Lock()
	defer r.holdLock.Unlock()
	return r.held
}

// Run implements Runnable. It is the receive side of the radio.
// Losing the link is fatal to the node.
func (r *Radio) Run(ctx context.Context) error {
	var err error
	if closer, ok := r.ReadWriter.(io.Closer); ok {
		err = fx.RunWithContextCloser(ctx, closer, r.receive)
	} else {
		err = fx.RunWithContext(ctx, r.receive)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fx.Fatal(fmt.Errorf("radio link lost: %w", err))
}

// Stop cancels the pending timer.
func (r *Radio) Stop() {
	r.timerLock.Lock()
	defer r.timerLock.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerGen++
}

func (r *Radio) receive() error {
	for {
		pkt, err := r.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		r.raise(r.deliver(pkt))
	}
}

func (r *Radio) deliver(pkt []byte) radio.Events {
	if len(pkt) != r.FIFOSize {
		glog.V(2).Infof("rx frame error: %d bytes", len(pkt))
		return radio.EventRxFrameError
	}
	r.holdLock.Lock()
	defer r.holdLock.Unlock()
	if r.held >= len(r.hold) {
		return radio.EventRxFIFOOverflow
	}
	r.hold[(r.head+r.held)%len(r.hold)] = pkt
	r.held++
	return radio.EventRxPacketReceived
}

func (r *Radio) raise(ev radio.Events) {
	r.irqLock.Lock()
	defer r.irqLock.Unlock()
	if h := r.handler; h != nil {
		h.HandleRadioEvents(ev)
	}
}
