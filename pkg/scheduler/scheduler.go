// Package scheduler owns the transmit buffer and decides when a frame goes
// on the air: either as the periodic heartbeat or immediately.
package scheduler

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/bridge"
	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/packet"
	"github.com/robotalks/lightlink/pkg/radio"
)

// Scheduler transmits frames from a single reused buffer.
// All methods are loop side.
type Scheduler struct {
	Radio    radio.Radio
	Events   *bridge.Bridge
	Interval time.Duration

	tx   packet.Buffer
	sent uint64
}

// New creates a Scheduler.
func New(r radio.Radio, events *bridge.Bridge, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = bridge.DefaultBroadcastInterval
	}
	s := &Scheduler{Radio: r, Events: events, Interval: interval}
	s.tx.Reset()
	return s
}

// Start marks the first heartbeat due so it goes out on the first pass.
func (s *Scheduler) Start() {
	s.Events.ScheduleBroadcast()
}

// ScheduleOrFire transmits f if a broadcast is due and arms the next
// heartbeat. It reports whether a broadcast was due. Calling it twice
// for one due broadcast transmits once.
func (s *Scheduler) ScheduleOrFire(f packet.Frame) (bool, error) {
	if !s.Events.Take(bridge.TriggerBroadcast) {
		return false, nil
	}
	s.Radio.ArmTimer(s.Interval, s.Events.TimerExpired)
	return true, s.Send(f)
}

// Send encodes f into the transmit buffer and submits it right away.
// A buffer sizing failure is fatal, any other failure is logged and left
// to the next heartbeat.
func (s *Scheduler) Send(f packet.Frame) error {
	packet.Encode(&s.tx, f)
	err := s.Radio.Transmit(s.tx.Bytes())
	if err == nil {
		s.sent++
		glog.V(3).Infof("TX %s %s", f.Address, packet.Decode(&s.tx))
		return nil
	}
	var sizeErr *radio.FIFOSizeError
	if errors.As(err, &sizeErr) {
		return fx.Fatal(err)
	}
	glog.Warningf("transmit failed: %v", err)
	return nil
}

// Sent returns the number of frames submitted successfully.
func (s *Scheduler) Sent() uint64 {
	return s.sent
}
