package button

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lightlink/pkg/bridge"
	fx "github.com/robotalks/lightlink/pkg/framework"
)

// DefaultRetryInterval is the delay before reopening the device.
const DefaultRetryInterval = time.Second

// Handler receives button edges, implemented by bridge.Bridge.
type Handler interface {
	ButtonChanged(button bridge.Button, pressed bool)
}

// Source reads a button device and reports the mapped buttons.
type Source struct {
	DeviceIndex   int
	ToggleButton  int
	StateButton   int
	RetryInterval time.Duration
	Handler       Handler
	Open          OpenFunc
}

// NewSource creates a Source on the device with index, -1 to detect.
func NewSource(index int, h Handler) *Source {
	return &Source{
		DeviceIndex:   index,
		ToggleButton:  0,
		StateButton:   1,
		RetryInterval: DefaultRetryInterval,
		Handler:       h,
		Open:          Open,
	}
}

// Name implements Named.
func (s *Source) Name() string {
	return "buttons"
}

// Run implements Runnable. A device that fails or disappears is reopened.
func (s *Source) Run(ctx context.Context) error {
	retry := s.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	for {
		dev, err := s.Open(s.DeviceIndex)
		if err != nil {
			glog.V(1).Infof("open button device %d: %v", s.DeviceIndex, err)
		} else {
			glog.Infof("button device %d %q opened, %d buttons", dev.Index(), dev.Name(), dev.ButtonCount())
			err = fx.RunWithContextCloser(ctx, dev, func() error {
				return s.poll(dev)
			})
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("button device %d read error: %v", dev.Index(), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (s *Source) poll(dev Device) error {
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		s.handle(ev)
	}
}

func (s *Source) handle(ev Event) {
	// the initial state is not an edge
	if ev.Init {
		return
	}
	glog.V(2).Infof("button %d pressed=%v", ev.Index, ev.Pressed)
	switch ev.Index {
	case s.ToggleButton:
		s.Handler.ButtonChanged(bridge.ButtonToggle, ev.Pressed)
	case s.StateButton:
		s.Handler.ButtonChanged(bridge.ButtonState, ev.Pressed)
	}
}
