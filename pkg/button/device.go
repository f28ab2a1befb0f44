// Package button turns push buttons into edge events for the bridge.
// Buttons are read from a Linux joystick device (/dev/input/jsN), any
// gamepad or USB button box works.
package button

import (
	"errors"
	"io"
)

// ErrNoDevice is returned when no device is detected.
var ErrNoDevice = errors.New("no button device detected")

// Event is one button change read from the device.
type Event struct {
	// Init marks the synthetic events reporting the initial state.
	Init    bool
	Index   int
	Pressed bool
}

// Device represents an opened button device.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads the next button event, other events are skipped.
	ReadEvent() (Event, error)
}

// OpenFunc opens the device with index, or detects one if index < 0.
type OpenFunc func(index int) (Device, error)
