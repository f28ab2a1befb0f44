// Package display provides the observational outputs of a node: the status
// indicator, the mode text and the short id. None of them feed back into
// the protocol.
package display

import (
	"fmt"
	"io"

	fx "github.com/robotalks/lightlink/pkg/framework"
)

// Display is the output capability updated after every state or status
// change. Implementations must not block the caller.
type Display interface {
	ShowStatus(on bool)
	ShowMode(text string)
	ShowID(text string)
}

// IDText formats a short id the way it is shown.
func IDText(id uint16) string {
	return fmt.Sprintf("ID:%04X", id)
}

// StatusText is the human readable status.
func StatusText(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Mux updates multiple displays.
type Mux struct {
	Displays []Display
}

// NewMux creates a Mux.
func NewMux(displays ...Display) *Mux {
	return &Mux{Displays: displays}
}

// Add adds more displays.
func (m *Mux) Add(displays ...Display) {
	m.Displays = append(m.Displays, displays...)
}

// ShowStatus implements Display.
func (m *Mux) ShowStatus(on bool) {
	for _, d := range m.Displays {
		d.ShowStatus(on)
	}
}

// ShowMode implements Display.
func (m *Mux) ShowMode(text string) {
	for _, d := range m.Displays {
		d.ShowMode(text)
	}
}

// ShowID implements Display.
func (m *Mux) ShowID(text string) {
	for _, d := range m.Displays {
		d.ShowID(text)
	}
}

// AddToLoop implements LoopAdder.
// Displays doing I/O run in the background.
func (m *Mux) AddToLoop(l *fx.Loop) {
	for _, d := range m.Displays {
		if adder, ok := d.(fx.LoopAdder); ok {
			l.Add(adder)
		} else if runnable, ok := d.(fx.Runnable); ok {
			l.AddRunnable(runnable)
		}
	}
}

// Close closes displays implementing io.Closer.
func (m *Mux) Close() error {
	var errs fx.AggregatedError
	for _, d := range m.Displays {
		if closer, ok := d.(io.Closer); ok {
			errs.Add(closer.Close())
		}
	}
	return errs.Aggregate()
}
