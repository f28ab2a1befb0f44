package radio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle indicates no complete packet is held by the radio.
	ErrInvalidHandle = errors.New("invalid rx packet handle")
	// ErrBusy indicates a transmission is still in progress.
	ErrBusy = errors.New("radio busy")
	// ErrClosed indicates the radio link has been closed.
	ErrClosed = errors.New("radio closed")
)

// FIFOSizeError indicates the radio allocated a transmit FIFO of a
// different size than requested. This is a misconfiguration.
type FIFOSizeError struct {
	Allocated int
	Requested int
}

// Error implements error.
func (e *FIFOSizeError) Error() string {
	return fmt.Sprintf("tx fifo allocation failed: %d bytes instead of %d bytes", e.Allocated, e.Requested)
}

// StatusError is a non-success status returned by a radio primitive.
type StatusError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *StatusError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StatusError) Unwrap() error {
	return e.Err
}
