package packet

import "fmt"

// ShortFrameError indicates a received frame is shorter than Size.
type ShortFrameError struct {
	Len int
}

// Error implements error.
func (e *ShortFrameError) Error() string {
	return fmt.Sprintf("short frame: %d bytes, want %d", e.Len, Size)
}
