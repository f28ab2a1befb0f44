//go:build !linux

package button

// Open is not supported on this platform.
func Open(index int) (Device, error) {
	return nil, ErrNoDevice
}
