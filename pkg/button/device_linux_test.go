//go:build linux

package button

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		ev   Event
		ok   bool
	}{
		{"button pressed", []byte{0, 0, 0, 0, 1, 0, 0x01, 2}, Event{Index: 2, Pressed: true}, true},
		{"button released", []byte{0, 0, 0, 0, 0, 0, 0x01, 1}, Event{Index: 1}, true},
		{"init button", []byte{0, 0, 0, 0, 1, 0, 0x81, 0}, Event{Init: true, Pressed: true}, true},
		{"axis", []byte{0, 0, 0, 0, 0xff, 0x7f, 0x02, 0}, Event{}, false},
		{"short", []byte{0, 0}, Event{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := decodeEvent(tc.data)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.ev, ev)
		})
	}
}
