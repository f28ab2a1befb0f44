package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testAddr = Address{0x00, 0x0B, 0x57, 0xFF, 0xFE, 0x12, 0x1A, 0x2B}

func TestEncodeLayout(t *testing.T) {
	b := NewBuffer()
	Encode(b, Frame{Address: testAddr, Role: RoleLight, Command: CommandStatusReport, Status: true})
	require.Equal(t, Buffer{
		0x0F,
		0x00, 0x0B, 0x57, 0xFF, 0xFE, 0x12, 0x1A, 0x2B,
		0x21,
		0x99,
		0xAA, 0xBB, 0xCC, 0xFF, 0x00,
	}, *b)

	Encode(b, Frame{Address: testAddr, Role: RoleSwitch, Command: CommandToggle})
	require.Equal(t, byte(0x90), b[OffsetControl])
	require.Equal(t, byte(0x99), b[OffsetDevice])

	Encode(b, Frame{Address: testAddr, Role: RoleLight, Command: CommandAdvertise})
	require.Equal(t, byte(0x00), b[OffsetControl])
	require.Equal(t, byte(0x98), b[OffsetDevice])
}

func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		frame Frame
	}{
		{"light advertise", Frame{Role: RoleLight, Command: CommandAdvertise}},
		{"light report off", Frame{Role: RoleLight, Command: CommandStatusReport}},
		{"light report on", Frame{Role: RoleLight, Command: CommandStatusReport, Status: true}},
		{"switch toggle", Frame{Role: RoleSwitch, Command: CommandToggle}},
		{"switch toggle ignores status", Frame{Role: RoleSwitch, Command: CommandToggle, Status: true}},
		{"switch get", Frame{Role: RoleSwitch, Command: CommandStatusGet}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.frame.Address = testAddr
			b := NewBuffer()
			Encode(b, tc.frame)
			ctl := Decode(b)
			require.Equal(t, tc.frame.Role, ctl.Role())
			require.Equal(t, tc.frame.Command, ctl.Command())
			if tc.frame.Command == CommandStatusReport {
				require.Equal(t, tc.frame.Status, ctl.Status())
			} else {
				require.False(t, ctl.Status())
				require.Zero(t, ctl.Data())
			}
			require.Equal(t, testAddr, DecodeAddress(b))
		})
	}
}

func TestAdvertiseClearsStaleStatus(t *testing.T) {
	b := NewBuffer()
	// any prior content, including every data bit set
	for i := range b {
		b[i] = 0xFF
	}
	Encode(b, Frame{Address: testAddr, Role: RoleLight, Command: CommandAdvertise})
	ctl := Decode(b)
	require.Equal(t, CommandAdvertise, ctl.Command())
	require.Equal(t, RoleLight, ctl.Role())
	require.Zero(t, ctl.Data())
	require.Zero(t, b[OffsetDevice]&DeviceModeMask)

	Encode(b, Frame{Address: testAddr, Role: RoleLight, Command: CommandStatusReport, Status: true})
	Encode(b, Frame{Address: testAddr, Role: RoleLight, Command: CommandStatusReport, Status: false})
	require.False(t, Decode(b).Status())
	require.Equal(t, DeviceModeReady, b[OffsetDevice]&DeviceModeMask)
}

func TestLoad(t *testing.T) {
	var b Buffer
	err := Load(&b, []byte{0x0F, 1, 2})
	require.Error(t, err)
	require.IsType(t, &ShortFrameError{}, err)

	src := NewBuffer()
	Encode(src, Frame{Address: testAddr, Role: RoleSwitch, Command: CommandToggle})
	require.NoError(t, Load(&b, append(src.Bytes(), 0xEE)))
	require.Equal(t, *src, b)
}

func TestAddress(t *testing.T) {
	require.Equal(t, uint16(0x1A2B), testAddr.ShortID())
	require.Equal(t, "000B57FFFE121A2B", testAddr.String())
	require.Equal(t, testAddr, AddressFromUint64(0x000B57FFFE121A2B))
	require.True(t, Address{}.IsZero())
	require.False(t, testAddr.IsZero())
}

func TestControlString(t *testing.T) {
	require.Equal(t, "Light status-report status=true", Control(0x21).String())
	require.Equal(t, "Switch toggle", Control(0x90).String())
}
