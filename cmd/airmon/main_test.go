package main

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lightlink/pkg/display"
	"github.com/robotalks/lightlink/pkg/packet"
)

func TestDescribe(t *testing.T) {
	b := packet.NewBuffer()
	packet.Encode(b, packet.Frame{
		Address: packet.AddressFromUint64(0x000B57FFFE121A2B),
		Role:    packet.RoleLight,
		Command: packet.CommandStatusReport,
		Status:  true,
	})
	line := describe("air/000B57FFFE121A2B", b.Bytes())
	require.Contains(t, line, "air/000B57FFFE121A2B: [1A2B] 000B57FFFE121A2B ")
	require.Contains(t, line, packet.Decode(b).String())

	require.Contains(t, describe("air/x", []byte{1, 2}), "bad frame")

	data, err := proto.Marshal(&display.StatusEvent{Role: "Light", ID: "000B57FFFE121A2B", Mode: "READY", On: true, Seq: 3})
	require.NoError(t, err)
	line = describe("light/000B57FFFE121A2B/status", data)
	require.Contains(t, line, "[StatusEvent]")
	require.Contains(t, line, `mode:"READY"`)

	require.Equal(t, "light/x/status: cleared", describe("light/x/status", nil))
}
