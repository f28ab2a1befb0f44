package console

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lightlink/pkg/bridge"
	"github.com/robotalks/lightlink/pkg/node"
	"github.com/robotalks/lightlink/pkg/packet"
)

type fixedSnapshot node.Snapshot

func (s fixedSnapshot) Snapshot() node.Snapshot {
	return node.Snapshot(s)
}

var snap = node.Snapshot{
	Role:    packet.RoleLight,
	Address: packet.AddressFromUint64(0x000B57FFFE121A2B),
	State:   node.StateReady,
	Status:  true,
	Peer:    packet.AddressFromUint64(0x000B57FFFE343C4D),
	Sent:    7,
}

func TestCommandsRaiseRequests(t *testing.T) {
	b := bridge.New(nil, 0)
	s := New(b, fixedSnapshot(snap))

	require.NoError(t, s.Process("toggle"))
	require.True(t, b.Take(bridge.TriggerRemoteToggle))
	require.NoError(t, s.Process("t"))
	require.True(t, b.Take(bridge.TriggerRemoteToggle))

	require.NoError(t, s.Process("state"))
	require.True(t, b.Take(bridge.TriggerRemoteSwitch))
	require.False(t, b.Pending(bridge.TriggerLocalSwitch))

	require.NoError(t, s.Process("status"))
	require.NoError(t, s.Process("info"))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "Light[1A2B] > ", Prompt(snap))
	require.Equal(t, "Light Node [1A2B] READY, bulb ON, peer [3C4D]", FormatSnapshot(snap))

	unbound := node.Snapshot{Role: packet.RoleSwitch, Address: snap.Peer, State: node.StateScanning}
	require.Equal(t, "Switch Node [3C4D] SCAN, bulb OFF", FormatSnapshot(unbound))

	require.Contains(t, FormatInfo(snap), "address: 000B57FFFE121A2B\n")
	require.Contains(t, FormatInfo(snap), "sent:    7 frames")
}
