package node

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lightlink/pkg/bridge"
	fx "github.com/robotalks/lightlink/pkg/framework"
	"github.com/robotalks/lightlink/pkg/packet"
	"github.com/robotalks/lightlink/pkg/radio"
)

func newLight(t *testing.T) (*Light, *harness) {
	h := newHarness(packet.Size)
	l := NewLight(lightAddr, h.radio, h.events, h.sched, h.display)
	l.OnEvent = h.onEvent
	require.NoError(t, l.Step())
	require.Equal(t, StateAdvertising, l.State())
	require.Equal(t, 1, h.display.Updates())
	require.Equal(t, "ADVERT", h.display.Mode())
	require.Equal(t, "ID:1A2B", h.display.ID())
	require.False(t, h.display.Status())
	return l, h
}

func readyLight(t *testing.T) (*Light, *harness) {
	l, h := newLight(t)
	h.events.RequestStateChange()
	require.NoError(t, l.Step())
	require.NoError(t, l.Step())
	require.Equal(t, StateReady, l.State())
	require.Equal(t, "READY", h.display.Mode())
	h.clear()
	return l, h
}

func TestLightHeartbeat(t *testing.T) {
	l, h := newLight(t)
	h.sched.Start()
	require.NoError(t, l.Step())
	txs := h.tx(t)
	require.Len(t, txs, 1)
	ctl := packet.Decode(&txs[0])
	require.Equal(t, packet.RoleLight, ctl.Role())
	require.Equal(t, packet.CommandAdvertise, ctl.Command())
	require.Zero(t, ctl.Data())
	require.Equal(t, lightAddr, packet.DecodeAddress(&txs[0]))
	require.Equal(t, []time.Duration{time.Second}, h.radio.Armed())

	// nothing due, nothing sent
	require.NoError(t, l.Step())
	require.Len(t, h.tx(t), 1)

	require.True(t, h.radio.FireTimer())
	require.NoError(t, l.Step())
	require.Len(t, h.tx(t), 2)
}

func TestLightAdvertisingStoresPeer(t *testing.T) {
	l, h := newLight(t)
	h.radio.InjectRx(encode(packet.Frame{Address: switchAddr, Role: packet.RoleSwitch, Command: packet.CommandToggle}))
	require.Equal(t, 1, h.events.PacketsPending())

	require.NoError(t, l.Step())
	require.Equal(t, switchAddr, l.Peer())
	require.Zero(t, h.events.PacketsPending())
	require.Zero(t, h.radio.Held())
	require.Equal(t, StateAdvertising, l.State())
	require.False(t, l.Status())
	require.Empty(t, h.log)
}

func TestLightStateChangeEntersOnce(t *testing.T) {
	testCases := []struct {
		name    string
		request func(*bridge.Bridge)
	}{
		{"console", func(b *bridge.Bridge) { b.RequestStateChange() }},
		{"button", func(b *bridge.Bridge) { b.ButtonChanged(bridge.ButtonState, true) }},
		{"both", func(b *bridge.Bridge) {
			b.RequestStateChange()
			b.ButtonChanged(bridge.ButtonState, true)
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, h := newLight(t)
			tc.request(h.events)
			require.NoError(t, l.Step())
			require.Equal(t, StateReady, l.State())
			require.Equal(t, []string{"State changing event at Light Node [1A2B]. Mode: READY"}, h.lines())

			require.NoError(t, l.Step())
			require.Equal(t, 2, h.display.Updates())
			require.Equal(t, []string{"ADVERT", "READY"}, h.display.Modes())

			require.NoError(t, l.Step())
			require.Equal(t, 2, h.display.Updates())
			require.Len(t, h.log, 1)
			require.False(t, h.events.Pending(bridge.TriggerLocalSwitch))
			require.False(t, h.events.Pending(bridge.TriggerRemoteSwitch))
		})
	}
}

func TestLightBackToAdvertising(t *testing.T) {
	l, h := readyLight(t)
	h.events.ButtonChanged(bridge.ButtonState, true)
	require.NoError(t, l.Step())
	require.Equal(t, StateAdvertising, l.State())
	require.Equal(t, []string{"State changing event at Light Node [1A2B]. Mode: ADVERTISE"}, h.lines())
	require.NoError(t, l.Step())
	require.Equal(t, "ADVERT", h.display.Mode())
}

func TestLightButtonToggle(t *testing.T) {
	l, h := readyLight(t)
	updates := h.display.Updates()
	h.events.ButtonChanged(bridge.ButtonToggle, true)
	require.NoError(t, l.Step())

	txs := h.tx(t)
	require.Len(t, txs, 1)
	ctl := packet.Decode(&txs[0])
	require.Equal(t, packet.CommandStatusReport, ctl.Command())
	require.True(t, ctl.Status())
	require.True(t, l.Status())
	require.Equal(t, updates+1, h.display.Updates())
	require.True(t, h.display.Status())
	require.Equal(t, []string{"Led Toggle event at Light Node [1A2B]. Light Bulb is ON"}, h.lines())

	// released edge does nothing
	h.events.ButtonChanged(bridge.ButtonToggle, false)
	require.NoError(t, l.Step())
	require.True(t, l.Status())
	require.Len(t, h.tx(t), 1)
}

func TestLightPacketTogglesAndBroadcasts(t *testing.T) {
	l, h := readyLight(t)
	h.radio.InjectRx(encode(packet.Frame{Address: switchAddr, Role: packet.RoleSwitch, Command: packet.CommandToggle}))
	require.NoError(t, l.Step())

	require.True(t, l.Status())
	require.Equal(t, switchAddr, l.Peer())
	require.Zero(t, h.events.PacketsPending())
	// the new status goes out in the same pass
	txs := h.tx(t)
	require.Len(t, txs, 1)
	require.True(t, packet.Decode(&txs[0]).Status())
	require.Equal(t, []string{"Led Toggle event at Switch Node [3C4D]. Light Bulb is ON"}, h.lines())
}

func TestLightConsoleToggle(t *testing.T) {
	l, h := readyLight(t)
	h.events.RequestToggle()
	require.NoError(t, l.Step())
	require.True(t, l.Status())
	txs := h.tx(t)
	require.Len(t, txs, 1)
	// the status before the toggle is sent first
	require.False(t, packet.Decode(&txs[0]).Status())
	require.Equal(t, []string{"Led Toggle event at Light Node [1A2B]. Light Bulb is ON"}, h.lines())

	require.NoError(t, l.Step())
	txs = h.tx(t)
	require.Len(t, txs, 2)
	require.True(t, packet.Decode(&txs[1]).Status())
}

func TestLightUnhandledTriggersStayPending(t *testing.T) {
	l, h := newLight(t)
	h.events.RequestToggle()
	h.events.ButtonChanged(bridge.ButtonToggle, true)
	require.NoError(t, l.Step())
	require.False(t, l.Status())
	require.True(t, h.events.Pending(bridge.TriggerRemoteToggle))
	require.True(t, h.events.Pending(bridge.TriggerLocalToggle))

	h.events.RequestStateChange()
	require.NoError(t, l.Step())
	require.NoError(t, l.Step())
	require.Equal(t, StateReady, l.State())
	// console toggle then button toggle
	require.False(t, l.Status())
	require.Equal(t, []string{
		"State changing event at Light Node [1A2B]. Mode: READY",
		"Led Toggle event at Light Node [1A2B]. Light Bulb is ON",
		"Led Toggle event at Light Node [1A2B]. Light Bulb is OFF",
	}, h.lines())
}

func TestLightStatusOnlyChangesOnToggle(t *testing.T) {
	l, h := readyLight(t)
	h.sched.Start()
	require.NoError(t, l.Step())
	for i := 0; i < 4; i++ {
		require.True(t, h.radio.FireTimer())
		require.NoError(t, l.Step())
	}
	require.False(t, l.Status())
	txs := h.tx(t)
	require.Len(t, txs, 5)
	for _, b := range txs {
		require.False(t, packet.Decode(&b).Status())
	}

	// re-entering Ready is not a toggle
	h.events.RequestStateChange()
	require.NoError(t, l.Step())
	h.events.RequestStateChange()
	require.NoError(t, l.Step())
	require.NoError(t, l.Step())
	require.Equal(t, StateReady, l.State())
	require.False(t, l.Status())
}

func TestLightDoubleTimerFire(t *testing.T) {
	l, h := readyLight(t)
	h.events.TimerExpired()
	h.events.TimerExpired()
	require.NoError(t, l.Step())
	require.NoError(t, l.Step())
	require.Len(t, h.tx(t), 1)
}

func TestLightPacketBacklog(t *testing.T) {
	l, h := readyLight(t)
	for i := 0; i < 3; i++ {
		h.radio.InjectRx(encode(packet.Frame{Address: switchAddr, Role: packet.RoleSwitch, Command: packet.CommandToggle}))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Step())
		require.Equal(t, 2-i, h.events.PacketsPending())
		require.GreaterOrEqual(t, h.events.PacketsPending(), 0)
	}
	require.True(t, l.Status())
	require.Zero(t, h.radio.Held())
	require.Equal(t, 3, h.radio.Releases())
}

func TestLightInvalidHandle(t *testing.T) {
	l, h := readyLight(t)
	// signaled but nothing held
	h.events.HandleRadioEvents(radio.EventRxPacketReceived)
	require.NoError(t, l.Step())
	require.Zero(t, h.events.PacketsPending())
	require.False(t, l.Status())
	require.Empty(t, h.log)
}

func TestLightShortFrameDropped(t *testing.T) {
	l, h := readyLight(t)
	h.radio.InjectRx([]byte{0x0F, 1, 2, 3})
	require.NoError(t, l.Step())
	require.False(t, l.Status())
	require.Zero(t, h.radio.Held())
}

func TestLightRadioErrorsReported(t *testing.T) {
	l, h := readyLight(t)
	h.radio.Raise(radio.EventTxAborted | radio.EventRxFrameError)
	require.NoError(t, l.Step())
	require.Zero(t, h.events.TakeRadioErrors())
	require.Equal(t, StateReady, l.State())
}

func TestLightTransmitFailureNotFatal(t *testing.T) {
	l, h := readyLight(t)
	h.radio.TxErr = &radio.StatusError{Op: "transmit", Err: radio.ErrBusy}
	h.events.ButtonChanged(bridge.ButtonToggle, true)
	require.NoError(t, l.Step())
	require.True(t, l.Status())
	require.Empty(t, h.tx(t))
}

func TestLightFIFOSizeIsFatal(t *testing.T) {
	h := newHarness(packet.Size / 2)
	l := NewLight(lightAddr, h.radio, h.events, h.sched, h.display)
	h.sched.Start()
	err := l.Step()
	var fatal *fx.FatalError
	require.True(t, errors.As(err, &fatal))
}

func TestLightSnapshot(t *testing.T) {
	l, h := readyLight(t)
	h.events.ButtonChanged(bridge.ButtonToggle, true)
	require.NoError(t, l.Step())
	snap := l.Snapshot()
	require.Equal(t, packet.RoleLight, snap.Role)
	require.Equal(t, lightAddr, snap.Address)
	require.Equal(t, StateReady, snap.State)
	require.True(t, snap.Status)
	require.Equal(t, uint64(1), snap.Sent)
}
