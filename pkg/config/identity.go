package config

import (
	"fmt"
	"strconv"

	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/lightlink/pkg/packet"
)

// AppID keys the protected machine id, so the node address does not
// expose the raw machine id.
const AppID = "lightlink"

// MachineIDFunc retrieves the protected machine id as hex.
var MachineIDFunc = func() (string, error) {
	return machineid.ProtectedID(AppID)
}

// Identity returns the node address: DeviceID when set, otherwise the
// leading 64 bits of the protected machine id.
func (c *Config) Identity() (packet.Address, error) {
	if c.DeviceID != "" {
		return ParseAddress(c.DeviceID)
	}
	id, err := MachineIDFunc()
	if err != nil {
		return packet.Address{}, fmt.Errorf("machine id: %w", err)
	}
	if len(id) < 16 {
		return packet.Address{}, fmt.Errorf("machine id too short: %q", id)
	}
	return ParseAddress(id[:16])
}

// ParseAddress parses 16 hex digits into an address.
func ParseAddress(s string) (packet.Address, error) {
	if len(s) != 16 {
		return packet.Address{}, fmt.Errorf("address %q: must be 16 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return packet.Address{}, fmt.Errorf("address %q: %w", s, err)
	}
	return packet.AddressFromUint64(v), nil
}
