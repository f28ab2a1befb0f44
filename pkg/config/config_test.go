package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lightlink/pkg/packet"
)

const testYAML = `
link: tcp://peer:7000
device_id: 000B57FFFE121A2B
broadcast_interval: 2s
button:
  enabled: true
  device: 1
  toggle: 4
  state: 5
coil:
  endpoint: 10.0.0.5:502
  unit_id: 3
  address: 16
console: false
`

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "lightlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	conf := defaultConfig
	require.NoError(t, conf.LoadFile(writeFile(t, testYAML), nil))
	require.Equal(t, "tcp://peer:7000", conf.LinkURL)
	require.Equal(t, "000B57FFFE121A2B", conf.DeviceID)
	require.Equal(t, 2*time.Second, conf.BroadcastInterval)
	// not in the file
	require.Equal(t, DefaultPollInterval, conf.PollInterval)
	require.Equal(t, ButtonConfig{Enabled: true, Device: 1, Toggle: 4, State: 5}, conf.Button)
	require.Equal(t, "10.0.0.5:502", conf.Coil.Endpoint)
	require.Equal(t, 3, conf.Coil.UnitID)
	require.Equal(t, 16, conf.Coil.Address)
	require.Equal(t, 1, conf.Coil.Count)
	require.False(t, conf.Console)
	require.NoError(t, Validate(&conf))
}

func TestFlagsWinOverFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf := defaultConfig
	bindFlags(fs, &conf)
	require.NoError(t, fs.Parse([]string{"-interval", "5s", "-console"}))

	explicit := ExplicitFlags(fs)
	require.Equal(t, map[string]string{"interval": "5s", "console": "true"}, explicit)

	require.NoError(t, conf.LoadFile(writeFile(t, testYAML), explicit))
	require.Equal(t, 5*time.Second, conf.BroadcastInterval)
	require.True(t, conf.Console)
	require.Equal(t, "tcp://peer:7000", conf.LinkURL)
}

func TestLoadFileErrors(t *testing.T) {
	conf := defaultConfig
	require.Error(t, conf.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil))
	require.Error(t, conf.LoadFile(writeFile(t, "broadcast_interval: soon\n"), nil))
	require.Error(t, conf.LoadFile(writeFile(t, testYAML), map[string]string{"poll": "never"}))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no link", func(c *Config) { c.LinkURL = "" }, false},
		{"link without scheme", func(c *Config) { c.LinkURL = "localhost:1883" }, false},
		{"device id", func(c *Config) { c.DeviceID = "000b57fffe121a2b" }, true},
		{"short device id", func(c *Config) { c.DeviceID = "1A2B" }, false},
		{"bad device id", func(c *Config) { c.DeviceID = "000B57FFFE121AXX" }, false},
		{"negative interval", func(c *Config) { c.BroadcastInterval = -time.Second }, false},
		{"zero interval", func(c *Config) { c.BroadcastInterval = 0 }, true},
		{"negative poll", func(c *Config) { c.PollInterval = -1 }, false},
		{"same buttons", func(c *Config) { c.Button.State = c.Button.Toggle }, false},
		{"same buttons disabled", func(c *Config) {
			c.Button.Enabled = false
			c.Button.State = c.Button.Toggle
		}, true},
		{"bad button device", func(c *Config) { c.Button.Device = -2 }, false},
		{"coil unit ignored without endpoint", func(c *Config) { c.Coil.UnitID = 300 }, true},
		{"coil unit", func(c *Config) {
			c.Coil.Endpoint = "plc:502"
			c.Coil.UnitID = 300
		}, false},
		{"coil range", func(c *Config) {
			c.Coil.Endpoint = "plc:502"
			c.Coil.Address = 0xFFFF
			c.Coil.Count = 2
		}, false},
		{"coil count", func(c *Config) {
			c.Coil.Endpoint = "plc:502"
			c.Coil.Count = 2000
		}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := defaultConfig
			tc.modify(&conf)
			before := conf
			err := Validate(&conf)
			require.Equal(t, before, conf)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	conf := Config{LinkURL: "tcp://peer:7000"}
	require.NoError(t, Validate(&conf))
	Normalize(&conf)
	require.Equal(t, DefaultBroadcastInterval, conf.BroadcastInterval)
	require.Equal(t, DefaultPollInterval, conf.PollInterval)
	require.Equal(t, 1, conf.Coil.Count)
	require.Equal(t, DefaultCoilTimeout, conf.Coil.Timeout)
}

func TestIdentity(t *testing.T) {
	saved := MachineIDFunc
	defer func() { MachineIDFunc = saved }()

	MachineIDFunc = func() (string, error) {
		return "000b57fffe343c4d9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822c", nil
	}
	conf := Config{}
	addr, err := conf.Identity()
	require.NoError(t, err)
	require.Equal(t, packet.AddressFromUint64(0x000B57FFFE343C4D), addr)
	require.Equal(t, uint16(0x3C4D), addr.ShortID())

	conf.DeviceID = "000B57FFFE121A2B"
	addr, err = conf.Identity()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1A2B), addr.ShortID())

	conf.DeviceID = ""
	MachineIDFunc = func() (string, error) { return "", errors.New("no machine id") }
	_, err = conf.Identity()
	require.Error(t, err)

	MachineIDFunc = func() (string, error) { return "abc", nil }
	_, err = conf.Identity()
	require.Error(t, err)
}
