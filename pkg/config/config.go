// Package config provides the options of a node executable. Values come
// from the built-in defaults, the environment, an optional YAML file and
// the command line, in this order.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultLinkURL           = "mqtt://localhost:1883/lightlink/"
	DefaultBroadcastInterval = time.Second
	DefaultPollInterval      = 50 * time.Millisecond
	DefaultCoilTimeout       = time.Second
)

// Config provides the options of a node.
type Config struct {
	// File is the YAML file loaded by NewConfig.
	File string `yaml:"-"`

	// LinkURL specifies the air the radio is on, see link.Dial.
	// e.g. mqtt://host:port/prefix?channel=air
	LinkURL string `yaml:"link"`
	// DeviceID overrides the node address derived from the machine id,
	// 16 hex digits.
	DeviceID string `yaml:"device_id"`

	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	PollInterval      time.Duration `yaml:"poll_interval"`

	Button ButtonConfig `yaml:"button"`

	// MQTTURL enables publishing the displayed status when set.
	MQTTURL string     `yaml:"mqtt"`
	Coil    CoilConfig `yaml:"coil"`

	Console bool `yaml:"console"`
}

// ButtonConfig maps a joystick device to the node buttons.
type ButtonConfig struct {
	Enabled bool `yaml:"enabled"`
	// Device is the joystick index, -1 to detect.
	Device int `yaml:"device"`
	Toggle int `yaml:"toggle"`
	State  int `yaml:"state"`
}

// CoilConfig drives a Modbus coil with the light status.
// The output is disabled without Endpoint.
type CoilConfig struct {
	Endpoint string        `yaml:"endpoint"`
	UnitID   int           `yaml:"unit_id"`
	Address  int           `yaml:"address"`
	Count    int           `yaml:"count"`
	Timeout  time.Duration `yaml:"timeout"`
}

var defaultConfig = Config{
	LinkURL:           DefaultLinkURL,
	BroadcastInterval: DefaultBroadcastInterval,
	PollInterval:      DefaultPollInterval,
	Button: ButtonConfig{
		Enabled: true,
		Device:  -1,
		Toggle:  0,
		State:   1,
	},
	Coil: CoilConfig{
		UnitID:  1,
		Count:   1,
		Timeout: DefaultCoilTimeout,
	},
	Console: true,
}

func init() {
	if val := os.Getenv("LIGHTLINK_LINK_URL"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("LIGHTLINK_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
	if val := os.Getenv("LIGHTLINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.File, "config", c.File, "YAML config file")
	fs.StringVar(&c.LinkURL, "link", c.LinkURL, "Radio link URL")
	fs.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID, 16 hex digits")
	fs.DurationVar(&c.BroadcastInterval, "interval", c.BroadcastInterval, "Broadcast interval")
	fs.DurationVar(&c.PollInterval, "poll", c.PollInterval, "Loop poll interval")
	fs.BoolVar(&c.Button.Enabled, "buttons", c.Button.Enabled, "Read buttons from a joystick device")
	fs.IntVar(&c.Button.Device, "button-dev", c.Button.Device, "Joystick device index, -1 to detect")
	fs.IntVar(&c.Button.Toggle, "button-toggle", c.Button.Toggle, "Joystick button number of the toggle button")
	fs.IntVar(&c.Button.State, "button-state", c.Button.State, "Joystick button number of the state button")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL for status publishing")
	fs.StringVar(&c.Coil.Endpoint, "coil", c.Coil.Endpoint, "Modbus TCP endpoint of the status coil")
	fs.IntVar(&c.Coil.UnitID, "coil-unit", c.Coil.UnitID, "Modbus unit id of the status coil")
	fs.IntVar(&c.Coil.Address, "coil-addr", c.Coil.Address, "Modbus address of the status coil")
	fs.IntVar(&c.Coil.Count, "coil-count", c.Coil.Count, "Number of coils driven")
	fs.DurationVar(&c.Coil.Timeout, "coil-timeout", c.Coil.Timeout, "Modbus timeout")
	fs.BoolVar(&c.Console, "console", c.Console, "Run the interactive console")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	bindFlags(flag.CommandLine, &defaultConfig)
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations, the config
// file specified by -config and the command line flags.
// It must be called after flag.Parse.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if conf.File != "" {
		if err := conf.LoadFile(conf.File, ExplicitFlags(flag.CommandLine)); err != nil {
			return nil, err
		}
	}
	if err := Validate(&conf); err != nil {
		return nil, err
	}
	Normalize(&conf)
	return &conf, nil
}

// ExplicitFlags returns the config flags set on the command line of fs
// with their values.
func ExplicitFlags(fs *flag.FlagSet) map[string]string {
	known := flag.NewFlagSet("", flag.ContinueOnError)
	bindFlags(known, &Config{})
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if known.Lookup(f.Name) != nil {
			explicit[f.Name] = f.Value.String()
		}
	})
	return explicit
}

// LoadFile overlays the YAML file at path on c and re-applies the flag
// values in explicit, so the command line wins over the file.
func (c *Config) LoadFile(path string, explicit map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	bindFlags(fs, c)
	for name, val := range explicit {
		if err := fs.Set(name, val); err != nil {
			return fmt.Errorf("flag -%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(c *Config) error {
	if c.LinkURL == "" {
		return fmt.Errorf("link URL must be specified")
	}
	if u, err := url.Parse(c.LinkURL); err != nil {
		return fmt.Errorf("invalid link URL: %w", err)
	} else if u.Scheme == "" {
		return fmt.Errorf("link URL %q: missing scheme", c.LinkURL)
	}
	if c.DeviceID != "" {
		if len(c.DeviceID) != 16 {
			return fmt.Errorf("device id %q: must be 16 hex digits", c.DeviceID)
		}
		if _, err := strconv.ParseUint(c.DeviceID, 16, 64); err != nil {
			return fmt.Errorf("device id %q: must be 16 hex digits", c.DeviceID)
		}
	}
	if c.BroadcastInterval < 0 {
		return fmt.Errorf("negative broadcast interval %v", c.BroadcastInterval)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("negative poll interval %v", c.PollInterval)
	}
	if c.Button.Enabled {
		if c.Button.Device < -1 {
			return fmt.Errorf("invalid button device %d", c.Button.Device)
		}
		if c.Button.Toggle < 0 || c.Button.State < 0 {
			return fmt.Errorf("button numbers must not be negative")
		}
		if c.Button.Toggle == c.Button.State {
			return fmt.Errorf("toggle and state buttons are both %d", c.Button.Toggle)
		}
	}
	if c.Coil.Endpoint != "" {
		if c.Coil.UnitID < 0 || c.Coil.UnitID > 247 {
			return fmt.Errorf("coil unit id %d out of range 0-247", c.Coil.UnitID)
		}
		if c.Coil.Count < 0 || c.Coil.Count > 1968 {
			return fmt.Errorf("coil count %d out of range 1-1968", c.Coil.Count)
		}
		if c.Coil.Address < 0 || c.Coil.Address+c.Coil.Count > 0x10000 {
			return fmt.Errorf("coil address %d out of range", c.Coil.Address)
		}
		if c.Coil.Timeout < 0 {
			return fmt.Errorf("negative coil timeout %v", c.Coil.Timeout)
		}
	}
	return nil
}

// Normalize fills unset values with defaults.
// It MUST be called only after Validate().
func Normalize(c *Config) {
	if c.BroadcastInterval == 0 {
		c.BroadcastInterval = DefaultBroadcastInterval
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Coil.Count == 0 {
		c.Coil.Count = 1
	}
	if c.Coil.Timeout == 0 {
		c.Coil.Timeout = DefaultCoilTimeout
	}
}
