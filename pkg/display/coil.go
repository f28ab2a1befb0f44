package display

import (
	"context"
	"time"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"
)

// CoilWriter writes Modbus coils, implemented by modbus.Client.
type CoilWriter interface {
	WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error)
}

// Coil drives Modbus coils (e.g. relays or indicator LEDs) from the
// status. Writes happen in the background, only the latest status is
// written.
type Coil struct {
	Endpoint string
	UnitID   byte
	Address  uint16
	Count    uint16
	Timeout  time.Duration

	client CoilWriter
	wantCh chan bool
}

// NewCoil creates a Coil for a Modbus TCP endpoint.
func NewCoil(endpoint string, unitID byte, address, count uint16, timeout time.Duration) *Coil {
	if count == 0 {
		count = 1
	}
	return &Coil{
		Endpoint: endpoint,
		UnitID:   unitID,
		Address:  address,
		Count:    count,
		Timeout:  timeout,
		wantCh:   make(chan bool, 1),
	}
}

// ShowStatus implements Display.
func (c *Coil) ShowStatus(on bool) {
	for {
		select {
		case c.wantCh <- on:
			return
		default:
		}
		select {
		case <-c.wantCh:
		default:
		}
	}
}

// ShowMode implements Display.
func (c *Coil) ShowMode(string) {}

// ShowID implements Display.
func (c *Coil) ShowID(string) {}

// Run implements Runnable.
func (c *Coil) Run(ctx context.Context) error {
	if c.client == nil {
		h := modbus.NewTCPClientHandler(c.Endpoint)
		h.Timeout = c.Timeout
		h.SlaveId = c.UnitID
		defer h.Close()
		c.client = modbus.NewClient(h)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case on := <-c.wantCh:
			if err := c.write(on); err != nil {
				glog.Warningf("coil %s@%d write failed: %v", c.Endpoint, c.Address, err)
			}
		}
	}
}

func (c *Coil) write(on bool) error {
	bits := make([]bool, c.Count)
	for n := range bits {
		bits[n] = on
	}
	_, err := c.client.WriteMultipleCoils(c.Address, c.Count, packBits(bits))
	return err
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
