package packet

import (
	"encoding/binary"
	"fmt"
)

// Frame geometry.
const (
	Size = 16

	OffsetLength  = 0
	OffsetAddress = 1
	AddressSize   = 8
	OffsetControl = OffsetAddress + AddressSize
	OffsetDevice  = OffsetControl + 1

	// FrameConstant is the value of the length byte.
	FrameConstant byte = Size - 1
)

// Control byte fields.
const (
	RoleMask        byte = 0x80
	RoleShift            = 7
	CommandMask     byte = 0x70
	CommandShift         = 4
	CmdDataMask     byte = 0x0f
	StatusBit       byte = 0x01
	DeviceModeMask  byte = 0x03
	DeviceModeReady byte = 0x01
)

// template is the filler pattern every frame starts from.
var template = Buffer{
	0x0F, 0x16, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
	0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xFF, 0x00,
}

// Role identifies which peer sent a frame.
type Role byte

// Roles
const (
	RoleLight  Role = 0
	RoleSwitch Role = 1
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleLight:
		return "Light"
	case RoleSwitch:
		return "Switch"
	}
	return fmt.Sprintf("Role(%d)", byte(r))
}

// Command is the command type carried in the control byte.
type Command byte

// Commands
const (
	CommandAdvertise    Command = 0
	CommandToggle       Command = 1
	CommandStatusReport Command = 2
	CommandStatusGet    Command = 3
)

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c {
	case CommandAdvertise:
		return "advertise"
	case CommandToggle:
		return "toggle"
	case CommandStatusReport:
		return "status-report"
	case CommandStatusGet:
		return "status-get"
	}
	return fmt.Sprintf("command(%d)", byte(c))
}

// Address is the 8-byte node address.
type Address [AddressSize]byte

// ShortID returns the low 16 bits of the address, used in logs and on display.
func (a Address) ShortID() uint16 {
	return binary.BigEndian.Uint16(a[AddressSize-2:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return fmt.Sprintf("%016X", binary.BigEndian.Uint64(a[:]))
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressFromUint64 builds an Address from its big-endian integer form.
func AddressFromUint64(v uint64) (a Address) {
	binary.BigEndian.PutUint64(a[:], v)
	return
}

// Buffer is one complete frame.
type Buffer [Size]byte

// NewBuffer creates a Buffer holding the filler pattern.
func NewBuffer() *Buffer {
	b := template
	return &b
}

// Reset restores the filler pattern.
func (b *Buffer) Reset() {
	*b = template
}

// Bytes returns the frame as a slice sharing the buffer's storage.
func (b *Buffer) Bytes() []byte {
	return b[:]
}

// Frame is the logical content of an outgoing frame.
type Frame struct {
	Address Address
	Role    Role
	Command Command
	Status  bool
}

// Encode writes f into b in place. Only the length, address, control and
// device bytes are touched. The command data bits are always cleared
// first, so a frame that is not a status report never carries a stale
// status from a previous use of b.
func Encode(b *Buffer, f Frame) {
	b[OffsetLength] = FrameConstant
	copy(b[OffsetAddress:OffsetAddress+AddressSize], f.Address[:])

	ctl := b[OffsetControl]
	ctl = (ctl &^ RoleMask) | (byte(f.Role)<<RoleShift)&RoleMask
	ctl = (ctl &^ CommandMask) | (byte(f.Command)<<CommandShift)&CommandMask
	ctl &^= CmdDataMask
	if f.Command == CommandStatusReport && f.Status {
		ctl |= StatusBit
	}
	b[OffsetControl] = ctl

	if f.Command == CommandAdvertise {
		b[OffsetDevice] &^= DeviceModeMask
	} else {
		b[OffsetDevice] = (b[OffsetDevice] | DeviceModeReady) &^ (DeviceModeMask &^ DeviceModeReady)
	}
}

// Control is the decoded control byte.
type Control byte

// Role returns the sender role.
func (c Control) Role() Role {
	return Role((byte(c) & RoleMask) >> RoleShift)
}

// Command returns the command type.
func (c Control) Command() Command {
	return Command((byte(c) & CommandMask) >> CommandShift)
}

// Data returns the command data bits.
func (c Control) Data() byte {
	return byte(c) & CmdDataMask
}

// Status returns the status bit of a status report.
func (c Control) Status() bool {
	return c.Command() == CommandStatusReport && byte(c)&StatusBit != 0
}

// String implements fmt.Stringer.
func (c Control) String() string {
	s := fmt.Sprintf("%s %s", c.Role(), c.Command())
	if c.Command() == CommandStatusReport {
		s += fmt.Sprintf(" status=%v", c.Status())
	}
	return s
}

// Decode extracts the control byte. No other validation is performed.
func Decode(b *Buffer) Control {
	return Control(b[OffsetControl])
}

// DecodeAddress extracts the sender address.
func DecodeAddress(b *Buffer) (a Address) {
	copy(a[:], b[OffsetAddress:OffsetAddress+AddressSize])
	return
}

// Load copies a received frame into b. Frames shorter than Size are
// rejected, extra bytes are ignored.
func Load(b *Buffer, data []byte) error {
	if len(data) < Size {
		return &ShortFrameError{Len: len(data)}
	}
	copy(b[:], data[:Size])
	return nil
}
