//go:build linux

package button

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

type jsDevice struct {
	file        *os.File
	index       int
	name        string
	buttonCount uint8
}

// Open opens /dev/input/js<index>, or the first available one if
// index < 0.
func Open(index int) (Device, error) {
	if index < 0 {
		return detectAndOpen(0)
	}
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0666)
	if err != nil {
		return nil, err
	}
	d := &jsDevice{file: f, index: index}

	errno := d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttonCount))
	if errno == 0 {
		var buf [256]byte
		if errno = d.ioctl(iocGNAME, unsafe.Pointer(&buf)); errno == 0 {
			if pos := bytes.IndexByte(buf[:], 0); pos >= 0 {
				d.name = string(buf[:pos])
			} else {
				d.name = string(buf[:])
			}
		}
	}
	if errno != 0 {
		d.file.Close()
		return nil, errno
	}
	return d, nil
}

func detectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, ErrNoDevice
}

func (d *jsDevice) Close() error {
	return d.file.Close()
}

func (d *jsDevice) Index() int {
	return d.index
}

func (d *jsDevice) Name() string {
	return d.name
}

func (d *jsDevice) ButtonCount() int {
	return int(d.buttonCount)
}

func (d *jsDevice) ReadEvent() (Event, error) {
	var buf [8]byte
	for {
		if _, err := d.file.Read(buf[:]); err != nil {
			return Event{}, err
		}
		if ev, ok := decodeEvent(buf[:]); ok {
			return ev, nil
		}
	}
}

// jsEvent is struct js_event from linux/joystick.h.
type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func decodeEvent(data []byte) (Event, bool) {
	var ev jsEvent
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &ev); err != nil {
		return Event{}, false
	}
	if ev.Type&evBTN == 0 {
		return Event{}, false
	}
	return Event{
		Init:    ev.Type&evINIT != 0,
		Index:   int(ev.Number),
		Pressed: ev.Value != 0,
	}, true
}

const (
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13

	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
)

func (d *jsDevice) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, err := syscall.Syscall(syscall.SYS_IOCTL, uintptr(d.file.Fd()), uintptr(req), uintptr(ptr))
	return err
}
