package canbus

import (
	"errors"
	"fmt"
	"strings"
)

// Frame represents a classical CAN (2.0A/2.0B) frame.
//
// Supported features:
//   - Standard (11-bit) and Extended (29-bit) identifiers
//   - Data frames and Remote Transmission Request (RTR)
//   - Data length 0-8 bytes (classical CAN)
//
// CAN FD specific fields are not implemented.
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	Len      uint8  // 0..8
	Data     [8]byte
}

// Validation limits.
const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("canbus: invalid identifier")
	ErrInvalidLen = errors.New("canbus: invalid data length")
)

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	max := uint32(maxStdID)
	if f.Extended {
		max = maxExtID
	}
	if f.ID > max {
		return ErrInvalidID
	}
	return nil
}

// MustFrame constructs a Frame and panics if invalid. Convenience for
// tests and examples.
func MustFrame(id uint32, data []byte) Frame {
	var f Frame
	f.ID = id
	f.Extended = id > maxStdID
	if len(data) > 8 {
		panic(ErrInvalidLen)
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// String renders the frame in a candump-like form: "ID [len] DA TA".
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%X [%d]", f.ID, f.Len)
	if f.RTR {
		b.WriteString(" RTR")
	}
	for _, d := range f.Data[:f.Len] {
		fmt.Fprintf(&b, " %02X", d)
	}
	return b.String()
}
