package canopen

import (
	"encoding/binary"
	"fmt"

	"github.com/notnil/cia402/canbus"
)

// Emergency error codes used by the drive node (CiA 301/402).
const (
	EmcyNoError      uint16 = 0x0000 // error reset / no error
	EmcyGenericError uint16 = 0x1000
	EmcyDeviceError  uint16 = 0xFF00 // device specific
)

// Emergency represents an EMCY message.
//
// Payload layout (8 bytes):
//
//	0..1: error code (little-endian)
//	2:    error register
//	3..7: manufacturer specific data
type Emergency struct {
	Node          NodeID
	ErrorCode     uint16
	ErrorRegister uint8
	Manufacturer  [5]byte
}

// BuildEMCY encodes the emergency to a CAN frame.
func BuildEMCY(e Emergency) (canbus.Frame, error) {
	if err := e.Node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_EMCY, e.Node)
	f.Len = 8
	binary.LittleEndian.PutUint16(f.Data[0:2], e.ErrorCode)
	f.Data[2] = e.ErrorRegister
	copy(f.Data[3:8], e.Manufacturer[:])
	return f, nil
}

// ParseEMCY decodes an emergency from a CAN frame.
func ParseEMCY(f canbus.Frame) (Emergency, error) {
	if f.Len < 8 {
		return Emergency{}, fmt.Errorf("canopen: emcy too short: %d", f.Len)
	}
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return Emergency{}, err
	}
	if fc != FC_EMCY {
		return Emergency{}, fmt.Errorf("canopen: not an emcy frame (id=0x%X)", f.ID)
	}
	e := Emergency{Node: node}
	e.ErrorCode = binary.LittleEndian.Uint16(f.Data[0:2])
	e.ErrorRegister = f.Data[2]
	copy(e.Manufacturer[:], f.Data[3:8])
	return e, nil
}
