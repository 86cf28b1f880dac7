package canopen

import (
	"encoding/binary"
	"fmt"

	"github.com/notnil/cia402/canbus"
)

// Drive-profile object dictionary indices (CiA 402).
const (
	ObjErrorCode            uint16 = 0x603F
	ObjControlword          uint16 = 0x6040
	ObjStatusword           uint16 = 0x6041
	ObjModesOfOperation     uint16 = 0x6060
	ObjModesOfOperationDisp uint16 = 0x6061
)

// BuildControlwordRPDO encodes a controlword into the node's RPDO1. The
// default drive PDO mapping carries the controlword in the first two
// bytes, little-endian.
func BuildControlwordRPDO(node NodeID, controlword uint16) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_RPDO1, node)
	f.Len = 2
	binary.LittleEndian.PutUint16(f.Data[0:2], controlword)
	return f, nil
}

// ParseControlwordRPDO decodes a controlword from an RPDO1 frame.
func ParseControlwordRPDO(f canbus.Frame) (NodeID, uint16, error) {
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return 0, 0, err
	}
	if fc != FC_RPDO1 {
		return 0, 0, fmt.Errorf("canopen: not an RPDO1 frame (id=0x%X)", f.ID)
	}
	if f.Len < 2 {
		return 0, 0, fmt.Errorf("canopen: controlword pdo too short: %d", f.Len)
	}
	return node, binary.LittleEndian.Uint16(f.Data[0:2]), nil
}

// BuildStatuswordTPDO encodes a statusword into the node's TPDO1.
func BuildStatuswordTPDO(node NodeID, statusword uint16) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_TPDO1, node)
	f.Len = 2
	binary.LittleEndian.PutUint16(f.Data[0:2], statusword)
	return f, nil
}

// ParseStatuswordTPDO decodes a statusword from a TPDO1 frame.
func ParseStatuswordTPDO(f canbus.Frame) (NodeID, uint16, error) {
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return 0, 0, err
	}
	if fc != FC_TPDO1 {
		return 0, 0, fmt.Errorf("canopen: not a TPDO1 frame (id=0x%X)", f.ID)
	}
	if f.Len < 2 {
		return 0, 0, fmt.Errorf("canopen: statusword pdo too short: %d", f.Len)
	}
	return node, binary.LittleEndian.Uint16(f.Data[0:2]), nil
}
