package canopen

import "fmt"

// NodeID represents a CANopen node identifier (1..127). Value 0 is used
// for broadcast where explicitly documented (NMT).
type NodeID uint8

// Validate checks that the node identifier is in the range 1..127.
func (n NodeID) Validate() error {
	if n < 1 || n > 127 {
		return fmt.Errorf("canopen: invalid node id %d (valid 1..127)", n)
	}
	return nil
}

// FunctionCode enumerates the CANopen function code bases the drive node
// uses. See the CiA 301 COB-ID table.
type FunctionCode uint16

const (
	FC_NMT         FunctionCode = 0x000 // broadcast id for NMT
	FC_SYNC        FunctionCode = 0x080
	FC_EMCY        FunctionCode = 0x080 // + node id
	FC_TPDO1       FunctionCode = 0x180
	FC_RPDO1       FunctionCode = 0x200
	FC_SDO_TX      FunctionCode = 0x580 // server->client
	FC_SDO_RX      FunctionCode = 0x600 // client->server
	FC_NMT_ERRCTRL FunctionCode = 0x700 // heartbeat / node guarding
)

// COBID composes the 11-bit CAN identifier for a function code and node
// id. For the fixed-id services (NMT) the node id is ignored.
func COBID(fc FunctionCode, node NodeID) uint32 {
	if fc == FC_NMT {
		return uint32(fc)
	}
	return uint32(uint16(fc) + uint16(node))
}

// ParseCOBID infers the function code and node id from an 11-bit id,
// restricted to the service ranges this package speaks. SYNC (0x080 with
// node 0) and EMCY share a base; id 0x080 is reported as SYNC.
func ParseCOBID(id uint32) (FunctionCode, NodeID, error) {
	if id > 0x7FF {
		return 0, 0, fmt.Errorf("canopen: invalid 11-bit id 0x%X", id)
	}
	u := uint16(id)
	switch {
	case u == uint16(FC_NMT):
		return FC_NMT, 0, nil
	case u == uint16(FC_SYNC):
		return FC_SYNC, 0, nil
	case u > 0x080 && u <= 0x0FF:
		return FC_EMCY, NodeID(u - 0x080), nil
	case u >= 0x180 && u <= 0x1FF:
		return FC_TPDO1, NodeID(u - 0x180), nil
	case u >= 0x200 && u <= 0x27F:
		return FC_RPDO1, NodeID(u - 0x200), nil
	case u >= 0x580 && u <= 0x5FF:
		return FC_SDO_TX, NodeID(u - 0x580), nil
	case u >= 0x600 && u <= 0x67F:
		return FC_SDO_RX, NodeID(u - 0x600), nil
	case u >= 0x700 && u <= 0x77F:
		return FC_NMT_ERRCTRL, NodeID(u - 0x700), nil
	default:
		return 0, 0, fmt.Errorf("canopen: id 0x%X not in a supported service range", id)
	}
}
