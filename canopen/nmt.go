package canopen

import (
	"fmt"

	"github.com/notnil/cia402/canbus"
)

// NMTCommand is the command specifier for the NMT service.
type NMTCommand uint8

const (
	NMTStart               NMTCommand = 0x01
	NMTStop                NMTCommand = 0x02
	NMTEnterPreOperational NMTCommand = 0x80
	NMTResetNode           NMTCommand = 0x81
	NMTResetCommunication  NMTCommand = 0x82
)

// NMTState encodes the node state as used in heartbeats.
type NMTState uint8

const (
	StateBootup         NMTState = 0x00
	StateStopped        NMTState = 0x04
	StateOperational    NMTState = 0x05
	StatePreOperational NMTState = 0x7F
)

func (s NMTState) String() string {
	switch s {
	case StateBootup:
		return "bootup"
	case StateStopped:
		return "stopped"
	case StateOperational:
		return "operational"
	case StatePreOperational:
		return "pre-operational"
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(s))
}

// BuildNMT builds an NMT command frame. node 0 means broadcast.
func BuildNMT(cmd NMTCommand, node uint8) canbus.Frame {
	var f canbus.Frame
	f.ID = COBID(FC_NMT, 0)
	f.Len = 2
	f.Data[0] = byte(cmd)
	f.Data[1] = node
	return f
}

// ParseNMT decodes an NMT frame returning command and target node
// (0 for broadcast).
func ParseNMT(f canbus.Frame) (NMTCommand, uint8, error) {
	if f.ID != COBID(FC_NMT, 0) {
		return 0, 0, fmt.Errorf("canopen: not an NMT frame (id=0x%X)", f.ID)
	}
	if f.Len < 2 {
		return 0, 0, fmt.Errorf("canopen: NMT frame too short: %d", f.Len)
	}
	return NMTCommand(f.Data[0]), f.Data[1], nil
}

// BuildHeartbeat produces an NMT error control frame carrying the node
// state, a single byte per CiA 301.
func BuildHeartbeat(node NodeID, state NMTState) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_NMT_ERRCTRL, node)
	f.Len = 1
	f.Data[0] = byte(state)
	return f, nil
}

// ParseHeartbeat parses a heartbeat frame and returns node id and state.
func ParseHeartbeat(f canbus.Frame) (NodeID, NMTState, error) {
	if f.Len < 1 {
		return 0, 0, fmt.Errorf("canopen: heartbeat too short: %d", f.Len)
	}
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return 0, 0, err
	}
	if fc != FC_NMT_ERRCTRL {
		return 0, 0, fmt.Errorf("canopen: not a heartbeat frame (id=0x%X)", f.ID)
	}
	return node, NMTState(f.Data[0]), nil
}
