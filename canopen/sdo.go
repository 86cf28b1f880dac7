package canopen

import (
	"encoding/binary"
	"fmt"

	"github.com/notnil/cia402/canbus"
)

// SDO command specifiers (expedited subset).
const (
	sdoCCSDownloadInitiate = 1 // client writes
	sdoCCSUploadInitiate   = 2 // client reads
	sdoSCSUploadInitiate   = 2
	sdoSCSDownloadInitiate = 3
	sdoCSAbort             = 4
)

// SDO abort codes (CiA 301).
const (
	AbortUnsupportedAccess uint32 = 0x06010000
	AbortWriteReadOnly     uint32 = 0x06010002
	AbortObjectNotFound    uint32 = 0x06020000
	AbortParamLength       uint32 = 0x06070010
)

// SDORequest is a decoded expedited SDO request addressed to a server.
type SDORequest struct {
	Node  NodeID
	Write bool // true: expedited download (client writes)
	Index uint16
	Sub   uint8
	Data  []byte // 1..4 bytes for writes, nil for reads
}

// ParseSDORequest decodes an expedited SDO request from an FC_SDO_RX
// frame. Segmented transfers are not supported and surface as an error;
// servers answer those with an abort.
func ParseSDORequest(f canbus.Frame) (SDORequest, error) {
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return SDORequest{}, err
	}
	if fc != FC_SDO_RX {
		return SDORequest{}, fmt.Errorf("canopen: not an SDO request frame (id=0x%X)", f.ID)
	}
	if f.Len < 8 {
		return SDORequest{}, fmt.Errorf("canopen: sdo frame too short: %d", f.Len)
	}
	req := SDORequest{
		Node:  node,
		Index: binary.LittleEndian.Uint16(f.Data[1:3]),
		Sub:   f.Data[3],
	}
	cmd := f.Data[0]
	switch cmd >> 5 {
	case sdoCCSUploadInitiate:
		return req, nil
	case sdoCCSDownloadInitiate:
		if cmd&0x02 == 0 {
			return SDORequest{}, fmt.Errorf("canopen: segmented sdo download not supported")
		}
		req.Write = true
		n := 4
		if cmd&0x01 != 0 { // size indicated
			n = 4 - int(cmd>>2&0x03)
		}
		req.Data = append([]byte(nil), f.Data[4:4+n]...)
		return req, nil
	default:
		return SDORequest{}, fmt.Errorf("canopen: unsupported sdo command 0x%02X", cmd)
	}
}

// BuildSDOUploadResponse encodes an expedited upload response carrying
// 1..4 bytes of data.
func BuildSDOUploadResponse(node NodeID, index uint16, sub uint8, data []byte) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	if len(data) == 0 || len(data) > 4 {
		return canbus.Frame{}, fmt.Errorf("canopen: expedited upload needs 1..4 bytes, got %d", len(data))
	}
	var f canbus.Frame
	f.ID = COBID(FC_SDO_TX, node)
	f.Len = 8
	// e=1, s=1, n = unused bytes
	f.Data[0] = byte(sdoSCSUploadInitiate<<5) | byte(4-len(data))<<2 | 0x03
	binary.LittleEndian.PutUint16(f.Data[1:3], index)
	f.Data[3] = sub
	copy(f.Data[4:], data)
	return f, nil
}

// BuildSDODownloadResponse encodes the acknowledgement of an expedited
// download.
func BuildSDODownloadResponse(node NodeID, index uint16, sub uint8) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_SDO_TX, node)
	f.Len = 8
	f.Data[0] = byte(sdoSCSDownloadInitiate << 5)
	binary.LittleEndian.PutUint16(f.Data[1:3], index)
	f.Data[3] = sub
	return f, nil
}

// BuildSDOAbort encodes an SDO abort for the given object and reason.
func BuildSDOAbort(node NodeID, index uint16, sub uint8, code uint32) (canbus.Frame, error) {
	if err := node.Validate(); err != nil {
		return canbus.Frame{}, err
	}
	var f canbus.Frame
	f.ID = COBID(FC_SDO_TX, node)
	f.Len = 8
	f.Data[0] = byte(sdoCSAbort << 5)
	binary.LittleEndian.PutUint16(f.Data[1:3], index)
	f.Data[3] = sub
	binary.LittleEndian.PutUint32(f.Data[4:8], code)
	return f, nil
}

// ParseSDOResponse decodes a server response as seen by a master: either
// an upload response with data, a bare download acknowledgement, or an
// abort (returned as an error).
func ParseSDOResponse(f canbus.Frame) (NodeID, uint16, uint8, []byte, error) {
	fc, node, err := ParseCOBID(f.ID)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if fc != FC_SDO_TX {
		return 0, 0, 0, nil, fmt.Errorf("canopen: not an SDO response frame (id=0x%X)", f.ID)
	}
	if f.Len < 8 {
		return 0, 0, 0, nil, fmt.Errorf("canopen: sdo frame too short: %d", f.Len)
	}
	index := binary.LittleEndian.Uint16(f.Data[1:3])
	sub := f.Data[3]
	cmd := f.Data[0]
	switch cmd >> 5 {
	case sdoSCSDownloadInitiate:
		return node, index, sub, nil, nil
	case sdoSCSUploadInitiate:
		n := 4
		if cmd&0x01 != 0 {
			n = 4 - int(cmd>>2&0x03)
		}
		return node, index, sub, append([]byte(nil), f.Data[4:4+n]...), nil
	case sdoCSAbort:
		code := binary.LittleEndian.Uint32(f.Data[4:8])
		return node, index, sub, nil, fmt.Errorf("canopen: sdo abort 0x%08X (index 0x%04X sub %d)", code, index, sub)
	default:
		return 0, 0, 0, nil, fmt.Errorf("canopen: unsupported sdo response 0x%02X", cmd)
	}
}
