package canopen

import (
	"bytes"
	"testing"

	"github.com/notnil/cia402/canbus"
)

func TestCOBIDHelpers(t *testing.T) {
	if id := COBID(FC_TPDO1, 1); id != 0x181 {
		t.Fatalf("tpdo1 id: 0x%X", id)
	}
	if id := COBID(FC_NMT, 5); id != 0x000 {
		t.Fatalf("nmt id: 0x%X", id)
	}
	if fc, node, err := ParseCOBID(0x5FF); err != nil || fc != FC_SDO_TX || node != 0x7F {
		t.Fatalf("parse sdo tx: fc=%v node=%v err=%v", fc, node, err)
	}
	if fc, node, err := ParseCOBID(0x205); err != nil || fc != FC_RPDO1 || node != 5 {
		t.Fatalf("parse rpdo1: fc=%v node=%v err=%v", fc, node, err)
	}
	if _, _, err := ParseCOBID(0x800); err == nil {
		t.Fatal("expected error for 12-bit id")
	}
}

func TestNMTBuildParse(t *testing.T) {
	f := BuildNMT(NMTStart, 0)
	if cmd, node, err := ParseNMT(f); err != nil || cmd != NMTStart || node != 0 {
		t.Fatalf("nmt parse mismatch: cmd=%v node=%d err=%v", cmd, node, err)
	}
	f = BuildNMT(NMTEnterPreOperational, 9)
	if cmd, node, err := ParseNMT(f); err != nil || cmd != NMTEnterPreOperational || node != 9 {
		t.Fatalf("nmt parse mismatch: cmd=%v node=%d err=%v", cmd, node, err)
	}
}

func TestHeartbeat(t *testing.T) {
	f, err := BuildHeartbeat(10, StateOperational)
	if err != nil {
		t.Fatal(err)
	}
	node, st, err := ParseHeartbeat(f)
	if err != nil {
		t.Fatal(err)
	}
	if node != 10 || st != StateOperational {
		t.Fatalf("heartbeat mismatch node=%d st=%v", node, st)
	}
	if _, err := BuildHeartbeat(0, StateBootup); err == nil {
		t.Fatal("node 0 must be rejected")
	}
}

func TestEMCY(t *testing.T) {
	e := Emergency{Node: 5, ErrorCode: EmcyGenericError, ErrorRegister: 0x01}
	f, err := BuildEMCY(e)
	if err != nil {
		t.Fatal(err)
	}
	g, err := ParseEMCY(f)
	if err != nil {
		t.Fatal(err)
	}
	if g != e {
		t.Fatalf("emcy mismatch: %+v", g)
	}
}

func TestControlwordStatuswordPDO(t *testing.T) {
	f, err := BuildControlwordRPDO(4, 0x000F)
	if err != nil {
		t.Fatal(err)
	}
	node, cw, err := ParseControlwordRPDO(f)
	if err != nil || node != 4 || cw != 0x000F {
		t.Fatalf("rpdo mismatch: node=%d cw=0x%04X err=%v", node, cw, err)
	}

	f, err = BuildStatuswordTPDO(4, 0x0027)
	if err != nil {
		t.Fatal(err)
	}
	node, sw, err := ParseStatuswordTPDO(f)
	if err != nil || node != 4 || sw != 0x0027 {
		t.Fatalf("tpdo mismatch: node=%d sw=0x%04X err=%v", node, sw, err)
	}

	if _, _, err := ParseControlwordRPDO(canbus.MustFrame(0x181, []byte{0, 0})); err == nil {
		t.Fatal("tpdo id must not parse as rpdo")
	}
}

func TestSDOExpeditedRoundTrip(t *testing.T) {
	// Write request: controlword download.
	var req canbus.Frame
	req.ID = COBID(FC_SDO_RX, 7)
	req.Len = 8
	req.Data[0] = byte(sdoCCSDownloadInitiate<<5) | (2 << 2) | 0x03 // 2 bytes
	req.Data[1] = 0x40
	req.Data[2] = 0x60
	req.Data[3] = 0x00
	req.Data[4] = 0x0F

	r, err := ParseSDORequest(req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Write || r.Node != 7 || r.Index != ObjControlword || r.Sub != 0 {
		t.Fatalf("request mismatch: %+v", r)
	}
	if !bytes.Equal(r.Data, []byte{0x0F, 0x00}) {
		t.Fatalf("data mismatch: %x", r.Data)
	}

	// Read request + upload response.
	req.Data[0] = byte(sdoCCSUploadInitiate << 5)
	r, err = ParseSDORequest(req)
	if err != nil || r.Write {
		t.Fatalf("upload request: %+v err=%v", r, err)
	}
	rsp, err := BuildSDOUploadResponse(7, ObjStatusword, 0, []byte{0x27, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	node, index, sub, data, err := ParseSDOResponse(rsp)
	if err != nil {
		t.Fatal(err)
	}
	if node != 7 || index != ObjStatusword || sub != 0 || !bytes.Equal(data, []byte{0x27, 0x00}) {
		t.Fatalf("response mismatch: node=%d index=0x%04X sub=%d data=%x", node, index, sub, data)
	}

	// Abort surfaces as an error on the master side.
	ab, err := BuildSDOAbort(7, 0x1234, 1, AbortObjectNotFound)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := ParseSDOResponse(ab); err == nil {
		t.Fatal("abort must parse as error")
	}
}
