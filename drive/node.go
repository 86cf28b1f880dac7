// Package drive assembles a CANopen drive node around a single CiA 402
// axis: it derives the axis's link status from the NMT state commanded by
// the master, feeds received controlwords into the axis once per cycle,
// publishes the resulting statusword as TPDO1, produces heartbeats, and
// raises EMCY frames on fault entry.
package drive

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notnil/cia402"
	"github.com/notnil/cia402/canbus"
	"github.com/notnil/cia402/canopen"
)

// Node is a CANopen drive node with one axis.
//
// All node state is confined to the Run goroutine; the only external
// entry points are Trip (fault injection from drive firmware) and the
// frames arriving on the bus.
type Node struct {
	cfg  Config
	bus  canbus.Bus
	mux  *canbus.Mux
	axis *cia402.Axis
	log  logrus.FieldLogger

	nmtState    canopen.NMTState
	controlword uint16
	statusword  uint16
	errorCode   uint16
	modeOfOp    int8

	trip chan struct{}
}

// NewNode creates a drive node on the given bus endpoint. The node starts
// in the pre-operational NMT state, which the axis sees as a
// non-operational link.
func NewNode(cfg Config, bus canbus.Bus, log logrus.FieldLogger) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Node{
		cfg:      cfg,
		bus:      bus,
		log:      log.WithField("node", cfg.NodeID),
		nmtState: canopen.StatePreOperational,
		trip:     make(chan struct{}, 1),
	}
	n.axis = cia402.NewAxis(n, n)
	return n, nil
}

// SetStatusword implements cia402.StatusSink: the axis rewrites the
// node's statusword in full on every cycle.
func (n *Node) SetStatusword(w uint16) { n.statusword = w }

// LinkStatus implements cia402.LinkSource. The NMT state values coincide
// with cia402's link status space, so the commanded NMT state passes
// through unchanged; only operational reads as an operational link.
func (n *Node) LinkStatus() cia402.LinkStatus {
	return cia402.LinkStatus(n.nmtState)
}

// Trip injects a drive fault: the axis enters its fault reaction and the
// next cycle reports the fault state and raises an EMCY frame. Safe to
// call from any goroutine; repeat calls before the next cycle collapse
// into one.
func (n *Node) Trip() {
	select {
	case n.trip <- struct{}{}:
	default:
	}
}

// Run executes the node until the context is cancelled. It owns the bus
// for receiving (via an internal mux) and must only be called once.
func (n *Node) Run(ctx context.Context) error {
	n.mux = canbus.NewMux(n.bus)
	defer n.mux.Close()

	node := canopen.NodeID(n.cfg.NodeID)
	frames, cancel := n.mux.Subscribe(canbus.ByIDs(
		canopen.COBID(canopen.FC_NMT, 0),
		canopen.COBID(canopen.FC_RPDO1, node),
		canopen.COBID(canopen.FC_SDO_RX, node),
	), 16)
	defer cancel()

	// Boot-up message per CiA 301, then regular heartbeats.
	if err := n.sendHeartbeat(canopen.StateBootup); err != nil {
		return err
	}

	cycle := time.NewTicker(n.cfg.CycleInterval())
	defer cycle.Stop()
	heartbeat := time.NewTicker(n.cfg.HeartbeatInterval())
	defer heartbeat.Stop()

	n.log.WithFields(logrus.Fields{
		"cycle":     n.cfg.CycleInterval(),
		"heartbeat": n.cfg.HeartbeatInterval(),
	}).Info("drive node up")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-n.trip:
			n.axis.Trip()
			n.errorCode = canopen.EmcyDeviceError
			n.log.Warn("fault trip, entering fault reaction")

		case f, ok := <-frames:
			if !ok {
				return canbus.ErrClosed
			}
			n.handleFrame(f)

		case <-cycle.C:
			if err := n.stepOnce(); err != nil {
				return err
			}

		case <-heartbeat.C:
			if err := n.sendHeartbeat(n.nmtState); err != nil {
				return err
			}
		}
	}
}

// stepOnce runs one communication cycle: evaluate the last controlword,
// publish the statusword, and report transitions and flag edges.
func (n *Node) stepOnce() error {
	n.axis.Step(n.controlword)

	if t := n.axis.Transition(); t != cia402.TransitionNone {
		n.log.WithFields(logrus.Fields{
			"transition":  t.String(),
			"state":       n.axis.State().String(),
			"controlword": fmt.Sprintf("0x%04X", n.controlword),
		}).Info("state transition")
		switch t {
		case cia402.FaultReactionActiveToFault:
			if err := n.sendEMCY(n.errorCode, 0x01); err != nil {
				return err
			}
		case cia402.FaultToSwitchOnDisabled:
			n.errorCode = canopen.EmcyNoError
			if err := n.sendEMCY(canopen.EmcyNoError, 0x00); err != nil {
				return err
			}
		}
	}

	n.logFlagEdges()

	// PDOs are only produced in the operational NMT state; the
	// statusword stays readable by SDO in pre-operational.
	if n.nmtState == canopen.StateOperational {
		f, err := canopen.BuildStatuswordTPDO(canopen.NodeID(n.cfg.NodeID), n.statusword)
		if err != nil {
			return err
		}
		if err := n.bus.Send(f); err != nil {
			return fmt.Errorf("drive: statusword tpdo: %w", err)
		}
	}
	return nil
}

func (n *Node) logFlagEdges() {
	now, prev := n.axis.Flags(), n.axis.PrevFlags()
	if now == prev {
		return
	}
	edge := func(name string, was, is bool) {
		if was != is {
			n.log.WithFields(logrus.Fields{"flag": name, "value": is}).Info("capability flag edge")
		}
	}
	edge("config_allowed", prev.ConfigAllowed, now.ConfigAllowed)
	edge("axis_function_enabled", prev.AxisFunctionEnabled, now.AxisFunctionEnabled)
	edge("hv_power_applied", prev.HVPowerApplied, now.HVPowerApplied)
	edge("brake_applied", prev.BrakeApplied, now.BrakeApplied)
}

func (n *Node) handleFrame(f canbus.Frame) {
	switch f.ID {
	case canopen.COBID(canopen.FC_NMT, 0):
		n.handleNMT(f)
	case canopen.COBID(canopen.FC_RPDO1, canopen.NodeID(n.cfg.NodeID)):
		n.handleControlword(f)
	case canopen.COBID(canopen.FC_SDO_RX, canopen.NodeID(n.cfg.NodeID)):
		n.handleSDO(f)
	}
}

func (n *Node) handleNMT(f canbus.Frame) {
	cmd, target, err := ParseNMTFor(f, n.cfg.NodeID)
	if err != nil {
		return
	}
	if !target {
		return
	}
	prev := n.nmtState
	switch cmd {
	case canopen.NMTStart:
		n.nmtState = canopen.StateOperational
	case canopen.NMTStop:
		n.nmtState = canopen.StateStopped
	case canopen.NMTEnterPreOperational:
		n.nmtState = canopen.StatePreOperational
	case canopen.NMTResetNode, canopen.NMTResetCommunication:
		n.nmtState = canopen.StatePreOperational
		n.controlword = 0
		_ = n.sendHeartbeat(canopen.StateBootup)
	}
	if n.nmtState != prev {
		n.log.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   n.nmtState.String(),
		}).Info("nmt state change")
	}
}

// ParseNMTFor decodes an NMT frame and reports whether it addresses the
// given node (directly or by broadcast).
func ParseNMTFor(f canbus.Frame, nodeID uint8) (canopen.NMTCommand, bool, error) {
	cmd, target, err := canopen.ParseNMT(f)
	if err != nil {
		return 0, false, err
	}
	return cmd, target == 0 || target == nodeID, nil
}

func (n *Node) handleControlword(f canbus.Frame) {
	// RPDOs are only accepted in the operational NMT state, matching the
	// axis's view that commands flow over an operational link.
	if n.nmtState != canopen.StateOperational {
		return
	}
	_, cw, err := canopen.ParseControlwordRPDO(f)
	if err != nil {
		n.log.WithError(err).Debug("bad controlword pdo")
		return
	}
	n.controlword = cw
}

func (n *Node) handleSDO(f canbus.Frame) {
	if n.nmtState == canopen.StateStopped {
		return
	}
	node := canopen.NodeID(n.cfg.NodeID)
	req, err := canopen.ParseSDORequest(f)
	if err != nil {
		if ab, aerr := canopen.BuildSDOAbort(node, 0, 0, canopen.AbortUnsupportedAccess); aerr == nil {
			_ = n.bus.Send(ab)
		}
		return
	}

	abort := func(code uint32) {
		if ab, aerr := canopen.BuildSDOAbort(node, req.Index, req.Sub, code); aerr == nil {
			_ = n.bus.Send(ab)
		}
	}

	if req.Sub != 0 {
		abort(canopen.AbortObjectNotFound)
		return
	}

	if req.Write {
		switch req.Index {
		case canopen.ObjControlword:
			if len(req.Data) != 2 {
				abort(canopen.AbortParamLength)
				return
			}
			n.controlword = binary.LittleEndian.Uint16(req.Data)
		case canopen.ObjModesOfOperation:
			if len(req.Data) != 1 {
				abort(canopen.AbortParamLength)
				return
			}
			n.modeOfOp = int8(req.Data[0])
		case canopen.ObjStatusword, canopen.ObjErrorCode, canopen.ObjModesOfOperationDisp:
			abort(canopen.AbortWriteReadOnly)
			return
		default:
			abort(canopen.AbortObjectNotFound)
			return
		}
		if rsp, err := canopen.BuildSDODownloadResponse(node, req.Index, req.Sub); err == nil {
			_ = n.bus.Send(rsp)
		}
		return
	}

	var data []byte
	switch req.Index {
	case canopen.ObjControlword:
		data = le16(n.controlword)
	case canopen.ObjStatusword:
		data = le16(n.statusword)
	case canopen.ObjErrorCode:
		data = le16(n.errorCode)
	case canopen.ObjModesOfOperation, canopen.ObjModesOfOperationDisp:
		data = []byte{byte(n.modeOfOp)}
	default:
		abort(canopen.AbortObjectNotFound)
		return
	}
	if rsp, err := canopen.BuildSDOUploadResponse(node, req.Index, req.Sub, data); err == nil {
		_ = n.bus.Send(rsp)
	}
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func (n *Node) sendHeartbeat(state canopen.NMTState) error {
	f, err := canopen.BuildHeartbeat(canopen.NodeID(n.cfg.NodeID), state)
	if err != nil {
		return err
	}
	if err := n.bus.Send(f); err != nil {
		return fmt.Errorf("drive: heartbeat: %w", err)
	}
	return nil
}

func (n *Node) sendEMCY(code uint16, register uint8) error {
	f, err := canopen.BuildEMCY(canopen.Emergency{
		Node:          canopen.NodeID(n.cfg.NodeID),
		ErrorCode:     code,
		ErrorRegister: register,
	})
	if err != nil {
		return err
	}
	if err := n.bus.Send(f); err != nil {
		return fmt.Errorf("drive: emcy: %w", err)
	}
	return nil
}
