// Command cia402sim runs a CiA 402 drive node and a scripted master
// against an in-memory CAN bus, walking the axis through the power-on
// sequence, a quick stop and a fault trip with recovery.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notnil/cia402"
	"github.com/notnil/cia402/canbus"
	"github.com/notnil/cia402/canopen"
	"github.com/notnil/cia402/drive"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cia402sim <config.yaml>")
		os.Exit(2)
	}

	cfg, err := drive.Load(os.Args[1])
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation failed: %v", err)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	bus := canbus.NewLoopbackBus()
	defer bus.Close()

	node, err := drive.NewNode(cfg, bus.Open(), log)
	if err != nil {
		log.Fatalf("node build failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := node.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("node stopped: %v", err)
		}
	}()

	if err := runMaster(cfg, bus, node, log); err != nil {
		log.Fatalf("master script failed: %v", err)
	}
	log.Info("sequence complete")
}

// runMaster drives the node through the demo sequence and logs what it
// observes on the bus.
func runMaster(cfg drive.Config, bus *canbus.LoopbackBus, node *drive.Node, log *logrus.Logger) error {
	nodeID := canopen.NodeID(cfg.NodeID)
	ep := canbus.NewLoggedBus(bus.Open(), log, canbus.LogWrite, nil)
	defer ep.Close()

	status := make(chan uint16, 64)
	go func() {
		for {
			f, err := ep.Receive()
			if err != nil {
				close(status)
				return
			}
			if e, err := canopen.ParseEMCY(f); err == nil {
				log.WithFields(logrus.Fields{
					"code":     fmt.Sprintf("0x%04X", e.ErrorCode),
					"register": e.ErrorRegister,
				}).Info("emcy received")
				continue
			}
			if n, st, err := canopen.ParseHeartbeat(f); err == nil && n == nodeID {
				log.WithField("state", st.String()).Debug("heartbeat")
				continue
			}
			if n, sw, err := canopen.ParseStatuswordTPDO(f); err == nil && n == nodeID {
				select {
				case status <- sw:
				default:
				}
			}
		}
	}()

	await := func(want cia402.State) error {
		deadline := time.After(5 * time.Second)
		for {
			select {
			case sw, ok := <-status:
				if !ok {
					return fmt.Errorf("bus closed awaiting %v", want)
				}
				if sw == want.Statusword() {
					log.WithField("state", want.String()).Info("axis reached state")
					return nil
				}
			case <-deadline:
				return fmt.Errorf("timed out awaiting %v", want)
			}
		}
	}
	command := func(c cia402.Command) error {
		f, err := canopen.BuildControlwordRPDO(nodeID, c.Controlword())
		if err != nil {
			return err
		}
		log.WithField("command", c.String()).Info("master command")
		return ep.Send(f)
	}

	// Bring the link up; transitions 1 and 2 run on their own.
	if err := ep.Send(canopen.BuildNMT(canopen.NMTStart, uint8(nodeID))); err != nil {
		return err
	}
	if err := await(cia402.ReadyToSwitchOn); err != nil {
		return err
	}

	// Power-on with the combined switch-on + enable-operation word.
	if err := command(cia402.SwitchOnEnable); err != nil {
		return err
	}
	if err := await(cia402.OperationEnabled); err != nil {
		return err
	}

	// Quick stop, then drop the power stage.
	if err := command(cia402.QuickStop); err != nil {
		return err
	}
	if err := await(cia402.QuickStopActive); err != nil {
		return err
	}
	if err := command(cia402.DisableVoltage); err != nil {
		return err
	}
	if err := await(cia402.SwitchOnDisabled); err != nil {
		return err
	}

	// Fault trip from the firmware side, then recover.
	log.Info("injecting drive fault")
	node.Trip()
	if err := await(cia402.Fault); err != nil {
		return err
	}
	if err := command(cia402.FaultReset); err != nil {
		return err
	}
	return await(cia402.ReadyToSwitchOn)
}
