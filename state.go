package cia402

// State is the operating state of an axis per the CiA 402 power state
// machine. The numeric value of each state is its statusword
// state-indicator bit pattern, so deriving the reported statusword from a
// state is a single OR.
type State uint16

const (
	NotReadyToSwitchOn  State = 0x0000
	SwitchOnDisabled    State = 0x0040
	ReadyToSwitchOn     State = 0x0021
	SwitchedOn          State = 0x0023
	OperationEnabled    State = 0x0027
	QuickStopActive     State = 0x0007
	FaultReactionActive State = 0x000F
	Fault               State = 0x0008
)

// Valid reports whether s is one of the eight defined states. Step treats
// any other value as a recoverable anomaly and resets the axis.
func (s State) Valid() bool {
	switch s {
	case NotReadyToSwitchOn, SwitchOnDisabled, ReadyToSwitchOn, SwitchedOn,
		OperationEnabled, QuickStopActive, FaultReactionActive, Fault:
		return true
	}
	return false
}

// Statusword returns the statusword bit pattern indicating this state.
func (s State) Statusword() uint16 {
	return uint16(s)
}

func (s State) String() string {
	switch s {
	case NotReadyToSwitchOn:
		return "not ready to switch on"
	case SwitchOnDisabled:
		return "switch on disabled"
	case ReadyToSwitchOn:
		return "ready to switch on"
	case SwitchedOn:
		return "switched on"
	case OperationEnabled:
		return "operation enabled"
	case QuickStopActive:
		return "quick stop active"
	case FaultReactionActive:
		return "fault reaction active"
	case Fault:
		return "fault"
	}
	return "unknown"
}
