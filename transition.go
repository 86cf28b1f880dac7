package cia402

// Transition identifies the state-machine edge taken by the most recent
// Step call, or TransitionNone when the call left the state unchanged.
// Transitions are informational, for diagnostics and logging by the
// caller; the machine never consults them.
type Transition uint8

const (
	TransitionNone Transition = iota
	NotReadyToSwitchOnToSwitchOnDisabled
	SwitchOnDisabledToReadyToSwitchOn
	ReadyToSwitchOnToSwitchedOn
	ReadyToSwitchOnToOperationEnabled
	ReadyToSwitchOnToSwitchOnDisabled
	SwitchedOnToReadyToSwitchOn
	SwitchedOnToOperationEnabled
	SwitchedOnToSwitchOnDisabled
	OperationEnabledToSwitchedOn
	OperationEnabledToReadyToSwitchOn
	OperationEnabledToSwitchOnDisabled
	OperationEnabledToQuickStopActive
	QuickStopActiveToSwitchOnDisabled
	QuickStopActiveToOperationEnabled
	FaultReactionActiveToFault
	FaultToSwitchOnDisabled
	ToFaultReactionActive
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case NotReadyToSwitchOnToSwitchOnDisabled:
		return "not ready to switch on -> switch on disabled"
	case SwitchOnDisabledToReadyToSwitchOn:
		return "switch on disabled -> ready to switch on"
	case ReadyToSwitchOnToSwitchedOn:
		return "ready to switch on -> switched on"
	case ReadyToSwitchOnToOperationEnabled:
		return "ready to switch on -> operation enabled"
	case ReadyToSwitchOnToSwitchOnDisabled:
		return "ready to switch on -> switch on disabled"
	case SwitchedOnToReadyToSwitchOn:
		return "switched on -> ready to switch on"
	case SwitchedOnToOperationEnabled:
		return "switched on -> operation enabled"
	case SwitchedOnToSwitchOnDisabled:
		return "switched on -> switch on disabled"
	case OperationEnabledToSwitchedOn:
		return "operation enabled -> switched on"
	case OperationEnabledToReadyToSwitchOn:
		return "operation enabled -> ready to switch on"
	case OperationEnabledToSwitchOnDisabled:
		return "operation enabled -> switch on disabled"
	case OperationEnabledToQuickStopActive:
		return "operation enabled -> quick stop active"
	case QuickStopActiveToSwitchOnDisabled:
		return "quick stop active -> switch on disabled"
	case QuickStopActiveToOperationEnabled:
		return "quick stop active -> operation enabled"
	case FaultReactionActiveToFault:
		return "fault reaction active -> fault"
	case FaultToSwitchOnDisabled:
		return "fault -> switch on disabled"
	case ToFaultReactionActive:
		return "-> fault reaction active"
	}
	return "unknown"
}
