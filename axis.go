package cia402

// LinkStatus is the application-layer state of the communication link the
// axis is supervised over. The axis only ever tests it for equality with
// LinkOperational; every other value means the link is not operational.
//
// The value space intentionally matches the CANopen NMT node states so a
// CANopen transport can hand its NMT state through unchanged.
type LinkStatus uint8

// LinkOperational is the single sentinel the state machine compares the
// link status against.
const LinkOperational LinkStatus = 0x05

// LinkSource is the read-only view of the link status owned by the
// communication layer. Implementations must not block.
type LinkSource interface {
	LinkStatus() LinkStatus
}

// StatusSink receives the statusword produced by each Step call. The axis
// holds exclusive write authority over the statusword during Step and
// rewrites it in full on every call; implementations must not block.
type StatusSink interface {
	SetStatusword(uint16)
}

// LinkStatusValue is a LinkSource backed by a plain variable, for callers
// that own the link state themselves (and for tests).
type LinkStatusValue LinkStatus

func (v *LinkStatusValue) LinkStatus() LinkStatus { return LinkStatus(*v) }

// StatuswordValue is a StatusSink backed by a plain variable.
type StatuswordValue uint16

func (v *StatuswordValue) SetStatusword(w uint16) { *v = StatuswordValue(w) }

// Axis is the CiA 402 power state machine for a single motor/drive
// channel. It is created once at bootstrap and mutated only by Step (and
// Trip) for the lifetime of the device.
//
// Axis is not safe for concurrent use: Step must be invoked from a single
// logical context, the periodic communication cycle, and the link source
// must not change mid-call.
type Axis struct {
	state      State
	transition Transition
	flags      Flags
	prevFlags  Flags

	status StatusSink
	link   LinkSource
}

// NewAxis creates an axis in NotReadyToSwitchOn with all capability flags
// cleared. No statusword write happens here; the first Step call performs
// the first write.
func NewAxis(status StatusSink, link LinkSource) *Axis {
	return &Axis{
		state:      NotReadyToSwitchOn,
		transition: TransitionNone,
		status:     status,
		link:       link,
	}
}

// State returns the current operating state.
func (a *Axis) State() State { return a.state }

// Transition returns the edge taken by the most recent Step call, or
// TransitionNone.
func (a *Axis) Transition() Transition { return a.transition }

// Flags returns the capability flags derived from the current state.
func (a *Axis) Flags() Flags { return a.flags }

// PrevFlags returns the flags as they were before the most recent Step
// call, for edge detection.
func (a *Axis) PrevFlags() Flags { return a.prevFlags }

// Trip forces the axis into FaultReactionActive. It is the hook for drive
// firmware that has detected a fault condition; the next Step call
// advances to Fault unconditionally. The statusword and capability flags
// are not touched until that Step call.
func (a *Axis) Trip() {
	a.state = FaultReactionActive
	a.transition = ToFaultReactionActive
}

// Step evaluates one controlword against the current state and link
// status. It updates the state, rewrites the statusword in full, rederives
// the capability flags and records the transition taken. Guards within a
// state are evaluated in order and the first match wins.
//
// Step cannot fail: an axis observed in an undefined state is silently
// reset to NotReadyToSwitchOn with all flags cleared.
func (a *Axis) Step(controlword uint16) {
	var statusword uint16
	a.transition = TransitionNone
	a.prevFlags = a.flags

	operational := a.link.LinkStatus() == LinkOperational

	switch a.state {
	case NotReadyToSwitchOn:
		// Transition 1 happens on its own once the link comes up; no
		// command can move the axis out of this state.
		if operational {
			a.enter(SwitchOnDisabled, NotReadyToSwitchOnToSwitchOnDisabled, &statusword)
		} else {
			statusword |= a.state.Statusword()
		}

	case SwitchOnDisabled:
		if Shutdown.Matches(controlword) || operational {
			a.enter(ReadyToSwitchOn, SwitchOnDisabledToReadyToSwitchOn, &statusword)
		} else {
			statusword |= a.state.Statusword()
		}

	case ReadyToSwitchOn:
		switch {
		case DisableVoltage.Matches(controlword):
			a.enter(SwitchOnDisabled, ReadyToSwitchOnToSwitchOnDisabled, &statusword)
		case SwitchOn.Matches(controlword):
			a.enter(SwitchedOn, ReadyToSwitchOnToSwitchedOn, &statusword)
			if SwitchOnEnable.Matches(controlword) {
				// Transitions 3 + 4 in a single controlword.
				a.enter(OperationEnabled, ReadyToSwitchOnToOperationEnabled, &statusword)
			}
		default:
			statusword |= a.state.Statusword()
		}

	case SwitchedOn:
		switch {
		case Shutdown.Matches(controlword):
			a.enter(ReadyToSwitchOn, SwitchedOnToReadyToSwitchOn, &statusword)
		case EnableOperation.Matches(controlword):
			a.enter(OperationEnabled, SwitchedOnToOperationEnabled, &statusword)
		case DisableVoltage.Matches(controlword):
			a.enter(SwitchOnDisabled, SwitchedOnToSwitchOnDisabled, &statusword)
		default:
			statusword |= a.state.Statusword()
		}

	case OperationEnabled:
		switch {
		case DisableOperation.Matches(controlword):
			a.enter(SwitchedOn, OperationEnabledToSwitchedOn, &statusword)
		case Shutdown.Matches(controlword):
			a.enter(ReadyToSwitchOn, OperationEnabledToReadyToSwitchOn, &statusword)
		case DisableVoltage.Matches(controlword) || !operational:
			// Link loss forces the power stage off regardless of the
			// commanded word.
			a.enter(SwitchOnDisabled, OperationEnabledToSwitchOnDisabled, &statusword)
		case QuickStop.Matches(controlword):
			a.enter(QuickStopActive, OperationEnabledToQuickStopActive, &statusword)
		default:
			statusword |= a.state.Statusword()
		}

	case QuickStopActive:
		switch {
		case DisableVoltage.Matches(controlword):
			a.enter(SwitchOnDisabled, QuickStopActiveToSwitchOnDisabled, &statusword)
		case EnableOperation.Matches(controlword):
			// The standard defines a transition back to OperationEnabled
			// here but recommends against it; this machine deliberately
			// stays in QuickStopActive.
			statusword |= a.state.Statusword()
		default:
			statusword |= a.state.Statusword()
		}

	case FaultReactionActive:
		// Automatic, no guard: the fault reaction has run its course.
		a.enter(Fault, FaultReactionActiveToFault, &statusword)

	case Fault:
		if FaultReset.Matches(controlword) {
			a.enter(SwitchOnDisabled, FaultToSwitchOnDisabled, &statusword)
		} else {
			statusword |= a.state.Statusword()
		}

	default:
		// Undefined state value: recover locally, report nothing upward.
		a.state = NotReadyToSwitchOn
		statusword |= a.state.Statusword()
		a.transition = TransitionNone
		a.flags = Flags{}
	}

	a.flags.applyState(a.state)
	a.status.SetStatusword(statusword)
}

// enter moves the axis to the destination state, merges its statusword
// bits and records the transition.
func (a *Axis) enter(to State, t Transition, statusword *uint16) {
	a.state = to
	*statusword |= to.Statusword()
	a.transition = t
}
