package cia402

import "testing"

// testAxis returns an axis wired to local statusword/link storage.
func testAxis() (*Axis, *StatuswordValue, *LinkStatusValue) {
	var sw StatuswordValue
	var link LinkStatusValue
	return NewAxis(&sw, &link), &sw, &link
}

func TestNewAxisInitialState(t *testing.T) {
	a, sw, _ := testAxis()
	if a.State() != NotReadyToSwitchOn {
		t.Fatalf("initial state: %v", a.State())
	}
	if a.Transition() != TransitionNone {
		t.Fatalf("initial transition: %v", a.Transition())
	}
	if a.Flags() != (Flags{}) || a.PrevFlags() != (Flags{}) {
		t.Fatalf("initial flags: %+v prev %+v", a.Flags(), a.PrevFlags())
	}
	// No statusword write until the first Step.
	if *sw != 0 {
		t.Fatalf("statusword written at init: 0x%04X", uint16(*sw))
	}
}

func TestPowerOnSequence(t *testing.T) {
	a, sw, link := testAxis()
	*link = LinkStatusValue(LinkOperational)

	steps := []struct {
		controlword uint16
		state       State
		transition  Transition
	}{
		{0x0000, SwitchOnDisabled, NotReadyToSwitchOnToSwitchOnDisabled},
		{Shutdown.Controlword(), ReadyToSwitchOn, SwitchOnDisabledToReadyToSwitchOn},
		{SwitchOn.Controlword(), SwitchedOn, ReadyToSwitchOnToSwitchedOn},
		{EnableOperation.Controlword(), OperationEnabled, SwitchedOnToOperationEnabled},
		{DisableOperation.Controlword(), SwitchedOn, OperationEnabledToSwitchedOn},
		{DisableVoltage.Controlword(), SwitchOnDisabled, SwitchedOnToSwitchOnDisabled},
	}
	for i, st := range steps {
		a.Step(st.controlword)
		if a.State() != st.state {
			t.Fatalf("step %d: state %v, want %v", i, a.State(), st.state)
		}
		if a.Transition() != st.transition {
			t.Fatalf("step %d: transition %v, want %v", i, a.Transition(), st.transition)
		}
		if uint16(*sw) != st.state.Statusword() {
			t.Fatalf("step %d: statusword 0x%04X, want 0x%04X", i, uint16(*sw), st.state.Statusword())
		}
	}
}

func TestDoubleTransitionSwitchOnEnable(t *testing.T) {
	a, sw, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000) // -> SwitchOnDisabled
	a.Step(0x0000) // -> ReadyToSwitchOn (link operational satisfies the guard)

	a.Step(SwitchOnEnable.Controlword())
	if a.State() != OperationEnabled {
		t.Fatalf("state: %v, want operation enabled", a.State())
	}
	if a.Transition() != ReadyToSwitchOnToOperationEnabled {
		t.Fatalf("transition: %v", a.Transition())
	}
	if uint16(*sw) != OperationEnabled.Statusword() {
		t.Fatalf("statusword: 0x%04X", uint16(*sw))
	}
	want := Flags{ConfigAllowed: false, AxisFunctionEnabled: true, HVPowerApplied: true, BrakeApplied: false}
	if a.Flags() != want {
		t.Fatalf("flags: %+v, want %+v", a.Flags(), want)
	}
}

func TestIdempotentStayInReadyToSwitchOn(t *testing.T) {
	a, _, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000)
	a.Step(0x0000)
	if a.State() != ReadyToSwitchOn {
		t.Fatalf("state after bring-up: %v", a.State())
	}
	// A quick-stop word has no effect in this state; the state stays
	// stable and transition must read none.
	for i := 0; i < 5; i++ {
		a.Step(QuickStop.Controlword())
		if a.State() != ReadyToSwitchOn {
			t.Fatalf("iteration %d: state %v", i, a.State())
		}
		if a.Transition() != TransitionNone {
			t.Fatalf("iteration %d: transition %v", i, a.Transition())
		}
	}
}

func TestLinkLossWhileOperating(t *testing.T) {
	a, _, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000)
	a.Step(0x0000)
	a.Step(SwitchOnEnable.Controlword())
	if a.State() != OperationEnabled {
		t.Fatalf("setup: %v", a.State())
	}

	*link = 0
	// Even a controlword asking to enable operation cannot hold the state
	// once the link is down.
	a.Step(EnableOperation.Controlword())
	if a.State() != SwitchOnDisabled {
		t.Fatalf("state after link loss: %v", a.State())
	}
	if a.Transition() != OperationEnabledToSwitchOnDisabled {
		t.Fatalf("transition: %v", a.Transition())
	}
}

func TestQuickStopIgnoresEnableOperation(t *testing.T) {
	a, sw, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000)
	a.Step(0x0000)
	a.Step(SwitchOnEnable.Controlword())
	a.Step(QuickStop.Controlword())
	if a.State() != QuickStopActive {
		t.Fatalf("setup: %v", a.State())
	}
	if a.Transition() != OperationEnabledToQuickStopActive {
		t.Fatalf("transition: %v", a.Transition())
	}

	// The standard's transition back to OperationEnabled is deliberately
	// not taken.
	a.Step(EnableOperation.Controlword())
	if a.State() != QuickStopActive {
		t.Fatalf("state: %v, want quick stop active", a.State())
	}
	if a.Transition() != TransitionNone {
		t.Fatalf("transition: %v", a.Transition())
	}
	if uint16(*sw) != QuickStopActive.Statusword() {
		t.Fatalf("statusword: 0x%04X", uint16(*sw))
	}

	a.Step(DisableVoltage.Controlword())
	if a.State() != SwitchOnDisabled || a.Transition() != QuickStopActiveToSwitchOnDisabled {
		t.Fatalf("disable voltage from quick stop: state %v transition %v", a.State(), a.Transition())
	}
}

func TestFaultPath(t *testing.T) {
	a, sw, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000)
	a.Step(0x0000)
	a.Step(SwitchOnEnable.Controlword())

	a.Trip()
	if a.State() != FaultReactionActive {
		t.Fatalf("state after trip: %v", a.State())
	}
	if a.Transition() != ToFaultReactionActive {
		t.Fatalf("transition after trip: %v", a.Transition())
	}

	// Fault reaction completes unconditionally, whatever the inputs.
	*link = 0
	a.Step(EnableOperation.Controlword())
	if a.State() != Fault || a.Transition() != FaultReactionActiveToFault {
		t.Fatalf("fault entry: state %v transition %v", a.State(), a.Transition())
	}
	if uint16(*sw) != Fault.Statusword() {
		t.Fatalf("statusword: 0x%04X", uint16(*sw))
	}
	want := Flags{ConfigAllowed: true}
	if a.Flags() != want {
		t.Fatalf("fault flags: %+v", a.Flags())
	}

	// Anything but a fault reset keeps the axis in Fault.
	for _, cw := range []uint16{0x0000, Shutdown.Controlword(), SwitchOnEnable.Controlword(), QuickStop.Controlword()} {
		a.Step(cw)
		if a.State() != Fault {
			t.Fatalf("controlword 0x%04X left fault: %v", cw, a.State())
		}
		if a.Transition() != TransitionNone {
			t.Fatalf("controlword 0x%04X: transition %v", cw, a.Transition())
		}
	}

	a.Step(FaultReset.Controlword())
	if a.State() != SwitchOnDisabled || a.Transition() != FaultToSwitchOnDisabled {
		t.Fatalf("fault reset: state %v transition %v", a.State(), a.Transition())
	}
}

func TestTripFromEveryState(t *testing.T) {
	for _, from := range []State{
		NotReadyToSwitchOn, SwitchOnDisabled, ReadyToSwitchOn, SwitchedOn,
		OperationEnabled, QuickStopActive, Fault,
	} {
		a, _, _ := testAxis()
		a.state = from
		a.Trip()
		if a.State() != FaultReactionActive {
			t.Fatalf("trip from %v: %v", from, a.State())
		}
		a.Step(0x0000)
		if a.State() != Fault {
			t.Fatalf("step after trip from %v: %v", from, a.State())
		}
	}
}

func TestDefensiveResetFromUndefinedState(t *testing.T) {
	a, sw, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000)
	a.Step(0x0000)
	a.Step(SwitchOnEnable.Controlword())

	a.state = State(0xBEEF)
	a.Step(SwitchOnEnable.Controlword())
	if a.State() != NotReadyToSwitchOn {
		t.Fatalf("state: %v, want not ready to switch on", a.State())
	}
	if a.Transition() != TransitionNone {
		t.Fatalf("transition: %v", a.Transition())
	}
	if a.Flags() != (Flags{}) {
		t.Fatalf("flags not cleared: %+v", a.Flags())
	}
	if uint16(*sw) != NotReadyToSwitchOn.Statusword() {
		t.Fatalf("statusword: 0x%04X", uint16(*sw))
	}
	// Previous flags are still the pre-reset snapshot, so the caller can
	// see the power/brake edges caused by the recovery.
	if !a.PrevFlags().HVPowerApplied {
		t.Fatalf("prev flags lost: %+v", a.PrevFlags())
	}
}

func TestFlagsMatchDerivationTable(t *testing.T) {
	cases := []struct {
		state State
		want  Flags
	}{
		{SwitchOnDisabled, Flags{ConfigAllowed: true, BrakeApplied: true}},
		{ReadyToSwitchOn, Flags{ConfigAllowed: true, BrakeApplied: true}},
		{SwitchedOn, Flags{ConfigAllowed: true, HVPowerApplied: true, BrakeApplied: true}},
		{OperationEnabled, Flags{AxisFunctionEnabled: true, HVPowerApplied: true}},
		{QuickStopActive, Flags{AxisFunctionEnabled: true, HVPowerApplied: true}},
		{Fault, Flags{ConfigAllowed: true}},
	}
	for _, tc := range cases {
		a, _, link := testAxis()
		*link = LinkStatusValue(LinkOperational)
		a.state = tc.state
		// A quick-stop word either leaves the state put or moves it
		// within the same flag group (SwitchOnDisabled->ReadyToSwitchOn,
		// OperationEnabled->QuickStopActive), so the expected flags hold
		// for the resulting state either way.
		a.Step(QuickStop.Controlword())
		if a.Flags() != tc.want {
			t.Fatalf("from %v (now %v): flags %+v, want %+v", tc.state, a.State(), a.Flags(), tc.want)
		}
	}
}

func TestStatuswordHasExactlyResultingStatePattern(t *testing.T) {
	controlwords := []uint16{
		0x0000, Shutdown.Controlword(), SwitchOn.Controlword(),
		SwitchOnEnable.Controlword(), QuickStop.Controlword(),
		DisableOperation.Controlword(), FaultReset.Controlword(), 0xFFFF,
	}
	states := []State{
		NotReadyToSwitchOn, SwitchOnDisabled, ReadyToSwitchOn, SwitchedOn,
		OperationEnabled, QuickStopActive, FaultReactionActive, Fault,
	}
	for _, linkUp := range []bool{true, false} {
		for _, from := range states {
			for _, cw := range controlwords {
				a, sw, link := testAxis()
				if linkUp {
					*link = LinkStatusValue(LinkOperational)
				}
				a.state = from
				a.Step(cw)
				if uint16(*sw) != a.State().Statusword() {
					t.Fatalf("from %v cw 0x%04X link %v: statusword 0x%04X, state %v",
						from, cw, linkUp, uint16(*sw), a.State())
				}
			}
		}
	}
}

func TestPrevFlagsEdgeDetection(t *testing.T) {
	a, _, link := testAxis()
	*link = LinkStatusValue(LinkOperational)
	a.Step(0x0000) // -> SwitchOnDisabled, brake flag rises
	if !a.Flags().BrakeApplied || a.PrevFlags().BrakeApplied {
		t.Fatalf("brake edge missed: now %+v prev %+v", a.Flags(), a.PrevFlags())
	}
	a.Step(0x0000)
	a.Step(SwitchOnEnable.Controlword()) // -> OperationEnabled, HV rises, brake falls
	if !a.Flags().HVPowerApplied || a.PrevFlags().HVPowerApplied {
		t.Fatalf("hv edge missed: now %+v prev %+v", a.Flags(), a.PrevFlags())
	}
	if a.Flags().BrakeApplied || !a.PrevFlags().BrakeApplied {
		t.Fatalf("brake release edge missed: now %+v prev %+v", a.Flags(), a.PrevFlags())
	}
}
