package cia402

// Flags are the capability outputs consumed by the power-stage, brake and
// configuration-gating parts of a drive. They are fully derived from the
// axis state after every Step call and must not be set independently.
type Flags struct {
	// ConfigAllowed gates parameter/configuration writes to the drive.
	ConfigAllowed bool
	// AxisFunctionEnabled gates the motion function (setpoints accepted).
	AxisFunctionEnabled bool
	// HVPowerApplied requests high voltage on the power stage.
	HVPowerApplied bool
	// BrakeApplied requests the holding brake to be engaged.
	BrakeApplied bool
}

// applyState rewrites the flags for the given state per the CiA 402
// capability table. NotReadyToSwitchOn and FaultReactionActive leave the
// flags untouched; only the defensive reset path clears them there.
func (f *Flags) applyState(s State) {
	switch s {
	case SwitchOnDisabled, ReadyToSwitchOn:
		f.ConfigAllowed = true
		f.AxisFunctionEnabled = false
		f.HVPowerApplied = false
		f.BrakeApplied = true

	case SwitchedOn:
		f.ConfigAllowed = true
		f.AxisFunctionEnabled = false
		f.HVPowerApplied = true
		f.BrakeApplied = true

	case OperationEnabled, QuickStopActive:
		f.ConfigAllowed = false
		f.AxisFunctionEnabled = true
		f.HVPowerApplied = true
		f.BrakeApplied = false

	case Fault:
		f.ConfigAllowed = true
		f.AxisFunctionEnabled = false
		f.HVPowerApplied = false
		f.BrakeApplied = false
	}
}
