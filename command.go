package cia402

// Command is one of the named controlword commands of CiA 402. A command is
// present in a controlword when the masked word equals the command's
// pattern; unused controlword bits are ignored.
type Command uint8

const (
	Shutdown Command = iota
	SwitchOn
	// SwitchOnEnable is the combined "switch on + enable operation"
	// pattern. When present together with SwitchOn from ReadyToSwitchOn,
	// the axis continues directly to OperationEnabled in a single call.
	SwitchOnEnable
	DisableVoltage
	QuickStop
	DisableOperation
	EnableOperation
	FaultReset

	numCommands
)

// commandPattern is a (mask, pattern) pair; the values are fixed by the
// CiA 402 standard and are not configurable.
type commandPattern struct {
	mask    uint16
	pattern uint16
}

var commandTable = [numCommands]commandPattern{
	Shutdown:         {mask: 0x0087, pattern: 0x0006},
	SwitchOn:         {mask: 0x0087, pattern: 0x0007},
	SwitchOnEnable:   {mask: 0x008F, pattern: 0x000F},
	DisableVoltage:   {mask: 0x0082, pattern: 0x0000},
	QuickStop:        {mask: 0x0086, pattern: 0x0002},
	DisableOperation: {mask: 0x008F, pattern: 0x0007},
	EnableOperation:  {mask: 0x008F, pattern: 0x000F},
	FaultReset:       {mask: 0x0080, pattern: 0x0080},
}

// Matches reports whether the command is present in the controlword.
func (c Command) Matches(controlword uint16) bool {
	p := commandTable[c]
	return controlword&p.mask == p.pattern
}

// Controlword returns a controlword carrying exactly the command's
// pattern. Useful for masters composing requests.
func (c Command) Controlword() uint16 {
	return commandTable[c].pattern
}

func (c Command) String() string {
	switch c {
	case Shutdown:
		return "shutdown"
	case SwitchOn:
		return "switch on"
	case SwitchOnEnable:
		return "switch on + enable operation"
	case DisableVoltage:
		return "disable voltage"
	case QuickStop:
		return "quick stop"
	case DisableOperation:
		return "disable operation"
	case EnableOperation:
		return "enable operation"
	case FaultReset:
		return "fault reset"
	}
	return "unknown"
}
