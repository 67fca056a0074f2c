package bkp9151

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// IntRange is an inclusive integer bound applied to a single parameter.
type IntRange struct {
	Param string
	Min   int
	Max   int
}

// Check returns a *ParameterError when v is outside the range.
func (r IntRange) Check(op string, v int) error {
	if v < r.Min || v > r.Max {
		return &ParameterError{
			Op:     op,
			Param:  r.Param,
			Value:  v,
			Reason: fmt.Sprintf("valid values are %d to %d", r.Min, r.Max),
		}
	}
	return nil
}

// MaxListLevels is the number of steps a list file holds.
const MaxListLevels = 25

// Parameter ranges accepted by the instrument. They are fixed; callers
// reach them through the encoders or the Check helpers below.
var (
	registerRange    = IntRange{Param: "register", Min: 1, Max: 50}
	enableMaskRange  = IntRange{Param: "enable mask", Min: 0, Max: 255}
	timerRange       = IntRange{Param: "timer seconds", Min: 1, Max: 432000}
	currentRange     = IntRange{Param: "current (mA)", Min: 0, Max: 27100}
	voltageRange     = IntRange{Param: "voltage (mV)", Min: 0, Max: 21000}
	listCountRange   = IntRange{Param: "list count", Min: 2, Max: 400}
	listLevelRange   = IntRange{Param: "list level", Min: 1, Max: MaxListLevels}
	listCurrentRange = IntRange{Param: "list current (mA)", Min: 0, Max: 27100}
	listVoltageRange = IntRange{Param: "list voltage (mV)", Min: 0, Max: 21000}
	listWidthRange   = IntRange{Param: "list width", Min: 0, Max: 60000}
	listSlotRange    = IntRange{Param: "list slot", Min: 1, Max: 8}
)

// CheckRegister validates a *SAV or *RCL register number.
func CheckRegister(op string, register int) error {
	return registerRange.Check(op, register)
}

// CheckListSlot validates a list storage slot.
func CheckListSlot(op string, slot int) error {
	return listSlotRange.Check(op, slot)
}

// MaxListNameLen is the longest list file name the instrument stores.
const MaxListNameLen = 8

func checkListName(op, name string) error {
	if utf8.RuneCountInString(name) > MaxListNameLen {
		return &ParameterError{
			Op:     op,
			Param:  "list name",
			Value:  fmt.Sprintf("%q", name),
			Reason: fmt.Sprintf("cannot exceed %d characters", MaxListNameLen),
		}
	}
	if strings.ContainsAny(name, "'\r\n") {
		return &ParameterError{
			Op:     op,
			Param:  "list name",
			Value:  fmt.Sprintf("%q", name),
			Reason: "must not contain quotes or line breaks",
		}
	}
	return nil
}

// checkMember validates v against a closed set of accepted values.
func checkMember[T comparable](op, param string, v T, set []T) error {
	if slices.Contains(set, v) {
		return nil
	}
	return &ParameterError{
		Op:     op,
		Param:  param,
		Value:  v,
		Reason: fmt.Sprintf("valid values are %v", set),
	}
}

// State is a boolean setting as the instrument spells it: 0, 1, ON or OFF.
type State string

const (
	StateOff  State = "OFF"
	StateOn   State = "ON"
	StateZero State = "0"
	StateOne  State = "1"
)

// states lists every accepted State
var states = []State{StateZero, StateOne, StateOn, StateOff}

// StateOf maps a Go bool to ON/OFF.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// SourceMode selects fixed, list or DVM operation.
type SourceMode string

const (
	SourceFixed SourceMode = "FIXED"
	SourceList  SourceMode = "LIST"
	SourceDRM   SourceMode = "DRM"
)

var sourceModes = []SourceMode{SourceFixed, SourceList, SourceDRM}

// PortFunction is the role of the rear panel port.
type PortFunction string

const (
	PortTrigger PortFunction = "TRIGGER"
	PortRIDFI   PortFunction = "RIDFI"
	PortDigital PortFunction = "DIGITAL"
)

var portFunctions = []PortFunction{PortTrigger, PortRIDFI, PortDigital}

// RIMode is the input mode of the remote inhibit pin.
type RIMode string

const (
	RIOff      RIMode = "OFF"
	RILatching RIMode = "LATCHING"
	RILive     RIMode = "LIVE"
)

var riModes = []RIMode{RIOff, RILatching, RILive}

// TriggerSource selects where trigger pulses come from.
type TriggerSource string

const (
	TriggerImmediate TriggerSource = "IMMEDIATE"
	TriggerExternal  TriggerSource = "EXTERNAL"
	TriggerBus       TriggerSource = "BUS"
)

var triggerSources = []TriggerSource{TriggerImmediate, TriggerExternal, TriggerBus}

// ListMode is the trigger condition for executing a list file.
type ListMode string

const (
	ListContinuous ListMode = "CONTINUOUS"
	ListStepMode   ListMode = "STEP"
)

var listModes = []ListMode{ListContinuous, ListStepMode}

// ListRepeat controls whether a list runs once or repeats indefinitely.
type ListRepeat string

const (
	ListOnce          ListRepeat = "ONCE"
	ListRepeatForever ListRepeat = "REPEAT"
)

var listRepeats = []ListRepeat{ListOnce, ListRepeatForever}

// ListUnit is the time unit of list step widths.
type ListUnit string

const (
	ListSecond  ListUnit = "SECOND"
	ListMSecond ListUnit = "MSECOND"
)

var listUnits = []ListUnit{ListSecond, ListMSecond}

// ListArea is the number of groups the list storage is divided into.
type ListArea int

var listAreas = []ListArea{1, 2, 4, 8}

// Limit is the MIN or MAX literal accepted in place of a setpoint.
type Limit string

const (
	LimitMin Limit = "MIN"
	LimitMax Limit = "MAX"
)

var limits = []Limit{LimitMin, LimitMax}
