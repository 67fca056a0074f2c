package bkp9151

import (
	"fmt"
	"strings"
)

// IEEE-488 common commands
const (
	CmdClearStatus = "*CLS"
	CmdIdentify    = "*IDN?"
	CmdPSC         = "*PSC"
	CmdReset       = "*RST"
	CmdSave        = "*SAV"
	CmdRecall      = "*RCL"
)

// SCPI subsystem mnemonics
const (
	CmdSysError       = "SYST:ERR?"
	CmdSysNextError   = "SYST:ERR:NEXT?"
	CmdSysVersion     = "SYST:VERS?"
	CmdSysAddress     = "SYST:ADDR?"
	CmdSysRemote      = "SYST:REM"
	CmdSysLocal       = "SYST:LOC"
	CmdSysRemoteOnly  = "SYST:RWL"
	CmdSysRemoteSense = "SYST:SENS"

	CmdQuestEvent      = "STAT:QUES:EVEN?"
	CmdQuestCondition  = "STAT:QUES:COND?"
	CmdQuestEnable     = "STAT:QUES:ENAB"
	CmdOperEvent       = "STAT:OPER:EVEN?"
	CmdOperCondition   = "STAT:OPER:COND?"
	CmdOperEnable      = "STAT:OPER:ENAB"
	CmdOutputTimer     = "OUTP:TIM"
	CmdOutputTimerData = "OUTP:TIM:DATA"
	CmdOutputState     = "OUTP:STAT"
	CmdSourceMode      = "SOUR:MODE"
	CmdSourceCurrent   = "SOUR:CURR"
	CmdSourceVoltage   = "SOUR:VOLT"
	CmdCurrent         = "CURR"
	CmdVoltage         = "VOLT"
	CmdListMode        = "LIST:MODE"
	CmdListStep        = "LIST:STEP"
	CmdListCount       = "LIST:COUNT"
	CmdListCurrent     = "LIST:CURR"
	CmdListVoltage     = "LIST:VOLT"
	CmdListUnit        = "LIST:UNIT"
	CmdListWidth       = "LIST:WID"
	CmdListName        = "LIST:NAME"
	CmdListArea        = "LIST:AREA"
	CmdListSave        = "LIST:SAV"
	CmdListRecall      = "LIST:RCL"
	CmdMeasureVoltage  = "MEAS:VOLT?"
	CmdMeasureCurrent  = "MEAS:CURR?"
	CmdMeasurePower    = "MEAS:POW?"
	CmdMeasureDVM      = "MEAS:DVM?"
	CmdPortFunction    = "PORT:FUNC"
	CmdRIMode          = "RI:MODE"
	CmdTrigger         = "TRIG"
	CmdTriggerSource   = "TRIG:SOUR"
)

// ErrorQueueQuery is the trailer sent after every command.
const ErrorQueueQuery = "SYSTem:ERRor?"

// Terminator ends every line written to the instrument.
const Terminator = "\n"

// Command is a validated, encoded instrument command. Commands are only
// produced by the Encode functions, after all parameter rules have passed.
type Command struct {
	op   string
	text string
}

// Op returns the logical operation name.
func (c Command) Op() string { return c.op }

// String returns the exact wire text, without terminator.
func (c Command) String() string { return c.text }

// IsQuery reports whether the instrument will answer this command.
func (c Command) IsQuery() bool { return strings.Contains(c.text, "?") }

func fixed(op, text string) Command {
	return Command{op: op, text: text}
}

func query(op, mnemonic string) Command {
	return Command{op: op, text: mnemonic + "?"}
}

func withArg(op, mnemonic string, arg any) Command {
	return Command{op: op, text: fmt.Sprintf("%s %v", mnemonic, arg)}
}

// EncodeRaw wraps arbitrary SCPI text. It only rejects text that would
// break line framing.
func EncodeRaw(text string) (Command, error) {
	const op = "Send"
	if strings.TrimSpace(text) == "" {
		return Command{}, &ParameterError{Op: op, Param: "command", Value: `""`, Reason: "must not be empty"}
	}
	if strings.ContainsAny(text, "\r\n") {
		return Command{}, &ParameterError{Op: op, Param: "command", Value: fmt.Sprintf("%q", text), Reason: "must be a single line"}
	}
	return fixed(op, text), nil
}

// Boolean settings

func encodeState(op, mnemonic string, v State) (Command, error) {
	if err := checkMember(op, "state", v, states); err != nil {
		return Command{}, err
	}
	return withArg(op, mnemonic, v), nil
}

// EncodeSetPSC sets the power-on status clear flag.
func EncodeSetPSC(v State) (Command, error) {
	return encodeState("SetPSC", CmdPSC, v)
}

// EncodeSetOutputTimerState enables or disables the output timer.
func EncodeSetOutputTimerState(v State) (Command, error) {
	return encodeState("SetOutputTimerState", CmdOutputTimer, v)
}

// EncodeSetOutputState turns the output on or off.
func EncodeSetOutputState(v State) (Command, error) {
	return encodeState("SetOutputState", CmdOutputState, v)
}

// EncodeSetRemoteSense enables or disables remote sense.
func EncodeSetRemoteSense(v State) (Command, error) {
	return encodeState("SetRemoteSense", CmdSysRemoteSense, v)
}

// Enumerated settings

// EncodeSetSourceMode selects fixed, list or DVM operation.
func EncodeSetSourceMode(v SourceMode) (Command, error) {
	const op = "SetSourceMode"
	if err := checkMember(op, "source mode", v, sourceModes); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdSourceMode, v), nil
}

// EncodeSetPortFunction sets the role of the rear panel port.
func EncodeSetPortFunction(v PortFunction) (Command, error) {
	const op = "SetPortFunction"
	if err := checkMember(op, "port function", v, portFunctions); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdPortFunction, v), nil
}

// EncodeSetRIMode sets the remote inhibit input mode.
func EncodeSetRIMode(v RIMode) (Command, error) {
	const op = "SetRIMode"
	if err := checkMember(op, "RI mode", v, riModes); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdRIMode, v), nil
}

// EncodeSetTriggerSource selects where triggers come from.
func EncodeSetTriggerSource(v TriggerSource) (Command, error) {
	const op = "SetTriggerSource"
	if err := checkMember(op, "trigger source", v, triggerSources); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdTriggerSource, v), nil
}

// EncodeSetListMode sets how a list advances between steps.
func EncodeSetListMode(v ListMode) (Command, error) {
	const op = "SetListMode"
	if err := checkMember(op, "list mode", v, listModes); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdListMode, v), nil
}

// EncodeSetListStep sets whether a list runs once or repeats.
func EncodeSetListStep(v ListRepeat) (Command, error) {
	const op = "SetListStep"
	if err := checkMember(op, "list step", v, listRepeats); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdListStep, v), nil
}

// EncodeSetListUnit sets the time unit of list step widths.
func EncodeSetListUnit(v ListUnit) (Command, error) {
	const op = "SetListUnit"
	if err := checkMember(op, "list unit", v, listUnits); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdListUnit, v), nil
}

// EncodeSetListArea divides list storage into 1, 2, 4 or 8 groups.
func EncodeSetListArea(v ListArea) (Command, error) {
	const op = "SetListArea"
	if err := checkMember(op, "list area", v, listAreas); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdListArea, int(v)), nil
}

// Bounded integer settings

func encodeInt(op, mnemonic string, r IntRange, v int) (Command, error) {
	if err := r.Check(op, v); err != nil {
		return Command{}, err
	}
	return withArg(op, mnemonic, v), nil
}

// EncodeSaveParams stores the operating parameters in register 1-50.
func EncodeSaveParams(register int) (Command, error) {
	return encodeInt("SaveParams", CmdSave, registerRange, register)
}

// EncodeRecallParams loads the operating parameters from register 1-50.
func EncodeRecallParams(register int) (Command, error) {
	return encodeInt("RecallParams", CmdRecall, registerRange, register)
}

// EncodeSetQuestEnable sets the quest enable register mask.
func EncodeSetQuestEnable(mask int) (Command, error) {
	return encodeInt("SetQuestEnable", CmdQuestEnable, enableMaskRange, mask)
}

// EncodeSetOperationEnable sets the operation enable register mask.
func EncodeSetOperationEnable(mask int) (Command, error) {
	return encodeInt("SetOperationEnable", CmdOperEnable, enableMaskRange, mask)
}

// EncodeSetOutputTimerData sets the output timer in whole seconds.
func EncodeSetOutputTimerData(seconds int) (Command, error) {
	return encodeInt("SetOutputTimerData", CmdOutputTimerData, timerRange, seconds)
}

// EncodeSetListCount sets the number of steps in the list file.
func EncodeSetListCount(steps int) (Command, error) {
	return encodeInt("SetListCount", CmdListCount, listCountRange, steps)
}

// EncodeListSave stores the list file in slot 1-8.
func EncodeListSave(slot int) (Command, error) {
	return encodeInt("ListSave", CmdListSave, listSlotRange, slot)
}

// EncodeListRecall loads the list file from slot 1-8.
func EncodeListRecall(slot int) (Command, error) {
	return encodeInt("ListRecall", CmdListRecall, listSlotRange, slot)
}

// EncodeSetCurrent sets the current setpoint in milliamps, e.g. "CURR 500mA".
func EncodeSetCurrent(mA int) (Command, error) {
	const op = "SetCurrent"
	if err := currentRange.Check(op, mA); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s %dmA", CmdCurrent, mA)), nil
}

// EncodeSetCurrentLimit sets the current setpoint to its MIN or MAX.
func EncodeSetCurrentLimit(l Limit) (Command, error) {
	const op = "SetCurrentLimit"
	if err := checkMember(op, "limit", l, limits); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdCurrent, l), nil
}

// EncodeSetVoltage sets the voltage setpoint in millivolts, e.g. "VOLT 12000mV".
func EncodeSetVoltage(mV int) (Command, error) {
	const op = "SetVoltage"
	if err := voltageRange.Check(op, mV); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s %dmV", CmdVoltage, mV)), nil
}

// EncodeSetVoltageLimit sets the voltage setpoint to its MIN or MAX.
func EncodeSetVoltageLimit(l Limit) (Command, error) {
	const op = "SetVoltageLimit"
	if err := checkMember(op, "limit", l, limits); err != nil {
		return Command{}, err
	}
	return withArg(op, CmdVoltage, l), nil
}

// List levels

// EncodeSetListCurrent sets the current of one list level in milliamps.
func EncodeSetListCurrent(level, mA int) (Command, error) {
	const op = "SetListCurrent"
	if err := listLevelRange.Check(op, level); err != nil {
		return Command{}, err
	}
	if err := listCurrentRange.Check(op, mA); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s %d,%dmA", CmdListCurrent, level, mA)), nil
}

// EncodeSetListVoltage sets the voltage of one list level in millivolts.
func EncodeSetListVoltage(level, mV int) (Command, error) {
	const op = "SetListVoltage"
	if err := listLevelRange.Check(op, level); err != nil {
		return Command{}, err
	}
	if err := listVoltageRange.Check(op, mV); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s %d,%dmV", CmdListVoltage, level, mV)), nil
}

// EncodeSetListWidth sets a step width in the unit chosen with SetListUnit.
func EncodeSetListWidth(level, width int) (Command, error) {
	const op = "SetListWidth"
	if err := listLevelRange.Check(op, level); err != nil {
		return Command{}, err
	}
	if err := listWidthRange.Check(op, width); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s %d,%d", CmdListWidth, level, width)), nil
}

func encodeLevelQuery(op, mnemonic string, level int) (Command, error) {
	if err := listLevelRange.Check(op, level); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s? %d", mnemonic, level)), nil
}

// EncodeListCurrent queries the current of one list level.
func EncodeListCurrent(level int) (Command, error) {
	return encodeLevelQuery("ListCurrent", CmdListCurrent, level)
}

// EncodeListVoltage queries the voltage of one list level.
func EncodeListVoltage(level int) (Command, error) {
	return encodeLevelQuery("ListVoltage", CmdListVoltage, level)
}

// EncodeListWidth queries the width of one list level.
func EncodeListWidth(level int) (Command, error) {
	return encodeLevelQuery("ListWidth", CmdListWidth, level)
}

// EncodeSetListName names the list file; the name is sent single-quoted.
func EncodeSetListName(name string) (Command, error) {
	const op = "SetListName"
	if err := checkListName(op, name); err != nil {
		return Command{}, err
	}
	return fixed(op, fmt.Sprintf("%s '%s'", CmdListName, name)), nil
}
