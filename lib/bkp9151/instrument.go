package bkp9151

// Instrument operations. Setters return only an error; queries return the
// instrument's reply, which is absent when the instrument sent nothing.

// ClearRegisters clears the standard event status, quest condition,
// operation event and status byte registers and the error queue.
func (s *Session) ClearRegisters() error {
	return s.apply(fixed("ClearRegisters", CmdClearStatus), nil)
}

// Identify returns model, firmware version and serial number.
func (s *Session) Identify() (Reply, error) {
	return s.request(fixed("Identify", CmdIdentify), nil)
}

// SetPSC controls whether the enable registers are cleared at power on.
func (s *Session) SetPSC(v State) error {
	return s.apply(EncodeSetPSC(v))
}

// PSC returns the power-on status clear flag.
func (s *Session) PSC() (Reply, error) {
	return s.request(query("PSC", CmdPSC), nil)
}

// Reset restores the default settings.
func (s *Session) Reset() error {
	return s.apply(fixed("Reset", CmdReset), nil)
}

// SaveParams stores the operating parameters in register 1-50.
func (s *Session) SaveParams(register int) error {
	return s.apply(EncodeSaveParams(register))
}

// RecallParams loads the operating parameters from register 1-50.
func (s *Session) RecallParams(register int) error {
	return s.apply(EncodeRecallParams(register))
}

// System

// SystemError reads the oldest entry of the error queue.
func (s *Session) SystemError() (Reply, error) {
	return s.request(fixed("SystemError", CmdSysError), nil)
}

// SystemNextError reads the next entry of the error queue.
func (s *Session) SystemNextError() (Reply, error) {
	return s.request(fixed("SystemNextError", CmdSysNextError), nil)
}

// SystemVersion returns the SCPI version the instrument implements.
func (s *Session) SystemVersion() (Reply, error) {
	return s.request(fixed("SystemVersion", CmdSysVersion), nil)
}

// SystemAddress returns the instrument's bus address.
func (s *Session) SystemAddress() (Reply, error) {
	return s.request(fixed("SystemAddress", CmdSysAddress), nil)
}

// SetRemote puts the instrument under remote control.
func (s *Session) SetRemote() error {
	return s.apply(fixed("SetRemote", CmdSysRemote), nil)
}

// SetLocal returns the instrument to front panel control.
func (s *Session) SetLocal() error {
	return s.apply(fixed("SetLocal", CmdSysLocal), nil)
}

// SetRemoteOnly locks out the front panel LOCAL key.
func (s *Session) SetRemoteOnly() error {
	return s.apply(fixed("SetRemoteOnly", CmdSysRemoteOnly), nil)
}

// SetRemoteSense enables or disables remote sense.
func (s *Session) SetRemoteSense(v State) error {
	return s.apply(EncodeSetRemoteSense(v))
}

// RemoteSense returns the remote sense state.
func (s *Session) RemoteSense() (Reply, error) {
	return s.request(query("RemoteSense", CmdSysRemoteSense), nil)
}

// Status registers

// QuestEvent reads and clears the quest event register
// (bit 0 over voltage, bit 1 over temperature, bit 2 unregulated).
func (s *Session) QuestEvent() (Reply, error) {
	return s.request(fixed("QuestEvent", CmdQuestEvent), nil)
}

// QuestCondition reads the quest condition register.
func (s *Session) QuestCondition() (Reply, error) {
	return s.request(fixed("QuestCondition", CmdQuestCondition), nil)
}

// SetQuestEnable sets the quest enable register mask (0-255).
func (s *Session) SetQuestEnable(mask int) error {
	return s.apply(EncodeSetQuestEnable(mask))
}

// QuestEnable returns the quest enable register mask.
func (s *Session) QuestEnable() (Reply, error) {
	return s.request(query("QuestEnable", CmdQuestEnable), nil)
}

// OperationEvent reads and clears the operation event register
// (CAL, WTG, CV, CC, RI from bit 0).
func (s *Session) OperationEvent() (Reply, error) {
	return s.request(fixed("OperationEvent", CmdOperEvent), nil)
}

// OperationCondition reads the operation condition register.
func (s *Session) OperationCondition() (Reply, error) {
	return s.request(fixed("OperationCondition", CmdOperCondition), nil)
}

// SetOperationEnable sets the operation enable register mask (0-255).
func (s *Session) SetOperationEnable(mask int) error {
	return s.apply(EncodeSetOperationEnable(mask))
}

// OperationEnable returns the operation enable register mask.
func (s *Session) OperationEnable() (Reply, error) {
	return s.request(query("OperationEnable", CmdOperEnable), nil)
}

// Output

// SetOutputTimerState enables the output timer. Enable the timer before
// turning the output on.
func (s *Session) SetOutputTimerState(v State) error {
	return s.apply(EncodeSetOutputTimerState(v))
}

// OutputTimerState returns whether the output timer is enabled.
func (s *Session) OutputTimerState() (Reply, error) {
	return s.request(query("OutputTimerState", CmdOutputTimer), nil)
}

// SetOutputTimerData sets the output timer in whole seconds.
func (s *Session) SetOutputTimerData(seconds int) error {
	return s.apply(EncodeSetOutputTimerData(seconds))
}

// OutputTimerData returns the output timer in seconds.
func (s *Session) OutputTimerData() (Reply, error) {
	return s.request(query("OutputTimerData", CmdOutputTimerData), nil)
}

// SetOutputState turns the output on or off.
func (s *Session) SetOutputState(v State) error {
	return s.apply(EncodeSetOutputState(v))
}

// OutputState returns the output state.
func (s *Session) OutputState() (Reply, error) {
	return s.request(query("OutputState", CmdOutputState), nil)
}

// Source

// SetSourceMode selects fixed, list or DVM mode. FIXED also stops a
// running list.
func (s *Session) SetSourceMode(m SourceMode) error {
	return s.apply(EncodeSetSourceMode(m))
}

// SourceMode returns the active source mode.
func (s *Session) SourceMode() (Reply, error) {
	return s.request(query("SourceMode", CmdSourceMode), nil)
}

// MaxCurrent returns the highest current setpoint the instrument accepts.
func (s *Session) MaxCurrent() (Reply, error) {
	return s.request(fixed("MaxCurrent", CmdSourceCurrent+"? MAX"), nil)
}

// MaxVoltage returns the highest voltage setpoint the instrument accepts.
func (s *Session) MaxVoltage() (Reply, error) {
	return s.request(fixed("MaxVoltage", CmdSourceVoltage+"? MAX"), nil)
}

// Current returns the current setpoint.
func (s *Session) Current() (Reply, error) {
	return s.request(query("Current", CmdSourceCurrent), nil)
}

// Voltage returns the voltage setpoint.
func (s *Session) Voltage() (Reply, error) {
	return s.request(query("Voltage", CmdSourceVoltage), nil)
}

// SetMaxCurrent sets the current setpoint to its maximum.
func (s *Session) SetMaxCurrent() error {
	return s.apply(fixed("SetMaxCurrent", CmdSourceCurrent+" MAX"), nil)
}

// SetMaxVoltage sets the voltage setpoint to its maximum.
func (s *Session) SetMaxVoltage() error {
	return s.apply(fixed("SetMaxVoltage", CmdSourceVoltage+" MAX"), nil)
}

// SetCurrent sets the current setpoint in mA (0-27100).
func (s *Session) SetCurrent(mA int) error {
	return s.apply(EncodeSetCurrent(mA))
}

// SetCurrentLimit sets the current setpoint to MIN or MAX.
func (s *Session) SetCurrentLimit(l Limit) error {
	return s.apply(EncodeSetCurrentLimit(l))
}

// SetVoltage sets the voltage setpoint in mV (0-21000).
func (s *Session) SetVoltage(mV int) error {
	return s.apply(EncodeSetVoltage(mV))
}

// SetVoltageLimit sets the voltage setpoint to MIN or MAX.
func (s *Session) SetVoltageLimit(l Limit) error {
	return s.apply(EncodeSetVoltageLimit(l))
}

// List

// SetListMode sets how a list advances between steps.
func (s *Session) SetListMode(m ListMode) error {
	return s.apply(EncodeSetListMode(m))
}

// ListMode returns the list mode.
func (s *Session) ListMode() (Reply, error) {
	return s.request(query("ListMode", CmdListMode), nil)
}

// SetListStep sets whether a list runs once or repeats.
func (s *Session) SetListStep(r ListRepeat) error {
	return s.apply(EncodeSetListStep(r))
}

// ListStep returns the list repeat setting.
func (s *Session) ListStep() (Reply, error) {
	return s.request(query("ListStep", CmdListStep), nil)
}

// SetListCount sets the number of steps in the list file (2-400).
func (s *Session) SetListCount(steps int) error {
	return s.apply(EncodeSetListCount(steps))
}

// ListCount returns the number of steps in the list file.
func (s *Session) ListCount() (Reply, error) {
	return s.request(query("ListCount", CmdListCount), nil)
}

// SetListCurrent sets the current of a list level in mA.
func (s *Session) SetListCurrent(level, mA int) error {
	return s.apply(EncodeSetListCurrent(level, mA))
}

// ListCurrent returns the current of a list level.
func (s *Session) ListCurrent(level int) (Reply, error) {
	return s.request(EncodeListCurrent(level))
}

// SetListVoltage sets the voltage of a list level in mV.
func (s *Session) SetListVoltage(level, mV int) error {
	return s.apply(EncodeSetListVoltage(level, mV))
}

// ListVoltage returns the voltage of a list level.
func (s *Session) ListVoltage(level int) (Reply, error) {
	return s.request(EncodeListVoltage(level))
}

// SetListUnit sets the time unit of list step widths.
func (s *Session) SetListUnit(u ListUnit) error {
	return s.apply(EncodeSetListUnit(u))
}

// ListUnit returns the list time unit.
func (s *Session) ListUnit() (Reply, error) {
	return s.request(query("ListUnit", CmdListUnit), nil)
}

// SetListWidth sets the step time for a level, in the current list unit.
func (s *Session) SetListWidth(level, width int) error {
	return s.apply(EncodeSetListWidth(level, width))
}

// ListWidth returns the step time of a list level.
func (s *Session) ListWidth(level int) (Reply, error) {
	return s.request(EncodeListWidth(level))
}

// SetListName names the list file, up to 8 characters.
func (s *Session) SetListName(name string) error {
	return s.apply(EncodeSetListName(name))
}

// ListName returns the list file name.
func (s *Session) ListName() (Reply, error) {
	return s.request(query("ListName", CmdListName), nil)
}

// SetListArea divides list storage into 1, 2, 4 or 8 groups of
// 400, 200, 100 or 50 steps.
func (s *Session) SetListArea(a ListArea) error {
	return s.apply(EncodeSetListArea(a))
}

// ListArea returns how many groups list storage is divided into.
func (s *Session) ListArea() (Reply, error) {
	return s.request(query("ListArea", CmdListArea), nil)
}

// ListSave stores the list file in non-volatile slot 1-8.
func (s *Session) ListSave(slot int) error {
	return s.apply(EncodeListSave(slot))
}

// ListRecall loads the list file from slot 1-8.
func (s *Session) ListRecall(slot int) error {
	return s.apply(EncodeListRecall(slot))
}

// Measurement

// InputVoltage measures the output voltage in volts.
func (s *Session) InputVoltage() (Reply, error) {
	return s.request(fixed("InputVoltage", CmdMeasureVoltage), nil)
}

// InputCurrent measures the output current in amps.
func (s *Session) InputCurrent() (Reply, error) {
	return s.request(fixed("InputCurrent", CmdMeasureCurrent), nil)
}

// InputPower measures the output power in watts.
func (s *Session) InputPower() (Reply, error) {
	return s.request(fixed("InputPower", CmdMeasurePower), nil)
}

// DVMVoltage measures the DVM input in volts.
func (s *Session) DVMVoltage() (Reply, error) {
	return s.request(fixed("DVMVoltage", CmdMeasureDVM), nil)
}

// Rear port and trigger

// SetPortFunction sets the role of the rear panel port.
func (s *Session) SetPortFunction(f PortFunction) error {
	return s.apply(EncodeSetPortFunction(f))
}

// PortFunction returns the rear panel port role.
func (s *Session) PortFunction() (Reply, error) {
	return s.request(query("PortFunction", CmdPortFunction), nil)
}

// SetRIMode sets the remote inhibit input mode.
func (s *Session) SetRIMode(m RIMode) error {
	return s.apply(EncodeSetRIMode(m))
}

// RIMode returns the remote inhibit input mode.
func (s *Session) RIMode() (Reply, error) {
	return s.request(query("RIMode", CmdRIMode), nil)
}

// Trigger fires a bus trigger.
func (s *Session) Trigger() error {
	return s.apply(fixed("Trigger", CmdTrigger), nil)
}

// SetTriggerSource selects where triggers come from.
func (s *Session) SetTriggerSource(src TriggerSource) error {
	return s.apply(EncodeSetTriggerSource(src))
}

// TriggerSource returns the trigger source.
func (s *Session) TriggerSource() (Reply, error) {
	return s.request(query("TriggerSource", CmdTriggerSource), nil)
}
