package bkp9151

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noError = "0,\"No error\"\r\n"

// silence scripts a read that times out.
const silence = "<silence>"

// scriptedTransport records every call in order and answers ReadLine from
// a queue of canned lines.
type scriptedTransport struct {
	events     []string
	writes     []string
	replies    []string
	writeErr   error
	readErr    error
	closed     bool
	closeCalls int
}

func (f *scriptedTransport) Write(p []byte) error {
	f.events = append(f.events, "write:"+string(p))
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, string(p))
	return nil
}

func (f *scriptedTransport) ReadLine(timeout time.Duration) (string, error) {
	f.events = append(f.events, "read")
	if f.readErr != nil {
		return "", f.readErr
	}
	if len(f.replies) == 0 {
		return "", ErrReadTimeout
	}
	line := f.replies[0]
	f.replies = f.replies[1:]
	if line == silence {
		return "", ErrReadTimeout
	}
	return line, nil
}

func (f *scriptedTransport) FlushInput() error {
	f.events = append(f.events, "flush-in")
	return nil
}

func (f *scriptedTransport) FlushOutput() error {
	f.events = append(f.events, "flush-out")
	return nil
}

func (f *scriptedTransport) Close() error {
	f.closeCalls++
	f.closed = true
	return nil
}

func (f *scriptedTransport) IsOpen() bool { return !f.closed }

func newTestSession(t *testing.T, replies ...string) (*Session, *scriptedTransport) {
	t.Helper()
	ft := &scriptedTransport{replies: replies}
	s, err := Connect(ft, 50*time.Millisecond)
	require.NoError(t, err)
	s.sleep = func(d time.Duration) {
		ft.events = append(ft.events, "sleep:"+d.String())
	}
	return s, ft
}

func TestSetCurrentWireSequence(t *testing.T) {
	s, ft := newTestSession(t, noError)

	require.NoError(t, s.SetCurrent(500))

	assert.Equal(t, []string{
		"flush-in",
		"flush-out",
		"write:CURR 500mA\n",
		"sleep:50ms",
		"flush-out",
		"write:SYSTem:ERRor?\n",
		"sleep:50ms",
		"flush-out",
		"read",
	}, ft.events)

	report := s.LastErrorReport()
	assert.Equal(t, `0,"No error"`, report.Raw)
	assert.True(t, report.OK())
}

func TestQueryReadsReplyThenErrorQueue(t *testing.T) {
	s, ft := newTestSession(t, "B&K Precision,9151,SN123,1.02\r\n", noError)

	reply, err := s.Identify()
	require.NoError(t, err)

	v, ok := reply.Value()
	assert.True(t, ok)
	assert.Equal(t, "B&K Precision,9151,SN123,1.02", v)
	assert.Equal(t, []string{"*IDN?\n", "SYSTem:ERRor?\n"}, ft.writes)
	assert.Equal(t, []string{
		"flush-in",
		"flush-out",
		"write:*IDN?\n",
		"sleep:50ms",
		"flush-out",
		"read",
		"write:SYSTem:ERRor?\n",
		"sleep:50ms",
		"flush-out",
		"read",
	}, ft.events)
}

func TestEveryCallIsTwoRoundTrips(t *testing.T) {
	s, ft := newTestSession(t,
		noError,
		"1\r\n", noError,
		noError,
	)

	require.NoError(t, s.SetOutputState(StateOn))
	_, err := s.OutputState()
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	var writes, sleeps int
	for _, ev := range ft.events {
		switch {
		case len(ev) > 6 && ev[:6] == "write:":
			writes++
		case len(ev) > 6 && ev[:6] == "sleep:":
			sleeps++
		}
	}
	assert.Equal(t, 6, writes)
	assert.Equal(t, 6, sleeps)
	assert.Empty(t, ft.replies)
}

func TestEmptyQueryReplyIsAbsent(t *testing.T) {
	s, _ := newTestSession(t, "\r\n", noError)

	reply, err := s.SourceMode()
	require.NoError(t, err)
	assert.False(t, reply.Present())
	assert.Equal(t, "", reply.String())

	_, err = reply.Int()
	assert.ErrorIs(t, err, ErrNoReply)
}

func TestNonQueryReplyIsAbsent(t *testing.T) {
	s, _ := newTestSession(t, noError)

	reply, err := s.Send("SYST:REM")
	require.NoError(t, err)
	assert.False(t, reply.Present())
}

func TestInvalidParameterPerformsNoIO(t *testing.T) {
	s, ft := newTestSession(t, noError)

	require.NoError(t, s.SetSourceMode(SourceList))
	writes := len(ft.writes)
	events := len(ft.events)

	err := s.SetSourceMode("BOGUS")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	var pe *ParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "SetSourceMode", pe.Op)
	assert.Equal(t, SourceMode("BOGUS"), pe.Value)

	assert.Len(t, ft.writes, writes)
	assert.Len(t, ft.events, events)
}

func TestListNameLength(t *testing.T) {
	s, ft := newTestSession(t, noError)

	require.NoError(t, s.SetListName("ABCDEFGH"))
	assert.Equal(t, "LIST:NAME 'ABCDEFGH'\n", ft.writes[0])

	before := len(ft.writes)
	err := s.SetListName("ABCDEFGHI")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Len(t, ft.writes, before)
}

func TestClosedSession(t *testing.T) {
	s, ft := newTestSession(t)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, ft.closeCalls)

	err := s.SetCurrent(500)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.EqualError(t, err, "SetCurrent: session closed")
	assert.ErrorIs(t, s.SetCurrent(-1), ErrSessionClosed)

	_, err = s.Send("*IDN?")
	assert.EqualError(t, err, "Send: session closed")

	_, err = s.Identify()
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.Execute(fixed("Reset", CmdReset))
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Empty(t, ft.events)
}

func TestTransportWriteError(t *testing.T) {
	s, ft := newTestSession(t)
	cause := errors.New("input/output error")
	ft.writeErr = cause

	err := s.SetVoltage(12000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "SetVoltage", te.Op)
	assert.Equal(t, "write", te.Stage)
}

func TestTransportReadTimeout(t *testing.T) {
	s, ft := newTestSession(t)

	_, err := s.InputVoltage()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrReadTimeout)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "InputVoltage", te.Op)
	assert.Equal(t, "read", te.Stage)

	// Both reads time out; the error queue is still asked.
	assert.Equal(t, []string{"MEAS:VOLT?\n", "SYSTem:ERRor?\n"}, ft.writes)
}

func TestUnansweredQueryStillReadsErrorQueue(t *testing.T) {
	ft := &scriptedTransport{replies: []string{silence, "-113,\"Undefined header\"\r\n"}}
	var got []ErrorReport
	s, err := Connect(ft, 0, WithErrorReportHandler(func(cmd Command, r ErrorReport) {
		got = append(got, r)
	}))
	require.NoError(t, err)
	s.sleep = func(time.Duration) {}

	reply, err := s.Send("FOO:BAR?")
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.False(t, reply.Present())

	assert.Equal(t, []string{"FOO:BAR?\n", "SYSTem:ERRor?\n"}, ft.writes)
	assert.Equal(t, -113, s.LastErrorReport().Code)
	assert.Equal(t, "Undefined header", s.LastErrorReport().Message)
	require.Len(t, got, 1)
	assert.Equal(t, s.LastErrorReport(), got[0])
}

func TestTransportReadErrorOnTrailer(t *testing.T) {
	s, ft := newTestSession(t)
	ft.readErr = io.ErrUnexpectedEOF

	err := s.SetRemote()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, ft.writes, 2)
}

type recordingObserver struct {
	ops     []string
	reports []ErrorReport
	errs    []error
}

func (o *recordingObserver) ObserveCommand(cmd Command, elapsed time.Duration, report ErrorReport, err error) {
	o.ops = append(o.ops, cmd.Op())
	o.reports = append(o.reports, report)
	o.errs = append(o.errs, err)
}

func TestErrorReportSideChannel(t *testing.T) {
	ft := &scriptedTransport{replies: []string{"-222,\"Data out of range\"\r\n"}}
	obs := &recordingObserver{}

	var got []ErrorReport
	s, err := Connect(ft, 0,
		WithObserver(obs),
		WithErrorReportHandler(func(cmd Command, r ErrorReport) {
			assert.Equal(t, "SetListArea", cmd.Op())
			got = append(got, r)
		}),
	)
	require.NoError(t, err)
	s.sleep = func(time.Duration) {}

	// A non-zero error queue entry never fails the call
	require.NoError(t, s.SetListArea(4))

	require.Len(t, got, 1)
	assert.Equal(t, -222, got[0].Code)
	assert.Equal(t, "Data out of range", got[0].Message)
	assert.False(t, got[0].OK())

	assert.Equal(t, []string{"SetListArea"}, obs.ops)
	assert.Equal(t, got[0], obs.reports[0])
	assert.NoError(t, obs.errs[0])
}

func TestRejectedCommandsReachObserver(t *testing.T) {
	ft := &scriptedTransport{}
	obs := &recordingObserver{}
	s, err := Connect(ft, 0, WithObserver(obs))
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetVoltage(21001), ErrInvalidParameter)
	require.NoError(t, s.Close())
	_, err = s.Identify()
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Equal(t, []string{"SetVoltage", "Identify"}, obs.ops)
	assert.ErrorIs(t, obs.errs[0], ErrInvalidParameter)
	assert.ErrorIs(t, obs.errs[1], ErrSessionClosed)
	assert.Equal(t, ErrorReport{}, obs.reports[0])
	assert.Empty(t, ft.writes)
}

func TestConnectValidatesTransport(t *testing.T) {
	_, err := Connect(nil, time.Millisecond)
	assert.ErrorIs(t, err, ErrConnect)

	_, err = Connect(&scriptedTransport{closed: true}, time.Millisecond)
	assert.ErrorIs(t, err, ErrConnect)

	_, err = Connect(&scriptedTransport{}, -time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	s, err := Connect(&scriptedTransport{}, 75*time.Millisecond, WithReadTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 75*time.Millisecond, s.SettleDelay())
	assert.Equal(t, time.Second, s.readTimeout)
}

func TestSendRejectsMultiLine(t *testing.T) {
	s, ft := newTestSession(t)

	_, err := s.Send("*RST\n*CLS")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = s.Send("   ")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, ft.events)
}

func TestOperationWireStrings(t *testing.T) {
	tests := []struct {
		name string
		call func(s *Session) error
		want string
	}{
		{"ClearRegisters", func(s *Session) error { return s.ClearRegisters() }, "*CLS"},
		{"Identify", func(s *Session) error { _, err := s.Identify(); return err }, "*IDN?"},
		{"SetPSC", func(s *Session) error { return s.SetPSC(StateOne) }, "*PSC 1"},
		{"PSC", func(s *Session) error { _, err := s.PSC(); return err }, "*PSC?"},
		{"Reset", func(s *Session) error { return s.Reset() }, "*RST"},
		{"SaveParams", func(s *Session) error { return s.SaveParams(3) }, "*SAV 3"},
		{"RecallParams", func(s *Session) error { return s.RecallParams(50) }, "*RCL 50"},
		{"SystemError", func(s *Session) error { _, err := s.SystemError(); return err }, "SYST:ERR?"},
		{"SystemNextError", func(s *Session) error { _, err := s.SystemNextError(); return err }, "SYST:ERR:NEXT?"},
		{"SystemVersion", func(s *Session) error { _, err := s.SystemVersion(); return err }, "SYST:VERS?"},
		{"SystemAddress", func(s *Session) error { _, err := s.SystemAddress(); return err }, "SYST:ADDR?"},
		{"SetRemote", func(s *Session) error { return s.SetRemote() }, "SYST:REM"},
		{"SetLocal", func(s *Session) error { return s.SetLocal() }, "SYST:LOC"},
		{"SetRemoteOnly", func(s *Session) error { return s.SetRemoteOnly() }, "SYST:RWL"},
		{"QuestEvent", func(s *Session) error { _, err := s.QuestEvent(); return err }, "STAT:QUES:EVEN?"},
		{"QuestCondition", func(s *Session) error { _, err := s.QuestCondition(); return err }, "STAT:QUES:COND?"},
		{"SetQuestEnable", func(s *Session) error { return s.SetQuestEnable(255) }, "STAT:QUES:ENAB 255"},
		{"QuestEnable", func(s *Session) error { _, err := s.QuestEnable(); return err }, "STAT:QUES:ENAB?"},
		{"OperationEvent", func(s *Session) error { _, err := s.OperationEvent(); return err }, "STAT:OPER:EVEN?"},
		{"OperationCondition", func(s *Session) error { _, err := s.OperationCondition(); return err }, "STAT:OPER:COND?"},
		{"SetOperationEnable", func(s *Session) error { return s.SetOperationEnable(0) }, "STAT:OPER:ENAB 0"},
		{"OperationEnable", func(s *Session) error { _, err := s.OperationEnable(); return err }, "STAT:OPER:ENAB?"},
		{"SetOutputTimerState", func(s *Session) error { return s.SetOutputTimerState(StateOn) }, "OUTP:TIM ON"},
		{"OutputTimerState", func(s *Session) error { _, err := s.OutputTimerState(); return err }, "OUTP:TIM?"},
		{"SetOutputTimerData", func(s *Session) error { return s.SetOutputTimerData(3600) }, "OUTP:TIM:DATA 3600"},
		{"OutputTimerData", func(s *Session) error { _, err := s.OutputTimerData(); return err }, "OUTP:TIM:DATA?"},
		{"SetOutputState", func(s *Session) error { return s.SetOutputState(StateOff) }, "OUTP:STAT OFF"},
		{"OutputState", func(s *Session) error { _, err := s.OutputState(); return err }, "OUTP:STAT?"},
		{"SetSourceMode", func(s *Session) error { return s.SetSourceMode(SourceDRM) }, "SOUR:MODE DRM"},
		{"SourceMode", func(s *Session) error { _, err := s.SourceMode(); return err }, "SOUR:MODE?"},
		{"MaxCurrent", func(s *Session) error { _, err := s.MaxCurrent(); return err }, "SOUR:CURR? MAX"},
		{"MaxVoltage", func(s *Session) error { _, err := s.MaxVoltage(); return err }, "SOUR:VOLT? MAX"},
		{"Current", func(s *Session) error { _, err := s.Current(); return err }, "SOUR:CURR?"},
		{"Voltage", func(s *Session) error { _, err := s.Voltage(); return err }, "SOUR:VOLT?"},
		{"SetMaxCurrent", func(s *Session) error { return s.SetMaxCurrent() }, "SOUR:CURR MAX"},
		{"SetMaxVoltage", func(s *Session) error { return s.SetMaxVoltage() }, "SOUR:VOLT MAX"},
		{"SetCurrent", func(s *Session) error { return s.SetCurrent(27100) }, "CURR 27100mA"},
		{"SetCurrentLimit", func(s *Session) error { return s.SetCurrentLimit(LimitMin) }, "CURR MIN"},
		{"SetVoltage", func(s *Session) error { return s.SetVoltage(0) }, "VOLT 0mV"},
		{"SetVoltageLimit", func(s *Session) error { return s.SetVoltageLimit(LimitMax) }, "VOLT MAX"},
		{"SetListMode", func(s *Session) error { return s.SetListMode(ListContinuous) }, "LIST:MODE CONTINUOUS"},
		{"ListMode", func(s *Session) error { _, err := s.ListMode(); return err }, "LIST:MODE?"},
		{"SetListStep", func(s *Session) error { return s.SetListStep(ListRepeatForever) }, "LIST:STEP REPEAT"},
		{"ListStep", func(s *Session) error { _, err := s.ListStep(); return err }, "LIST:STEP?"},
		{"SetListCount", func(s *Session) error { return s.SetListCount(400) }, "LIST:COUNT 400"},
		{"ListCount", func(s *Session) error { _, err := s.ListCount(); return err }, "LIST:COUNT?"},
		{"SetListCurrent", func(s *Session) error { return s.SetListCurrent(1, 1500) }, "LIST:CURR 1,1500mA"},
		{"ListCurrent", func(s *Session) error { _, err := s.ListCurrent(25); return err }, "LIST:CURR? 25"},
		{"SetListVoltage", func(s *Session) error { return s.SetListVoltage(2, 5000) }, "LIST:VOLT 2,5000mV"},
		{"ListVoltage", func(s *Session) error { _, err := s.ListVoltage(2); return err }, "LIST:VOLT? 2"},
		{"SetListUnit", func(s *Session) error { return s.SetListUnit(ListMSecond) }, "LIST:UNIT MSECOND"},
		{"ListUnit", func(s *Session) error { _, err := s.ListUnit(); return err }, "LIST:UNIT?"},
		{"SetListWidth", func(s *Session) error { return s.SetListWidth(3, 60000) }, "LIST:WID 3,60000"},
		{"ListWidth", func(s *Session) error { _, err := s.ListWidth(3); return err }, "LIST:WID? 3"},
		{"ListName", func(s *Session) error { _, err := s.ListName(); return err }, "LIST:NAME?"},
		{"SetListArea", func(s *Session) error { return s.SetListArea(8) }, "LIST:AREA 8"},
		{"ListArea", func(s *Session) error { _, err := s.ListArea(); return err }, "LIST:AREA?"},
		{"ListSave", func(s *Session) error { return s.ListSave(8) }, "LIST:SAV 8"},
		{"ListRecall", func(s *Session) error { return s.ListRecall(1) }, "LIST:RCL 1"},
		{"InputVoltage", func(s *Session) error { _, err := s.InputVoltage(); return err }, "MEAS:VOLT?"},
		{"InputCurrent", func(s *Session) error { _, err := s.InputCurrent(); return err }, "MEAS:CURR?"},
		{"InputPower", func(s *Session) error { _, err := s.InputPower(); return err }, "MEAS:POW?"},
		{"DVMVoltage", func(s *Session) error { _, err := s.DVMVoltage(); return err }, "MEAS:DVM?"},
		{"SetRemoteSense", func(s *Session) error { return s.SetRemoteSense(StateZero) }, "SYST:SENS 0"},
		{"RemoteSense", func(s *Session) error { _, err := s.RemoteSense(); return err }, "SYST:SENS?"},
		{"SetPortFunction", func(s *Session) error { return s.SetPortFunction(PortRIDFI) }, "PORT:FUNC RIDFI"},
		{"PortFunction", func(s *Session) error { _, err := s.PortFunction(); return err }, "PORT:FUNC?"},
		{"SetRIMode", func(s *Session) error { return s.SetRIMode(RILatching) }, "RI:MODE LATCHING"},
		{"RIMode", func(s *Session) error { _, err := s.RIMode(); return err }, "RI:MODE?"},
		{"Trigger", func(s *Session) error { return s.Trigger() }, "TRIG"},
		{"SetTriggerSource", func(s *Session) error { return s.SetTriggerSource(TriggerBus) }, "TRIG:SOUR BUS"},
		{"TriggerSource", func(s *Session) error { _, err := s.TriggerSource(); return err }, "TRIG:SOUR?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ft := newTestSession(t, "1\r\n", noError)
			require.NoError(t, tt.call(s))
			require.Len(t, ft.writes, 2)
			assert.Equal(t, tt.want+"\n", ft.writes[0])
			assert.Equal(t, ErrorQueueQuery+"\n", ft.writes[1])
		})
	}
}

func TestMeasure(t *testing.T) {
	s, _ := newTestSession(t,
		"12.0010\r\n", noError,
		"0.5003\r\n", noError,
		"6.0045\r\n", noError,
	)

	m, err := s.Measure()
	require.NoError(t, err)
	assert.InDelta(t, 12.001, m.Voltage, 1e-9)
	assert.InDelta(t, 0.5003, m.Current, 1e-9)
	assert.InDelta(t, 6.0045, m.Power, 1e-9)
	assert.Equal(t, "V: 12.0010V | I: 0.5003A | P: 6.0045W", m.ShortString())

	js, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"voltage":12.001`)
}

func TestMeasureAbsentReply(t *testing.T) {
	s, _ := newTestSession(t, "\r\n", noError)

	_, err := s.Measure()
	assert.ErrorIs(t, err, ErrNoReply)
}

func TestProgramList(t *testing.T) {
	replies := make([]string, 0, 16)
	for i := 0; i < 12; i++ {
		replies = append(replies, noError)
	}
	s, ft := newTestSession(t, replies...)

	err := s.ProgramList(&ListProgram{
		Name:   "RAMP",
		Unit:   ListMSecond,
		Mode:   ListContinuous,
		Repeat: ListOnce,
		Count:  2,
		Steps: []ListStepConfig{
			{CurrentMA: 1000, VoltageMV: 5000, Width: 500},
			{CurrentMA: 2000, VoltageMV: 12000, Width: 1500},
		},
		Slot: 3,
	})
	require.NoError(t, err)

	var cmds []string
	for _, w := range ft.writes {
		if w != ErrorQueueQuery+"\n" {
			cmds = append(cmds, w)
		}
	}
	assert.Equal(t, []string{
		"LIST:NAME 'RAMP'\n",
		"LIST:UNIT MSECOND\n",
		"LIST:MODE CONTINUOUS\n",
		"LIST:STEP ONCE\n",
		"LIST:COUNT 2\n",
		"LIST:CURR 1,1000mA\n",
		"LIST:VOLT 1,5000mV\n",
		"LIST:WID 1,500\n",
		"LIST:CURR 2,2000mA\n",
		"LIST:VOLT 2,12000mV\n",
		"LIST:WID 2,1500\n",
		"LIST:SAV 3\n",
	}, cmds)
}

func TestProgramListValidatesBeforeWriting(t *testing.T) {
	s, ft := newTestSession(t)

	err := s.ProgramList(&ListProgram{
		Name:   "RAMP",
		Unit:   ListSecond,
		Mode:   ListStepMode,
		Repeat: ListRepeatForever,
		Count:  2,
		Steps: []ListStepConfig{
			{CurrentMA: 1000, VoltageMV: 5000, Width: 1},
			{CurrentMA: 27101, VoltageMV: 5000, Width: 1},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, ft.events)
}
