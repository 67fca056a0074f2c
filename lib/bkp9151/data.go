package bkp9151

import (
	"encoding/json"
	"fmt"
	"time"
)

// Measurement is one snapshot of the measured output
type Measurement struct {
	Timestamp time.Time `json:"timestamp"`
	Voltage   float64   `json:"voltage"` // V
	Current   float64   `json:"current"` // A
	Power     float64   `json:"power"`   // W
}

// Measure queries measured voltage, current and power in turn.
func (s *Session) Measure() (*Measurement, error) {
	m := &Measurement{Timestamp: time.Now()}

	reads := []struct {
		name  string
		query func() (Reply, error)
		dst   *float64
	}{
		{"voltage", s.InputVoltage, &m.Voltage},
		{"current", s.InputCurrent, &m.Current},
		{"power", s.InputPower, &m.Power},
	}

	for _, r := range reads {
		reply, err := r.query()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
		}
		v, err := reply.Float()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
		}
		*r.dst = v
	}

	return m, nil
}

// String returns a formatted string representation of the measurement
func (m *Measurement) String() string {
	return fmt.Sprintf(`Voltage: %.4f V
Current: %.4f A
Power: %.4f W`,
		m.Voltage, m.Current, m.Power)
}

// ShortString returns a compact one-line representation of the measurement
func (m *Measurement) ShortString() string {
	return fmt.Sprintf("V: %.4fV | I: %.4fA | P: %.4fW", m.Voltage, m.Current, m.Power)
}

// JSON returns the measurement encoded as a single JSON line
func (m *Measurement) JSON() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode measurement: %w", err)
	}
	return string(data), nil
}

// ListStepConfig is one level of a list program.
type ListStepConfig struct {
	CurrentMA int `json:"current_ma" yaml:"current_ma"`
	VoltageMV int `json:"voltage_mv" yaml:"voltage_mv"`
	Width     int `json:"width" yaml:"width"`
}

// ListProgram is a complete list file: name, timing unit, repeat
// behaviour and up to 25 levels.
type ListProgram struct {
	Name   string           `json:"name" yaml:"name"`
	Unit   ListUnit         `json:"unit" yaml:"unit"`
	Mode   ListMode         `json:"mode" yaml:"mode"`
	Repeat ListRepeat       `json:"repeat" yaml:"repeat"`
	Count  int              `json:"count" yaml:"count"`
	Steps  []ListStepConfig `json:"steps" yaml:"steps"`
	Slot   int              `json:"slot,omitempty" yaml:"slot,omitempty"` // 0 = don't save
}

// Validate checks every field before anything is sent.
func (p *ListProgram) Validate() error {
	const op = "ProgramList"
	if err := checkListName(op, p.Name); err != nil {
		return err
	}
	if err := checkMember(op, "list unit", p.Unit, listUnits); err != nil {
		return err
	}
	if err := checkMember(op, "list mode", p.Mode, listModes); err != nil {
		return err
	}
	if err := checkMember(op, "list step", p.Repeat, listRepeats); err != nil {
		return err
	}
	if err := listCountRange.Check(op, p.Count); err != nil {
		return err
	}
	if len(p.Steps) == 0 || len(p.Steps) > MaxListLevels {
		return &ParameterError{Op: op, Param: "steps", Value: len(p.Steps), Reason: fmt.Sprintf("need 1 to %d levels", MaxListLevels)}
	}
	for _, st := range p.Steps {
		if err := listCurrentRange.Check(op, st.CurrentMA); err != nil {
			return err
		}
		if err := listVoltageRange.Check(op, st.VoltageMV); err != nil {
			return err
		}
		if err := listWidthRange.Check(op, st.Width); err != nil {
			return err
		}
	}
	if p.Slot != 0 {
		if err := listSlotRange.Check(op, p.Slot); err != nil {
			return err
		}
	}
	return nil
}

// ProgramList writes a whole list program. The unit is set before the
// widths, as the instrument interprets widths in the current unit.
func (s *Session) ProgramList(p *ListProgram) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := s.SetListName(p.Name); err != nil {
		return err
	}
	if err := s.SetListUnit(p.Unit); err != nil {
		return err
	}
	if err := s.SetListMode(p.Mode); err != nil {
		return err
	}
	if err := s.SetListStep(p.Repeat); err != nil {
		return err
	}
	if err := s.SetListCount(p.Count); err != nil {
		return err
	}

	for i, st := range p.Steps {
		level := i + 1
		if err := s.SetListCurrent(level, st.CurrentMA); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		if err := s.SetListVoltage(level, st.VoltageMV); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		if err := s.SetListWidth(level, st.Width); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
	}

	if p.Slot != 0 {
		return s.ListSave(p.Slot)
	}
	return nil
}
