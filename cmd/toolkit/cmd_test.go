package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

func connectSim(t *testing.T) (*bkp9151.Session, *simTransport) {
	t.Helper()
	sim := useSimulator(t)
	device, err := dialSession("/dev/ttyUSB0")
	require.NoError(t, err)
	t.Cleanup(func() { device.Close() })
	return device, sim
}

func TestResolveAction(t *testing.T) {
	_, err := resolveAction([]string{"reset"})
	assert.NoError(t, err)

	_, err = resolveAction([]string{"reset", "1"})
	assert.ErrorContains(t, err, "takes no argument")

	_, err = resolveAction([]string{"save"})
	assert.ErrorContains(t, err, "needs a register")

	_, err = resolveAction([]string{"save", "51"})
	assert.ErrorIs(t, err, bkp9151.ErrInvalidParameter)

	_, err = resolveAction([]string{"explode"})
	assert.ErrorContains(t, err, "unknown action")
}

func TestActionsWriteCommands(t *testing.T) {
	device, sim := connectSim(t)

	run, err := resolveAction([]string{"recall", "7"})
	require.NoError(t, err)
	require.NoError(t, run(device))

	run, err = resolveAction([]string{"lock"})
	require.NoError(t, err)
	require.NoError(t, run(device))

	assert.Equal(t, []string{"*RCL 7", "SYSTem:ERRor?", "SYST:RWL", "SYSTem:ERRor?"}, sim.written())
}

func TestSetters(t *testing.T) {
	tests := []struct {
		setting string
		value   string
		want    string
	}{
		{"voltage", "12000", "VOLT 12000mV"},
		{"voltage", "max", "VOLT MAX"},
		{"current", "MIN", "CURR MIN"},
		{"output", "on", "OUTP:STAT ON"},
		{"sense", "1", "SYST:SENS 1"},
		{"mode", "list", "SOUR:MODE LIST"},
		{"trigger-source", "bus", "TRIG:SOUR BUS"},
		{"timer", "432000", "OUTP:TIM:DATA 432000"},
		{"list-area", "4", "LIST:AREA 4"},
	}

	for _, tt := range tests {
		t.Run(tt.setting+"="+tt.value, func(t *testing.T) {
			device, sim := connectSim(t)
			require.NoError(t, setters[tt.setting](device, tt.value))
			assert.Equal(t, tt.want, sim.written()[0])
		})
	}
}

func TestSettersRejectBadValues(t *testing.T) {
	device, sim := connectSim(t)

	assert.Error(t, setters["voltage"](device, "twelve"))
	assert.ErrorIs(t, setters["current"](device, "27101"), bkp9151.ErrInvalidParameter)
	assert.ErrorIs(t, setters["output"](device, "maybe"), bkp9151.ErrInvalidParameter)
	assert.ErrorIs(t, setters["list-area"](device, "3"), bkp9151.ErrInvalidParameter)
	assert.Empty(t, sim.written())
}

func TestLoadListProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: RAMP
unit: MSECOND
mode: CONTINUOUS
repeat: ONCE
count: 2
slot: 3
steps:
  - {current_ma: 500, voltage_mv: 5000, width: 1000}
  - {current_ma: 500, voltage_mv: 9000, width: 2000}
`), 0o644))

	program, err := loadListProgram(path)
	require.NoError(t, err)
	assert.Equal(t, "RAMP", program.Name)
	assert.Equal(t, bkp9151.ListMSecond, program.Unit)
	assert.Equal(t, 3, program.Slot)
	require.Len(t, program.Steps, 2)
	assert.Equal(t, 9000, program.Steps[1].VoltageMV)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: TOOLONGNAME\nunit: SECOND\nmode: STEP\nrepeat: ONCE\ncount: 2\nsteps: [{width: 1}]\n"), 0o644))
	_, err = loadListProgram(bad)
	assert.ErrorIs(t, err, bkp9151.ErrInvalidParameter)
}
