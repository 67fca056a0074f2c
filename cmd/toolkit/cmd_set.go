package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

type setter func(device *bkp9151.Session, value string) error

func intSetter(apply func(*bkp9151.Session, int) error) setter {
	return func(device *bkp9151.Session, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
		return apply(device, n)
	}
}

func stateSetter(apply func(*bkp9151.Session, bkp9151.State) error) setter {
	return func(device *bkp9151.Session, value string) error {
		return apply(device, bkp9151.State(strings.ToUpper(value)))
	}
}

// setpointSetter accepts a number in milli-units or the MIN/MAX literals.
func setpointSetter(apply func(*bkp9151.Session, int) error, limit func(*bkp9151.Session, bkp9151.Limit) error) setter {
	return func(device *bkp9151.Session, value string) error {
		switch l := bkp9151.Limit(strings.ToUpper(value)); l {
		case bkp9151.LimitMin, bkp9151.LimitMax:
			return limit(device, l)
		}
		return intSetter(apply)(device, value)
	}
}

var setters = map[string]setter{
	"voltage":      setpointSetter((*bkp9151.Session).SetVoltage, (*bkp9151.Session).SetVoltageLimit),
	"current":      setpointSetter((*bkp9151.Session).SetCurrent, (*bkp9151.Session).SetCurrentLimit),
	"output":       stateSetter((*bkp9151.Session).SetOutputState),
	"timer-state":  stateSetter((*bkp9151.Session).SetOutputTimerState),
	"sense":        stateSetter((*bkp9151.Session).SetRemoteSense),
	"psc":          stateSetter((*bkp9151.Session).SetPSC),
	"timer":        intSetter((*bkp9151.Session).SetOutputTimerData),
	"quest-enable": intSetter((*bkp9151.Session).SetQuestEnable),
	"oper-enable":  intSetter((*bkp9151.Session).SetOperationEnable),
	"mode": func(device *bkp9151.Session, value string) error {
		return device.SetSourceMode(bkp9151.SourceMode(strings.ToUpper(value)))
	},
	"port-function": func(device *bkp9151.Session, value string) error {
		return device.SetPortFunction(bkp9151.PortFunction(strings.ToUpper(value)))
	},
	"ri-mode": func(device *bkp9151.Session, value string) error {
		return device.SetRIMode(bkp9151.RIMode(strings.ToUpper(value)))
	},
	"trigger-source": func(device *bkp9151.Session, value string) error {
		return device.SetTriggerSource(bkp9151.TriggerSource(strings.ToUpper(value)))
	},
	"list-area": intSetter(func(device *bkp9151.Session, n int) error {
		return device.SetListArea(bkp9151.ListArea(n))
	}),
}

func setSettings() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var setCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Change a setting on the device",
	Long: `Change a setting on the device. Voltage is given in mV and current in mA;
both also accept MIN and MAX. Boolean settings accept ON, OFF, 1 and 0.

Settings: ` + strings.Join(setSettings(), ", "),
	Example: `  bkp9151-toolkit set voltage 12000
  bkp9151-toolkit set current 500
  bkp9151-toolkit set output on`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		apply, ok := setters[args[0]]
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown setting %q (valid: %s)\n", args[0], strings.Join(setSettings(), ", "))
			os.Exit(1)
		}

		device := connectDevice()
		defer device.Close()
		executeSet(device, args[0], args[1], apply)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}

// executeSet applies one setting and reports the instrument's error queue
func executeSet(device *bkp9151.Session, name, value string, apply setter) {
	exitOnError("setting "+name, apply(device, value))

	report := device.LastErrorReport()
	if report.Parsed && !report.OK() {
		fmt.Fprintf(os.Stderr, "Device rejected %s=%s: %s\n", name, value, report)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s set to %s\n", name, value)
}
