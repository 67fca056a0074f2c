package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

var actions = map[string]func(*bkp9151.Session) error{
	"reset":   (*bkp9151.Session).Reset,
	"clear":   (*bkp9151.Session).ClearRegisters,
	"trigger": (*bkp9151.Session).Trigger,
	"remote":  (*bkp9151.Session).SetRemote,
	"local":   (*bkp9151.Session).SetLocal,
	"lock":    (*bkp9151.Session).SetRemoteOnly,
}

var registerActions = map[string]func(*bkp9151.Session, int) error{
	"save":   (*bkp9151.Session).SaveParams,
	"recall": (*bkp9151.Session).RecallParams,
}

var doCmd = &cobra.Command{
	Use:   "do <action> [register]",
	Short: "Run an action on the device",
	Long: `Run an action on the device.

Actions: reset, clear, trigger, remote, local, lock (front panel locked out),
save <register> and recall <register> (registers 1-50).`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		run, err := resolveAction(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		device := connectDevice()
		defer device.Close()
		exitOnError("running "+args[0], run(device))
		fmt.Fprintf(os.Stderr, "%s done\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(doCmd)
}

// resolveAction checks the arguments before the device is opened.
func resolveAction(args []string) (func(*bkp9151.Session) error, error) {
	if fn, ok := actions[args[0]]; ok {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes no argument", args[0])
		}
		return fn, nil
	}

	fn, ok := registerActions[args[0]]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", args[0])
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("%s needs a register number", args[0])
	}
	register, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("register %q is not a number", args[1])
	}
	if err := bkp9151.CheckRegister(args[0], register); err != nil {
		return nil, err
	}
	return func(device *bkp9151.Session) error {
		return fn(device, register)
	}, nil
}
