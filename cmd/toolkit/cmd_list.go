package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Program, inspect and store list sequences",
}

var listProgramCmd = &cobra.Command{
	Use:   "program <file.yaml>",
	Short: "Write a list sequence described in a YAML file",
	Long: `Write a list sequence described in a YAML file. Example file:

  name: RAMP
  unit: MSECOND
  mode: CONTINUOUS
  repeat: ONCE
  count: 3
  slot: 1          # optional, stores the list after programming
  steps:
    - {current_ma: 500, voltage_mv: 5000,  width: 1000}
    - {current_ma: 500, voltage_mv: 9000,  width: 1000}
    - {current_ma: 500, voltage_mv: 12000, width: 2000}`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		program, err := loadListProgram(args[0])
		exitOnError("loading list program", err)

		device := connectDevice()
		defer device.Close()
		executeListProgram(device, program)
	},
}

var listShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the list sequence currently in the device",
	Run: func(cmd *cobra.Command, args []string) {
		device := connectDevice()
		defer device.Close()
		executeListShow(device)
	},
}

var listSaveCmd = &cobra.Command{
	Use:   "save <slot>",
	Short: "Store the current list sequence in slot 1-8",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slot := parseSlot(args[0])
		device := connectDevice()
		defer device.Close()
		exitOnError("saving list", device.ListSave(slot))
		fmt.Fprintf(os.Stderr, "List saved to slot %d\n", slot)
	},
}

var listRecallCmd = &cobra.Command{
	Use:   "recall <slot>",
	Short: "Load the list sequence stored in slot 1-8",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slot := parseSlot(args[0])
		device := connectDevice()
		defer device.Close()
		exitOnError("recalling list", device.ListRecall(slot))
		fmt.Fprintf(os.Stderr, "List recalled from slot %d\n", slot)
	},
}

func init() {
	listCmd.AddCommand(listProgramCmd, listShowCmd, listSaveCmd, listRecallCmd)
	rootCmd.AddCommand(listCmd)
}

func parseSlot(arg string) int {
	slot, err := strconv.Atoi(arg)
	if err == nil {
		err = bkp9151.CheckListSlot("list", slot)
	}
	exitOnError("parsing slot", err)
	return slot
}

// loadListProgram reads and validates a list program file.
func loadListProgram(path string) (*bkp9151.ListProgram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var program bkp9151.ListProgram
	if err := yaml.Unmarshal(data, &program); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	return &program, nil
}

func executeListProgram(device *bkp9151.Session, program *bkp9151.ListProgram) {
	fmt.Fprintf(os.Stderr, "Programming list %q with %d levels...\n", program.Name, len(program.Steps))
	exitOnError("programming list", device.ProgramList(program))
	if program.Slot != 0 {
		fmt.Fprintf(os.Stderr, "List saved to slot %d\n", program.Slot)
	}
	fmt.Fprintln(os.Stderr, "Done")
}

func executeListShow(device *bkp9151.Session) {
	header := []struct {
		name  string
		query func() (bkp9151.Reply, error)
	}{
		{"Name", device.ListName},
		{"Unit", device.ListUnit},
		{"Mode", device.ListMode},
		{"Step", device.ListStep},
		{"Count", device.ListCount},
	}

	var count bkp9151.Reply
	for _, h := range header {
		reply, err := h.query()
		exitOnError("reading list "+h.name, err)
		fmt.Printf("%-6s %s\n", h.name+":", reply.String())
		if h.name == "Count" {
			count = reply
		}
	}

	levels, err := count.Int()
	if err != nil || levels < 1 {
		return
	}
	levels = min(levels, bkp9151.MaxListLevels)

	fmt.Printf("\n%-6s %-12s %-12s %s\n", "Level", "Current", "Voltage", "Width")
	for level := 1; level <= levels; level++ {
		curr, err := device.ListCurrent(level)
		exitOnError("reading list current", err)
		volt, err := device.ListVoltage(level)
		exitOnError("reading list voltage", err)
		width, err := device.ListWidth(level)
		exitOnError("reading list width", err)
		fmt.Printf("%-6d %-12s %-12s %s\n", level, curr, volt, width)
	}
}
