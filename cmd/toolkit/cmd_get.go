package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

var getJSONFlag bool

// getQueries maps the get command's quantity names to session queries.
var getQueries = map[string]func(*bkp9151.Session) (bkp9151.Reply, error){
	"identity":         (*bkp9151.Session).Identify,
	"version":          (*bkp9151.Session).SystemVersion,
	"address":          (*bkp9151.Session).SystemAddress,
	"error":            (*bkp9151.Session).SystemError,
	"next-error":       (*bkp9151.Session).SystemNextError,
	"psc":              (*bkp9151.Session).PSC,
	"sense":            (*bkp9151.Session).RemoteSense,
	"quest-event":      (*bkp9151.Session).QuestEvent,
	"quest-condition":  (*bkp9151.Session).QuestCondition,
	"quest-enable":     (*bkp9151.Session).QuestEnable,
	"oper-event":       (*bkp9151.Session).OperationEvent,
	"oper-condition":   (*bkp9151.Session).OperationCondition,
	"oper-enable":      (*bkp9151.Session).OperationEnable,
	"output":           (*bkp9151.Session).OutputState,
	"timer":            (*bkp9151.Session).OutputTimerData,
	"timer-state":      (*bkp9151.Session).OutputTimerState,
	"mode":             (*bkp9151.Session).SourceMode,
	"voltage":          (*bkp9151.Session).Voltage,
	"current":          (*bkp9151.Session).Current,
	"max-voltage":      (*bkp9151.Session).MaxVoltage,
	"max-current":      (*bkp9151.Session).MaxCurrent,
	"measured-voltage": (*bkp9151.Session).InputVoltage,
	"measured-current": (*bkp9151.Session).InputCurrent,
	"measured-power":   (*bkp9151.Session).InputPower,
	"dvm":              (*bkp9151.Session).DVMVoltage,
	"port-function":    (*bkp9151.Session).PortFunction,
	"ri-mode":          (*bkp9151.Session).RIMode,
	"trigger-source":   (*bkp9151.Session).TriggerSource,
}

func getQuantities() []string {
	names := make([]string, 0, len(getQueries)+1)
	names = append(names, "measurement")
	for name := range getQueries {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

var getCmd = &cobra.Command{
	Use:   "get [quantity]",
	Short: "Get a single reading or setting from the device",
	Long: `Get a single reading or setting from the device. Without a quantity the
measured voltage, current and power are read.

Quantities: ` + strings.Join(getQuantities(), ", "),
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: getQuantities(),
	Run: func(cmd *cobra.Command, args []string) {
		quantity := "measurement"
		if len(args) == 1 {
			quantity = args[0]
		}

		device := connectDevice()
		defer device.Close()
		executeGet(device, quantity, getJSONFlag)
	},
}

func init() {
	getCmd.Flags().BoolVarP(&getJSONFlag, "json", "j", false, "Output in JSON format")
	rootCmd.AddCommand(getCmd)
}

// executeGet reads one quantity from the device
func executeGet(device *bkp9151.Session, quantity string, jsonOutput bool) {
	if quantity == "measurement" {
		m, err := device.Measure()
		exitOnError("getting measurement", err)
		printMeasurement(m, jsonOutput)
		return
	}

	query, ok := getQueries[quantity]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown quantity %q (valid: %s)\n", quantity, strings.Join(getQuantities(), ", "))
		os.Exit(1)
	}

	reply, err := query(device)
	exitOnError("getting "+quantity, err)
	printReply(quantity, reply, device.LastErrorReport(), jsonOutput)
}

func printMeasurement(m *bkp9151.Measurement, jsonOutput bool) {
	if jsonOutput {
		jsonStr, err := m.JSON()
		exitOnError("formatting JSON", err)
		fmt.Println(jsonStr)
		return
	}
	fmt.Fprintln(os.Stderr)
	fmt.Println(m.String())
}

// replyOutput is the JSON form of a single reply.
type replyOutput struct {
	Name        string  `json:"name"`
	Value       *string `json:"value"`
	ErrorReport string  `json:"error_report,omitempty"`
}

func printReply(name string, reply bkp9151.Reply, report bkp9151.ErrorReport, jsonOutput bool) {
	if jsonOutput {
		out := replyOutput{Name: name, ErrorReport: report.Raw}
		if v, ok := reply.Value(); ok {
			out.Value = &v
		}
		data, err := json.Marshal(out)
		exitOnError("formatting JSON", err)
		fmt.Println(string(data))
		return
	}

	if !reply.Present() {
		fmt.Fprintf(os.Stderr, "%s: no reply from device\n", name)
		return
	}
	fmt.Println(reply.String())
}
