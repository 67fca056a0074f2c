package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

var scpiJSONFlag bool

var scpiCmd = &cobra.Command{
	Use:   "scpi <command>...",
	Short: "Send a raw SCPI command",
	Long: `Send a raw SCPI command using the same exchange as every other command:
the reply (for queries) is printed to stdout and the error queue entry read
afterwards is printed to stderr.`,
	Example: `  bkp9151-toolkit scpi '*IDN?'
  bkp9151-toolkit scpi SOUR:VOLT? MAX`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")
		if _, err := bkp9151.EncodeRaw(text); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		device := connectDevice()
		defer device.Close()
		executeSCPI(device, text, scpiJSONFlag)
	},
}

func init() {
	scpiCmd.Flags().BoolVarP(&scpiJSONFlag, "json", "j", false, "Output in JSON format")
	rootCmd.AddCommand(scpiCmd)
}

// executeSCPI sends text and prints the reply and error queue entry
func executeSCPI(device *bkp9151.Session, text string, jsonOutput bool) {
	reply, err := device.Send(text)
	exitOnError("sending command", err)

	report := device.LastErrorReport()
	if jsonOutput {
		printReply(text, reply, report, true)
		return
	}

	if reply.Present() {
		fmt.Println(reply.String())
	}
	fmt.Fprintf(os.Stderr, "SYSTem:ERRor? -> %s\n", report)
}
