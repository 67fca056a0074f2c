package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

var portsJSONFlag bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports found on this host",
	Run: func(cmd *cobra.Command, args []string) {
		executePorts(portsJSONFlag)
	},
}

func init() {
	portsCmd.Flags().BoolVarP(&portsJSONFlag, "json", "j", false, "Output in JSON format")
	rootCmd.AddCommand(portsCmd)
}

func executePorts(jsonOutput bool) {
	ports, err := bkp9151.ListPorts()
	exitOnError("listing ports", err)

	if jsonOutput {
		data, err := json.Marshal(ports)
		exitOnError("formatting JSON", err)
		fmt.Println(string(data))
		return
	}

	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "No serial ports found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tUSB\tVID:PID\tSERIAL\tPRODUCT")
	for _, p := range ports {
		ids := "-"
		if p.IsUSB {
			ids = p.VID + ":" + p.PID
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", p.Name, p.IsUSB, ids, p.SerialNumber, p.Product)
	}
	w.Flush()
}
