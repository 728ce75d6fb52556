package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollis/c210-agent/internal/sensors"
	"github.com/hollis/c210-agent/internal/telemetry"
)

var probeEncoded bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Sample every sensor once and print the aggregated document",
	Long: `probe runs one aggregation cycle against the simulated drivers and
prints the document the agent would publish. By default the JSON is
printed as-is; --encoded prints the Base64 form that goes on the wire.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe(cmd)
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeEncoded, "encoded", false, "Print the Base64-encoded wire form")
	rootCmd.AddCommand(probeCmd)
}

func probe(cmd *cobra.Command) error {
	assembler := telemetry.NewAssembler(device, telemetry.AllSensors(), maxPayload)

	var payload []byte
	for _, d := range sensors.AllSimDrivers() {
		complete, p, err := assembler.Submit(d.Read())
		if err != nil {
			return fmt.Errorf("probe %s: %w", d.Type(), err)
		}
		if complete {
			payload = p
		}
	}
	if payload == nil {
		return fmt.Errorf("probe: cycle incomplete, missing %v", assembler.Pending())
	}

	if probeEncoded {
		cmd.Printf("%s\n", payload)
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return fmt.Errorf("probe: decode payload: %w", err)
	}
	cmd.Printf("%s\n", raw)
	return nil
}
