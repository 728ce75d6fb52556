package main

import (
	"github.com/spf13/cobra"

	"github.com/hollis/c210-agent/internal/telemetry"
)

var (
	device     string
	maxPayload int
)

var rootCmd = &cobra.Command{
	Use:   "c210-agent",
	Short: "Telemetry agent for the C210 sensor board",
	Long: `c210-agent samples the C210 board sensors, assembles the readings
into aggregated JSON documents and publishes them over MQTT (WiFi) or
MQTT-SN (Cellular). Aggregation is switched with the two board buttons
or from the serial console; the RGB LED shows the active mode.

Run 'c210-agent run' to start the daemon, 'c210-agent probe' to sample
every sensor once and print the document it would publish.`,
	Version: "1.2.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&device, "device", "C210", "Device name on the wire")
	rootCmd.PersistentFlags().IntVar(&maxPayload, "max-payload", telemetry.DefaultMaxEncoded, "Encoded payload budget in bytes")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
