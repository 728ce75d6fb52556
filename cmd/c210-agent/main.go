// Command c210-agent publishes C210 board telemetry over MQTT and
// MQTT-SN, driven by the board buttons, a serial console and an HTTP
// status endpoint.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
