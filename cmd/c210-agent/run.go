package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/hollis/c210-agent/internal/aggregation"
	"github.com/hollis/c210-agent/internal/button"
	"github.com/hollis/c210-agent/internal/dispatch"
	"github.com/hollis/c210-agent/internal/led"
	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/sensors"
	"github.com/hollis/c210-agent/internal/shell"
	"github.com/hollis/c210-agent/internal/status"
	"github.com/hollis/c210-agent/internal/telemetry"
	"github.com/hollis/c210-agent/internal/transport"
	"github.com/hollis/c210-agent/internal/web"
)

var (
	broker       string
	httpAddr     string
	consolePort  string
	pinButton1   int
	pinButton2   int
	pinRed       int
	pinGreen     int
	pinBlue      int
	debounce     time.Duration
	longPress    time.Duration
	period       time.Duration
	sensorPeriod time.Duration
	simulated    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the telemetry agent",
	Long: `run starts the agent: the button monitor, the LED controller, the
sensor samplers, the HTTP status server and the operator console. It
keeps running until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent()
	},
}

func init() {
	runCmd.Flags().StringVar(&broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address for the WiFi uplink")
	runCmd.Flags().StringVar(&httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	runCmd.Flags().StringVar(&consolePort, "console", "", "Serial port for the operator console (empty for stdin)")
	runCmd.Flags().IntVar(&pinButton1, "pin-btn1", button.DefaultPinButton1, "BCM pin number for button 1")
	runCmd.Flags().IntVar(&pinButton2, "pin-btn2", button.DefaultPinButton2, "BCM pin number for button 2")
	runCmd.Flags().IntVar(&pinRed, "pin-red", led.PinRed, "BCM pin number for the red LED channel")
	runCmd.Flags().IntVar(&pinGreen, "pin-green", led.PinGreen, "BCM pin number for the green LED channel")
	runCmd.Flags().IntVar(&pinBlue, "pin-blue", led.PinBlue, "BCM pin number for the blue LED channel")
	runCmd.Flags().DurationVar(&debounce, "debounce", button.DefaultDebounce, "Button debounce window")
	runCmd.Flags().DurationVar(&longPress, "long-press", button.DefaultLongPress, "Long-press threshold")
	runCmd.Flags().DurationVar(&period, "period", sensors.DefaultAggregationPeriod, "Shared sampling period in aggregation mode")
	runCmd.Flags().DurationVar(&sensorPeriod, "sensor-period", sensors.DefaultPeriod, "Default per-sensor sampling period")
	runCmd.Flags().BoolVar(&simulated, "sim", false, "Run with simulated buttons and LED (bench mode)")
	rootCmd.AddCommand(runCmd)
}

func runAgent() error {
	bootID := uuid.NewString()[:8]
	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		Device:      device,
		Broker:      broker,
		HTTPAddr:    httpAddr,
		Console:     consolePort,
		DebounceMs:  debounce.Milliseconds(),
		LongPressMs: longPress.Milliseconds(),
		PeriodMs:    period.Milliseconds(),
		MaxPayload:  maxPayload,
	})
	metrics := observability.NewMetrics()

	// LED leg: real PWM driver on the board, recording fake off-board.
	var ledDriver led.Driver
	if simulated {
		ledDriver = led.NewFakeDriver()
	} else {
		d, err := led.NewRealDriver(pinRed, pinGreen, pinBlue)
		if err != nil {
			return err
		}
		ledDriver = d
	}
	leds := led.NewController(ledDriver, 0)
	leds.Start()
	defer func() {
		leds.Stop()
		ledDriver.Close()
	}()

	wifi := transport.NewWifiClient(broker)
	cell := transport.NewCellularClient(nil)
	publisher := transport.NewPublisher(wifi, cell, tracker, metrics)

	state := mode.NewState()
	lock := &mode.Lock{}
	assembler := telemetry.NewAssembler(device, telemetry.AllSensors(), maxPayload)

	// The samplers feed the aggregation function, which in turn drives
	// the manager; the SinkFunc indirection breaks the construction cycle.
	var fn *aggregation.Function
	sink := sensors.SinkFunc(func(r telemetry.Reading) { fn.Consume(r) })
	manager := sensors.NewManager(state, sensors.AllSimDrivers(), sink, metrics, sensorPeriod)
	fn = aggregation.NewFunction(aggregation.Deps{
		State:     state,
		Manager:   manager,
		Assembler: assembler,
		Publisher: publisher,
		Wifi:      wifi,
		Cell:      cell,
		Tracker:   tracker,
		Metrics:   metrics,
	}, period, maxPayload)

	dispatcher := dispatch.NewDispatcher(state, fn, leds, tracker, metrics, 0)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Button leg: gpiocdev edge events on the board, a silent fake in
	// bench mode where the console commands the mode changes instead.
	var source button.Source
	if simulated {
		source = button.NewFakeSource(0)
	} else {
		s, err := button.NewRealSource(pinButton1, pinButton2)
		if err != nil {
			return err
		}
		source = s
	}
	defer source.Close()

	monitor := button.NewMonitor(lock, leds, dispatcher, tracker, metrics, debounce, longPress)
	monitor.Start(source.Events())
	defer monitor.Stop()

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, metrics)
		srv.SetHandler(handlers.LoggingHandler(os.Stdout, srv.Handler()))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	console := shell.New(shell.Config{
		Leds:       leds,
		Manager:    manager,
		Function:   fn,
		Sink:       dispatcher,
		State:      state,
		Tracker:    tracker,
		Publisher:  publisher,
		MaxEncoded: maxPayload,
	})
	go serveConsole(console)

	publishLifecycle(publisher, tracker, "STARTUP", "")
	log.Printf("started: device=%s broker=%s debounce=%v long-press=%v period=%v boot=%s",
		device, broker, debounce, longPress, period, bootID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received %v, shutting down", s)

	publishLifecycle(publisher, tracker, "SHUTDOWN", signalName(s))

	// Tear down a running aggregation so the samplers stop and the
	// uplink closes before the deferred cleanup runs.
	if fn.Active() != mode.Disabled {
		fn.Stop()
		for i := 0; i < 10 && !fn.Settled(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
	}
	manager.DisableAll()
	return nil
}

// serveConsole runs the operator console over the configured stream.
// A failed serial open or a dropped console is logged, not fatal: the
// buttons and the web page keep working without it.
func serveConsole(console *shell.Shell) {
	var rw io.ReadWriter
	if consolePort == "" {
		rw = stdioStream{}
	} else {
		port, err := shell.OpenSerial(consolePort)
		if err != nil {
			log.Printf("console disabled: %v", err)
			return
		}
		defer port.Close()
		rw = port
	}
	if err := console.Run(rw); err != nil {
		log.Printf("console error: %v", err)
	}
}

// stdioStream serves the console on the launching terminal.
type stdioStream struct{}

func (stdioStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// publishLifecycle sends a retained STARTUP/SHUTDOWN document. With no
// transport connected the event is skipped; the status page still shows
// the state.
func publishLifecycle(publisher *transport.Publisher, tracker *status.Tracker, event, reason string) {
	payload := status.FormatStatusEvent(tracker.Snapshot(), event, reason)
	if err := publisher.PublishSystem(payload); err != nil {
		log.Printf("%s event not published: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
