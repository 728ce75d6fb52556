// Package shell implements the line-oriented operator console. It
// speaks over any io.ReadWriter: stdin/stdout during bench work, a
// serial port on the installed board.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hollis/c210-agent/internal/aggregation"
	"github.com/hollis/c210-agent/internal/dispatch"
	"github.com/hollis/c210-agent/internal/led"
	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/sensors"
	"github.com/hollis/c210-agent/internal/status"
	"github.com/hollis/c210-agent/internal/telemetry"
	"github.com/hollis/c210-agent/internal/transport"
)

// ActionSink accepts aggregation mode changes. The dispatcher
// implements it.
type ActionSink interface {
	Submit(a dispatch.Action) bool
}

// Config wires the console to the rest of the agent.
type Config struct {
	Leds       *led.Controller
	Manager    *sensors.Manager
	Function   *aggregation.Function
	Sink       ActionSink
	State      *mode.State
	Tracker    *status.Tracker
	Publisher  *transport.Publisher
	MaxEncoded int
}

// Shell interprets console lines against the agent.
type Shell struct {
	cfg Config
	now func() time.Time
}

// New returns a Shell over the given wiring.
func New(cfg Config) *Shell {
	return &Shell{cfg: cfg, now: time.Now}
}

const helpText = "commands:\r\n" +
	"  led on <color> | led off\r\n" +
	"  led blink <color> <on_ms> <off_ms> <count>\r\n" +
	"  led fade <color> <in_ms> <out_ms> <count>\r\n" +
	"  sensor list | sensor enable <id> | sensor disable <id>\r\n" +
	"  sensor period <id> <ms> | sensor publish <id>\r\n" +
	"  functions wifi_start | wifi_stop | cell_start | cell_stop\r\n" +
	"  functions set_period <ms>\r\n" +
	"  status | history | help | exit\r\n" +
	"colors: red green blue yellow cyan purple white. count -1 repeats forever."

// Run serves the console until the peer sends exit or closes the
// stream. The scanner error, if any, is returned so the caller can log
// a dropped console.
func (s *Shell) Run(rw io.ReadWriter) error {
	fmt.Fprint(rw, "c210 console. type 'help' for commands.\r\n> ")
	sc := bufio.NewScanner(rw)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			fmt.Fprint(rw, "> ")
			continue
		}
		resp, quit := s.handle(line)
		if resp != "" {
			fmt.Fprintf(rw, "%s\r\n", resp)
		}
		if quit {
			return nil
		}
		fmt.Fprint(rw, "> ")
	}
	return sc.Err()
}

// handle interprets one trimmed non-empty line. The second value
// reports that the session should end.
func (s *Shell) handle(line string) (string, bool) {
	f := strings.Fields(line)
	switch f[0] {
	case "help":
		return helpText, false
	case "exit":
		return "bye", true
	case "status":
		return s.statusText(), false
	case "history":
		return s.historyText(), false
	case "led":
		return s.ledCmd(f[1:]), false
	case "sensor":
		return s.sensorCmd(f[1:]), false
	case "functions":
		return s.functionsCmd(f[1:]), false
	}
	return "error: unknown command " + strconv.Quote(f[0]) + ", type 'help'", false
}

func (s *Shell) ledCmd(args []string) string {
	if len(args) == 0 {
		return "error: usage: led on|off|blink|fade ..."
	}
	switch args[0] {
	case "on":
		if len(args) != 2 {
			return "error: usage: led on <color>"
		}
		c, ok := led.ParseColor(args[1])
		if !ok {
			return "error: unknown color " + strconv.Quote(args[1])
		}
		s.cfg.Leds.On(c)
		return "ok"
	case "off":
		s.cfg.Leds.Off()
		return "ok"
	case "blink":
		c, onMs, offMs, count, errLine := parsePattern("led blink <color> <on_ms> <off_ms> <count>", args[1:])
		if errLine != "" {
			return errLine
		}
		if err := s.cfg.Leds.Blink(c, onMs, offMs, count); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	case "fade":
		c, inMs, outMs, count, errLine := parsePattern("led fade <color> <in_ms> <out_ms> <count>", args[1:])
		if errLine != "" {
			return errLine
		}
		if err := s.cfg.Leds.Fade(c, inMs, outMs, count); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	}
	return "error: unknown led command " + strconv.Quote(args[0])
}

// parsePattern reads the shared <color> <a_ms> <b_ms> <count> argument
// shape of blink and fade.
func parsePattern(usage string, args []string) (led.Color, int, int, int, string) {
	if len(args) != 4 {
		return 0, 0, 0, 0, "error: usage: " + usage
	}
	c, ok := led.ParseColor(args[0])
	if !ok {
		return 0, 0, 0, 0, "error: unknown color " + strconv.Quote(args[0])
	}
	var n [3]int
	for i, a := range args[1:] {
		v, err := strconv.Atoi(a)
		if err != nil {
			return 0, 0, 0, 0, "error: " + strconv.Quote(a) + " is not a number"
		}
		n[i] = v
	}
	return c, n[0], n[1], n[2], ""
}

func (s *Shell) sensorCmd(args []string) string {
	if len(args) == 0 {
		return "error: usage: sensor list|enable|disable|period|publish ..."
	}
	switch args[0] {
	case "list":
		var b strings.Builder
		for i, info := range s.cfg.Manager.List() {
			state := "disabled"
			if info.Enabled {
				state = "enabled"
			}
			if i > 0 {
				b.WriteString("\r\n")
			}
			fmt.Fprintf(&b, "%-10s %-9s period=%v", info.Type, state, info.Period)
		}
		return b.String()
	case "enable", "disable":
		if len(args) != 2 {
			return "error: usage: sensor " + args[0] + " <id>"
		}
		typ := parseSensor(args[1])
		var err error
		if args[0] == "enable" {
			err = s.cfg.Manager.Enable(typ)
		} else {
			err = s.cfg.Manager.Disable(typ)
		}
		if err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	case "period":
		if len(args) != 3 {
			return "error: usage: sensor period <id> <ms>"
		}
		ms, err := strconv.Atoi(args[2])
		if err != nil {
			return "error: " + strconv.Quote(args[2]) + " is not a number"
		}
		if err := s.cfg.Manager.SetPeriod(parseSensor(args[1]), time.Duration(ms)*time.Millisecond); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	case "publish":
		if len(args) != 2 {
			return "error: usage: sensor publish <id>"
		}
		return s.publishOnce(parseSensor(args[1]))
	}
	return "error: unknown sensor command " + strconv.Quote(args[0])
}

// publishOnce reads one sensor immediately and sends the document to
// its per-sensor topic.
func (s *Shell) publishOnce(typ telemetry.SensorType) string {
	r, err := s.cfg.Manager.ReadOnce(typ)
	if err != nil {
		return "error: " + err.Error()
	}
	payload, err := telemetry.EncodeReading(r, s.cfg.MaxEncoded)
	if err != nil {
		return "error: " + err.Error()
	}
	if err := s.cfg.Publisher.PublishSensor(typ, payload); err != nil {
		return "error: " + err.Error()
	}
	return "published " + transport.SensorTopic(typ)
}

func (s *Shell) functionsCmd(args []string) string {
	if len(args) == 0 {
		return "error: usage: functions wifi_start|wifi_stop|cell_start|cell_stop|set_period ..."
	}
	switch args[0] {
	case "wifi_start":
		return s.submit(mode.OverWifi)
	case "cell_start":
		return s.submit(mode.OverCellular)
	case "wifi_stop":
		return s.stopMode(mode.OverWifi)
	case "cell_stop":
		return s.stopMode(mode.OverCellular)
	case "set_period":
		if len(args) != 2 {
			return "error: usage: functions set_period <ms>"
		}
		ms, err := strconv.Atoi(args[1])
		if err != nil {
			return "error: " + strconv.Quote(args[1]) + " is not a number"
		}
		if err := s.cfg.Function.SetPeriod(time.Duration(ms) * time.Millisecond); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	}
	return "error: unknown functions command " + strconv.Quote(args[0])
}

// submit queues a mode change through the dispatcher. A refusal means
// another change is still in flight. Console starts confirm in the
// target mode's color; stops confirm in white.
func (s *Shell) submit(target mode.Mode) string {
	color := led.White
	if target != mode.Disabled {
		color = dispatch.ModeColor(target)
	}
	if !s.cfg.Sink.Submit(dispatch.Action{Target: target, Origin: "console", Color: color, Time: s.now()}) {
		return "error: " + sensors.ErrBusy.Error()
	}
	return "ok: mode change queued"
}

// stopMode stops a named mode. Asking to stop a mode that is not the
// one running is refused rather than silently stopping the other.
func (s *Shell) stopMode(m mode.Mode) string {
	if s.cfg.State.Mode() != m {
		return fmt.Sprintf("error: aggregation over %s not running: %s", m, sensors.ErrInvalidState)
	}
	return s.submit(mode.Disabled)
}

func (s *Shell) statusText() string {
	snap := s.cfg.Tracker.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "mode: %s", snap.Mode)
	if snap.Busy {
		b.WriteString(" (change in progress)")
	}
	fmt.Fprintf(&b, "\r\nowner: %s", snap.Owner)
	fmt.Fprintf(&b, "\r\ntransport: wifi=%s cellular=%s", snap.Transport.Wifi, snap.Transport.Cellular)
	fmt.Fprintf(&b, "\r\nperiod: %v", s.cfg.Function.Period())
	c := snap.Counters
	fmt.Fprintf(&b, "\r\ncycles: published=%d dropped=%d discarded=%d", c.CyclesPublished, c.CyclesDropped, c.CyclesDiscarded)
	fmt.Fprintf(&b, "\r\npublish errors: %d", c.PublishErrors)
	fmt.Fprintf(&b, "\r\ngestures: %d", c.Gestures)
	fmt.Fprintf(&b, "\r\nuptime: %s", snap.Uptime().Round(time.Second))
	fmt.Fprintf(&b, "\r\nboot: %s", snap.BootID)
	return b.String()
}

func (s *Shell) historyText() string {
	snap := s.cfg.Tracker.Snapshot()
	if len(snap.Events) == 0 {
		return "no events"
	}
	var b strings.Builder
	for i, e := range snap.Events {
		if i > 0 {
			b.WriteString("\r\n")
		}
		fmt.Fprintf(&b, "%s %s", e.Time.Format(time.RFC3339), e.Text)
	}
	return b.String()
}

// parseSensor maps a console id to a sensor type. Ids are entered
// lowercase on the console; the wire names are uppercase.
func parseSensor(arg string) telemetry.SensorType {
	return telemetry.SensorType(strings.ToUpper(arg))
}
