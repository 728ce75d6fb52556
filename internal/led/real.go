//go:build linux

package led

import (
	"fmt"
	"sync"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// pwmCycle is the PWM cycle length. Duty maps 1:1 to brightness 0..100.
const pwmCycle = 100

// pwmFreq is the PWM clock in Hz, giving a 1 kHz output with pwmCycle.
const pwmFreq = pwmCycle * 1000

// RealDriver drives the RGB LED through the BCM2835 PWM peripheral.
type RealDriver struct {
	mu   sync.Mutex
	red  rpio.Pin
	grn  rpio.Pin
	blu  rpio.Pin
	open bool
}

// NewRealDriver memory-maps the GPIO registers and configures the three
// channel pins for PWM output.
func NewRealDriver(pinRed, pinGreen, pinBlue int) (*RealDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}
	d := &RealDriver{
		red:  rpio.Pin(pinRed),
		grn:  rpio.Pin(pinGreen),
		blu:  rpio.Pin(pinBlue),
		open: true,
	}
	for _, p := range []rpio.Pin{d.red, d.grn, d.blu} {
		p.Mode(rpio.Pwm)
		p.Freq(pwmFreq)
		p.DutyCycle(0, pwmCycle)
	}
	return d, nil
}

// Apply renders the frame by setting the duty cycle of each channel.
func (d *RealDriver) Apply(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return fmt.Errorf("apply on closed driver")
	}

	var duty uint32
	if f.On {
		b := f.Brightness
		if b < 0 {
			b = 0
		}
		if b > pwmCycle {
			b = pwmCycle
		}
		duty = uint32(b)
	}

	r, g, b := f.Color.rgb()
	d.red.DutyCycle(channelDuty(r, duty), pwmCycle)
	d.grn.DutyCycle(channelDuty(g, duty), pwmCycle)
	d.blu.DutyCycle(channelDuty(b, duty), pwmCycle)
	return nil
}

func channelDuty(active bool, duty uint32) uint32 {
	if !active {
		return 0
	}
	return duty
}

// Close blanks the LED and unmaps the GPIO registers.
func (d *RealDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil
	}
	d.open = false
	for _, p := range []rpio.Pin{d.red, d.grn, d.blu} {
		p.DutyCycle(0, pwmCycle)
		p.Output()
		p.Low()
	}
	return rpio.Close()
}
