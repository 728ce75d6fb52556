package led

import (
	"log"
	"sync"
	"time"
)

// Controller owns the LED machine, advances it on a ticker, and pushes
// frames to the driver. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	machine  Machine
	driver   Driver
	last     Frame
	haveLast bool
	started  bool

	tick time.Duration
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewController wraps driver with a controller ticking at the given
// resolution. A non-positive tick selects DefaultTick.
func NewController(driver Driver, tick time.Duration) *Controller {
	if tick <= 0 {
		tick = DefaultTick * time.Millisecond
	}
	return &Controller{
		driver: driver,
		tick:   tick,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the ticker goroutine and shows the initial frame.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.applyLocked()
	c.mu.Unlock()
	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		c.run(time.Now(), ticker.C)
	}()
}

// Stop halts the ticker goroutine and turns the LED off. It is safe to
// call more than once.
func (c *Controller) Stop() {
	c.once.Do(func() { close(c.stop) })
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
	c.mu.Lock()
	c.machine.Off()
	c.applyLocked()
	c.mu.Unlock()
}

// run processes ticks until stop is closed. Factored out of Start so
// tests can drive the loop with a manual tick channel.
func (c *Controller) run(start time.Time, tick <-chan time.Time) {
	defer close(c.done)
	last := start
	for {
		select {
		case <-c.stop:
			return
		case now := <-tick:
			ms := int(now.Sub(last).Milliseconds())
			if ms <= 0 {
				continue
			}
			// Carry the sub-millisecond remainder into the next tick.
			last = last.Add(time.Duration(ms) * time.Millisecond)
			c.mu.Lock()
			c.machine.Advance(ms)
			c.applyLocked()
			c.mu.Unlock()
		}
	}
}

// applyLocked pushes the current frame to the driver if it changed.
// A failed apply is retried on the next tick.
func (c *Controller) applyLocked() {
	f := c.machine.Output()
	if c.haveLast && f == c.last {
		return
	}
	if err := c.driver.Apply(f); err != nil {
		log.Printf("led apply error: %v", err)
		return
	}
	c.last = f
	c.haveLast = true
}

// On switches the LED to a steady color.
func (c *Controller) On(col Color) {
	c.mu.Lock()
	c.machine.On(col)
	c.applyLocked()
	c.mu.Unlock()
}

// Off turns the LED off.
func (c *Controller) Off() {
	c.mu.Lock()
	c.machine.Off()
	c.applyLocked()
	c.mu.Unlock()
}

// Blink starts a blink pattern. See Machine.StartBlink for parameter rules.
func (c *Controller) Blink(col Color, onMs, offMs, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.StartBlink(col, onMs, offMs, count); err != nil {
		return err
	}
	c.applyLocked()
	return nil
}

// Fade starts a fade pattern. See Machine.StartFade for parameter rules.
func (c *Controller) Fade(col Color, inMs, outMs, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.StartFade(col, inMs, outMs, count); err != nil {
		return err
	}
	c.applyLocked()
	return nil
}

// GetStatus returns a snapshot of the LED state. The snapshot can be
// handed back to ResumeStatus after a temporary pattern.
func (c *Controller) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Status()
}

// ResumeStatus restores a snapshot taken by GetStatus, continuing any
// pattern from where it was interrupted.
func (c *Controller) ResumeStatus(s Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.Resume(s); err != nil {
		return err
	}
	c.applyLocked()
	return nil
}
