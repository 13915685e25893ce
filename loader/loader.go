// Package loader drives the cosmetic first-paint progress bar: a value that
// climbs from 0 to 100 over a fixed duration and then completes exactly once.
package loader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/clock"
)

// ErrInvalidConfig is returned by New for a config that cannot run.
var ErrInvalidConfig = errors.New("invalid loader config")

// DefaultInterval is the sampling period when Config.Interval is zero.
const DefaultInterval = 16 * time.Millisecond

type Config struct {
	Duration time.Duration
	Interval time.Duration
	// Settle delays the completion callback after the bar reaches 100.
	Settle time.Duration
	Stages []Stage
	Clock  clock.Scheduler
}

// Stage names a progress threshold, e.g. {At: 40, Name: "Decrypting profile"}.
type Stage struct {
	At   float64 `json:"at" toml:"at"`
	Name string  `json:"name" toml:"name"`
}

type State struct {
	Progress float64 `json:"progress"`
	Stage    string  `json:"stage,omitempty"`
	Done     bool    `json:"done"`
}

// Controller runs one loading sequence. Subscribers and the completion
// callback run with the controller locked and must not call back into it.
type Controller struct {
	mu sync.Mutex

	duration   time.Duration
	settle     time.Duration
	stages     []Stage
	clock      clock.Scheduler
	timer      clock.Timer
	interval   time.Duration
	period     time.Duration
	start      time.Time
	onComplete func()

	progress float64
	done     bool
	fired    bool
	disposed bool

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(State)
}

// New validates cfg and starts the sequence immediately.
func New(cfg Config, onComplete func()) (*Controller, error) {
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Interval < 0 || cfg.Settle < 0 {
		return nil, fmt.Errorf("%w: interval and settle must not be negative", ErrInvalidConfig)
	}
	if err := ValidateStages(cfg.Stages); err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	sched := cfg.Clock
	if sched == nil {
		sched = clock.Real()
	}
	if onComplete == nil {
		onComplete = func() {}
	}

	c := &Controller{
		duration:   cfg.Duration,
		settle:     cfg.Settle,
		stages:     append([]Stage(nil), cfg.Stages...),
		clock:      sched,
		interval:   interval,
		period:     min(interval, cfg.Duration),
		onComplete: onComplete,
	}

	c.mu.Lock()
	c.start = sched.Now()
	c.timer = sched.Every(c.period, c.tick)
	c.mu.Unlock()
	return c, nil
}

// ValidateStages checks that every stage is named, lies in [0,100] and does
// not come before the one preceding it.
func ValidateStages(stages []Stage) error {
	prev := 0.0
	for i, s := range stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidConfig, i)
		}
		if s.At < 0 || s.At > 100 {
			return fmt.Errorf("%w: stage %q at %v is outside [0,100]", ErrInvalidConfig, s.Name, s.At)
		}
		if s.At < prev {
			return fmt.Errorf("%w: stage %q at %v comes before the previous stage", ErrInvalidConfig, s.Name, s.At)
		}
		prev = s.At
	}
	return nil
}

func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// FinishNow jumps to 100, emits the terminal state if it has not been
// emitted yet and fires the completion callback. It is a no-op once the
// callback has fired or the controller is disposed.
func (c *Controller) FinishNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.fired {
		return
	}
	if !c.done {
		c.progress = 100
		c.done = true
		c.emit()
	}
	c.complete()
}

// Dispose stops the schedule. The completion callback never runs after
// Dispose returns, even if progress already reached 100.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.stop()
	c.subs = nil
}

func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.fired {
		return
	}

	elapsed := c.clock.Now().Sub(c.start)
	if !c.done {
		p := 100 * float64(elapsed) / float64(c.duration)
		if elapsed >= c.duration || p >= 100 {
			p = 100
			c.done = true
		}
		if p > c.progress {
			c.progress = p
		}
		c.emit()
	}
	if c.done && elapsed >= c.duration+c.settle {
		c.complete()
		return
	}
	c.reschedule(elapsed)
}

// reschedule shortens the tick period so the next tick lands on the upcoming
// deadline: the end of the run, then the end of the settle window.
func (c *Controller) reschedule(elapsed time.Duration) {
	deadline := c.duration
	if c.done {
		deadline += c.settle
	}
	period := c.interval
	if remaining := deadline - elapsed; remaining > 0 && remaining < period {
		period = remaining
	}
	if period == c.period || c.timer == nil {
		return
	}
	c.timer.Stop()
	c.period = period
	c.timer = c.clock.Every(period, c.tick)
}

func (c *Controller) complete() {
	c.fired = true
	c.stop()
	c.onComplete()
}

func (c *Controller) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) emit() {
	st := c.snapshot()
	for _, s := range c.subs {
		s.fn(st)
	}
}

func (c *Controller) snapshot() State {
	st := State{Progress: c.progress, Done: c.done}
	for _, s := range c.stages {
		if s.At > c.progress {
			break
		}
		st.Stage = s.Name
	}
	return st
}
