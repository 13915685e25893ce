// Package reveal implements the scramble-to-reveal text effect: a target
// string is shown as random glyphs that resolve one position per tick until
// the whole string reads correctly.
package reveal

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unicode"

	"github.com/Zachkp/portfolio/clock"
)

// ErrInvalidConfig is returned by New for a config that cannot animate.
var ErrInvalidConfig = errors.New("invalid reveal config")

// DefaultCharset is the filler pool used when Config.Charset is empty.
// The target's own runes are appended to it.
const DefaultCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!@#$%^&*()_+"

type Config struct {
	Target     string
	Order      Order
	Speed      time.Duration
	Charset    []rune
	Activation Activation

	// Rand drives both the Random order and glyph draws. Nil means a
	// freshly seeded source.
	Rand *rand.Rand
	// Clock defaults to clock.Real().
	Clock clock.Scheduler
}

// State is one emitted snapshot. Resolved and Text always have one entry per
// rune of the target.
type State struct {
	Text     string `json:"text"`
	Resolved []bool `json:"resolved"`
	Complete bool   `json:"complete"`
}

// Engine animates a single reveal. Subscribers run on the scheduler's
// goroutine with the engine locked, so they must not call back into it.
type Engine struct {
	mu sync.Mutex

	target   []rune
	display  []rune
	resolved []bool
	order    []int
	next     int
	charset  []rune
	rng      *rand.Rand

	clock      clock.Scheduler
	speed      time.Duration
	activation Activation
	timer      clock.Timer

	started  bool
	complete bool
	disposed bool

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(State)
}

// New validates cfg and builds an engine. With Immediate activation the
// engine is already ticking when New returns.
func New(cfg Config) (*Engine, error) {
	target := []rune(cfg.Target)
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: target is empty", ErrInvalidConfig)
	}
	if cfg.Speed <= 0 {
		return nil, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidConfig, cfg.Speed)
	}
	if cfg.Activation != Immediate && cfg.Activation != OnFirstVisible {
		return nil, fmt.Errorf("%w: unknown activation %d", ErrInvalidConfig, int(cfg.Activation))
	}
	if cfg.Order < LeftToRight || cfg.Order > Random {
		return nil, fmt.Errorf("%w: unknown order %d", ErrInvalidConfig, int(cfg.Order))
	}

	charset := cfg.Charset
	if len(charset) == 0 {
		for _, r := range target {
			if !safeRune(r) {
				return nil, fmt.Errorf("%w: target rune %q needs an explicit charset", ErrInvalidConfig, r)
			}
		}
		charset = defaultCharset(target)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	sched := cfg.Clock
	if sched == nil {
		sched = clock.Real()
	}

	e := &Engine{
		target:     target,
		display:    make([]rune, len(target)),
		resolved:   make([]bool, len(target)),
		order:      resolutionOrder(cfg.Order, target, rng),
		charset:    charset,
		rng:        rng,
		clock:      sched,
		speed:      cfg.Speed,
		activation: cfg.Activation,
	}
	for i, r := range target {
		if unicode.IsSpace(r) {
			e.display[i] = r
			e.resolved[i] = true
		}
	}
	e.scramble()

	if cfg.Activation == Immediate {
		e.start()
	}
	return e, nil
}

// Subscribe registers fn for every state emitted from now on.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return func() {}
	}
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// NotifyVisible starts an OnFirstVisible engine. Later calls, and calls on
// an Immediate engine, do nothing.
func (e *Engine) NotifyVisible() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activation != OnFirstVisible || e.disposed {
		return
	}
	e.startLocked()
}

// Started reports whether ticking has begun.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// State returns the latest snapshot, including the pre-tick one.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Dispose stops the engine. No state is emitted once it returns.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.subs = nil
}

func (e *Engine) start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked()
}

func (e *Engine) startLocked() {
	if e.started {
		return
	}
	e.started = true
	e.timer = e.clock.Every(e.speed, e.tick)
}

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || e.complete {
		return
	}

	if e.next < len(e.order) {
		i := e.order[e.next]
		e.next++
		e.resolved[i] = true
		e.display[i] = e.target[i]
	}
	e.scramble()

	if e.next == len(e.order) {
		e.complete = true
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}

	st := e.snapshot()
	for _, s := range e.subs {
		s.fn(st)
	}
}

// scramble redraws every unresolved position.
func (e *Engine) scramble() {
	for i, done := range e.resolved {
		if !done {
			e.display[i] = e.charset[e.rng.IntN(len(e.charset))]
		}
	}
}

func (e *Engine) snapshot() State {
	return State{
		Text:     string(e.display),
		Resolved: append([]bool(nil), e.resolved...),
		Complete: e.complete,
	}
}

func safeRune(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x21 && r <= 0x7e)
}

func defaultCharset(target []rune) []rune {
	out := []rune(DefaultCharset)
	seen := make(map[rune]bool, len(out))
	for _, r := range out {
		seen[r] = true
	}
	for _, r := range target {
		if !seen[r] && !unicode.IsSpace(r) {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
