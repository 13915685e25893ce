// Package clock is the timer abstraction the animation engines are driven by.
//
// Real() schedules on wall-clock tickers. Manual is a deterministic stand-in
// whose time only moves when Advance is called.
package clock

import (
	"sync"
	"time"
)

// Scheduler hands out repeating timers and reports the current time.
type Scheduler interface {
	Now() time.Time
	// Every calls fn once per interval until the returned Timer is stopped.
	// It panics if interval is not positive.
	Every(interval time.Duration, fn func()) Timer
}

// Timer is a registration returned by Scheduler.Every.
// Stop is idempotent and safe to call from inside the timer's own callback.
type Timer interface {
	Stop()
}

type realScheduler struct{}

// Real returns a Scheduler backed by time.Ticker. Each timer owns one goroutine
// and its callbacks never overlap.
func Real() Scheduler { return realScheduler{} }

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		panic("clock: non-positive interval")
	}
	t := &realTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type realTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// a tick may race with Stop; done wins
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *realTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
