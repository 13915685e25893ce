package reveal

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/clock"
)

const speed = 50 * time.Millisecond

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock.Manual, *[]State) {
	t.Helper()
	m := clock.NewManual(time.Unix(0, 0))
	cfg.Clock = m
	if cfg.Speed == 0 {
		cfg.Speed = speed
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(7, 11))
	}
	e, err := New(cfg)
	require.NoError(t, err)

	var states []State
	e.Subscribe(func(s State) { states = append(states, s) })
	return e, m, &states
}

func TestLeftToRightTwoChars(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "AB", Order: LeftToRight})

	m.Advance(speed)
	require.Len(t, *states, 1)
	first := (*states)[0]
	assert.Equal(t, 'A', []rune(first.Text)[0])
	assert.Equal(t, []bool{true, false}, first.Resolved)
	assert.False(t, first.Complete)

	m.Advance(speed)
	require.Len(t, *states, 2)
	last := (*states)[1]
	assert.Equal(t, "AB", last.Text)
	assert.True(t, last.Complete)
	assert.Equal(t, last, e.State())
}

func TestCompletesExactlyOnceAndStops(t *testing.T) {
	for _, order := range []Order{LeftToRight, RightToLeft, Center, Random} {
		t.Run(order.String(), func(t *testing.T) {
			target := "Full Stack MERN Developer | React Specialist"
			_, m, states := newTestEngine(t, Config{Target: target, Order: order})

			m.Advance(time.Duration(len(target)+10) * speed)

			completions := 0
			for _, s := range *states {
				if s.Complete {
					completions++
				}
			}
			assert.Equal(t, 1, completions)
			final := (*states)[len(*states)-1]
			assert.True(t, final.Complete)
			assert.Equal(t, target, final.Text)
			assert.Zero(t, m.Pending(), "timer released after completion")
		})
	}
}

func TestResolvedMaskMonotonic(t *testing.T) {
	_, m, states := newTestEngine(t, Config{Target: "Anmol Mittal", Order: Random})
	m.Advance(time.Second)

	require.NotEmpty(t, *states)
	prev := make([]bool, len("Anmol Mittal"))
	for _, s := range *states {
		require.Len(t, s.Resolved, len(prev))
		assert.Len(t, []rune(s.Text), len(prev))
		for i, was := range prev {
			if was {
				assert.True(t, s.Resolved[i], "position %d reverted", i)
			}
		}
		prev = s.Resolved
	}
}

func TestCenterOrder(t *testing.T) {
	odd := resolutionOrder(Center, []rune("ABCDE"), nil)
	assert.Equal(t, []int{2, 1, 3, 0, 4}, odd)

	even := resolutionOrder(Center, []rune("ABCD"), nil)
	assert.Equal(t, []int{1, 2, 0, 3}, even, "left of center wins ties")

	_, m, states := newTestEngine(t, Config{Target: "ABCDE", Order: Center})
	m.Advance(speed)
	assert.Equal(t, []bool{false, false, true, false, false}, (*states)[0].Resolved)
}

func TestRightToLeftSkipsWhitespace(t *testing.T) {
	assert.Equal(t, []int{3, 1, 0}, resolutionOrder(RightToLeft, []rune("ab c"), nil))
}

func TestWhitespacePreResolved(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "A B", Order: LeftToRight})

	initial := e.State()
	assert.Equal(t, ' ', []rune(initial.Text)[1])
	assert.Equal(t, []bool{false, true, false}, initial.Resolved)

	m.Advance(10 * speed)
	require.Len(t, *states, 2, "whitespace does not consume a step")
	for _, s := range *states {
		assert.Equal(t, ' ', []rune(s.Text)[1])
	}
	assert.Equal(t, "A B", (*states)[1].Text)
}

func TestWhitespaceOnlyTarget(t *testing.T) {
	_, m, states := newTestEngine(t, Config{Target: "   "})
	m.Advance(speed)
	require.Len(t, *states, 1)
	assert.True(t, (*states)[0].Complete)
	assert.Equal(t, "   ", (*states)[0].Text)
}

func TestRandomOrderIsFixedPermutation(t *testing.T) {
	target := []rune("portfolio")
	a := resolutionOrder(Random, target, rand.New(rand.NewPCG(3, 4)))
	b := resolutionOrder(Random, target, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestSeededRunsAreDeterministic(t *testing.T) {
	run := func() []State {
		_, m, states := newTestEngine(t, Config{Target: "decrypt", Order: Random, Rand: rand.New(rand.NewPCG(42, 42))})
		m.Advance(time.Second)
		return *states
	}
	assert.Equal(t, run(), run())
}

func TestScrambleDrawsFromCharset(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "abc", Charset: []rune("#")})
	assert.Equal(t, "###", e.State().Text)
	m.Advance(speed)
	assert.Equal(t, "a##", (*states)[0].Text)
}

func TestOnFirstVisible(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "Hi", Activation: OnFirstVisible})

	m.Advance(10 * speed)
	assert.Empty(t, *states, "no ticks before activation")
	assert.False(t, e.Started())

	e.NotifyVisible()
	e.NotifyVisible()
	assert.True(t, e.Started())
	assert.Equal(t, 1, m.Pending(), "second notify does not start a second timer")

	m.Advance(speed)
	assert.Len(t, *states, 1)
}

func TestNotifyVisibleIgnoredWhenImmediate(t *testing.T) {
	e, m, _ := newTestEngine(t, Config{Target: "Hi"})
	e.NotifyVisible()
	assert.Equal(t, 1, m.Pending())
}

func TestDispose(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "Hello"})
	m.Advance(speed)
	require.Len(t, *states, 1)

	e.Dispose()
	e.Dispose()
	m.Advance(time.Second)

	assert.Len(t, *states, 1)
	assert.Zero(t, m.Pending())

	e.NotifyVisible()
	assert.Zero(t, m.Pending())
}

func TestDisposeRacingRealTicks(t *testing.T) {
	e, err := New(Config{
		Target: "The quick brown fox jumps over the lazy dog",
		Speed:  time.Millisecond,
		Clock:  clock.Real(),
	})
	require.NoError(t, err)
	var states atomic.Int32
	e.Subscribe(func(State) { states.Add(1) })

	disposed := make(chan struct{})
	go func() {
		time.Sleep(5 * time.Millisecond)
		e.Dispose()
		close(disposed)
	}()
	<-disposed

	n := states.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, states.Load(), "no state after Dispose returns")
}

func TestDisposeBeforeVisible(t *testing.T) {
	e, m, _ := newTestEngine(t, Config{Target: "Hello", Activation: OnFirstVisible})
	e.Dispose()
	e.NotifyVisible()
	assert.Zero(t, m.Pending())
	assert.False(t, e.Started())
}

func TestUnsubscribe(t *testing.T) {
	e, m, states := newTestEngine(t, Config{Target: "Hello"})
	var other int
	unsubscribe := e.Subscribe(func(State) { other++ })

	m.Advance(speed)
	unsubscribe()
	m.Advance(speed)

	assert.Equal(t, 1, other)
	assert.Len(t, *states, 2)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty target", Config{Target: "", Speed: speed}},
		{"zero speed", Config{Target: "x"}},
		{"negative speed", Config{Target: "x", Speed: -time.Millisecond}},
		{"non-ascii without charset", Config{Target: "héllo", Speed: speed}},
		{"bad order", Config{Target: "x", Speed: speed, Order: Order(9)}},
		{"bad activation", Config{Target: "x", Speed: speed, Activation: Activation(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, e)
		})
	}
}

func TestNonASCIIWithCharset(t *testing.T) {
	_, m, states := newTestEngine(t, Config{Target: "héllo", Charset: []rune("*")})
	m.Advance(5 * speed)
	assert.Equal(t, "héllo", (*states)[4].Text)
}

func TestDefaultCharsetIncludesTargetAlphabet(t *testing.T) {
	cs := defaultCharset([]rune("a|b 9"))
	assert.Equal(t, []rune(DefaultCharset+"|9"), cs)
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"ltr": LeftToRight, "END": RightToLeft, "center": Center, " random ": Random} {
		got, err := ParseOrder(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOrder("diagonal")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
