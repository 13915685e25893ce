package reveal

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"unicode"
)

// Order is the sequence in which character positions get resolved.
type Order int

const (
	LeftToRight Order = iota
	RightToLeft
	Center
	Random
)

func (o Order) String() string {
	switch o {
	case LeftToRight:
		return "ltr"
	case RightToLeft:
		return "rtl"
	case Center:
		return "center"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder accepts the forms produced by Order.String plus a few aliases
// ("start", "end", "left", "right").
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr", "left", "start", "lefttoright":
		return LeftToRight, nil
	case "rtl", "right", "end", "righttoleft":
		return RightToLeft, nil
	case "center", "centre":
		return Center, nil
	case "random":
		return Random, nil
	}
	return 0, fmt.Errorf("%w: unknown reveal order %q", ErrInvalidConfig, s)
}

// Activation selects when ticking begins.
type Activation int

const (
	Immediate Activation = iota
	OnFirstVisible
)

func (a Activation) String() string {
	switch a {
	case Immediate:
		return "immediate"
	case OnFirstVisible:
		return "visible"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "immediate", "mount":
		return Immediate, nil
	case "visible", "view", "onfirstvisible":
		return OnFirstVisible, nil
	}
	return 0, fmt.Errorf("%w: unknown activation %q", ErrInvalidConfig, s)
}

// resolutionOrder lists the positions of target in the order they resolve.
// Whitespace positions are pre-resolved and never appear.
func resolutionOrder(order Order, target []rune, rng *rand.Rand) []int {
	n := len(target)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	switch order {
	case RightToLeft:
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	case Center:
		mid := float64(n-1) / 2
		sort.SliceStable(idx, func(a, b int) bool {
			da := math.Abs(float64(idx[a]) - mid)
			db := math.Abs(float64(idx[b]) - mid)
			if da != db {
				return da < db
			}
			return idx[a] < idx[b]
		})
	case Random:
		idx = rng.Perm(n)
	}

	out := idx[:0]
	for _, i := range idx {
		if !unicode.IsSpace(target[i]) {
			out = append(out, i)
		}
	}
	return out
}
