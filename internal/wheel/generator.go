// Package wheel draws roulette outcomes.
package wheel

import (
	"math/rand/v2"
	"sync"

	"github.com/punchamoorthee/spinledger/internal/domain"
)

// Generator produces one winning pocket per call.
type Generator interface {
	Draw() int
}

// Random draws uniformly from the 37 pockets. The top-level math/rand/v2
// source is safe for concurrent use and does not take a lock, so unrelated
// spins never queue behind each other.
type Random struct{}

func (Random) Draw() int {
	return domain.MinOutcome + rand.IntN(domain.MaxOutcome-domain.MinOutcome+1)
}

// Fixed replays a scripted sequence of outcomes, wrapping around at the end.
type Fixed struct {
	mu       sync.Mutex
	outcomes []int
	next     int
}

// NewFixed panics on an empty script or an outcome off the wheel.
func NewFixed(outcomes ...int) *Fixed {
	if len(outcomes) == 0 {
		panic("wheel: empty outcome script")
	}
	for _, o := range outcomes {
		if o < domain.MinOutcome || o > domain.MaxOutcome {
			panic("wheel: outcome off the wheel")
		}
	}
	return &Fixed{outcomes: outcomes}
}

func (f *Fixed) Draw() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.outcomes[f.next%len(f.outcomes)]
	f.next++
	return o
}

// Draws reports how many outcomes have been handed out.
func (f *Fixed) Draws() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}
