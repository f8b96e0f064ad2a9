package wheel_test

import (
	"sync"
	"testing"

	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/wheel"
)

func TestRandomCoversWheel(t *testing.T) {
	const draws = 37 * 2000
	var counts [domain.MaxOutcome + 1]int

	g := wheel.Random{}
	for i := 0; i < draws; i++ {
		o := g.Draw()
		if o < domain.MinOutcome || o > domain.MaxOutcome {
			t.Fatalf("outcome %d off the wheel", o)
		}
		counts[o]++
	}

	// Expected 2000 per pocket; a pocket outside [1500, 2500] is far past
	// ten standard deviations.
	for o, c := range counts {
		if c < 1500 || c > 2500 {
			t.Errorf("pocket %d drawn %d times", o, c)
		}
	}
}

func TestRandomConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				wheel.Random{}.Draw()
			}
		}()
	}
	wg.Wait()
}

func TestFixed(t *testing.T) {
	f := wheel.NewFixed(17, 0)
	got := []int{f.Draw(), f.Draw(), f.Draw()}
	want := []int{17, 0, 17}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d = %d, want %d", i, got[i], want[i])
		}
	}
	if f.Draws() != 3 {
		t.Errorf("Draws() = %d, want 3", f.Draws())
	}
}

func TestFixedRejectsOffWheel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for outcome 37")
		}
	}()
	wheel.NewFixed(37)
}
