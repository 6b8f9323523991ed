// Package assign computes randomized gift assignments: a derangement of the
// participant list, optionally forbidding receivers from the giver's family.
package assign

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// maxAttempts bounds the randomized retry loop. Exhausting it means no valid
// distribution was found within the budget, not that none exists.
const maxAttempts = 1000

// ErrInfeasible is returned when the attempt budget is exhausted.
var ErrInfeasible = errors.New("no valid assignment found within attempt budget")

// Engine generates assignments from an injected random source, so tests can
// run it deterministically with a fixed seed.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns an Engine backed by the given source. A nil source seeds from
// the current time.
func New(src rand.Source) *Engine {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Engine{rng: rand.New(src)}
}

// Assign produces a complete giver→recipient mapping over names such that no
// giver maps to themselves and, when enforceFamilyExclusion is set, no giver
// maps to a receiver sharing their family label in familyOf. Callers must
// pass at least 3 unique names.
//
// Each attempt walks a uniformly shuffled giver order, greedily picking a
// random valid receiver from the shrinking pool; a dead end abandons the
// attempt. The first fully successful attempt wins; after maxAttempts the
// result is ErrInfeasible.
func (e *Engine) Assign(names []string, familyOf map[string]string, enforceFamilyExclusion bool) (map[string]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, ok := e.attempt(names, familyOf, enforceFamilyExclusion)
		if ok {
			return result, nil
		}
	}
	return nil, ErrInfeasible
}

func (e *Engine) attempt(names []string, familyOf map[string]string, enforceFamilyExclusion bool) (map[string]string, bool) {
	givers := make([]string, len(names))
	copy(givers, names)
	e.rng.Shuffle(len(givers), func(i, j int) {
		givers[i], givers[j] = givers[j], givers[i]
	})

	pool := make([]string, len(names))
	copy(pool, names)

	result := make(map[string]string, len(names))
	for _, giver := range givers {
		valid := validReceivers(pool, giver, familyOf, enforceFamilyExclusion)
		if len(valid) == 0 {
			return nil, false
		}
		receiver := valid[e.rng.Intn(len(valid))]
		result[giver] = receiver
		pool = remove(pool, receiver)
	}
	return result, true
}

func validReceivers(pool []string, giver string, familyOf map[string]string, enforceFamilyExclusion bool) []string {
	valid := make([]string, 0, len(pool))
	for _, receiver := range pool {
		if receiver == giver {
			continue
		}
		if enforceFamilyExclusion {
			gf, gok := familyOf[giver]
			rf, rok := familyOf[receiver]
			if gok && rok && gf == rf {
				continue
			}
		}
		valid = append(valid, receiver)
	}
	return valid
}

func remove(pool []string, name string) []string {
	for i, p := range pool {
		if p == name {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}
