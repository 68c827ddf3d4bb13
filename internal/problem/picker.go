package problem

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// PickerOption configures a [Picker].
type PickerOption func(*Picker)

// WithRand sets the random source. Tests use a seeded source to make draws
// deterministic. Default: a source seeded per process.
func WithRand(r *rand.Rand) PickerOption {
	return func(p *Picker) {
		p.rng = r
	}
}

// Picker draws problems uniformly at random. It is safe for concurrent use.
type Picker struct {
	problems []Problem
	index    map[int]int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker returns a [Picker] over a copy of problems.
func NewPicker(problems []Problem, opts ...PickerOption) *Picker {
	p := &Picker{
		problems: slices.Clone(problems),
		index:    make(map[int]int, len(problems)),
	}
	for i, pr := range p.problems {
		p.index[pr.ID] = i
	}
	for _, o := range opts {
		o(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Len returns the number of problems.
func (p *Picker) Len() int {
	return len(p.problems)
}

// Problems returns a copy of the problem list.
func (p *Picker) Problems() []Problem {
	return slices.Clone(p.problems)
}

// Lookup returns the problem with the given id.
func (p *Picker) Lookup(id int) (Problem, error) {
	i, ok := p.index[id]
	if !ok {
		return Problem{}, ErrNotFound
	}
	return p.problems[i], nil
}

// First returns a uniformly random problem.
func (p *Picker) First() (Problem, error) {
	if len(p.problems) == 0 {
		return Problem{}, ErrEmpty
	}
	return p.problems[p.intN(len(p.problems))], nil
}

// Pick returns a uniformly random problem whose id differs from excludeID.
// With a single problem that problem is returned even if it is excluded.
// Draws are repeated until they differ, so each remaining problem is
// equally likely.
func (p *Picker) Pick(excludeID int) (Problem, error) {
	switch len(p.problems) {
	case 0:
		return Problem{}, ErrEmpty
	case 1:
		return p.problems[0], nil
	}
	for {
		next := p.problems[p.intN(len(p.problems))]
		if next.ID != excludeID {
			return next, nil
		}
	}
}

func (p *Picker) intN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}
