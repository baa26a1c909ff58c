package roulette

import (
	"math/rand/v2"
	"sync"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// Wheel draws one outcome per resolved bet
type Wheel interface {
	Spin() int
}

// Source is the randomness the wheel and the AI draw from. *rand.Rand
// satisfies it.
type Source interface {
	IntN(n int) int
	Float64() float64
}

type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource uses the runtime's goroutine-safe generator
var DefaultSource Source = globalSource{}

// RandomWheel draws uniformly from [0, 36]
type RandomWheel struct {
	mu  sync.Mutex
	src Source
}

// NewRandomWheel creates a wheel over src, or the default source when nil
func NewRandomWheel(src Source) *RandomWheel {
	if src == nil {
		src = DefaultSource
	}
	return &RandomWheel{src: src}
}

// Spin returns a pocket number
func (w *RandomWheel) Spin() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return entities.MinNumber + w.src.IntN(entities.Pockets)
}

// FixedWheel replays a fixed sequence of outcomes, cycling when exhausted.
// It is used for deterministic replays and tests.
type FixedWheel struct {
	mu       sync.Mutex
	outcomes []int
	next     int
}

// NewFixedWheel creates a wheel that returns outcomes in order
func NewFixedWheel(outcomes ...int) *FixedWheel {
	if len(outcomes) == 0 {
		outcomes = []int{0}
	}
	return &FixedWheel{outcomes: outcomes}
}

// Spin returns the next scripted outcome
func (w *FixedWheel) Spin() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.outcomes[w.next%len(w.outcomes)]
	w.next++
	return n
}

// Spins reports how many outcomes have been drawn
func (w *FixedWheel) Spins() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}
