// Package randx provides the injectable random source behind every
// fabricated number in the service.
package randx

import (
	"math/rand/v2"
	"sync"
	"time"
)

type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a goroutine-safe source. A zero seed seeds from the current time.
func New(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Uniform maps a draw from src into [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Fixed always returns the same float and picks index Index modulo n.
type Fixed struct {
	Value float64
	Index int
}

func (f Fixed) Float64() float64 { return f.Value }

func (f Fixed) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return f.Index % n
}
