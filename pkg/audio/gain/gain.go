// ABOUTME: Runtime-adjustable scalar gain applied to one mixer input
// ABOUTME: Set from any goroutine, read lock-free on every mixer pull
package gain

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
)

// Stage holds a linear gain factor as atomic float bits
type Stage struct {
	bits atomic.Uint64
}

// New creates a stage with the given initial gain
func New(initial float64) *Stage {
	s := &Stage{}
	s.Set(initial)
	return s
}

// Set changes the gain. The new value applies from the next block.
func (s *Stage) Set(g float64) {
	s.bits.Store(math.Float64bits(g))
}

// Value returns the current gain
func (s *Stage) Value() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Apply writes src scaled by the current gain into dst.
// dst and src must have the same length.
func (s *Stage) Apply(dst, src []float64) {
	vecmath.ScaleBlock(dst, src, s.Value())
}

// ApplyInPlace scales block by the current gain
func (s *Stage) ApplyInPlace(block []float64) {
	g := s.Value()
	if g == 1 {
		return
	}
	vecmath.ScaleBlockInPlace(block, g)
}
