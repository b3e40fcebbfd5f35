// ABOUTME: Low quality microphone simulation
// ABOUTME: Adds noise, reduces resolution, holds every second sample and boosts
package effect

import (
	"math"
	"math/rand/v2"
	"sync"
)

const (
	minBitLevels = 1
	maxBitLevels = 16
	holdBoost    = 1.2
)

// DegradeOption configures a Degrade node
type DegradeOption func(*Degrade)

// WithSeed makes the noise sequence reproducible
func WithSeed(seed uint64) DegradeOption {
	return func(d *Degrade) {
		d.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Degrade processes every interleaved sample in four steps:
// add uniform noise, quantize to 2^bitLevels steps, replace every second
// sample with the previous one, then boost by 1.2 and clip to [-1, 1].
type Degrade struct {
	mu     sync.Mutex
	bits   int
	levels float64
	noise  float64
	rng    *rand.Rand

	counter uint64
	last    float64
}

// NewDegrade creates a degrade node. bitLevels is clamped to [1, 16] and
// noiseAmplitude to [0, 1].
func NewDegrade(bitLevels int, noiseAmplitude float64, opts ...DegradeOption) *Degrade {
	d := &Degrade{}
	d.setBits(bitLevels)
	d.noise = clamp(noiseAmplitude, 0, 1)
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

func (d *Degrade) setBits(bits int) {
	if bits < minBitLevels {
		bits = minBitLevels
	}
	if bits > maxBitLevels {
		bits = maxBitLevels
	}
	d.bits = bits
	d.levels = math.Exp2(float64(bits))
}

// Process degrades block in place
func (d *Degrade) Process(block []float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range block {
		if d.noise > 0 {
			s += (d.rng.Float64()*2 - 1) * d.noise
		}

		// ties round to even
		s = math.RoundToEven(s*d.levels) / d.levels

		d.counter++
		if d.counter%2 == 0 {
			s = d.last
		}
		d.last = s

		block[i] = clamp(s*holdBoost, -1, 1)
	}
}

// SetBitLevels changes the quantization depth, clamped to [1, 16]
func (d *Degrade) SetBitLevels(bits int) {
	d.mu.Lock()
	d.setBits(bits)
	d.mu.Unlock()
}

// SetNoise changes the noise amplitude, clamped to [0, 1]
func (d *Degrade) SetNoise(amplitude float64) {
	d.mu.Lock()
	d.noise = clamp(amplitude, 0, 1)
	d.mu.Unlock()
}

// BitLevels returns the current quantization depth
func (d *Degrade) BitLevels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bits
}

// Noise returns the current noise amplitude
func (d *Degrade) Noise() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.noise
}
