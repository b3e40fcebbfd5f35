// ABOUTME: Feed-forward echo with a FIFO delay line per instance
// ABOUTME: The first echo appears exactly delay frames after its source
package effect

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// Echo adds a delayed, attenuated copy of its input:
//
//	out = in + decay * line.popOldest()
//	line.pushNewest(in)
//
// Nothing is popped until the line holds delayFrames frames.
type Echo struct {
	mu       sync.Mutex
	channels int
	delay    int
	decay    float64

	line  []float64
	head  int
	count int

	scratch []float64
}

// NewEcho creates an echo for interleaved audio with channels channels.
// Negative delays become 0 and decay is clamped to [0, 1].
func NewEcho(channels, delayFrames int, decay float64) *Echo {
	if channels < 1 {
		channels = 1
	}
	if delayFrames < 0 {
		delayFrames = 0
	}
	return &Echo{
		channels: channels,
		delay:    delayFrames,
		decay:    clamp(decay, 0, 1),
		line:     make([]float64, delayFrames*channels),
	}
}

// Process applies the echo to block in place
func (e *Echo) Process(block []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	want := e.delay * e.channels
	if want == 0 {
		return
	}

	if cap(e.scratch) < len(block) {
		e.scratch = make([]float64, len(block))
	}
	echoes := e.scratch[:len(block)]

	size := len(e.line)
	for i, in := range block {
		echoes[i] = 0
		if e.count >= want {
			echoes[i] = e.line[e.head]
			e.head++
			if e.head == size {
				e.head = 0
			}
			e.count--
		}
		tail := e.head + e.count
		if tail >= size {
			tail -= size
		}
		e.line[tail] = in
		e.count++
	}

	if e.decay == 0 {
		return
	}
	vecmath.ScaleBlockInPlace(echoes, e.decay)
	vecmath.AddBlockInPlace(block, echoes)
}

// SetDelay changes the delay length. Shrinking discards the oldest samples;
// growing keeps the history and waits for the line to refill. Growing past
// the reserved length allocates.
func (e *Echo) SetDelay(frames int) {
	if frames < 0 {
		frames = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	want := frames * e.channels
	for e.count > want {
		e.head++
		if e.head == len(e.line) {
			e.head = 0
		}
		e.count--
	}
	e.grow(want)
	e.delay = frames
}

// Reserve sizes the delay line for delays up to frames so later SetDelay
// calls within that range never allocate
func (e *Echo) Reserve(frames int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grow(frames * e.channels)
}

// grow enlarges the line to size samples, keeping pending history in order
func (e *Echo) grow(size int) {
	if size <= len(e.line) {
		return
	}
	grown := make([]float64, size)
	for i := 0; i < e.count; i++ {
		grown[i] = e.line[(e.head+i)%len(e.line)]
	}
	e.line = grown
	e.head = 0
}

// SetDecay changes the echo level, clamped to [0, 1]
func (e *Echo) SetDecay(decay float64) {
	e.mu.Lock()
	e.decay = clamp(decay, 0, 1)
	e.mu.Unlock()
}

// Delay returns the current delay in frames
func (e *Echo) Delay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delay
}

// Decay returns the current echo level
func (e *Echo) Decay() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decay
}

// Pending returns the number of samples held in the delay line
func (e *Echo) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
