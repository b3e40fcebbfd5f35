// ABOUTME: Bounded frame-aligned byte queue between a capture callback and the mixer
// ABOUTME: Supports reject-on-full and drop-oldest overflow policies
package ring

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// ErrInvalidCapacity is returned by New when capacity is not positive
var ErrInvalidCapacity = errors.New("ring capacity must be > 0 frames")

// Policy decides what happens when a pushed block does not fit
type Policy int

const (
	// RejectOnFull drops the whole incoming block when free space is short
	RejectOnFull Policy = iota
	// DropOldestOnFull clears the buffer before writing a block that would
	// push the fill level past the high-water mark
	DropOldestOnFull
)

func (p Policy) String() string {
	switch p {
	case RejectOnFull:
		return "reject"
	case DropOldestOnFull:
		return "drop-oldest"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "reject" and "drop-oldest"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject", "reject-on-full":
		return RejectOnFull, nil
	case "drop-oldest", "drop", "drop-oldest-on-full":
		return DropOldestOnFull, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q (supported: reject, drop-oldest)", s)
	}
}

// Option configures a Buffer
type Option func(*Buffer)

// WithHighWater sets the fill level, in frames, above which DropOldestOnFull
// clears the buffer. Values outside [1, capacity] fall back to capacity.
func WithHighWater(frames int) Option {
	return func(b *Buffer) {
		if frames > 0 && frames <= b.capacity {
			b.highWater = frames
		}
	}
}

// Stats is a point-in-time view of the buffer counters
type Stats struct {
	Capacity      int
	Fill          int
	Pushed        uint64
	Pulled        uint64
	Overflows     uint64
	DroppedFrames uint64
	Clears        uint64
}

// Buffer is a single-producer single-consumer queue of whole PCM frames.
// Push is called from the capture callback, Pull from the mixer.
type Buffer struct {
	format    audio.Format
	frameSize int
	capacity  int
	highWater int
	policy    Policy

	mu   sync.Mutex
	data []byte
	r    int // read offset in bytes
	w    int // write offset in bytes
	fill int // frames stored

	pushed    atomic.Uint64
	pulled    atomic.Uint64
	overflows atomic.Uint64
	dropped   atomic.Uint64
	clears    atomic.Uint64
}

// New creates a buffer holding capacityFrames frames of format
func New(format audio.Format, capacityFrames int, policy Policy, opts ...Option) (*Buffer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if capacityFrames <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacityFrames)
	}
	if policy != RejectOnFull && policy != DropOldestOnFull {
		return nil, fmt.Errorf("unsupported overflow policy %v", policy)
	}

	b := &Buffer{
		format:    format,
		frameSize: format.FrameSize(),
		capacity:  capacityFrames,
		highWater: capacityFrames,
		policy:    policy,
		data:      make([]byte, capacityFrames*format.FrameSize()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Push appends the whole frames of block. A trailing partial frame is ignored.
// It reports whether the block was stored.
func (b *Buffer) Push(block []byte) bool {
	n := len(block) / b.frameSize
	if n == 0 {
		return true
	}
	block = block[:n*b.frameSize]

	b.mu.Lock()
	switch b.policy {
	case RejectOnFull:
		if b.capacity-b.fill < n {
			b.mu.Unlock()
			b.overflows.Add(1)
			b.dropped.Add(uint64(n))
			return false
		}
	case DropOldestOnFull:
		if b.fill+n > b.highWater {
			b.dropped.Add(uint64(b.fill))
			b.r, b.w, b.fill = 0, 0, 0
			if n > b.highWater {
				b.dropped.Add(uint64(n - b.highWater))
				block = block[(n-b.highWater)*b.frameSize:]
				n = b.highWater
			}
			b.overflows.Add(1)
			b.clears.Add(1)
		}
	}

	written := copy(b.data[b.w:], block)
	if written < len(block) {
		copy(b.data, block[written:])
	}
	b.w = (b.w + len(block)) % len(b.data)
	b.fill += n
	b.mu.Unlock()

	b.pushed.Add(uint64(n))
	return true
}

// Pull moves at most len(dst)/FrameSize frames into dst in FIFO order and
// returns the number of frames delivered. An empty buffer yields 0.
func (b *Buffer) Pull(dst []byte) int {
	want := len(dst) / b.frameSize
	if want == 0 {
		return 0
	}

	b.mu.Lock()
	n := want
	if n > b.fill {
		n = b.fill
	}
	if n == 0 {
		b.mu.Unlock()
		return 0
	}
	size := n * b.frameSize
	read := copy(dst[:size], b.data[b.r:])
	if read < size {
		copy(dst[read:size], b.data)
	}
	b.r = (b.r + size) % len(b.data)
	b.fill -= n
	b.mu.Unlock()

	b.pulled.Add(uint64(n))
	return n
}

// Reset discards all stored frames. Control path only.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.r, b.w, b.fill = 0, 0, 0
	b.mu.Unlock()
}

// Len returns the number of frames currently stored
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fill
}

// Free returns the number of frames that can be pushed without overflow
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity - b.fill
}

func (b *Buffer) Cap() int             { return b.capacity }
func (b *Buffer) HighWater() int       { return b.highWater }
func (b *Buffer) Policy() Policy       { return b.policy }
func (b *Buffer) Format() audio.Format { return b.format }

// Stats returns a snapshot of the counters
func (b *Buffer) Stats() Stats {
	return Stats{
		Capacity:      b.capacity,
		Fill:          b.Len(),
		Pushed:        b.pushed.Load(),
		Pulled:        b.pulled.Load(),
		Overflows:     b.overflows.Load(),
		DroppedFrames: b.dropped.Load(),
		Clears:        b.clears.Load(),
	}
}
