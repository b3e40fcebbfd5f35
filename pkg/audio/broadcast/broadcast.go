// ABOUTME: Fans the processed mix out to several render sinks
// ABOUTME: Keeps a short history and one independent cursor per sink
package broadcast

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// Broadcaster stores recently published frames. Each sink reads them through
// its own Cursor, so a slow or stalled sink never holds back the others.
type Broadcaster struct {
	format  audio.Format
	history int

	mu      sync.Mutex
	buf     []float64
	write   uint64
	cursors []*Cursor
}

// New creates a broadcaster holding historyFrames frames
func New(format audio.Format, historyFrames int) (*Broadcaster, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if historyFrames <= 0 {
		return nil, fmt.Errorf("broadcast history must be > 0 frames: %d", historyFrames)
	}
	return &Broadcaster{
		format:  format,
		history: historyFrames,
		buf:     make([]float64, historyFrames*format.Channels),
	}, nil
}

// Publish appends block to the history. If block is longer than the history
// only its newest frames are kept.
func (b *Broadcaster) Publish(block []float64) {
	ch := b.format.Channels
	n := len(block) / ch
	if n == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.write
	if n > b.history {
		skip := n - b.history
		block = block[skip*ch:]
		start += uint64(skip)
	}
	block = block[:(len(block)/ch)*ch]

	off := int(start%uint64(b.history)) * ch
	copied := copy(b.buf[off:], block)
	if copied < len(block) {
		copy(b.buf, block[copied:])
	}
	b.write += uint64(n)
}

// Written returns the total number of frames published
func (b *Broadcaster) Written() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write
}

// Attach creates a cursor positioned at the current write position. The
// cursor outputs silence until prefill frames are available, both initially
// and after every underrun. Prefill is capped at the history length.
func (b *Broadcaster) Attach(name string, prefill int) *Cursor {
	if prefill < 0 {
		prefill = 0
	}
	if prefill > b.history {
		prefill = b.history
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := &Cursor{
		b:       b,
		name:    name,
		prefill: prefill,
		pos:     b.write,
		primed:  prefill == 0,
	}
	b.cursors = append(b.cursors, c)
	return c
}

// Close closes every attached cursor
func (b *Broadcaster) Close() {
	b.mu.Lock()
	cursors := append([]*Cursor(nil), b.cursors...)
	b.mu.Unlock()

	for _, c := range cursors {
		c.Close()
	}
}

// Stats returns a snapshot of every cursor in attach order
func (b *Broadcaster) Stats() []CursorStats {
	b.mu.Lock()
	cursors := append([]*Cursor(nil), b.cursors...)
	b.mu.Unlock()

	stats := make([]CursorStats, len(cursors))
	for i, c := range cursors {
		stats[i] = c.Stats()
	}
	return stats
}

func (b *Broadcaster) Format() audio.Format { return b.format }
func (b *Broadcaster) History() int         { return b.history }

// CursorStats reports how one sink has been served
type CursorStats struct {
	Name      string
	Delivered uint64
	Underruns uint64
	Overruns  uint64
	Lag       int
}

// Cursor is one sink's read position. Read is called from that sink's
// render goroutine only.
type Cursor struct {
	b       *Broadcaster
	name    string
	prefill int

	// guarded by b.mu
	pos    uint64
	primed bool

	closed    atomic.Bool
	delivered atomic.Uint64
	underruns atomic.Uint64
	overruns  atomic.Uint64
}

func (c *Cursor) Name() string { return c.name }

// Read copies frames from the history into dst and returns how many real
// frames were delivered. Any shortfall is zero-filled.
func (c *Cursor) Read(dst []float64) int {
	b := c.b
	ch := b.format.Channels
	frames := len(dst) / ch
	if frames == 0 {
		return 0
	}

	b.mu.Lock()
	avail := int(b.write - c.pos)
	if avail > b.history {
		c.pos = b.write - uint64(c.prefill)
		avail = c.prefill
		c.primed = true
		c.overruns.Add(1)
	}

	if !c.primed {
		if avail < c.prefill {
			b.mu.Unlock()
			clear(dst)
			return 0
		}
		c.primed = true
	}

	n := frames
	if n > avail {
		n = avail
	}
	if n > 0 {
		size := n * ch
		off := int(c.pos%uint64(b.history)) * ch
		copied := copy(dst[:size], b.buf[off:])
		if copied < size {
			copy(dst[copied:size], b.buf)
		}
		c.pos += uint64(n)
	}
	if n < frames && c.prefill > 0 {
		c.primed = false
	}
	b.mu.Unlock()

	if n < frames {
		clear(dst[n*ch:])
		c.underruns.Add(1)
	}
	c.delivered.Add(uint64(n))
	return n
}

// Available returns the number of published frames the cursor has not read,
// capped at the history length
func (c *Cursor) Available() int {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	avail := int(c.b.write - c.pos)
	if avail > c.b.history {
		avail = c.b.history
	}
	return avail
}

// Close makes the cursor's readers return io.EOF
func (c *Cursor) Close() {
	c.closed.Store(true)
}

func (c *Cursor) Closed() bool { return c.closed.Load() }

// Stats returns a snapshot of the cursor counters
func (c *Cursor) Stats() CursorStats {
	c.b.mu.Lock()
	lag := int(c.b.write - c.pos)
	c.b.mu.Unlock()

	return CursorStats{
		Name:      c.name,
		Delivered: c.delivered.Load(),
		Underruns: c.underruns.Load(),
		Overruns:  c.overruns.Load(),
		Lag:       lag,
	}
}
