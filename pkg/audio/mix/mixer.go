// ABOUTME: Sums N buffered capture inputs into one float64 block
// ABOUTME: Each input is decoded, gain-scaled and added; shortfalls become silence
package mix

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/gain"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
)

var (
	// ErrSealed is returned by Add once the topology has been frozen
	ErrSealed = errors.New("mixer is sealed")
	// ErrDuplicateInput is returned by Add for a name already in use
	ErrDuplicateInput = errors.New("duplicate mixer input")
	// ErrFormatMismatch is returned by Add when the ring format differs from the mixer's
	ErrFormatMismatch = errors.New("input format does not match mixer format")
)

type input struct {
	name      string
	buf       *ring.Buffer
	gain      *gain.Stage
	underruns atomic.Uint64
	missing   atomic.Uint64
}

// InputStats reports per-input shortfalls
type InputStats struct {
	Name          string
	Gain          float64
	Underruns     uint64
	MissingFrames uint64
}

// Stats is a snapshot of mixer counters
type Stats struct {
	Pulls  uint64
	Frames uint64
	Inputs []InputStats
}

// Mixer pulls from every input on each call to Pull. Pull has a single
// caller; Add and Seal belong to the control path.
type Mixer struct {
	format    audio.Format
	maxFrames int

	mu     sync.Mutex
	sealed bool
	inputs []*input

	raw []byte
	tmp []float64

	pulls  atomic.Uint64
	frames atomic.Uint64
}

// New creates a mixer that processes at most maxFrames per internal step.
// Longer Pull requests are handled in several steps.
func New(format audio.Format, maxFrames int) (*Mixer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if maxFrames <= 0 {
		return nil, fmt.Errorf("mixer block must be > 0 frames: %d", maxFrames)
	}
	return &Mixer{
		format:    format,
		maxFrames: maxFrames,
		raw:       make([]byte, format.BytesFor(maxFrames)),
		tmp:       make([]float64, maxFrames*format.Channels),
	}, nil
}

// Add registers an input. Inputs are summed in registration order.
func (m *Mixer) Add(name string, buf *ring.Buffer, g *gain.Stage) error {
	if buf == nil || g == nil {
		return fmt.Errorf("mixer input %q: nil buffer or gain", name)
	}
	if buf.Format() != m.format {
		return fmt.Errorf("%w: %q is %v, mixer is %v", ErrFormatMismatch, name, buf.Format(), m.format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sealed {
		return ErrSealed
	}
	for _, in := range m.inputs {
		if in.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateInput, name)
		}
	}
	m.inputs = append(m.inputs, &input{name: name, buf: buf, gain: g})
	return nil
}

// Seal freezes the input set
func (m *Mixer) Seal() {
	m.mu.Lock()
	m.sealed = true
	m.mu.Unlock()
}

// Pull fills dst with the sum of all inputs and returns len(dst)/Channels.
// Inputs that deliver fewer frames than requested contribute silence for
// the remainder. The sum is neither normalised nor clipped.
func (m *Mixer) Pull(dst []float64) int {
	ch := m.format.Channels
	fs := m.format.FrameSize()
	frames := len(dst) / ch
	clear(dst)

	for off := 0; off < frames; off += m.maxFrames {
		n := frames - off
		if n > m.maxFrames {
			n = m.maxFrames
		}
		out := dst[off*ch : (off+n)*ch]

		for _, in := range m.inputs {
			got := in.buf.Pull(m.raw[:n*fs])
			if got < n {
				in.underruns.Add(1)
				in.missing.Add(uint64(n - got))
			}
			if got == 0 {
				continue
			}

			tmp := m.tmp[:n*ch]
			audio.DecodeSamples(tmp, m.raw[:got*fs], m.format.Kind)
			clear(tmp[got*ch:])
			in.gain.Apply(tmp, tmp)
			vecmath.AddBlockInPlace(out, tmp)
		}
	}

	m.pulls.Add(1)
	m.frames.Add(uint64(frames))
	return frames
}

// Inputs returns the input names in mixing order
func (m *Mixer) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		names[i] = in.name
	}
	return names
}

// Gain returns the gain stage of the named input
func (m *Mixer) Gain(name string) (*gain.Stage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range m.inputs {
		if in.name == name {
			return in.gain, true
		}
	}
	return nil, false
}

func (m *Mixer) Format() audio.Format { return m.format }

// Stats returns a snapshot of the mixer counters
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Pulls:  m.pulls.Load(),
		Frames: m.frames.Load(),
		Inputs: make([]InputStats, len(m.inputs)),
	}
	for i, in := range m.inputs {
		s.Inputs[i] = InputStats{
			Name:          in.name,
			Gain:          in.gain.Value(),
			Underruns:     in.underruns.Load(),
			MissingFrames: in.missing.Load(),
		}
	}
	return s
}
