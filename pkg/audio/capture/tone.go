// ABOUTME: Sine tone generator source
// ABOUTME: Useful for checking routing without any capture hardware
package capture

import (
	"math"
	"time"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// Tone generates a sine wave on every channel
type Tone struct {
	clock
	frequency float64
	amplitude float64

	sampleIndex uint64
	samples     []float64
}

// NewTone creates a tone source delivering one block per period
func NewTone(format audio.Format, frequency, amplitude float64, period time.Duration) *Tone {
	t := &Tone{
		clock:     newClock("tone", format, period),
		frequency: frequency,
		amplitude: amplitude,
	}
	t.samples = make([]float64, t.framesPerPeriod()*format.Channels)
	return t
}

// WithName overrides the source name
func (t *Tone) WithName(name string) *Tone {
	t.name = name
	return t
}

// Start begins delivering blocks
func (t *Tone) Start() error {
	return t.start(t.fill)
}

func (t *Tone) fill(block []byte) {
	ch := t.format.Channels
	frames := len(t.samples) / ch
	rate := float64(t.format.SampleRate)

	for i := 0; i < frames; i++ {
		phase := float64(t.sampleIndex+uint64(i)) / rate
		v := t.amplitude * math.Sin(2*math.Pi*t.frequency*phase)
		for c := 0; c < ch; c++ {
			t.samples[i*ch+c] = v
		}
	}
	t.sampleIndex += uint64(frames)

	audio.EncodeSamples(block, t.samples, t.format.Kind)
}
