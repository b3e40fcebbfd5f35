// ABOUTME: Beep speaker render sink
// ABOUTME: Adapts the cursor reader to a beep.Streamer for the global speaker
package speakers

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
)

// Beep plays through the beep speaker. The speaker is process-global and
// runs on oto, so Beep and Oto sinks cannot be used in the same process.
type Beep struct {
	name   string
	buffer time.Duration

	mu       sync.Mutex
	streamer *readerStreamer
	playing  bool
}

// NewBeep creates a speaker sink with the given speaker buffer duration
func NewBeep(name string, buffer time.Duration) *Beep {
	if name == "" {
		name = "speakers"
	}
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	return &Beep{name: name, buffer: buffer}
}

func (b *Beep) Name() string { return b.name }

// Init initializes the speaker for format
func (b *Beep) Init(format audio.Format, src io.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sr := beep.SampleRate(format.SampleRate)
	if err := speaker.Init(sr, sr.N(b.buffer)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	b.streamer = newReaderStreamer(format, src, sr.N(b.buffer))
	return nil
}

// Play hands the streamer to the speaker
func (b *Beep) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return output.ErrNotInitialized
	}
	speaker.Play(b.streamer)
	b.playing = true
	return nil
}

// Stop clears the speaker and closes it
func (b *Beep) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return nil
	}
	if b.playing {
		speaker.Clear()
	}
	speaker.Close()
	b.playing = false
	b.streamer = nil
	return nil
}

// readerStreamer decodes PCM from a reader into beep's stereo frames
type readerStreamer struct {
	format audio.Format
	src    io.Reader
	raw    []byte
	tmp    []float64
	err    error
}

var _ beep.Streamer = (*readerStreamer)(nil)

func newReaderStreamer(format audio.Format, src io.Reader, frames int) *readerStreamer {
	frames = max(frames, 1)
	return &readerStreamer{
		format: format,
		src:    src,
		raw:    make([]byte, format.BytesFor(frames)),
		tmp:    make([]float64, frames*format.Channels),
	}
}

func (s *readerStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	ch := s.format.Channels
	maxFrames := len(s.tmp) / ch
	for n < len(samples) {
		frames := min(len(samples)-n, maxFrames)
		raw := s.raw[:s.format.BytesFor(frames)]
		if err := output.Fill(raw, s.src); err != nil {
			s.err = err
			return n, n > 0
		}
		block := s.tmp[:frames*ch]
		audio.DecodeSamples(block, raw, s.format.Kind)

		for i := 0; i < frames; i++ {
			frame := block[i*ch : (i+1)*ch]
			samples[n+i][0] = frame[0]
			if ch > 1 {
				samples[n+i][1] = frame[1]
			} else {
				samples[n+i][1] = frame[0]
			}
		}
		n += frames
	}
	return n, true
}

func (s *readerStreamer) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
