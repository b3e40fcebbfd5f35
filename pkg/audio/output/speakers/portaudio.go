//go:build portaudio

// ABOUTME: PortAudio render sink
// ABOUTME: Cross-platform playback on the default device using PortAudio
package speakers

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
)

// PortAudio output implementation
type PortAudio struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	raw    []byte
	tmp    []float64
}

// NewPortAudio creates a new PortAudio sink
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Name() string { return "portaudio" }

// Init opens the default output stream in float32
func (p *PortAudio) Init(format audio.Format, src io.Reader) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	framesPerBuffer := max(1, format.FramesFor(10*time.Millisecond))
	p.raw = make([]byte, format.BytesFor(framesPerBuffer))
	p.tmp = make([]float64, framesPerBuffer*format.Channels)

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), framesPerBuffer, func(out []float32) {
		p.render(out, format, src)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return nil
}

func (p *PortAudio) render(out []float32, format audio.Format, src io.Reader) {
	n := min(len(out), len(p.tmp))
	raw := p.raw[:format.BytesFor(n/format.Channels)]
	_ = output.Fill(raw, src)
	audio.DecodeSamples(p.tmp[:n], raw, format.Kind)
	for i := 0; i < n; i++ {
		out[i] = float32(p.tmp[i])
	}
	clear(out[n:])
}

// Play starts the stream
func (p *PortAudio) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return output.ErrNotInitialized
	}
	return p.stream.Start()
}

// Stop releases resources
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
