//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package speakers

import (
	"errors"
	"io"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// ErrPortAudioDisabled is returned when the binary was built without PortAudio
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio sink
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Name() string                       { return "portaudio" }
func (p *PortAudio) Init(audio.Format, io.Reader) error { return ErrPortAudioDisabled }
func (p *PortAudio) Play() error                        { return ErrPortAudioDisabled }
func (p *PortAudio) Stop() error                        { return nil }
