//go:build !portaudio

package speakers

import (
	"errors"
	"testing"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

func TestPortAudioStub(t *testing.T) {
	p := NewPortAudio()
	format := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}
	if err := p.Init(format, nil); !errors.Is(err, ErrPortAudioDisabled) {
		t.Errorf("expected ErrPortAudioDisabled, got %v", err)
	}
}
