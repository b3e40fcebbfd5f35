// ABOUTME: Oto-based render sink on the system default playback device
// ABOUTME: Shares one oto context per process and pulls PCM from the cursor reader
package speakers

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
)

// oto allows a single context per process
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

// otoContext returns the process-wide context, creating it for format on
// first use. A later call with a different format fails.
func otoContext(format audio.Format, buffer time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if format != otoFormat {
			return nil, fmt.Errorf("oto context already running at %s, cannot switch to %s", otoFormat, format)
		}
		return otoCtx, nil
	}

	var sampleFormat oto.Format
	switch format.Kind {
	case audio.Int16:
		sampleFormat = oto.FormatSignedInt16LE
	case audio.Float32:
		sampleFormat = oto.FormatFloat32LE
	default:
		return nil, fmt.Errorf("unsupported sample kind for oto: %v", format.Kind)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       sampleFormat,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// Oto output implementation using oto library
type Oto struct {
	name   string
	buffer time.Duration

	mu     sync.Mutex
	format audio.Format
	player *oto.Player
}

// NewOto creates a sink on the default device. buffer bounds the driver
// and player buffering; zero lets oto decide.
func NewOto(name string, buffer time.Duration) *Oto {
	if name == "" {
		name = "speakers"
	}
	return &Oto{name: name, buffer: buffer}
}

func (o *Oto) Name() string { return o.name }

// Init creates the player over src
func (o *Oto) Init(format audio.Format, src io.Reader) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx, err := otoContext(format, o.buffer)
	if err != nil {
		return err
	}
	if o.player != nil {
		_ = o.player.Close()
	}

	o.player = ctx.NewPlayer(src)
	if o.buffer > 0 {
		o.player.SetBufferSize(format.BytesFor(format.FramesFor(o.buffer)))
	}
	o.format = format
	return nil
}

// Play starts pulling from the reader
func (o *Oto) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return output.ErrNotInitialized
	}
	o.player.Play()
	return o.player.Err()
}

// Stop pauses and closes the player. The context stays alive for reuse.
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
