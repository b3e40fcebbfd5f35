// ABOUTME: Engine configuration and defaults
// ABOUTME: Describes sources, sinks, buffering and the effect for one session
package engine

import (
	"log/slog"
	"time"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/capture"
	"github.com/vmic-audio/vmic-go/pkg/audio/effect"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
	"github.com/vmic-audio/vmic-go/pkg/device"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2

	// DefaultGain is unity; SourceConfig.Gain has no implicit default
	DefaultGain = 1.0

	// DefaultPrimaryBuffer sizes the first source's ring, DefaultSecondaryBuffer the rest
	DefaultPrimaryBuffer   = 500 * time.Millisecond
	DefaultSecondaryBuffer = 250 * time.Millisecond

	DefaultBlock   = 10 * time.Millisecond
	DefaultHistory = 500 * time.Millisecond
	DefaultPrefill = 20 * time.Millisecond

	// DefaultDrainTimeout bounds how long Stop waits for in-flight callbacks
	DefaultDrainTimeout = 2 * time.Second
)

// SourceConfig describes one capture input
type SourceConfig struct {
	Source capture.Source

	// Gain is the initial linear gain. Zero starts the source muted.
	Gain float64

	// Buffer is the ring capacity; zero picks the primary/secondary default
	Buffer    time.Duration
	Policy    ring.Policy
	HighWater time.Duration
}

// SinkConfig describes one render output. The first sink is the primary:
// its callbacks pace the mixer and it cannot be optional.
type SinkConfig struct {
	Sink output.Sink

	// Optional sinks that fail to start are logged and skipped
	Optional bool

	// Prefill delays a secondary sink behind the primary; ignored for the primary
	Prefill time.Duration
}

// Config holds engine configuration
type Config struct {
	// Format is the session format; zero fields take 48kHz, stereo, float32
	Format audio.Format

	Sources []SourceConfig
	Sinks   []SinkConfig
	Effect  effect.Settings

	// Block is the largest step the mixer and effects run at
	Block time.Duration
	// History is how far the broadcaster keeps published audio
	History time.Duration

	DrainTimeout time.Duration

	// Devices, when set, is used to check that bound endpoints still exist
	Devices device.Enumerator

	Logger *slog.Logger

	// OnStateChange is called on every transition, in order, from the
	// goroutine that made it and after the engine lock is released
	OnStateChange func(State)

	// OnError is called when a fault stops a running session
	OnError func(error)
}

func (c *Config) applyDefaults() {
	if c.Format.SampleRate == 0 {
		c.Format.SampleRate = DefaultSampleRate
	}
	if c.Format.Channels == 0 {
		c.Format.Channels = DefaultChannels
	}
	if c.Format.Kind == 0 {
		c.Format.Kind = audio.Float32
	}
	if c.Block <= 0 {
		c.Block = DefaultBlock
	}
	if c.History <= 0 {
		c.History = DefaultHistory
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "engine")
	}

	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Buffer <= 0 {
			s.Buffer = DefaultSecondaryBuffer
			if i == 0 {
				s.Buffer = DefaultPrimaryBuffer
			}
		}
	}
	for i := range c.Sinks {
		if i > 0 && c.Sinks[i].Prefill <= 0 {
			c.Sinks[i].Prefill = DefaultPrefill
		}
	}
}
