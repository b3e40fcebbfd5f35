// ABOUTME: PCM format definitions shared by every stage of the router
// ABOUTME: Defines Format, SampleKind and frame/byte arithmetic
package audio

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFormat is returned by Format.Validate for unusable formats.
var ErrInvalidFormat = errors.New("invalid pcm format")

// SampleKind is the on-the-wire representation of one sample
type SampleKind int

const (
	// Int16 is signed 16-bit little-endian PCM
	Int16 SampleKind = iota + 1
	// Float32 is IEEE-754 32-bit little-endian PCM in [-1, 1]
	Float32
)

// String returns the canonical name of the sample kind
func (k SampleKind) String() string {
	switch k {
	case Int16:
		return "int16"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("SampleKind(%d)", int(k))
	}
}

// BytesPerSample returns the encoded size of one sample, or 0 for unknown kinds
func (k SampleKind) BytesPerSample() int {
	switch k {
	case Int16:
		return 2
	case Float32:
		return 4
	default:
		return 0
	}
}

// ParseSampleKind accepts "int16"/"s16" and "float32"/"f32" (case-insensitive)
func ParseSampleKind(s string) (SampleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int16", "s16", "s16le", "pcm16":
		return Int16, nil
	case "float32", "f32", "f32le", "float":
		return Float32, nil
	default:
		return 0, fmt.Errorf("unknown sample kind %q (supported: int16, float32)", s)
	}
}

// Format describes a PCM stream. Every component on one signal path shares a single Format.
type Format struct {
	SampleRate int
	Channels   int
	Kind       SampleKind
}

// Validate reports whether the format can be used for a signal path
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be > 0: %d", ErrInvalidFormat, f.Channels)
	}
	if f.Kind.BytesPerSample() == 0 {
		return fmt.Errorf("%w: unsupported sample kind %v", ErrInvalidFormat, f.Kind)
	}
	return nil
}

// FrameSize returns the number of bytes in one interleaved frame
func (f Format) FrameSize() int {
	return f.Channels * f.Kind.BytesPerSample()
}

// BytesFor returns the number of bytes needed to hold frames
func (f Format) BytesFor(frames int) int {
	return frames * f.FrameSize()
}

// FramesFor converts a duration to a whole number of frames (rounded down)
func (f Format) FramesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

// Duration converts a frame count to wall-clock time
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(f.SampleRate))
}

// String renders the format as "48000Hz/2ch/float32"
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Kind)
}
