// ABOUTME: Decoder interface definition and extension-based opener
// ABOUTME: Common interface for all audio file decoders
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// Decoder reads an audio file as interleaved float64 samples in [-1, 1]
type Decoder interface {
	// SampleRate returns the native sample rate of the file
	SampleRate() int

	// Channels returns the channel count of the file
	Channels() int

	// Read fills dst with whole frames and returns the number of samples
	// written. It returns io.EOF once the file is exhausted.
	Read(dst []float64) (int, error)

	// Rewind restarts decoding from the first frame
	Rewind() error

	// Close releases decoder resources
	Close() error
}

// Open picks a decoder by file extension: .mp3, .flac, .wav, .ogg, .opus
func Open(path string) (Decoder, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return NewMP3(path)
	case ".flac":
		return NewFLAC(path)
	case ".wav", ".wave":
		return NewWAV(path)
	case ".ogg", ".oga":
		return NewOgg(path)
	case ".opus":
		return NewOpus(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav, .ogg, .opus)", ErrUnsupportedFormat, ext)
	}
}
