// ABOUTME: Render sink interface definition
// ABOUTME: Common interface and the read helper every playback backend uses
package output

import (
	"errors"
	"io"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// ErrNotInitialized is returned by Play on a sink that was never initialized
var ErrNotInitialized = errors.New("sink not initialized")

// Sink represents an audio output device
type Sink interface {
	Name() string

	// Init prepares the device for format. The sink reads encoded PCM from
	// src on its own callback goroutine once playing.
	Init(format audio.Format, src io.Reader) error

	// Play starts the device
	Play() error

	// Stop halts the device and returns after the last read from src
	Stop() error
}

// Fill reads from src until dst is full. On error the rest of dst is
// silenced and the error returned. Backends call it from their device
// callbacks.
func Fill(dst []byte, src io.Reader) error {
	done := 0
	for done < len(dst) {
		n, err := src.Read(dst[done:])
		done += n
		if err != nil {
			clear(dst[done:])
			return err
		}
		if n == 0 {
			clear(dst[done:])
			return io.ErrNoProgress
		}
	}
	return nil
}
