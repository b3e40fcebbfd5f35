// ABOUTME: Looping audio file source
// ABOUTME: Decodes MP3, FLAC, WAV or Ogg, resamples to the session rate and remaps channels
package capture

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/decode"
	"github.com/vmic-audio/vmic-go/pkg/audio/resample"
)

// File plays an audio file in a loop as if it were a capture device
type File struct {
	clock
	path    string
	decoder decode.Decoder
	rs      *resample.Resampler // nil when the file is already at the session rate

	native  []float64 // decoder output, file channels
	pending []float64 // unconsumed part of native
	rated   []float64 // one period at the session rate, file channels
	out     []float64

	errMu sync.Mutex
	err   error
}

// NewFile opens path. Files at another sample rate are resampled and the
// channel count is converted to format.Channels.
func NewFile(path string, format audio.Format, period time.Duration) (*File, error) {
	dec, err := decode.Open(path)
	if err != nil {
		return nil, err
	}

	f := &File{
		clock:   newClock(filepath.Base(path), format, period),
		path:    path,
		decoder: dec,
	}
	frames := f.framesPerPeriod()
	f.rated = make([]float64, frames*dec.Channels())
	f.out = make([]float64, frames*format.Channels)

	native := len(f.rated)
	if dec.SampleRate() != format.SampleRate {
		f.rs, err = resample.New(dec.SampleRate(), format.SampleRate, dec.Channels())
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		native = max(dec.Channels(), f.rs.InputSamplesNeeded(native))
	}
	f.native = make([]float64, native)
	return f, nil
}

// Start begins delivering blocks
func (f *File) Start() error {
	return f.start(f.fill)
}

// Stop halts delivery and closes the file
func (f *File) Stop() error {
	if err := f.clock.Stop(); err != nil {
		return err
	}
	return f.decoder.Close()
}

// Err returns the last decode error, if any. Decoding stops at the first error
// and the source keeps delivering silence.
func (f *File) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}

func (f *File) fail(err error) {
	f.errMu.Lock()
	f.err = err
	f.errMu.Unlock()
}

func (f *File) fill(block []byte) {
	need := len(f.rated)
	got := 0

	for got < need && f.Err() == nil {
		if len(f.pending) == 0 {
			if !f.decodeMore() {
				break
			}
		}
		if f.rs == nil {
			n := copy(f.rated[got:need], f.pending)
			f.pending = f.pending[n:]
			got += n
			continue
		}
		used, n := f.rs.Process(f.pending, f.rated[got:need])
		f.pending = f.pending[used:]
		got += n
	}
	clear(f.rated[got:])

	audio.RemapChannels(f.out, f.format.Channels, f.rated, f.decoder.Channels())
	audio.EncodeSamples(block, f.out, f.format.Kind)
}

// decodeMore refills pending, rewinding at the end of the file. It reports
// false once decoding has failed.
func (f *File) decodeMore() bool {
	for idle := 0; idle < 3; idle++ {
		n, err := f.decoder.Read(f.native)
		if err == io.EOF {
			err = f.decoder.Rewind()
		}
		if err != nil {
			f.fail(err)
			return false
		}
		if n > 0 {
			f.pending = f.native[:n]
			return true
		}
	}
	f.fail(fmt.Errorf("%s: decoder returned no audio", f.path))
	return false
}
