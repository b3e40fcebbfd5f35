// ABOUTME: WAV file decoder
// ABOUTME: Integer PCM via go-audio/wav
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWavFile is returned for files without a RIFF/WAVE header
var ErrNotWavFile = errors.New("not a valid wav file")

// WAVDecoder decodes integer PCM WAV files
type WAVDecoder struct {
	file     *os.File
	decoder  *wav.Decoder
	channels int
	scale    float64
	intBuf   *goaudio.IntBuffer
}

// NewWAV opens a WAV file
func NewWAV(path string) (*WAVDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, ErrNotWavFile
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find wav data: %w", err)
	}

	bits := int(decoder.BitDepth)
	if decoder.WavAudioFormat != 1 || bits < 8 || bits > 32 {
		f.Close()
		return nil, fmt.Errorf("unsupported wav encoding: format %d, %d-bit", decoder.WavAudioFormat, bits)
	}

	return &WAVDecoder{
		file:     f,
		decoder:  decoder,
		channels: int(decoder.NumChans),
		scale:    float64(int64(1) << (bits - 1)),
	}, nil
}

func (d *WAVDecoder) SampleRate() int { return int(d.decoder.SampleRate) }
func (d *WAVDecoder) Channels() int   { return d.channels }

// Read decodes up to len(dst) samples
func (d *WAVDecoder) Read(dst []float64) (int, error) {
	want := (len(dst) / d.channels) * d.channels
	if want == 0 {
		return 0, nil
	}
	if d.intBuf == nil || cap(d.intBuf.Data) < want {
		d.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: d.decoder.Format(),
		}
	}
	d.intBuf.Data = d.intBuf.Data[:want]

	n, err := d.decoder.PCMBuffer(d.intBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	// 8-bit wav is unsigned
	offset := 0.0
	if d.decoder.BitDepth == 8 {
		offset = d.scale
	}
	for i := 0; i < n; i++ {
		dst[i] = (float64(d.intBuf.Data[i]) - offset) / d.scale
	}
	return n, nil
}

// Rewind returns to the first PCM frame
func (d *WAVDecoder) Rewind() error {
	if err := d.decoder.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind wav: %w", err)
	}
	return nil
}

func (d *WAVDecoder) Close() error {
	return d.file.Close()
}
