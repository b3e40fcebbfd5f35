// ABOUTME: MP3 file decoder
// ABOUTME: go-mp3 always produces 16-bit stereo
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// MP3Decoder decodes MP3 files
type MP3Decoder struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
}

// NewMP3 opens an MP3 file
func NewMP3(path string) (*MP3Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &MP3Decoder{file: f, decoder: decoder}, nil
}

func (d *MP3Decoder) SampleRate() int { return d.decoder.SampleRate() }
func (d *MP3Decoder) Channels() int   { return 2 }

// Read decodes up to len(dst) samples
func (d *MP3Decoder) Read(dst []float64) (int, error) {
	want := (len(dst) / 2) * 4 // whole stereo int16 frames
	if want == 0 {
		return 0, nil
	}
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}

	n, err := io.ReadFull(d.decoder, d.buf[:want])
	n -= n % 4
	samples := audio.DecodeSamples(dst, d.buf[:n], audio.Int16)

	if err == io.ErrUnexpectedEOF || (err == io.EOF && samples == 0) {
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, nil
	}
	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("mp3 decode error: %w", err)
	}
	return samples, nil
}

// Rewind seeks back to the first frame
func (d *MP3Decoder) Rewind() error {
	if _, err := d.decoder.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	return nil
}

func (d *MP3Decoder) Close() error {
	return d.file.Close()
}
