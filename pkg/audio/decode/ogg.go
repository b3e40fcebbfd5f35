// ABOUTME: Ogg Vorbis file decoder
// ABOUTME: Float output from jfreymuth/oggvorbis
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// OggDecoder decodes Ogg Vorbis files
type OggDecoder struct {
	file   *os.File
	reader *oggvorbis.Reader
	buf    []float32
}

// NewOgg opens an Ogg Vorbis file
func NewOgg(path string) (*OggDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Ogg file: %w", err)
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Ogg Vorbis: %w", err)
	}

	return &OggDecoder{file: f, reader: reader}, nil
}

func (d *OggDecoder) SampleRate() int { return d.reader.SampleRate() }
func (d *OggDecoder) Channels() int   { return d.reader.Channels() }

// Read decodes up to len(dst) samples
func (d *OggDecoder) Read(dst []float64) (int, error) {
	ch := d.reader.Channels()
	want := (len(dst) / ch) * ch
	if want == 0 {
		return 0, nil
	}
	if cap(d.buf) < want {
		d.buf = make([]float32, want)
	}

	n, err := d.reader.Read(d.buf[:want])
	n -= n % ch
	for i := 0; i < n; i++ {
		dst[i] = float64(d.buf[i])
	}

	if err == io.EOF && n > 0 {
		return n, nil
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("ogg decode error: %w", err)
	}
	return n, err
}

// Rewind reopens the stream at the start of the file
func (d *OggDecoder) Rewind() error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	reader, err := oggvorbis.NewReader(d.file)
	if err != nil {
		return fmt.Errorf("failed to reopen Ogg stream: %w", err)
	}
	d.reader = reader
	return nil
}

func (d *OggDecoder) Close() error {
	return d.file.Close()
}
