// ABOUTME: FLAC file decoder
// ABOUTME: Parses frames with mewkiz/flac and scales by bit depth
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC files
type FLACDecoder struct {
	file     *os.File
	stream   *flac.Stream
	channels int
	scale    float64

	// interleaved samples of the current frame not yet returned
	pending []float64
}

// NewFLAC opens a FLAC file
func NewFLAC(path string) (*FLACDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	bits := int(stream.Info.BitsPerSample)
	if bits < 4 || bits > 32 {
		f.Close()
		return nil, fmt.Errorf("unsupported FLAC bit depth: %d", bits)
	}

	return &FLACDecoder{
		file:     f,
		stream:   stream,
		channels: int(stream.Info.NChannels),
		scale:    float64(int64(1) << (bits - 1)),
	}, nil
}

func (d *FLACDecoder) SampleRate() int { return int(d.stream.Info.SampleRate) }
func (d *FLACDecoder) Channels() int   { return d.channels }

// Read decodes up to len(dst) samples
func (d *FLACDecoder) Read(dst []float64) (int, error) {
	limit := (len(dst) / d.channels) * d.channels
	written := 0

	for written < limit {
		if len(d.pending) == 0 {
			frame, err := d.stream.ParseNext()
			if err == io.EOF {
				if written == 0 {
					return 0, io.EOF
				}
				return written, nil
			}
			if err != nil {
				return written, fmt.Errorf("flac decode error: %w", err)
			}

			size := int(frame.BlockSize) * d.channels
			if cap(d.pending) < size {
				d.pending = make([]float64, size)
			}
			d.pending = d.pending[:size]
			for i := 0; i < int(frame.BlockSize); i++ {
				for ch := 0; ch < d.channels; ch++ {
					d.pending[i*d.channels+ch] = float64(frame.Subframes[ch].Samples[i]) / d.scale
				}
			}
		}

		n := copy(dst[written:limit], d.pending)
		d.pending = d.pending[n:]
		written += n
	}
	return written, nil
}

// Rewind reopens the stream at the start of the file
func (d *FLACDecoder) Rewind() error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(d.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	d.stream = stream
	d.pending = d.pending[:0]
	return nil
}

func (d *FLACDecoder) Close() error {
	return d.file.Close()
}
