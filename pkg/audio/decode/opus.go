// ABOUTME: Ogg Opus file decoder
// ABOUTME: Decodes through libopusfile via hraban/opus streams
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz regardless of the input rate in the header
const opusSampleRate = 48000

var errNotOpus = errors.New("not an Ogg Opus stream")

// OpusDecoder decodes Ogg Opus files
type OpusDecoder struct {
	file     *os.File
	stream   *opus.Stream
	channels int
	buf      []float32
}

// NewOpus opens an Ogg Opus file
func NewOpus(path string) (*OpusDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	channels, err := opusChannels(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}

	d := &OpusDecoder{file: f, channels: channels}
	if err := d.open(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// open seeks to the start and attaches a fresh stream. The stream closes its
// reader on Close, so it only ever sees a no-op closer over the file.
func (d *OpusDecoder) open() error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := opus.NewStream(io.NopCloser(d.file))
	if err != nil {
		return fmt.Errorf("failed to create opus stream: %w", err)
	}
	d.stream = stream
	return nil
}

func (d *OpusDecoder) SampleRate() int { return opusSampleRate }
func (d *OpusDecoder) Channels() int   { return d.channels }

// Read decodes up to len(dst) samples
func (d *OpusDecoder) Read(dst []float64) (int, error) {
	want := (len(dst) / d.channels) * d.channels
	if want == 0 {
		return 0, nil
	}
	if cap(d.buf) < want {
		d.buf = make([]float32, want)
	}

	// ReadFloat32 reports samples per channel
	frames, err := d.stream.ReadFloat32(d.buf[:want])
	if err == io.EOF {
		return 0, io.EOF
	}
	if err != nil {
		return 0, fmt.Errorf("opus decode error: %w", err)
	}

	n := frames * d.channels
	for i := 0; i < n; i++ {
		dst[i] = float64(d.buf[i])
	}
	return n, nil
}

// Rewind reopens the stream at the start of the file
func (d *OpusDecoder) Rewind() error {
	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("failed to close opus stream: %w", err)
	}
	return d.open()
}

func (d *OpusDecoder) Close() error {
	d.stream.Close()
	return d.file.Close()
}

// opusChannels reads the channel count from the OpusHead packet, which
// must open the first Ogg page.
func opusChannels(r io.Reader) (int, error) {
	// Ogg page header: 27 fixed bytes then one lacing byte per segment
	hdr := make([]byte, 27)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, errNotOpus
	}
	if !bytes.Equal(hdr[:4], []byte("OggS")) {
		return 0, errNotOpus
	}
	if _, err := io.CopyN(io.Discard, r, int64(hdr[26])); err != nil {
		return 0, errNotOpus
	}

	// OpusHead: magic, version, channel count
	head := make([]byte, 10)
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, errNotOpus
	}
	if !bytes.Equal(head[:8], []byte("OpusHead")) {
		return 0, errNotOpus
	}
	channels := int(head[9])
	if channels == 0 {
		return 0, fmt.Errorf("%w: zero channels", errNotOpus)
	}
	return channels, nil
}
