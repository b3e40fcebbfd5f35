// ABOUTME: io.Reader adapter serving a cursor to a render sink
// ABOUTME: Encodes float64 frames into the session wire format
package broadcast

import (
	"io"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// Reader serves a cursor as encoded PCM bytes. It always returns whole
// frames and io.EOF once the cursor is closed.
type Reader struct {
	cursor    *Cursor
	produce   func(frames int)
	maxFrames int
	tmp       []float64
}

// Reader returns an io.Reader over the cursor working in steps of at most
// maxFrames. When produce is non-nil it is asked, before each step, to
// publish the frames the cursor is missing for that step; this is how the
// primary sink's callback paces the mixer.
func (c *Cursor) Reader(maxFrames int, produce func(frames int)) *Reader {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &Reader{
		cursor:    c,
		produce:   produce,
		maxFrames: maxFrames,
		tmp:       make([]float64, maxFrames*c.b.format.Channels),
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.cursor.Closed() {
		return 0, io.EOF
	}

	format := r.cursor.b.format
	fs := format.FrameSize()
	frames := len(p) / fs
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	done := 0
	for done < frames {
		n := frames - done
		if n > r.maxFrames {
			n = r.maxFrames
		}
		if r.produce != nil {
			if need := n - r.cursor.Available(); need > 0 {
				r.produce(need)
			}
		}

		block := r.tmp[:n*format.Channels]
		r.cursor.Read(block)
		audio.EncodeSamples(p[done*fs:(done+n)*fs], block, format.Kind)
		done += n
	}
	return done * fs, nil
}
