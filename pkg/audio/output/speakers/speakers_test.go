// ABOUTME: Speaker sink tests
// ABOUTME: Verifies the beep streamer adapter and idle sink behavior
package speakers

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
)

var (
	_ output.Sink = (*Oto)(nil)
	_ output.Sink = (*Beep)(nil)
	_ output.Sink = (*PortAudio)(nil)
)

func encode(t *testing.T, format audio.Format, samples []float64) []byte {
	t.Helper()
	raw := make([]byte, len(samples)*format.Kind.BytesPerSample())
	audio.EncodeSamples(raw, samples, format.Kind)
	return raw
}

func TestReaderStreamerStereo(t *testing.T) {
	format := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}
	raw := encode(t, format, []float64{0.5, -0.5, 0.25, -0.25, 1, -1})

	// small internal buffer forces more than one read per Stream call
	s := newReaderStreamer(format, bytes.NewReader(raw), 2)
	out := make([][2]float64, 3)

	n, ok := s.Stream(out)
	if n != 3 || !ok {
		t.Fatalf("expected 3 frames, got n=%d ok=%v", n, ok)
	}
	want := [][2]float64{{0.5, -0.5}, {0.25, -0.25}, {1, -1}}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], out[i])
		}
	}

	if n, ok := s.Stream(out); n != 0 || ok {
		t.Errorf("expected drained streamer, got n=%d ok=%v", n, ok)
	}
	if s.Err() != nil {
		t.Errorf("EOF should not surface as an error, got %v", s.Err())
	}
}

func TestReaderStreamerMonoDuplicates(t *testing.T) {
	format := audio.Format{SampleRate: 48000, Channels: 1, Kind: audio.Int16}
	raw := encode(t, format, []float64{0.5, -0.25})

	s := newReaderStreamer(format, bytes.NewReader(raw), 8)
	out := make([][2]float64, 2)
	if n, _ := s.Stream(out); n != 2 {
		t.Fatalf("expected 2 frames, got %d", n)
	}
	if out[0] != [2]float64{0.5, 0.5} || out[1] != [2]float64{-0.25, -0.25} {
		t.Errorf("expected mono duplicated to both channels, got %v", out)
	}
}

func TestReaderStreamerSurfacesErrors(t *testing.T) {
	format := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}
	boom := errors.New("boom")

	s := newReaderStreamer(format, iotest.ErrReader(boom), 4)
	if n, ok := s.Stream(make([][2]float64, 4)); n != 0 || ok {
		t.Errorf("expected failed stream, got n=%d ok=%v", n, ok)
	}
	if !errors.Is(s.Err(), boom) {
		t.Errorf("expected boom, got %v", s.Err())
	}
}

func TestUninitializedSinksRefuseToPlay(t *testing.T) {
	sinks := []output.Sink{
		NewOto("", 0),
		NewBeep("", 0),
	}
	for _, s := range sinks {
		t.Run(s.Name(), func(t *testing.T) {
			if err := s.Play(); !errors.Is(err, output.ErrNotInitialized) {
				t.Errorf("expected output.ErrNotInitialized, got %v", err)
			}
			if err := s.Stop(); err != nil {
				t.Errorf("Stop on idle sink failed: %v", err)
			}
		})
	}
}
