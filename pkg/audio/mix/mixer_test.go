// ABOUTME: Tests for the mixer
// ABOUTME: Identity, silence, summation and underrun accounting
package mix

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/gain"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
)

var stereoFloat = audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}

func encodeFloat(samples []float32) []byte {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
	}
	return b
}

func newRing(t *testing.T, capacity int) *ring.Buffer {
	t.Helper()
	buf, err := ring.New(stereoFloat, capacity, ring.RejectOnFull)
	if err != nil {
		t.Fatalf("ring.New failed: %v", err)
	}
	return buf
}

func newMixer(t *testing.T, maxFrames int) *Mixer {
	t.Helper()
	m, err := New(stereoFloat, maxFrames)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestSingleInputUnitGainIsIdentity(t *testing.T) {
	t.Parallel()
	m := newMixer(t, 64)
	buf := newRing(t, 256)
	if err := m.Add("loopback", buf, gain.New(1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Seal()

	input := make([]float32, 100*2)
	for i := range input {
		input[i] = float32(math.Sin(float64(i)*0.37)) * 0.8
	}
	buf.Push(encodeFloat(input))

	// 100 frames through a 64 frame step exercises chunking
	out := make([]float64, 100*2)
	if n := m.Pull(out); n != 100 {
		t.Fatalf("expected 100 frames, got %d", n)
	}
	for i := range input {
		if math.Float32bits(float32(out[i])) != math.Float32bits(input[i]) {
			t.Fatalf("sample %d: expected %v, got %v", i, input[i], out[i])
		}
	}
}

func TestInt16UnitGainIsBitExact(t *testing.T) {
	t.Parallel()
	format := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Int16}
	m, err := New(format, 16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	buf, err := ring.New(format, 128, ring.RejectOnFull)
	if err != nil {
		t.Fatalf("ring.New failed: %v", err)
	}
	if err := m.Add("mic", buf, gain.New(1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Seal()

	values := []int16{math.MinInt16, math.MaxInt16, 0, 1, -1, 12345, -12345, 256}
	input := make([]byte, 0, 40*2*2)
	for i := 0; i < 40*2; i++ {
		input = binary.LittleEndian.AppendUint16(input, uint16(values[i%len(values)]+int16(i)))
	}
	if !buf.Push(input) {
		t.Fatal("Push rejected the block")
	}

	out := make([]float64, 40*2)
	if n := m.Pull(out); n != 40 {
		t.Fatalf("expected 40 frames, got %d", n)
	}
	got := make([]byte, len(input))
	audio.EncodeSamples(got, out, audio.Int16)
	for i := 0; i < len(input); i += 2 {
		want := int16(binary.LittleEndian.Uint16(input[i:]))
		have := int16(binary.LittleEndian.Uint16(got[i:]))
		if want != have {
			t.Fatalf("sample %d: expected %d, got %d", i/2, want, have)
		}
	}
}

func TestSilentInputsProduceSilence(t *testing.T) {
	t.Parallel()
	m := newMixer(t, 32)
	m.Add("a", newRing(t, 64), gain.New(1))
	m.Add("b", newRing(t, 64), gain.New(0.5))
	m.Seal()

	out := make([]float64, 32*2)
	for i := range out {
		out[i] = 123
	}
	if n := m.Pull(out); n != 32 {
		t.Fatalf("expected 32 frames, got %d", n)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d: expected silence, got %v", i, v)
		}
	}

	stats := m.Stats()
	for _, in := range stats.Inputs {
		if in.Underruns != 1 || in.MissingFrames != 32 {
			t.Errorf("%s: expected 1 underrun of 32 frames, got %+v", in.Name, in)
		}
	}
}

func TestSumsWithGainAndZeroFillsShortfall(t *testing.T) {
	m := newMixer(t, 16)
	a := newRing(t, 16)
	b := newRing(t, 16)
	m.Add("a", a, gain.New(1))
	m.Add("b", b, gain.New(0.5))
	m.Seal()

	a.Push(encodeFloat([]float32{0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25}))
	b.Push(encodeFloat([]float32{0.5, -0.5, 0.5, -0.5}))

	out := make([]float64, 4*2)
	m.Pull(out)

	expected := []float64{0.5, 0, 0.5, 0, 0.25, 0.25, 0.25, 0.25}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], out[i])
		}
	}

	stats := m.Stats()
	if stats.Inputs[0].Underruns != 0 {
		t.Errorf("input a should not underrun, got %d", stats.Inputs[0].Underruns)
	}
	if stats.Inputs[1].Underruns != 1 || stats.Inputs[1].MissingFrames != 2 {
		t.Errorf("input b: expected 1 underrun of 2 frames, got %+v", stats.Inputs[1])
	}
}

func TestGainChangeAppliesToNextPull(t *testing.T) {
	m := newMixer(t, 8)
	buf := newRing(t, 16)
	g := gain.New(1)
	m.Add("mic", buf, g)
	m.Seal()

	buf.Push(encodeFloat([]float32{0.5, 0.5, 0.5, 0.5}))
	out := make([]float64, 2)
	m.Pull(out)
	if out[0] != 0.5 {
		t.Fatalf("expected 0.5, got %v", out[0])
	}

	g.Set(0)
	m.Pull(out)
	if out[0] != 0 {
		t.Errorf("expected muted output, got %v", out[0])
	}
	if buf.Len() != 0 {
		t.Errorf("muted input must still be drained, fill=%d", buf.Len())
	}
}

func TestAddValidation(t *testing.T) {
	m := newMixer(t, 8)
	if err := m.Add("a", newRing(t, 8), gain.New(1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := m.Add("a", newRing(t, 8), gain.New(1)); !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("expected ErrDuplicateInput, got %v", err)
	}

	mono, _ := ring.New(audio.Format{SampleRate: 48000, Channels: 1, Kind: audio.Float32}, 8, ring.RejectOnFull)
	if err := m.Add("mono", mono, gain.New(1)); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch, got %v", err)
	}

	m.Seal()
	if err := m.Add("late", newRing(t, 8), gain.New(1)); !errors.Is(err, ErrSealed) {
		t.Errorf("expected ErrSealed, got %v", err)
	}

	if got := m.Inputs(); len(got) != 1 || got[0] != "a" {
		t.Errorf("unexpected inputs %v", got)
	}
	if _, ok := m.Gain("a"); !ok {
		t.Error("expected gain for input a")
	}
}
