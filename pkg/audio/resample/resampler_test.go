package resample

import (
	"math"
	"testing"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(0, 48000, 2); err == nil {
		t.Error("expected error for zero input rate")
	}
	if _, err := New(44100, 48000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestUpsampleInterpolates(t *testing.T) {
	r, err := New(1000, 2000, 1)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float64, 7)
	used, n := r.Process(ramp(4), out)
	if used != 4 || n != 7 {
		t.Fatalf("expected 4 consumed and 7 produced, got %d and %d", used, n)
	}
	want := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, w, out[i])
		}
	}
}

func TestDownsampleSkips(t *testing.T) {
	r, _ := New(3000, 1000, 2)
	in := []float64{0, 10, 1, 11, 2, 12, 3, 13, 4, 14, 5, 15, 6, 16}

	out := make([]float64, 10)
	_, n := r.Process(in, out)
	want := []float64{0, 10, 3, 13, 6, 16}
	if n != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), n)
	}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, out[i])
		}
	}
}

func TestChunkBoundariesAreSeamless(t *testing.T) {
	whole, _ := New(44100, 48000, 1)
	chunked, _ := New(44100, 48000, 1)
	input := ramp(441)

	ref := make([]float64, 600)
	_, refN := whole.Process(input, ref)

	var got []float64
	buf := make([]float64, 7)
	pending := input
	for len(pending) > 0 {
		chunk := pending[:min(13, len(pending))]
		for len(chunk) > 0 {
			used, n := chunked.Process(chunk, buf)
			got = append(got, buf[:n]...)
			chunk = chunk[used:]
			pending = pending[used:]
			if used == 0 && n == 0 {
				t.Fatal("no progress")
			}
		}
	}

	if len(got) != refN {
		t.Fatalf("expected %d samples, got %d", refN, len(got))
	}
	for i := range got {
		if math.Abs(got[i]-ref[i]) > 1e-9 {
			t.Fatalf("sample %d: expected %v, got %v", i, ref[i], got[i])
		}
	}
}

func TestReset(t *testing.T) {
	r, _ := New(1000, 2000, 1)
	out := make([]float64, 4)
	r.Process([]float64{5, 6, 7}, out)
	r.Reset()

	_, n := r.Process([]float64{1, 2}, out)
	if n != 3 || out[0] != 1 || out[1] != 1.5 || out[2] != 2 {
		t.Errorf("expected to restart from the new input, got %v", out[:n])
	}
}

func TestSamplesNeeded(t *testing.T) {
	r, _ := New(24000, 48000, 2)
	if got := r.OutputSamplesNeeded(200); got != 400 {
		t.Errorf("expected 400 output samples, got %d", got)
	}
	if got := r.InputSamplesNeeded(400); got != 200 {
		t.Errorf("expected 200 input samples, got %d", got)
	}
	if r.InputRate() != 24000 || r.OutputRate() != 48000 {
		t.Errorf("unexpected rates %d -> %d", r.InputRate(), r.OutputRate())
	}
}
