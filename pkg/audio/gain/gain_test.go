// ABOUTME: Tests for the gain stage
// ABOUTME: Verifies scaling and concurrent updates
package gain

import (
	"sync"
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		gain     float64
		input    []float64
		expected []float64
	}{
		{"unity", 1, []float64{0.5, -0.25}, []float64{0.5, -0.25}},
		{"half", 0.5, []float64{0.5, -1}, []float64{0.25, -0.5}},
		{"muted", 0, []float64{0.9, -0.9}, []float64{0, 0}},
		{"boost", 2, []float64{0.75}, []float64{1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.gain)
			dst := make([]float64, len(tt.input))
			s.Apply(dst, tt.input)
			for i := range dst {
				if dst[i] != tt.expected[i] {
					t.Errorf("sample %d: expected %v, got %v", i, tt.expected[i], dst[i])
				}
			}

			block := append([]float64(nil), tt.input...)
			s.ApplyInPlace(block)
			for i := range block {
				if block[i] != tt.expected[i] {
					t.Errorf("in place sample %d: expected %v, got %v", i, tt.expected[i], block[i])
				}
			}
		})
	}
}

func TestSetIsVisible(t *testing.T) {
	s := New(1)
	s.Set(0.3)
	if got := s.Value(); got != 0.3 {
		t.Errorf("expected 0.3, got %v", got)
	}
}

func TestConcurrentSetAndApply(t *testing.T) {
	s := New(1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				s.Set(0.5)
			} else {
				s.Set(1)
			}
		}
	}()

	block := make([]float64, 64)
	for i := 0; i < 1000; i++ {
		for j := range block {
			block[j] = 1
		}
		s.ApplyInPlace(block)
		if block[0] != 0.5 && block[0] != 1 {
			t.Fatalf("torn gain value %v", block[0])
		}
	}
	wg.Wait()
}
