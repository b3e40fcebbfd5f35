// ABOUTME: Conversions between wire PCM bytes and float64 working samples
// ABOUTME: Used once on the mixer pull side and once on the render side
package audio

import (
	"encoding/binary"
	"math"
)

const (
	// int16 scale is a power of two so a decode/encode round trip is exact
	int16Scale = 32768.0
	maxInt16   = 32767
	minInt16   = -32768
)

// SampleFromInt16 converts an int16 sample to float64 in [-1, 1)
func SampleFromInt16(sample int16) float64 {
	return float64(sample) / int16Scale
}

// SampleToInt16 converts a float64 sample to int16, rounding and clamping
func SampleToInt16(sample float64) int16 {
	v := math.Round(sample * int16Scale)
	if v > maxInt16 {
		return maxInt16
	}
	if v < minInt16 {
		return minInt16
	}
	return int16(v)
}

// DecodeSamples converts interleaved PCM bytes into dst.
// It returns the number of samples written, bounded by both slices.
func DecodeSamples(dst []float64, src []byte, kind SampleKind) int {
	size := kind.BytesPerSample()
	if size == 0 {
		return 0
	}
	n := len(src) / size
	if n > len(dst) {
		n = len(dst)
	}

	switch kind {
	case Int16:
		for i := 0; i < n; i++ {
			dst[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(src[i*2:])))
		}
	case Float32:
		for i := 0; i < n; i++ {
			dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:])))
		}
	}
	return n
}

// EncodeSamples converts float64 samples into interleaved PCM bytes.
// Float32 output is not clipped; Int16 output saturates.
// It returns the number of bytes written.
func EncodeSamples(dst []byte, src []float64, kind SampleKind) int {
	size := kind.BytesPerSample()
	if size == 0 {
		return 0
	}
	n := len(dst) / size
	if n > len(src) {
		n = len(src)
	}

	switch kind {
	case Int16:
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(SampleToInt16(src[i])))
		}
	case Float32:
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(float32(src[i])))
		}
	}
	return n * size
}

// RemapChannels copies frames from src (srcCh channels) into dst (dstCh channels).
// Mono is duplicated to every output channel; extra input channels are averaged
// into a mono output or dropped otherwise. It returns the frames written.
func RemapChannels(dst []float64, dstCh int, src []float64, srcCh int) int {
	if srcCh <= 0 || dstCh <= 0 {
		return 0
	}
	frames := len(src) / srcCh
	if limit := len(dst) / dstCh; frames > limit {
		frames = limit
	}

	switch {
	case srcCh == dstCh:
		copy(dst, src[:frames*srcCh])
	case srcCh == 1:
		for f := 0; f < frames; f++ {
			v := src[f]
			for c := 0; c < dstCh; c++ {
				dst[f*dstCh+c] = v
			}
		}
	case dstCh == 1:
		inv := 1.0 / float64(srcCh)
		for f := 0; f < frames; f++ {
			sum := 0.0
			for c := 0; c < srcCh; c++ {
				sum += src[f*srcCh+c]
			}
			dst[f] = sum * inv
		}
	default:
		for f := 0; f < frames; f++ {
			for c := 0; c < dstCh; c++ {
				if c < srcCh {
					dst[f*dstCh+c] = src[f*srcCh+c]
				} else {
					dst[f*dstCh+c] = 0
				}
			}
		}
	}
	return frames
}
