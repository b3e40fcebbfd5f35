// ABOUTME: Audio fundamentals package providing the PCM format and sample codecs
// ABOUTME: Defines Format, SampleKind and byte <-> float64 conversions
// Package audio provides the fundamental PCM types used throughout vmic.
//
// This package defines:
//   - Format: sample rate, channel count and sample kind of a stream
//   - SampleKind: Int16 or Float32 wire representation
//
// Inside the engine every sample is a float64 in [-1, 1]. DecodeSamples and
// EncodeSamples convert at the edges; a float32 round trip is bit exact and the
// int16 round trip is exact as well because the scale is a power of two.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}
//	frames := format.FramesFor(500 * time.Millisecond) // 24000
//	buf := make([]byte, format.BytesFor(frames))
package audio
