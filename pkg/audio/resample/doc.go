// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Lets file sources play at the session rate
// Package resample provides streaming sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and handles
// both upsampling and downsampling. It is only used at the edge, by sources
// whose native rate differs from the session; the mixing core never converts.
//
// Example:
//
//	r, err := resample.New(44100, 48000, 2)
//	used, written := r.Process(input, output)
//	input = input[used:]
package resample
