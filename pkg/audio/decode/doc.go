// ABOUTME: Audio file decoder package for file capture sources
// ABOUTME: Provides Decoder interface and MP3, FLAC, WAV, Ogg and Opus implementations
// Package decode reads audio files into float64 samples.
//
// Supports: MP3, FLAC, WAV (integer PCM), Ogg Vorbis and Ogg Opus (48kHz).
//
// All decoders implement the Decoder interface, return interleaved samples in
// [-1, 1] at the file's native rate and can be rewound for looping playback.
//
// Example:
//
//	dec, err := decode.Open("loop.flac")
//	n, err := dec.Read(samples)
package decode
