// ABOUTME: Capture package with the Source interface and its implementations
// ABOUTME: Tone, looping file and miniaudio loopback/microphone sources
// Package capture provides the audio sources the engine records from.
//
// A Source calls its Handler once per period from its own goroutine. The
// engine registers the handler before Start and removes it after Stop; the
// handler must never block.
//
// Example:
//
//	src := capture.NewMalgo(capture.MalgoConfig{Mode: capture.Loopback, Format: format})
//	src.SetHandler(func(block []byte) { buf.Push(block) })
//	err := src.Start()
package capture
