// ABOUTME: Ring buffer package for decoupling capture and mix rates
// ABOUTME: One producer and one consumer per buffer
// Package ring provides the bounded queue that sits between a capture
// callback and the mixer.
//
// Blocks are stored as whole frames. When the producer outruns the consumer
// the configured Policy decides what is lost; the consumer never sees
// fabricated data and an empty buffer simply yields zero frames.
//
// Example:
//
//	buf, err := ring.New(format, format.FramesFor(500*time.Millisecond), ring.RejectOnFull)
//	ok := buf.Push(block)
//	frames := buf.Pull(dst)
package ring
