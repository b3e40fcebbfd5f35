// ABOUTME: Render sink package for playing the broadcast signal
// ABOUTME: Provides the Sink interface and the miniaudio device sink
// Package output provides the render sinks the engine plays to.
//
// A sink is handed an io.Reader over its broadcast cursor and pulls from it
// on the driver's own callback goroutine. Sinks never buffer on their own
// beyond what the driver requires.
//
// Default-device backends (oto, beep, PortAudio) live in the speakers
// subpackage, so importing output links no system audio libraries beyond
// the bundled miniaudio.
//
// Example:
//
//	sink := output.NewMalgo(output.MalgoConfig{Name: "cable", DeviceID: id})
//	err := sink.Init(format, reader)
//	err = sink.Play()
package output
