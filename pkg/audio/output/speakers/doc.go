// ABOUTME: Default-device render sinks for monitoring the mix
// ABOUTME: oto, beep and build-tagged PortAudio implementations of output.Sink
// Package speakers holds sinks that play to the system default device.
//
// The oto and beep backends link the platform audio libraries (ALSA on
// Linux) through cgo; PortAudio is only built with -tags portaudio.
// Applications that only route to a selectable device can import
// pkg/audio/output alone.
package speakers
