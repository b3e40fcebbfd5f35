// ABOUTME: Fake capture sources and render sinks for engine tests
// ABOUTME: Callbacks are driven synchronously by the test instead of a driver
package audiotest

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/capture"
	"github.com/vmic-audio/vmic-go/pkg/device"
)

// FakeSource is a capture.Source whose callback fires when the test calls Emit
type FakeSource struct {
	name   string
	format audio.Format

	// StartErr makes Start fail
	StartErr error
	// Device is reported through Endpoint
	Device device.Endpoint

	handler atomic.Pointer[capture.Handler]
	running atomic.Bool
	starts  atomic.Int32
	stops   atomic.Int32
}

// NewFakeSource creates a fake source in format
func NewFakeSource(name string, format audio.Format) *FakeSource {
	return &FakeSource{name: name, format: format}
}

func (f *FakeSource) Name() string              { return f.name }
func (f *FakeSource) Format() audio.Format      { return f.format }
func (f *FakeSource) Endpoint() device.Endpoint { return f.Device }
func (f *FakeSource) Running() bool             { return f.running.Load() }
func (f *FakeSource) Starts() int               { return int(f.starts.Load()) }
func (f *FakeSource) Stops() int                { return int(f.stops.Load()) }

func (f *FakeSource) SetHandler(h capture.Handler) {
	if h == nil {
		f.handler.Store(nil)
		return
	}
	f.handler.Store(&h)
}

func (f *FakeSource) Start() error {
	if f.StartErr != nil {
		return f.StartErr
	}
	f.starts.Add(1)
	f.running.Store(true)
	return nil
}

func (f *FakeSource) Stop() error {
	f.stops.Add(1)
	f.running.Store(false)
	return nil
}

// Emit delivers block to the registered handler on the caller's goroutine.
// It reports whether a handler was registered.
func (f *FakeSource) Emit(block []byte) bool {
	h := f.handler.Load()
	if h == nil {
		return false
	}
	(*h)(block)
	return true
}

// EmitSamples encodes samples in the source format and emits them
func (f *FakeSource) EmitSamples(samples []float64) bool {
	raw := make([]byte, len(samples)*f.format.Kind.BytesPerSample())
	audio.EncodeSamples(raw, samples, f.format.Kind)
	return f.Emit(raw)
}

// ErrNotPlaying is returned by FakeSink.Pull before Play or after Stop
var ErrNotPlaying = errors.New("fake sink is not playing")

// FakeSink is an output.Sink whose render callback runs when the test calls Pull
type FakeSink struct {
	name string

	InitErr error
	PlayErr error
	Device  device.Endpoint

	mu      sync.Mutex
	format  audio.Format
	src     io.Reader
	playing bool
	stops   int
}

// NewFakeSink creates a fake sink
func NewFakeSink(name string) *FakeSink {
	return &FakeSink{name: name}
}

func (f *FakeSink) Name() string              { return f.name }
func (f *FakeSink) Endpoint() device.Endpoint { return f.Device }

func (f *FakeSink) Init(format audio.Format, src io.Reader) error {
	if f.InitErr != nil {
		return f.InitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.format = format
	f.src = src
	return nil
}

func (f *FakeSink) Play() error {
	if f.PlayErr != nil {
		return f.PlayErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	return nil
}

func (f *FakeSink) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.stops++
	return nil
}

// Playing reports whether the sink is between Play and Stop
func (f *FakeSink) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

// Stops returns how many times Stop was called
func (f *FakeSink) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// Pull runs one render callback for frames frames and returns the decoded
// samples
func (f *FakeSink) Pull(frames int) ([]float64, error) {
	f.mu.Lock()
	src, format, playing := f.src, f.format, f.playing
	f.mu.Unlock()

	if !playing || src == nil {
		return nil, ErrNotPlaying
	}

	raw := make([]byte, format.BytesFor(frames))
	if _, err := io.ReadFull(src, raw); err != nil {
		return nil, err
	}
	out := make([]float64, frames*format.Channels)
	audio.DecodeSamples(out, raw, format.Kind)
	return out, nil
}
