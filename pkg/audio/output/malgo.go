// ABOUTME: Malgo-based render sink
// ABOUTME: Plays to a selectable miniaudio playback device such as a virtual cable
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/device"
)

// MalgoConfig selects the playback device
type MalgoConfig struct {
	Name string
	// DeviceID is an endpoint ID from device.MalgoEnumerator; empty selects the default
	DeviceID string
	PeriodMs int
}

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	cfg MalgoConfig

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	endpoint device.Endpoint
}

// NewMalgo creates a new Malgo sink. Nothing is opened until Init.
func NewMalgo(cfg MalgoConfig) *Malgo {
	if cfg.Name == "" {
		cfg.Name = "playback"
	}
	return &Malgo{
		cfg:      cfg,
		endpoint: device.Endpoint{ID: cfg.DeviceID, Name: cfg.Name, Kind: device.Playback},
	}
}

func (m *Malgo) Name() string { return m.cfg.Name }

// Endpoint reports the device this sink plays to
func (m *Malgo) Endpoint() device.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// Init opens the device for format without starting it
func (m *Malgo) Init(format audio.Format, src io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		m.closeDevice()
	}

	sampleFormat, err := malgoFormat(format.Kind)
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if m.cfg.PeriodMs > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(m.cfg.PeriodMs)
	}

	if m.cfg.DeviceID != "" {
		info, err := device.LookupMalgo(ctx.Context, device.Playback, m.cfg.DeviceID)
		if err != nil {
			freeContext(ctx)
			return err
		}
		deviceConfig.Playback.DeviceID = info.ID.Pointer()
		m.endpoint.Name = info.Name()
	}

	frameSize := format.FrameSize()
	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		size := int(frameCount) * frameSize
		if size > len(pOutputSample) {
			size = len(pOutputSample)
		}
		// a closed cursor leaves silence
		_ = Fill(pOutputSample[:size], src)
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		freeContext(ctx)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = dev
	return nil
}

// Play starts the device
func (m *Malgo) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotInitialized
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

// Stop stops and releases the device. miniaudio does not return from Stop
// while a data callback is running.
func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeDevice()
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() error {
	var stopErr error
	if m.device != nil {
		stopErr = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		freeContext(m.malgoCtx)
		m.malgoCtx = nil
	}
	if stopErr != nil {
		return fmt.Errorf("failed to stop playback device: %w", stopErr)
	}
	return nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

func malgoFormat(kind audio.SampleKind) (malgo.FormatType, error) {
	switch kind {
	case audio.Int16:
		return malgo.FormatS16, nil
	case audio.Float32:
		return malgo.FormatF32, nil
	default:
		return 0, fmt.Errorf("unsupported sample kind for malgo: %v", kind)
	}
}
