// ABOUTME: miniaudio capture source for loopback and microphone input
// ABOUTME: Forwards each driver period straight to the registered handler
package capture

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/device"
)

// Mode selects what a malgo source records
type Mode int

const (
	// Loopback records what a playback endpoint is rendering (WASAPI only)
	Loopback Mode = iota
	// Microphone records a capture endpoint
	Microphone
)

func (m Mode) String() string {
	if m == Loopback {
		return "loopback"
	}
	return "microphone"
}

// DefaultMicPeriodMs is the driver period used for microphones
const DefaultMicPeriodMs = 50

// MalgoConfig configures a malgo capture source
type MalgoConfig struct {
	Name string
	Mode Mode
	// DeviceID is an endpoint ID from device.MalgoEnumerator; empty selects the default
	DeviceID string
	Format   audio.Format
	PeriodMs int
}

// Malgo captures from a miniaudio device
type Malgo struct {
	cfg     MalgoConfig
	handler handlerSlot

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	endpoint device.Endpoint
}

// NewMalgo creates a capture source. Nothing is opened until Start.
func NewMalgo(cfg MalgoConfig) *Malgo {
	if cfg.Name == "" {
		cfg.Name = cfg.Mode.String()
	}
	if cfg.PeriodMs <= 0 && cfg.Mode == Microphone {
		cfg.PeriodMs = DefaultMicPeriodMs
	}

	kind := device.Capture
	if cfg.Mode == Loopback {
		kind = device.Playback
	}
	return &Malgo{
		cfg:      cfg,
		endpoint: device.Endpoint{ID: cfg.DeviceID, Name: cfg.Name, Kind: kind},
	}
}

func (m *Malgo) Name() string         { return m.cfg.Name }
func (m *Malgo) Format() audio.Format { return m.cfg.Format }
func (m *Malgo) SetHandler(h Handler) { m.handler.set(h) }

// Endpoint reports the device this source records from
func (m *Malgo) Endpoint() device.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// Start opens and starts the capture device
func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return ErrAlreadyStarted
	}

	format, err := malgoFormat(m.cfg.Format.Kind)
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceType := malgo.Capture
	if m.cfg.Mode == Loopback {
		deviceType = malgo.Loopback
	}

	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(m.cfg.Format.Channels)
	deviceConfig.SampleRate = uint32(m.cfg.Format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if m.cfg.PeriodMs > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(m.cfg.PeriodMs)
	}

	if m.cfg.DeviceID != "" {
		info, err := device.LookupMalgo(ctx.Context, m.endpoint.Kind, m.cfg.DeviceID)
		if err != nil {
			freeContext(ctx)
			return err
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
		m.endpoint.Name = info.Name()
	}

	frameSize := m.cfg.Format.FrameSize()
	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		size := int(frameCount) * frameSize
		if size > len(pInputSamples) {
			size = len(pInputSamples)
		}
		m.handler.deliver(pInputSamples[:size])
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		freeContext(ctx)
		return fmt.Errorf("failed to initialize %s device: %w", m.cfg.Mode, err)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		freeContext(ctx)
		return fmt.Errorf("failed to start %s device: %w", m.cfg.Mode, err)
	}

	m.malgoCtx = ctx
	m.device = dev
	return nil
}

// Stop stops the device. miniaudio does not return from Stop while a data
// callback is running.
func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

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
		return fmt.Errorf("failed to stop %s device: %w", m.cfg.Mode, stopErr)
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
