// ABOUTME: Builds engine configuration from the loaded vmic config
// ABOUTME: Resolves the virtual cable and creates sources and sinks
package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vmic-audio/vmic-go/internal/config"
	"github.com/vmic-audio/vmic-go/pkg/audio/capture"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
	"github.com/vmic-audio/vmic-go/pkg/audio/output/speakers"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
	"github.com/vmic-audio/vmic-go/pkg/device"
	"github.com/vmic-audio/vmic-go/pkg/engine"
)

// tonePeriod is the delivery period of the synthetic and file sources
const tonePeriod = 10 * time.Millisecond

// engineConfig translates cfg into an engine configuration. enum is used to
// find the virtual cable by name and to check device presence at start.
func engineConfig(cfg *config.Config, enum device.Enumerator, log *slog.Logger) (engine.Config, error) {
	format, err := cfg.Format()
	if err != nil {
		return engine.Config{}, err
	}
	settings, err := cfg.EffectSettings()
	if err != nil {
		return engine.Config{}, err
	}

	ec := engine.Config{
		Format:  format,
		Effect:  settings,
		Block:   cfg.Audio.Block,
		History: cfg.Audio.History,
		Devices: enum,
		Logger:  log,
	}

	if cfg.Loopback.Enabled {
		policy, _ := ring.ParsePolicy(cfg.Loopback.Policy)
		src := capture.NewMalgo(capture.MalgoConfig{
			Name:     "loopback",
			Mode:     capture.Loopback,
			DeviceID: cfg.Loopback.Device,
			Format:   format,
			PeriodMs: cfg.Loopback.Period,
		})
		ec.Sources = append(ec.Sources, engine.SourceConfig{
			Source:    src,
			Gain:      cfg.Loopback.Gain,
			Buffer:    cfg.Loopback.Buffer,
			Policy:    policy,
			HighWater: cfg.Loopback.HighWater,
		})
	}
	if cfg.Mic.Enabled {
		policy, _ := ring.ParsePolicy(cfg.Mic.Policy)
		src := capture.NewMalgo(capture.MalgoConfig{
			Name:     "mic",
			Mode:     capture.Microphone,
			DeviceID: cfg.Mic.Device,
			Format:   format,
			PeriodMs: cfg.Mic.Period,
		})
		ec.Sources = append(ec.Sources, engine.SourceConfig{
			Source:    src,
			Gain:      cfg.Mic.Gain,
			Buffer:    cfg.Mic.Buffer,
			Policy:    policy,
			HighWater: cfg.Mic.HighWater,
		})
	}
	if cfg.Tone.Enabled {
		src := capture.NewTone(format, cfg.Tone.Frequency, cfg.Tone.Amplitude, tonePeriod)
		ec.Sources = append(ec.Sources, engine.SourceConfig{
			Source: src,
			Gain:   cfg.Tone.Gain,
		})
	}
	if cfg.File.Path != "" {
		src, err := capture.NewFile(cfg.File.Path, format, tonePeriod)
		if err != nil {
			return engine.Config{}, fmt.Errorf("file source: %w", err)
		}
		ec.Sources = append(ec.Sources, engine.SourceConfig{
			Source: src,
			Gain:   cfg.File.Gain,
			Buffer: cfg.File.Buffer,
		})
	}

	cable, err := resolveCable(cfg.Output, enum)
	if err != nil {
		return engine.Config{}, err
	}
	ec.Sinks = append(ec.Sinks, engine.SinkConfig{
		Sink: output.NewMalgo(output.MalgoConfig{Name: "cable", DeviceID: cable.ID, PeriodMs: cfg.Output.Period}),
	})

	if cfg.Speakers.Enabled {
		sink, err := speakerSink(cfg.Speakers)
		if err != nil {
			return engine.Config{}, err
		}
		ec.Sinks = append(ec.Sinks, engine.SinkConfig{
			Sink:     sink,
			Optional: true,
			Prefill:  cfg.Speakers.Prefill,
		})
	}
	return ec, nil
}

// resolveCable picks the configured playback endpoint, or the first whose
// name contains the match string
func resolveCable(out config.OutputConfig, enum device.Enumerator) (device.Endpoint, error) {
	endpoints, err := enum.Endpoints(device.Playback)
	if err != nil {
		return device.Endpoint{}, err
	}
	if out.Device != "" {
		ep, err := device.FindByID(endpoints, out.Device)
		if err != nil {
			return device.Endpoint{}, &config.ConfigError{Field: "output.device", Message: err.Error()}
		}
		return ep, nil
	}
	ep, err := device.FindByName(endpoints, out.Match)
	if err != nil {
		return device.Endpoint{}, &config.ConfigError{
			Field:   "output.match",
			Message: fmt.Sprintf("no playback device matching %q; install a virtual cable or set output.device", out.Match),
		}
	}
	return ep, nil
}

func speakerSink(sc config.SpeakersConfig) (output.Sink, error) {
	switch sc.Backend {
	case "", "malgo":
		return output.NewMalgo(output.MalgoConfig{Name: "speakers", DeviceID: sc.Device}), nil
	case "oto":
		return speakers.NewOto("speakers", sc.Buffer), nil
	case "beep":
		return speakers.NewBeep("speakers", sc.Buffer), nil
	case "portaudio":
		return speakers.NewPortAudio(), nil
	default:
		return nil, &config.ConfigError{Field: "speakers.backend", Message: fmt.Sprintf("unknown backend %q", sc.Backend)}
	}
}
