// ABOUTME: Tests for building the engine from configuration
// ABOUTME: Uses a static device list instead of real hardware
package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vmic-audio/vmic-go/internal/config"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
	"github.com/vmic-audio/vmic-go/pkg/audio/output/speakers"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
	"github.com/vmic-audio/vmic-go/pkg/device"
	"github.com/vmic-audio/vmic-go/pkg/engine"
)

var testDevices = device.Static{
	{ID: "spk-1", Name: "Speakers (Realtek Audio)", Kind: device.Playback, Default: true},
	{ID: "cable-1", Name: "CABLE Input (VB-Audio Virtual Cable)", Kind: device.Playback},
	{ID: "mic-1", Name: "Microphone Array", Kind: device.Capture, Default: true},
}

func testConfig(t *testing.T, set map[string]any) *config.Config {
	t.Helper()
	v := config.New("")
	for key, value := range set {
		v.Set(key, value)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	return cfg
}

func TestResolveCable(t *testing.T) {
	tests := []struct {
		name      string
		out       config.OutputConfig
		wantID    string
		wantField string
	}{
		{name: "match by name", out: config.OutputConfig{Match: "cable"}, wantID: "cable-1"},
		{name: "explicit id wins", out: config.OutputConfig{Device: "spk-1", Match: "CABLE"}, wantID: "spk-1"},
		{name: "no match", out: config.OutputConfig{Match: "VoiceMeeter"}, wantField: "output.match"},
		{name: "unknown id", out: config.OutputConfig{Device: "gone"}, wantField: "output.device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := resolveCable(tt.out, testDevices)
			if tt.wantField != "" {
				var cfgErr *config.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				if cfgErr.Field != tt.wantField {
					t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ep.ID != tt.wantID {
				t.Errorf("expected %q, got %q", tt.wantID, ep.ID)
			}
		})
	}
}

func TestEngineConfigFromDefaults(t *testing.T) {
	cfg := testConfig(t, nil)

	ec, err := engineConfig(cfg, testDevices, nil)
	if err != nil {
		t.Fatalf("engineConfig failed: %v", err)
	}
	if len(ec.Sources) != 1 || ec.Sources[0].Source.Name() != "loopback" {
		t.Fatalf("expected only the loopback source, got %d", len(ec.Sources))
	}
	if len(ec.Sinks) != 1 {
		t.Fatalf("expected only the cable sink, got %d", len(ec.Sinks))
	}
	cable, ok := ec.Sinks[0].Sink.(*output.Malgo)
	if !ok {
		t.Fatalf("expected a malgo cable sink, got %T", ec.Sinks[0].Sink)
	}
	if got := cable.Endpoint().ID; got != "cable-1" {
		t.Errorf("expected the cable endpoint, got %q", got)
	}
	if ec.Sources[0].Buffer != 500*time.Millisecond {
		t.Errorf("expected 500ms loopback buffer, got %v", ec.Sources[0].Buffer)
	}
}

func TestEngineConfigDropPolicyHighWater(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"loopback.policy":     "drop",
		"loopback.high_water": "400ms",
	})

	ec, err := engineConfig(cfg, testDevices, nil)
	if err != nil {
		t.Fatalf("engineConfig failed: %v", err)
	}
	src := ec.Sources[0]
	if src.Policy != ring.DropOldestOnFull {
		t.Errorf("expected drop-oldest policy, got %v", src.Policy)
	}
	if src.HighWater != 400*time.Millisecond {
		t.Errorf("expected 400ms high water, got %v", src.HighWater)
	}
	if _, err := engine.New(ec); err != nil {
		t.Fatalf("engine.New rejected the wired config: %v", err)
	}
}

func TestEngineConfigAllInputsAndSpeakers(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"mic.enabled":      true,
		"mic.gain":         0.0,
		"tone.enabled":     true,
		"speakers.enabled": true,
		"speakers.backend": "beep",
		"effect.kind":      "echo",
		"effect.param1":    0.25,
		"effect.param2":    0.5,
	})

	ec, err := engineConfig(cfg, testDevices, nil)
	if err != nil {
		t.Fatalf("engineConfig failed: %v", err)
	}

	names := make([]string, len(ec.Sources))
	for i, sc := range ec.Sources {
		names[i] = sc.Source.Name()
	}
	if got := strings.Join(names, ","); got != "loopback,mic,tone" {
		t.Errorf("unexpected sources %q", got)
	}
	if ec.Sources[1].Gain != 0 {
		t.Errorf("zero mic gain should reach the engine as 0, got %v", ec.Sources[1].Gain)
	}

	if len(ec.Sinks) != 2 {
		t.Fatalf("expected cable and speakers, got %d sinks", len(ec.Sinks))
	}
	monitor := ec.Sinks[1]
	if _, ok := monitor.Sink.(*speakers.Beep); !ok {
		t.Errorf("expected beep speakers, got %T", monitor.Sink)
	}
	if !monitor.Optional || monitor.Prefill != 20*time.Millisecond {
		t.Errorf("expected optional speakers with 20ms prefill, got %+v", monitor)
	}

	e, err := engine.New(ec)
	if err != nil {
		t.Fatalf("engine.New rejected the wired config: %v", err)
	}
	if got := e.Effect(); got.Param1 != 0.25 {
		t.Errorf("expected echo settings, got %+v", got)
	}
	if g, err := e.Gain("mic"); err != nil || g != 0 {
		t.Errorf("expected muted mic, got %v, %v", g, err)
	}
}

func TestEngineConfigWithoutCable(t *testing.T) {
	cfg := testConfig(t, map[string]any{"output.match": "Nonexistent"})
	speakersOnly := device.Static{testDevices[0]}

	_, err := engineConfig(cfg, speakersOnly, nil)
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSpeakerSink(t *testing.T) {
	for _, backend := range config.Backends {
		sink, err := speakerSink(config.SpeakersConfig{Backend: backend, Buffer: 100 * time.Millisecond})
		if err != nil {
			t.Errorf("%s: %v", backend, err)
			continue
		}
		if sink.Name() == "" {
			t.Errorf("%s: empty sink name", backend)
		}
	}
	if _, err := speakerSink(config.SpeakersConfig{Backend: "alsa"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestListDevices(t *testing.T) {
	var buf bytes.Buffer
	if err := listDevices(&buf, testDevices); err != nil {
		t.Fatalf("listDevices failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"playback:", "capture:", "CABLE Input", "[mic-1] (default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
