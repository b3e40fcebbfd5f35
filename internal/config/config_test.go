// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers defaults, YAML files, environment overrides and rendering
package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/effect"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	format, err := cfg.Format()
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	want := audio.Format{SampleRate: 48000, Channels: 2, Kind: audio.Float32}
	if format != want {
		t.Errorf("expected %v, got %v", want, format)
	}
	if cfg.Audio.Block != 10*time.Millisecond {
		t.Errorf("expected 10ms block, got %v", cfg.Audio.Block)
	}
	if cfg.Loopback.Buffer != 500*time.Millisecond || cfg.Mic.Buffer != 250*time.Millisecond {
		t.Errorf("unexpected buffers loopback=%v mic=%v", cfg.Loopback.Buffer, cfg.Mic.Buffer)
	}
	if cfg.Mic.Period != 50 {
		t.Errorf("expected 50ms mic period, got %d", cfg.Mic.Period)
	}
	if cfg.Output.Match != "CABLE" {
		t.Errorf("expected CABLE match, got %q", cfg.Output.Match)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vmic.yaml")
	data := `
audio:
  sample_rate: 44100
  sample: int16
mic:
  enabled: true
  gain: 0.8
effect:
  kind: echo
  param1: 0.25
  param2: 0.4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VMIC_MIC_GAIN", "0.5")
	t.Setenv("VMIC_SPEAKERS_ENABLED", "true")

	cfg, err := Load(New(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 44100 || cfg.Audio.Sample != "int16" {
		t.Errorf("file values not applied: %+v", cfg.Audio)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("expected default channels to survive, got %d", cfg.Audio.Channels)
	}
	if !cfg.Mic.Enabled || cfg.Mic.Gain != 0.5 {
		t.Errorf("expected env to override mic gain, got %+v", cfg.Mic)
	}
	if !cfg.Speakers.Enabled {
		t.Error("expected env to enable speakers")
	}

	settings, err := cfg.EffectSettings()
	if err != nil {
		t.Fatalf("EffectSettings failed: %v", err)
	}
	if settings != (effect.Settings{Kind: effect.KindEcho, Param1: 0.25, Param2: 0.4}) {
		t.Errorf("unexpected effect settings %+v", settings)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(New(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad sample kind", func(c *Config) { c.Audio.Sample = "int24" }, "audio"},
		{"zero rate", func(c *Config) { c.Audio.SampleRate = 0 }, "audio"},
		{"too many channels", func(c *Config) { c.Audio.Channels = 12 }, "audio.channels"},
		{"history shorter than block", func(c *Config) { c.Audio.History = time.Millisecond }, "audio.history"},
		{"no sources", func(c *Config) { c.Loopback.Enabled = false }, "sources"},
		{"negative gain", func(c *Config) { c.Loopback.Gain = -1 }, "loopback.gain"},
		{"bad policy", func(c *Config) { c.Mic.Enabled = true; c.Mic.Policy = "block" }, "mic.policy"},
		{"high water above buffer", func(c *Config) { c.Loopback.HighWater = time.Second }, "loopback.high_water"},
		{"negative high water", func(c *Config) { c.Mic.Enabled = true; c.Mic.HighWater = -time.Millisecond }, "mic.high_water"},
		{"tone above nyquist", func(c *Config) { c.Tone.Enabled = true; c.Tone.Frequency = 30000 }, "tone.frequency"},
		{"no output", func(c *Config) { c.Output.Match = "" }, "output"},
		{"unknown backend", func(c *Config) { c.Speakers.Enabled = true; c.Speakers.Backend = "alsa" }, "speakers.backend"},
		{"echo too long", func(c *Config) { c.Effect.Kind = "echo"; c.Effect.Param1 = 6 }, "effect"},
		{"unknown effect", func(c *Config) { c.Effect.Kind = "chorus" }, "effect"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.modify(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q (%v)", tt.field, cfgErr.Field, err)
			}
		})
	}
}

func TestWriteRendersYAML(t *testing.T) {
	cfg := loadDefaults(t)

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"sample_rate: 48000", "block: 10ms", "match: CABLE", "kind: none"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered config missing %q:\n%s", want, out)
		}
	}
}
