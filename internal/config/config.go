// ABOUTME: Configuration loading for the vmic binary
// ABOUTME: Merges defaults, vmic.yaml, VMIC_* environment variables and flags with viper
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vmic-audio/vmic-go/internal/logging"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/effect"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Audio    AudioConfig    `mapstructure:"audio" yaml:"audio"`
	Loopback CaptureConfig  `mapstructure:"loopback" yaml:"loopback"`
	Mic      CaptureConfig  `mapstructure:"mic" yaml:"mic"`
	Tone     ToneConfig     `mapstructure:"tone" yaml:"tone"`
	File     FileConfig     `mapstructure:"file" yaml:"file"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Speakers SpeakersConfig `mapstructure:"speakers" yaml:"speakers"`
	Effect   EffectConfig   `mapstructure:"effect" yaml:"effect"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Stats    StatsConfig    `mapstructure:"stats" yaml:"stats"`
}

// AudioConfig is the session format and pipeline timing
type AudioConfig struct {
	SampleRate int           `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int           `mapstructure:"channels" yaml:"channels"`
	Sample     string        `mapstructure:"sample" yaml:"sample"` // int16 or float32
	Block      time.Duration `mapstructure:"block" yaml:"block"`
	History    time.Duration `mapstructure:"history" yaml:"history"`
}

// CaptureConfig configures the loopback or microphone input
type CaptureConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Device  string        `mapstructure:"device" yaml:"device"` // endpoint ID, empty for default
	Gain    float64       `mapstructure:"gain" yaml:"gain"`
	Buffer  time.Duration `mapstructure:"buffer" yaml:"buffer"`
	Policy  string        `mapstructure:"policy" yaml:"policy"`
	Period  int           `mapstructure:"period_ms" yaml:"period_ms"`

	// HighWater is the fill that makes the drop policy clear the ring; 0 means full
	HighWater time.Duration `mapstructure:"high_water" yaml:"high_water"`
}

// ToneConfig configures the test tone input
type ToneConfig struct {
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
	Frequency float64 `mapstructure:"frequency" yaml:"frequency"`
	Amplitude float64 `mapstructure:"amplitude" yaml:"amplitude"`
	Gain      float64 `mapstructure:"gain" yaml:"gain"`
}

// FileConfig configures a looping file input; an empty path disables it
type FileConfig struct {
	Path   string        `mapstructure:"path" yaml:"path"`
	Gain   float64       `mapstructure:"gain" yaml:"gain"`
	Buffer time.Duration `mapstructure:"buffer" yaml:"buffer"`
}

// OutputConfig selects the virtual cable the mix is rendered to
type OutputConfig struct {
	Device string `mapstructure:"device" yaml:"device"` // endpoint ID; empty searches by Match
	Match  string `mapstructure:"match" yaml:"match"`
	Period int    `mapstructure:"period_ms" yaml:"period_ms"`
}

// SpeakersConfig configures optional monitoring on real speakers
type SpeakersConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Backend string        `mapstructure:"backend" yaml:"backend"` // malgo, oto, beep or portaudio
	Device  string        `mapstructure:"device" yaml:"device"`
	Prefill time.Duration `mapstructure:"prefill" yaml:"prefill"`
	Buffer  time.Duration `mapstructure:"buffer" yaml:"buffer"`
}

// EffectConfig holds the effect kind and its two slider parameters
type EffectConfig struct {
	Kind   string  `mapstructure:"kind" yaml:"kind"`
	Param1 float64 `mapstructure:"param1" yaml:"param1"`
	Param2 float64 `mapstructure:"param2" yaml:"param2"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
	File   string `mapstructure:"file" yaml:"file"`
}

// StatsConfig controls the periodic stats log; zero disables it
type StatsConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// Backends lists the supported speaker backends
var Backends = []string{"malgo", "oto", "beep", "portaudio"}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.sample", "float32")
	v.SetDefault("audio.block", "10ms")
	v.SetDefault("audio.history", "500ms")

	v.SetDefault("loopback.enabled", true)
	v.SetDefault("loopback.device", "")
	v.SetDefault("loopback.gain", 1.0)
	v.SetDefault("loopback.buffer", "500ms")
	v.SetDefault("loopback.policy", "reject")
	v.SetDefault("loopback.high_water", "0s")

	v.SetDefault("mic.enabled", false)
	v.SetDefault("mic.device", "")
	v.SetDefault("mic.gain", 1.0)
	v.SetDefault("mic.buffer", "250ms")
	v.SetDefault("mic.policy", "reject")
	v.SetDefault("mic.high_water", "0s")
	v.SetDefault("mic.period_ms", 50)

	v.SetDefault("tone.enabled", false)
	v.SetDefault("tone.frequency", 440.0)
	v.SetDefault("tone.amplitude", 0.2)
	v.SetDefault("tone.gain", 1.0)

	v.SetDefault("file.path", "")
	v.SetDefault("file.gain", 1.0)
	v.SetDefault("file.buffer", "250ms")

	v.SetDefault("output.device", "")
	v.SetDefault("output.match", "CABLE")
	v.SetDefault("output.period_ms", 0)

	v.SetDefault("speakers.enabled", false)
	v.SetDefault("speakers.backend", "malgo")
	v.SetDefault("speakers.device", "")
	v.SetDefault("speakers.prefill", "20ms")
	v.SetDefault("speakers.buffer", "100ms")

	v.SetDefault("effect.kind", "none")
	v.SetDefault("effect.param1", 0.0)
	v.SetDefault("effect.param2", 0.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("stats.interval", "2s")
}

// New returns a viper instance with defaults, search paths and the VMIC
// environment prefix set up. file, when not empty, replaces the search.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vmic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vmic")
		v.AddConfigPath("/etc/vmic")
	}

	v.SetEnvPrefix("VMIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes v into a Config
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Debug("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks values that can be checked without touching devices
func (c *Config) Validate() error {
	if _, err := c.Format(); err != nil {
		return &ConfigError{Field: "audio", Message: err.Error()}
	}
	if c.Audio.Channels > 8 {
		return &ConfigError{Field: "audio.channels", Message: fmt.Sprintf("at most 8 channels are supported, got %d", c.Audio.Channels)}
	}
	if c.Audio.Block <= 0 {
		return &ConfigError{Field: "audio.block", Message: "must be > 0"}
	}
	if c.Audio.History < c.Audio.Block {
		return &ConfigError{Field: "audio.history", Message: "must be at least one block"}
	}

	if !c.Loopback.Enabled && !c.Mic.Enabled && !c.Tone.Enabled && c.File.Path == "" {
		return &ConfigError{Field: "sources", Message: "enable at least one of loopback, mic, tone or file"}
	}
	captures := []struct {
		field string
		cc    CaptureConfig
	}{{"loopback", c.Loopback}, {"mic", c.Mic}}
	for _, in := range captures {
		field, cc := in.field, in.cc
		if !cc.Enabled {
			continue
		}
		if cc.Gain < 0 {
			return &ConfigError{Field: field + ".gain", Message: "must be >= 0"}
		}
		if cc.Buffer <= 0 {
			return &ConfigError{Field: field + ".buffer", Message: "must be > 0"}
		}
		if _, err := ring.ParsePolicy(cc.Policy); err != nil {
			return &ConfigError{Field: field + ".policy", Message: err.Error()}
		}
		if cc.HighWater < 0 || cc.HighWater > cc.Buffer {
			return &ConfigError{Field: field + ".high_water", Message: "must be between 0 and the buffer length"}
		}
	}
	if c.Tone.Enabled {
		if c.Tone.Frequency <= 0 || c.Tone.Frequency >= float64(c.Audio.SampleRate)/2 {
			return &ConfigError{Field: "tone.frequency", Message: "must be between 0 and the Nyquist frequency"}
		}
		if c.Tone.Amplitude < 0 || c.Tone.Amplitude > 1 {
			return &ConfigError{Field: "tone.amplitude", Message: "must be within [0, 1]"}
		}
	}
	if c.File.Path != "" && c.File.Gain < 0 {
		return &ConfigError{Field: "file.gain", Message: "must be >= 0"}
	}

	if c.Output.Device == "" && c.Output.Match == "" {
		return &ConfigError{Field: "output", Message: "set output.device or output.match"}
	}
	if c.Speakers.Enabled && !validBackend(c.Speakers.Backend) {
		return &ConfigError{Field: "speakers.backend", Message: fmt.Sprintf("unknown backend %q (supported: %s)", c.Speakers.Backend, strings.Join(Backends, ", "))}
	}

	if _, err := c.EffectSettings(); err != nil {
		return &ConfigError{Field: "effect", Message: err.Error()}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	return nil
}

// Format returns the session format
func (c *Config) Format() (audio.Format, error) {
	kind, err := audio.ParseSampleKind(c.Audio.Sample)
	if err != nil {
		return audio.Format{}, err
	}
	f := audio.Format{SampleRate: c.Audio.SampleRate, Channels: c.Audio.Channels, Kind: kind}
	return f, f.Validate()
}

// EffectSettings returns the validated effect settings
func (c *Config) EffectSettings() (effect.Settings, error) {
	kind, err := effect.ParseKind(c.Effect.Kind)
	if err != nil {
		return effect.Settings{}, err
	}
	s := effect.Settings{Kind: kind, Param1: c.Effect.Param1, Param2: c.Effect.Param2}
	return s, s.Validate()
}

// Write renders the effective configuration as YAML
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}
