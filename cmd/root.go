// ABOUTME: Root command that runs the virtual microphone until interrupted
// ABOUTME: Loads configuration, wires the engine and handles graceful shutdown
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vmic-audio/vmic-go/internal/config"
	"github.com/vmic-audio/vmic-go/internal/logging"
	"github.com/vmic-audio/vmic-go/pkg/device"
	"github.com/vmic-audio/vmic-go/pkg/engine"
)

var (
	cfgFile string
	verbose bool

	v *viper.Viper
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmic",
	Short: "Route system audio and a microphone into a virtual cable",
	Long: `vmic captures what the computer is playing (loopback) and, optionally,
a microphone, mixes them with per-source gain, applies a voice effect and
renders the result into a virtual audio cable so other applications can
record it as a microphone. The mix can also be monitored on the speakers.`,
	RunE:         runEngine,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./vmic.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().Bool("mic", false, "mix the default microphone in")
	rootCmd.Flags().Float64("mic-gain", 1.0, "microphone gain")
	rootCmd.Flags().Float64("loopback-gain", 1.0, "system audio gain")
	rootCmd.Flags().Bool("tone", false, "mix a 440Hz test tone in")
	rootCmd.Flags().String("file", "", "loop a wav, mp3, ogg or flac file into the mix")
	rootCmd.Flags().String("output", "", "playback endpoint ID of the virtual cable")
	rootCmd.Flags().String("match", "CABLE", "pick the first playback device whose name contains this")
	rootCmd.Flags().Bool("speakers", false, "also monitor the mix on the speakers")
	rootCmd.Flags().String("backend", "malgo", "speaker backend (malgo, oto, beep, portaudio)")
	rootCmd.Flags().String("effect", "none", "voice effect (none, echo, low-quality-mic, reverb)")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "text", "log format (text, json)")
	rootCmd.Flags().String("log-file", "", "also write logs to this file")
}

// flagKeys maps root command flags to configuration keys
var flagKeys = map[string]string{
	"mic":           "mic.enabled",
	"mic-gain":      "mic.gain",
	"loopback-gain": "loopback.gain",
	"tone":          "tone.enabled",
	"file":          "file.path",
	"output":        "output.device",
	"match":         "output.match",
	"speakers":      "speakers.enabled",
	"backend":       "speakers.backend",
	"effect":        "effect.kind",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"log-file":      "logging.file",
}

// initConfig builds the viper instance and binds the flags to it
func initConfig() {
	v = config.New(cfgFile)
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, rootCmd.Flags().Lookup(flag))
	}
	if verbose {
		v.Set("logging.level", "debug")
	}
}

// loadConfig loads and validates the configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// setupLogging configures slog from cfg. The returned func releases the
// log file, if one is configured.
func setupLogging(cfg *config.Config) (func(), error) {
	var w io.Writer = os.Stdout
	release := func() {}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		release = func() { _ = f.Close() }
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, w); err != nil {
		release()
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return release, nil
}

// runEngine starts the engine and blocks until a signal or a fatal error
func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	release, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer release()

	log := logging.L("main")

	ec, err := engineConfig(cfg, device.NewMalgoEnumerator(), logging.L("engine"))
	if err != nil {
		return err
	}

	fatal := make(chan error, 1)
	ec.OnError = func(err error) {
		select {
		case fatal <- err:
		default:
		}
	}
	ec.OnStateChange = func(s engine.State) {
		log.Debug("Engine state changed", slog.String("state", s.String()))
	}

	eng, err := engine.New(ec)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if err := eng.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	if cfg.Stats.Interval > 0 {
		go statsLoop(eng, cfg.Stats.Interval, done)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	select {
	case sig := <-signalChan:
		log.Info("Shutting down", slog.String("signal", sig.String()))
	case err := <-fatal:
		log.Error("Engine stopped on error", slog.Any("error", err))
		_ = eng.Stop()
		return err
	}

	if err := eng.Stop(); err != nil {
		return fmt.Errorf("failed to stop engine gracefully: %w", err)
	}
	log.Info("Stopped")
	return nil
}
