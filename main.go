package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/livecast/cmd"
	"github.com/smazurov/livecast/internal/api"
	"github.com/smazurov/livecast/internal/audio"
	"github.com/smazurov/livecast/internal/capture"
	"github.com/smazurov/livecast/internal/config"
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/encoder"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/led"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/metrics"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/settings"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Session settings
	SettingsFile string `help:"Stream settings file, watched for changes" default:"settings.toml" toml:"session.settings_file" env:"SESSION_SETTINGS_FILE"`

	// Encoder settings
	EncoderPreset   string `help:"Video encoder preset" default:"veryfast" toml:"encoder.preset" env:"ENCODER_PRESET"`
	EncoderLowDelay bool   `help:"Low latency input flags" default:"true" toml:"encoder.low_latency" env:"ENCODER_LOW_LATENCY"`
	AudioLevelMeter bool   `help:"Publish microphone levels" default:"true" toml:"encoder.audio_level_meter" env:"ENCODER_AUDIO_LEVEL_METER"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Enable LED control" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession  string `help:"Session logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingEncoder  string `help:"Encoder logging level" default:"info" toml:"logging.encoder" env:"LOGGING_ENCODER"`
	LoggingDevices  string `help:"Devices logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingCapture  string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingSettings string `help:"Settings logging level" default:"info" toml:"logging.settings" env:"LOGGING_SETTINGS"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Flags set on the command line win over the file and environment.
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"session":  opts.LoggingSession,
				"encoder":  opts.LoggingEncoder,
				"devices":  opts.LoggingDevices,
				"capture":  opts.LoggingCapture,
				"settings": opts.LoggingSettings,
				"api":      opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		current, err := settings.Load(opts.SettingsFile)
		if err != nil {
			logger.Warn("Failed to load settings, using defaults", "file", opts.SettingsFile, "error", err)
			current = settings.Defaults()
		}

		eventBus := events.New()

		var ledManager *led.Manager
		var ledController led.Controller
		if opts.FeaturesLEDControl {
			logger.Info("LED control enabled, initializing")
			ledController = led.New(logger)
			ledManager = led.NewManager(ledController, eventBus, logger)
		}

		detector := devices.NewDetector()
		encCfg := encoder.Config{
			Source:           devices.NewSource(detector, current.Video.Device),
			InputFormat:      current.Video.InputFormat,
			VideoEncoder:     current.Video.Codec,
			Preset:           opts.EncoderPreset,
			AudioDevice:      current.Audio.Device,
			EchoCancelSource: current.Audio.EchoCancelSource,
			AudioLevelMeter:  opts.AudioLevelMeter,
		}
		if opts.EncoderLowDelay {
			encCfg.Options = []ffmpeg.OptionType{ffmpeg.OptionLowLatency, ffmpeg.OptionThreadQueue1024}
		}

		ctx, cancel := context.WithCancel(context.Background())

		var server *api.Server
		controller := session.New(session.Options{
			Settings: current,
			Factory:  endpoint.Factory{NewEncoder: encoder.Factory(encCfg)},
			Bus:      eventBus,
			Torch:    led.Torch{Controller: ledController},
			Photos:   capture.New(),
			OnExit: func() {
				logger.Info("Exit requested by control action")
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			},
		})

		watcher := settings.Watch(opts.SettingsFile, logging.GetLogger("settings"))
		watcher.OnReload(func(next settings.Settings) {
			if applyErr := controller.ApplySettings(next); applyErr != nil {
				logger.Warn("Failed to apply reloaded settings", "error", applyErr)
			}
		})

		server = api.NewServer(&api.Options{
			AuthUsername:   opts.AuthUsername,
			AuthPassword:   opts.AuthPassword,
			Session:        controller,
			EventBus:       eventBus,
			Detector:       detector,
			AudioDetector:  audio.NewDetector(),
			LEDController:  ledController,
			MetricsHandler: metrics.Handler(),
		})

		hooks.OnStart(func() {
			go controller.Run(ctx)

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Settings hot reload disabled", "file", opts.SettingsFile, "error", startErr)
			}
			if ledManager != nil {
				ledManager.Start()
			}

			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Debug("sd_notify failed", "error", notifyErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port, "session_id", controller.ID())
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				cancel()
				os.Exit(1)
			}
			cancel()
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Tears down every output and releases the camera.
			cancel()
			<-controller.Done()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping settings watcher", "error", stopErr)
			}
			if ledManager != nil {
				ledManager.Stop()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateURLCmd())
	cli.Root().AddCommand(cmd.CreateCamerasCmd())
	cli.Root().AddCommand(cmd.CreateMicrophonesCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
