package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/scalerwatch/cmd"
	"github.com/smazurov/scalerwatch/internal/api"
	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/internal/config"
	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/led"
	"github.com/smazurov/scalerwatch/internal/logging"
	"github.com/smazurov/scalerwatch/internal/metrics"
	"github.com/smazurov/scalerwatch/internal/metrics/exporters"
	"github.com/smazurov/scalerwatch/internal/monitor"
	"github.com/smazurov/scalerwatch/internal/systemd"
	"github.com/smazurov/scalerwatch/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"scalerwatch.toml"`

	// Scaler settings
	ScalerBase         string `help:"Physical base address of the scaler window" default:"0x20000000" toml:"scaler.base" env:"SCALER_BASE"`
	ScalerSize         string `help:"Bytes to map (0 selects the default window)" default:"0" toml:"scaler.size" env:"SCALER_SIZE"`
	ScalerLayout       string `help:"Header layout: auto, ascl, ascal or legacy" default:"auto" toml:"scaler.layout" env:"SCALER_LAYOUT"`
	ScalerLargeBuffers bool   `help:"Use the large triple-buffer offsets" default:"false" toml:"scaler.large_buffers" env:"SCALER_LARGE_BUFFERS"`

	// Sampling settings
	SamplingStep   int  `help:"Sample every Nth pixel in both directions" default:"4" toml:"sampling.step" env:"SAMPLING_STEP"`
	SamplingJitter bool `help:"Rotate the sampling grid phase every cycle" default:"false" toml:"sampling.jitter" env:"SAMPLING_JITTER"`

	// Poll loop settings
	WaitStrategy     string `help:"Cycle pacing: interval or counter" default:"interval" toml:"wait.strategy" env:"WAIT_STRATEGY"`
	WaitPollInterval string `help:"Cycle interval, or counter wait timeout" default:"50ms" toml:"wait.poll_interval" env:"WAIT_POLL_INTERVAL"`
	WaitSpinInterval string `help:"Frame counter re-check interval" default:"2ms" toml:"wait.spin_interval" env:"WAIT_SPIN_INTERVAL"`
	MonitorStale     string `help:"Flag the frame stale after this long unchanged (0 disables)" default:"10s" toml:"monitor.stale_after" env:"MONITOR_STALE_AFTER"`
	MonitorCycles    int    `help:"Stop after this many cycles (0 runs until interrupted)" default:"0" toml:"monitor.max_cycles" env:"MONITOR_MAX_CYCLES"`

	// Report settings
	ReportMode   string `help:"Status lines: change or cycle" default:"change" toml:"report.mode" env:"REPORT_MODE"`
	ReportInline bool   `help:"Rewrite a single terminal line" default:"false" toml:"report.inline" env:"REPORT_INLINE"`

	// Server settings
	ServerListen string `help:"Status API listen address (empty disables)" default:"" toml:"server.listen" env:"SERVER_LISTEN"`
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Capture settings
	CaptureDir       string `help:"Directory for frames captured through the API" default:"/tmp/screenshots" toml:"capture.dir" env:"CAPTURE_DIR"`
	CaptureMaxPixels int    `help:"Refuse API captures larger than this many pixels" default:"16777216" toml:"capture.max_pixels" env:"CAPTURE_MAX_PIXELS"`

	// Features settings
	FeaturesLEDControl bool   `help:"Show monitor health on the board LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesLEDName    string `help:"sysfs LED to drive (empty detects the board LED)" default:"" toml:"features.led_name" env:"FEATURES_LED_NAME"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingJournal bool   `help:"Also log to the systemd journal" default:"false" toml:"logging.journal" env:"LOGGING_JOURNAL"`
}

// monitorConfig translates the flat options into the monitor configuration.
func monitorConfig(opts *Options) (monitor.Config, error) {
	cfg := monitor.DefaultConfig()

	base, err := cmd.ParseAddress(opts.ScalerBase)
	if err != nil {
		return cfg, fmt.Errorf("scaler.base: %w", err)
	}
	size, err := cmd.ParseAddress(opts.ScalerSize)
	if err != nil {
		return cfg, fmt.Errorf("scaler.size: %w", err)
	}
	cfg.Base = base
	cfg.Size = cmd.WindowSize(size, opts.ScalerLargeBuffers)
	cfg.Layout = opts.ScalerLayout
	cfg.Header = cmd.HeaderConfig(opts.ScalerLargeBuffers)

	cfg.Step = opts.SamplingStep
	cfg.Jitter = opts.SamplingJitter
	cfg.Wait = opts.WaitStrategy
	cfg.MaxCycles = uint64(max(opts.MonitorCycles, 0))

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"wait.poll_interval", opts.WaitPollInterval, &cfg.PollInterval},
		{"wait.spin_interval", opts.WaitSpinInterval, &cfg.SpinInterval},
		{"monitor.stale_after", opts.MonitorStale, &cfg.StaleAfter},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}

	if cfg.Report, err = monitor.ParseReportMode(opts.ReportMode); err != nil {
		return cfg, fmt.Errorf("report.mode: %w", err)
	}
	cfg.Inline = opts.ReportInline
	return cfg, nil
}

// runtimeSettings converts a reloaded config file into monitor settings.
func runtimeSettings(rt config.Runtime) (monitor.Runtime, error) {
	mode, err := monitor.ParseReportMode(rt.ReportMode)
	if err != nil {
		return monitor.Runtime{}, err
	}
	return monitor.Runtime{
		Step:   rt.SamplingStep,
		Jitter: rt.SamplingJitter,
		Report: mode,
		Inline: rt.ReportInline,
	}, nil
}

func loggingConfig(opts *Options) logging.Config {
	cfg := config.LoadLoggingConfig(opts.Config)
	cfg.Level = opts.LoggingLevel
	cfg.Format = opts.LoggingFormat
	cfg.Journal = opts.LoggingJournal
	return cfg
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logCfg := loggingConfig(opts)
		logging.Initialize(logCfg)
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

		hooks.OnStart(func() {
			defer close(done)
			code := cmd.ExitCode(run(ctx, opts, logCfg, notifier, logger))
			if code != cmd.ExitOK {
				os.Exit(code)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()
			cancel()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				logger.Warn("Monitor did not stop in time")
			}
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Short = "Watch the scaler framebuffer for frame changes"
	cli.Root().Version = version.Get().String()

	cli.Root().AddCommand(cmd.CreateCaptureCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

// run owns the monitor for the lifetime of the process. The window is
// unmapped before it returns on every path.
func run(ctx context.Context, opts *Options, logCfg logging.Config, notifier *systemd.Notifier, logger *slog.Logger) error {
	info := version.Get()
	logger.Info("Starting "+version.Name, "version", info.Version, "commit", info.GitCommit)

	cfg, err := monitorConfig(opts)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return err
	}

	eventBus := events.New()
	defer eventBus.Close()

	recorder := metrics.NewRecorder()
	recorder.Attach(eventBus)
	defer recorder.Detach()

	notifier.Attach(eventBus)
	defer notifier.Detach()

	if opts.FeaturesLEDControl {
		logger.Info("LED control enabled, initializing")
		ledManager := led.NewManager(led.New(opts.FeaturesLEDName, logging.GetLogger("led")), eventBus, logging.GetLogger("led"))
		ledManager.Start()
		defer ledManager.Stop()
	}

	mon, err := monitor.New(cfg, monitor.Options{
		Out:    os.Stdout,
		Bus:    eventBus,
		Logger: logging.GetLogger("monitor"),
	})
	if err != nil {
		logger.Error("Failed to start monitor", "error", err)
		return err
	}
	defer func() {
		if closeErr := mon.Close(); closeErr != nil {
			logger.Warn("Failed to unmap scaler window", "error", closeErr)
		}
	}()

	if opts.ServerListen != "" {
		server := api.NewServer(api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Status:            mon.Status,
			Bus:               eventBus,
			PrometheusHandler: exporters.HTTPHandler(),
			Capture: func(name string) (capture.Result, error) {
				return mon.Capture(capture.PNGSink{Dir: opts.CaptureDir}, name, opts.CaptureMaxPixels)
			},
		})
		go func() {
			if startErr := server.Start(opts.ServerListen); startErr != nil {
				logger.Error("API server failed", "error", startErr)
			}
		}()
		defer server.Stop()
	}

	if watcher := watchConfig(opts.Config, cfg, logCfg, mon); watcher != nil {
		defer watcher.Stop()
	}

	notifier.Ready()
	err = mon.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Monitor stopped", "error", err)
		return err
	}
	logger.Info("Monitor stopped", "cycles", mon.Status().Cycle)
	return nil
}

// watchConfig hot-reloads the sampling, report and logging settings. It
// returns nil when there is no file to watch.
func watchConfig(path string, cfg monitor.Config, logCfg logging.Config, mon *monitor.Monitor) *config.Watcher[config.Runtime] {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	logger := logging.GetLogger("config")

	base := config.Runtime{
		SamplingStep:   cfg.Step,
		SamplingJitter: cfg.Jitter,
		ReportMode:     string(cfg.Report),
		ReportInline:   cfg.Inline,
		Logging:        logCfg,
	}
	watcher := config.NewWatcher(path, func(p string) (config.Runtime, error) {
		return config.LoadRuntime(p, base)
	}, logger, config.WithErrorHandler[config.Runtime](func(err error) {
		logger.Warn("Config reload failed, keeping previous settings", "error", err)
	}))

	watcher.OnReload(func(rt config.Runtime) {
		settings, err := runtimeSettings(rt)
		if err != nil {
			logger.Warn("Ignoring reloaded settings", "error", err)
			return
		}
		if err := mon.Reconfigure(settings); err != nil {
			logger.Warn("Ignoring reloaded settings", "error", err)
			return
		}
		for module, level := range rt.Logging.Modules {
			if !logging.SetModuleLevel(module, level) {
				logger.Warn("Unknown log level", "module", module, "level", level)
			}
		}
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
		return nil
	}
	return watcher
}
