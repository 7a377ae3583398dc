package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/leengari/mini-tables/internal/config"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/export"
	"github.com/leengari/mini-tables/internal/fixtures"
	"github.com/leengari/mini-tables/internal/logging"
	"github.com/leengari/mini-tables/internal/metrics"
	"github.com/leengari/mini-tables/internal/network"
	"github.com/leengari/mini-tables/internal/repl"
	"github.com/leengari/mini-tables/internal/script"
)

var (
	app = kingpin.New("fixtured", "In-memory table engine seeded with UI and integration test fixtures.")

	configPath  = app.Flag("config", "The configuration file.").Short('c').Envar("FIXTURED_CONFIG").String()
	logLevel    = app.Flag("log_level", "Log level (debug, info, warn, error).").String()
	seqURL      = app.Flag("seq_url", "Seq server URL for structured logs.").String()
	scripts     = app.Flag("script", "Fixture script to run; repeat for several. Default all.").Strings()
	starlarkDir = app.Flag("starlark_dir", "Directory of extra .star scripts to run at start-up.").String()
	interval    = app.Flag("refresh_interval", "Refresh interval of generated and time tables.").Duration()

	serveCmd    = app.Command("serve", "Serve the namespace over TCP.")
	servePort   = serveCmd.Flag("port", "Port to listen on.").Int()
	metricsAddr = serveCmd.Flag("metrics_addr", "Address for the Prometheus /metrics endpoint.").String()

	replCmd = app.Command("repl", "Explore the namespace interactively.")

	exportCmd    = app.Command("export", "Export every table snapshot and exit.")
	exportDir    = exportCmd.Flag("dir", "Write a JSON directory export here.").String()
	exportSQLite = exportCmd.Flag("sqlite", "Write a SQLite export to this file.").String()

	listCmd = app.Command("list", "List the built-in fixture scripts.")
)

func main() {
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	kingpin.FatalIfError(err, "Unable to load config.")
	applyFlags(cfg)
	kingpin.FatalIfError(cfg.Validate(), "Invalid config.")

	opts, err := loggerOptions(cfg)
	kingpin.FatalIfError(err, "Invalid log level.")
	logger, closeFn := logging.SetupLogger(opts)
	defer closeFn()
	slog.SetDefault(logger)

	if command == listCmd.FullCommand() {
		for _, name := range fixtures.Names() {
			fmt.Println(name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg); err != nil {
		slog.Error("fixtured failed", "command", command, "error", err)
		closeFn()
		os.Exit(1)
	}
}

// applyFlags lets command line flags override the config file
func applyFlags(cfg *config.Config) {
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *seqURL != "" {
		cfg.Logging.SeqURL = *seqURL
	}
	if len(*scripts) > 0 {
		cfg.Fixtures.Scripts = *scripts
	}
	if *starlarkDir != "" {
		cfg.Fixtures.StarlarkDir = *starlarkDir
	}
	if *interval > 0 {
		cfg.Refresh.Interval = *interval
	}
	if *servePort > 0 {
		cfg.Server.Port = *servePort
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *exportDir != "" {
		cfg.Export.Dir = *exportDir
	}
	if *exportSQLite != "" {
		cfg.Export.SQLite = *exportSQLite
	}
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	eng := engine.New()
	defer eng.Close()
	eng.AddObserver(engine.NewLoggingObserver())

	opts := fixtures.Options{RefreshInterval: cfg.Refresh.Interval}
	if err := fixtures.RunAll(ctx, eng, opts, cfg.Fixtures.Scripts...); err != nil {
		return err
	}
	if cfg.Fixtures.StarlarkDir != "" {
		ran, err := script.NewRunner(eng, cfg.Refresh.Interval).RunDir(ctx, cfg.Fixtures.StarlarkDir)
		if err != nil {
			return err
		}
		slog.Info("Starlark scripts loaded", "dir", cfg.Fixtures.StarlarkDir, "scripts", ran)
	}
	slog.Info("Application ready!", "variables", len(eng.Names()))

	switch command {
	case serveCmd.FullCommand():
		if cfg.Metrics.Addr != "" {
			go func() {
				if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
					slog.Error("metrics server failed", "error", err)
				}
			}()
		}
		slog.Info("Starting Server mode...")
		return network.Start(ctx, cfg.Server.Addr(), eng)

	case replCmd.FullCommand():
		repl.Start(ctx, eng, os.Stdin, os.Stdout)
		return nil

	case exportCmd.FullCommand():
		if cfg.Export.Dir != "" {
			if err := export.ToDir(ctx, eng, cfg.Export.Dir); err != nil {
				return err
			}
		}
		if cfg.Export.SQLite != "" {
			if err := export.ToSQLite(ctx, eng, cfg.Export.SQLite); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func loggerOptions(cfg *config.Config) (logging.Options, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return logging.Options{}, err
	}
	return logging.Options{Level: level, SeqURL: cfg.Logging.SeqURL}, nil
}
