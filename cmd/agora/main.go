// Command agora runs the forum backend.
//
// Usage:
//
//	agora serve --config agora.yaml
//	agora validate --config agora.yaml
//	agora version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/forumlab/agora/pkg/config"
	"github.com/forumlab/agora/pkg/logger"
	"github.com/forumlab/agora/pkg/server"
	"github.com/forumlab/agora/pkg/version"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL"`
	LogFile   string `help:"Log file path (empty = stderr)." env:"LOG_FILE"`
	LogFormat string `help:"Log format (simple, verbose, or json)." env:"LOG_FORMAT"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(version.GetVersion().String())
	return nil
}

// ValidateCmd parses and validates a configuration file without starting
// the server.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("validate requires --config")
	}
	if _, err := config.Load(cli.Config); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Printf("Configuration %s is valid\n", cli.Config)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	cleanup, err := initLogger(cli, &cfg.Logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	srv, pool, err := server.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			slog.Error("Closing database pool", "error", err)
		}
	}()

	fmt.Printf("Agora ready on http://%s\n", srv.Address())
	fmt.Printf("   API:     http://%s/api/v1\n", srv.Address())
	fmt.Printf("   Health:  http://%s/healthz\n", srv.Address())
	fmt.Printf("   Metrics: http://%s/metrics\n", srv.Address())

	return srv.Start(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No config file given, using defaults")
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// initLogger resolves logging settings, CLI flags and environment over
// the config file, and installs the process-wide logger.
func initLogger(cli *CLI, cfg *config.LoggerConfig) (func(), error) {
	level := cfg.Level
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	format := cfg.Format
	if cli.LogFormat != "" {
		format = cli.LogFormat
	}
	file := cfg.File
	if cli.LogFile != "" {
		file = cli.LogFile
	}

	output := os.Stderr
	var cleanup func()
	if file != "" {
		f, done, err := logger.OpenLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		output, cleanup = f, done
	}

	logger.Init(logger.ParseLevel(level), output, format)
	return cleanup, nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agora"),
		kong.Description("Agora - forum backend with AI assistance"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
