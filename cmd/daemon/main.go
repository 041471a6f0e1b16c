package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/erg0nix/sessiontab/internal/app"
	"github.com/erg0nix/sessiontab/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var (
		configPathFlag = flag.String("config", "", "path to config file (default ~/.sessiontab/config.toml)")
		bindFlag       = flag.String("bind", "", "gRPC bind address")
		httpBindFlag   = flag.String("http-bind", "", "REST and metrics bind address")
		backendFlag    = flag.String("backend", "", "where sessions live: file or http")
		endpointFlag   = flag.String("endpoint", "", "ADK API server endpoint for the http backend")
		dataDirFlag    = flag.String("data-dir", "", "base data dir (default ~/.sessiontab)")
	)
	flag.Parse()

	configPath := *configPathFlag
	if configPath == "" {
		configPath = filepath.Join(config.Default().DataDir, "config.toml")
	}

	daemonConfig, err := config.LoadOrCreate(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setIfNotEmpty := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}

	setIfNotEmpty(&daemonConfig.Bind, *bindFlag)
	setIfNotEmpty(&daemonConfig.HTTPBind, *httpBindFlag)
	setIfNotEmpty(&daemonConfig.Backend, *backendFlag)
	setIfNotEmpty(&daemonConfig.Endpoint, *endpointFlag)
	setIfNotEmpty(&daemonConfig.DataDir, *dataDirFlag)

	daemonConfig.Debug = config.LoadDebugConfigFromEnv(daemonConfig.Debug)

	if err := daemonConfig.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := app.RunServer(daemonConfig); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}
