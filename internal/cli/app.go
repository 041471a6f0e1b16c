package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/adkapi"
	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/rpc"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

type App struct {
	Config     config.Config
	ConfigPath string
	ServerAddr string
}

func newApp(cmd *cobra.Command) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	serverOverride, _ := cmd.Flags().GetString("server")
	sourceOverride, _ := cmd.Flags().GetString("source")
	appOverride, _ := cmd.Flags().GetString("app")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if sourceOverride != "" {
		cfg.Source = sourceOverride
	}
	if appOverride != "" {
		cfg.AppName = appOverride
	}
	cfg.Debug = config.LoadDebugConfigFromEnv(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		ServerAddr: resolveServer(serverOverride, cfg),
	}, nil
}

// newSource opens the configured session source. The returned func releases
// whatever connection it holds.
func (a *App) newSource() (sessions.Source, func(), error) {
	switch a.Config.Source {
	case config.SourceGRPC:
		client, err := rpc.Dial(a.ServerAddr)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	case config.SourceHTTP:
		client := adkapi.NewClient(adkapi.Config{
			Endpoint:    a.Config.Endpoint,
			HTTPTimeout: a.Config.RequestTimeout(),
		}, a.Config.Debug)
		return client, func() {}, nil
	case config.SourceFile:
		return &sessions.FileSource{BaseDir: a.Config.DataDir}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", a.Config.Source)
	}
}

func (a *App) newManager(source sessions.Source, userID string, callbacks sessions.Callbacks, opts ...sessions.Option) (*sessions.Manager, error) {
	if a.Config.AppName == "" {
		return nil, errors.New(styledError("no app name configured",
			"set app_name in the config file or pass --app"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	base := []sessions.Option{
		sessions.WithUserID(userID),
		sessions.WithCallbacks(callbacks),
		sessions.WithLogger(logger),
		sessions.WithTimeLayout(a.Config.TimeLayout),
	}
	return sessions.NewManager(source, a.Config.AppName, append(base, opts...)...), nil
}
