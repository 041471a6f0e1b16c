package app

import (
	"fmt"
	"log/slog"

	"github.com/erg0nix/sessiontab/internal/adkapi"
	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/metrics"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

// Services holds what the daemon serves: the backing session source and the
// collectors both transports report to.
type Services struct {
	Source  sessions.Source
	Metrics *metrics.Metrics
}

func NewServices(cfg config.Config) (Services, error) {
	source, err := NewBackend(cfg)
	if err != nil {
		return Services{}, err
	}

	return Services{Source: source, Metrics: metrics.New()}, nil
}

// NewBackend returns the source the daemon reads sessions from.
func NewBackend(cfg config.Config) (sessions.Source, error) {
	switch cfg.Backend {
	case config.SourceFile, "":
		return &sessions.FileSource{BaseDir: cfg.DataDir}, nil
	case config.SourceHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("backend %s: endpoint is required", cfg.Backend)
		}
		slog.Info("proxying sessions", "endpoint", cfg.Endpoint)
		return adkapi.NewClient(adkapi.Config{
			Endpoint:    cfg.Endpoint,
			HTTPTimeout: cfg.RequestTimeout(),
		}, cfg.Debug), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
