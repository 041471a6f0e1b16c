package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Source kinds the CLI can read sessions from.
const (
	SourceGRPC = "grpc"
	SourceHTTP = "http"
	SourceFile = "file"
)

type DebugConfig struct {
	LogRequests  bool   `toml:"log_requests"`
	LogResponses bool   `toml:"log_responses"`
	LogDirectory string `toml:"log_directory"`
}

type Config struct {
	AppName               string      `toml:"app_name"`
	UserID                string      `toml:"user_id"`
	Source                string      `toml:"source"`
	Endpoint              string      `toml:"endpoint"`
	Bind                  string      `toml:"bind"`
	HTTPBind              string      `toml:"http_bind"`
	Backend               string      `toml:"backend"`
	DataDir               string      `toml:"data_dir"`
	TimeLayout            string      `toml:"time_layout"` // empty renders like an en-US locale
	RequestTimeoutSeconds int         `toml:"request_timeout_seconds"`
	Debug                 DebugConfig `toml:"debug"`
}

func Default() Config {
	defaultDataDir := defaultDataDir()
	return Config{
		AppName:               "",
		UserID:                "user",
		Source:                SourceGRPC,
		Endpoint:              "http://127.0.0.1:8000",
		Bind:                  ":50061",
		HTTPBind:              ":8061",
		Backend:               SourceFile,
		DataDir:               defaultDataDir,
		TimeLayout:            "",
		RequestTimeoutSeconds: 30,
		Debug: DebugConfig{
			LogRequests:  false,
			LogResponses: false,
			LogDirectory: filepath.Join(defaultDataDir, "debug"),
		},
	}
}

// RequestTimeout returns the per-call timeout for session sources.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadOrCreate reads the TOML config at path, writing the defaults there first
// when the file does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return config, fmt.Errorf("create config dir: %w", err)
			}

			configData, err := toml.Marshal(config)
			if err != nil {
				return config, fmt.Errorf("marshal default config: %w", err)
			}

			if err := os.WriteFile(path, configData, 0o644); err != nil {
				return config, fmt.Errorf("write default config: %w", err)
			}

			return config, nil
		}

		return config, err
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}

	config.DataDir = expandPath(config.DataDir)
	config.Debug.LogDirectory = expandPath(config.Debug.LogDirectory)
	config.Endpoint = strings.TrimRight(strings.TrimSpace(config.Endpoint), "/")
	config.Bind = strings.TrimSpace(config.Bind)
	config.HTTPBind = strings.TrimSpace(config.HTTPBind)
	config.Source = strings.ToLower(strings.TrimSpace(config.Source))
	config.Backend = strings.ToLower(strings.TrimSpace(config.Backend))

	if config.Bind == "" {
		config.Bind = ":50061"
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks the fields that have no usable fallback.
func (c Config) Validate() error {
	switch c.Source {
	case SourceGRPC, SourceFile:
	case SourceHTTP:
		if c.Endpoint == "" {
			return errors.New("endpoint is required when source is http")
		}
	default:
		return fmt.Errorf("unknown source %q (want grpc, http or file)", c.Source)
	}

	switch c.Backend {
	case SourceFile:
	case SourceHTTP:
		if c.Endpoint == "" {
			return errors.New("endpoint is required when backend is http")
		}
	default:
		return fmt.Errorf("unknown backend %q (want file or http)", c.Backend)
	}

	return nil
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return ".sessiontab"
	}

	return filepath.Join(homeDir, ".sessiontab")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
