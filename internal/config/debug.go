package config

import "os"

func LoadDebugConfigFromEnv(cfg DebugConfig) DebugConfig {
	if os.Getenv("SESSIONTAB_DEBUG_LOG_REQUESTS") == "1" {
		cfg.LogRequests = true
	}
	if os.Getenv("SESSIONTAB_DEBUG_LOG_RESPONSES") == "1" {
		cfg.LogResponses = true
	}
	if dir := os.Getenv("SESSIONTAB_DEBUG_LOG_DIR"); dir != "" {
		cfg.LogDirectory = dir
	}
	return cfg
}
