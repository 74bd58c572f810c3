package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stackmesh/template-agent/engine/core"
)

// validLogLevels is the fixed enumeration accepted for PYTHON_LOG_LEVEL.
var validLogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Validate checks value ranges and enumerations after loading. It is invoked
// explicitly by callers, never during construction. Failures carry the
// CONFIGURATION_VALIDATION_ERROR code.
func Validate(cfg *Config) error {
	if cfg == nil {
		return core.NewError(fmt.Errorf("configuration is nil"), core.ErrCodeConfigValidation, nil)
	}

	if cfg.Server.Port < 1024 || cfg.Server.Port > 65535 {
		return core.NewError(
			fmt.Errorf("AGENT_PORT must be between 1024 and 65535, got %d", cfg.Server.Port),
			core.ErrCodeConfigValidation,
			map[string]any{"port": cfg.Server.Port},
		)
	}

	if !isValidLogLevel(cfg.Server.LogLevel) {
		return core.NewError(
			fmt.Errorf("PYTHON_LOG_LEVEL must be one of %v, got %q", validLogLevels, cfg.Server.LogLevel),
			core.ErrCodeConfigValidation,
			map[string]any{"log_level": cfg.Server.LogLevel},
		)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return core.NewError(
			fmt.Errorf("invalid configuration: %w", err),
			core.ErrCodeConfigValidation,
			nil,
		)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	upper := strings.ToUpper(level)
	for _, valid := range validLogLevels {
		if upper == valid {
			return true
		}
	}
	return false
}
