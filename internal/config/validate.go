package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/forge/internal/resolve"
)

var validClaudeModels = map[string]bool{
	"opus":   true,
	"sonnet": true,
	"haiku":  true,
}

var defaultModels = map[string]string{
	"claude": "sonnet",
	"gemini": "gemini-2.5-flash",
}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config, projectRoot string) error {
	if cfg.Name == "" {
		return fmt.Errorf("config: 'name' is required")
	}

	if cfg.Backend == "" {
		cfg.Backend = "claude"
	}
	def, ok := defaultModels[cfg.Backend]
	if !ok {
		return fmt.Errorf("config: unknown backend %q (must be claude or gemini)", cfg.Backend)
	}
	if cfg.Model == "" {
		cfg.Model = def
	}
	if cfg.Backend == "claude" && !validClaudeModels[cfg.Model] {
		return fmt.Errorf("config: unknown model %q for claude (must be opus, sonnet, or haiku)", cfg.Model)
	}

	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("config: 'output' must be non-empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("config: temperature must be between 0 and 2, got %g", cfg.Temperature)
	}
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("config: max-tokens must be > 0")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("config: timeout must be >= 0")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("config: retries must be >= 0")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("config: cache-size must be >= 0")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0")
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	for _, s := range cfg.Resolve.Strategies {
		if resolve.Method(s) == resolve.MethodAssigned {
			return fmt.Errorf("config: resolve: %q is set by the runner and cannot be configured", s)
		}
	}
	if _, err := resolve.FromNames(cfg.Resolve.Strategies); err != nil {
		return fmt.Errorf("config: resolve: %w", err)
	}

	m := cfg.Structure.Marker
	if strings.Contains(m, "/") || strings.Contains(m, string(filepath.Separator)) || m == "." || m == ".." {
		return fmt.Errorf("config: structure: marker %q must be a plain file name", m)
	}

	for stage, prompt := range cfg.Stages {
		if !isStage(stage) {
			return fmt.Errorf("config: stages: unknown stage %q (must be one of %s)", stage, strings.Join(StageNames, ", "))
		}
		if prompt == "" {
			return fmt.Errorf("config: stage %q: prompt path is empty", stage)
		}
		promptPath := cfg.StagePrompt(projectRoot, stage)
		if _, err := os.Stat(promptPath); err != nil {
			return fmt.Errorf("config: stage %q: prompt file %q not found", stage, promptPath)
		}
	}

	return nil
}

// StageIndex returns the index of the named stage, or -1 if not found.
func StageIndex(name string) int {
	for i, s := range StageNames {
		if s == name {
			return i
		}
	}
	return -1
}

func isStage(name string) bool {
	return StageIndex(name) >= 0
}
