package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/forge/internal/resolve"
)

const (
	Dir      = ".forge"
	FileName = "config.yaml"
)

// StageNames lists the workflow stages in run order.
var StageNames = []string{"requirements", "design", "structure", "files"}

type Resolve struct {
	Strategies []string `yaml:"strategies"`
}

type Structure struct {
	Enabled bool   `yaml:"enabled"`
	Marker  string `yaml:"marker"`
}

type Config struct {
	Name         string            `yaml:"name"`
	Backend      string            `yaml:"backend"`
	Model        string            `yaml:"model"`
	Output       string            `yaml:"output"`
	Temperature  float64           `yaml:"temperature"`
	MaxTokens    int               `yaml:"max-tokens"`
	Timeout      int               `yaml:"timeout"`
	Retries      int               `yaml:"retries"`
	CacheSize    int               `yaml:"cache-size"`
	Workers      int               `yaml:"workers"`
	FinalNewline bool              `yaml:"final-newline"`
	CarryHistory bool              `yaml:"carry-history"`
	Resolve      Resolve           `yaml:"resolve"`
	Structure    Structure         `yaml:"structure"`
	Stages       map[string]string `yaml:"stages"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Name:        "forge",
		Backend:     "claude",
		Output:      "generated_code",
		Temperature: 0.2,
		MaxTokens:   4096,
		Timeout:     10,
		Retries:     3,
		CacheSize:   128,
		Workers:     1,
		Structure:   Structure{Enabled: true, Marker: "__init__.py"},
	}
}

// Path returns the config file location under projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Load reads a YAML config file over the defaults, applies environment
// overrides, and validates the result.
func Load(path, projectRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	if err := Validate(cfg, projectRoot); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProject loads the project's config file, or the defaults when the
// project has none. A .env file in projectRoot is loaded first.
func LoadProject(projectRoot string) (*Config, error) {
	if err := LoadEnvFile(projectRoot); err != nil {
		return nil, err
	}
	cfg, err := Load(Path(projectRoot), projectRoot)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		ApplyEnv(cfg)
		return cfg, Validate(cfg, projectRoot)
	}
	return cfg, err
}

// LoadEnvFile loads projectRoot/.env into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadEnvFile(projectRoot string) error {
	path := filepath.Join(projectRoot, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides the backend and model from FORGE_BACKEND and
// FORGE_MODEL.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("FORGE_BACKEND"); v != "" {
		if v != cfg.Backend {
			cfg.Model = ""
		}
		cfg.Backend = v
	}
	if v := os.Getenv("FORGE_MODEL"); v != "" {
		cfg.Model = v
	}
}

// CompletionTimeout is the per-call limit.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Minute
}

// OutputDir resolves the output root against projectRoot.
func (c *Config) OutputDir(projectRoot string) string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(projectRoot, c.Output)
}

// Chain builds the configured resolver chain.
func (c *Config) Chain() (*resolve.Chain, error) {
	return resolve.FromNames(c.Resolve.Strategies)
}

// StagePrompt returns the prompt override path for stage, or "".
func (c *Config) StagePrompt(projectRoot, stage string) string {
	p, ok := c.Stages[stage]
	if !ok || p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectRoot, p)
}

// StrategyNames lists the configured resolver strategies, or the defaults.
func (r Resolve) StrategyNames() []string {
	if len(r.Strategies) > 0 {
		return r.Strategies
	}
	names := make([]string, len(resolve.DefaultStrategies))
	for i, m := range resolve.DefaultStrategies {
		names[i] = string(m)
	}
	return names
}
