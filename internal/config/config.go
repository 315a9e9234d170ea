// Package config loads and validates ARC Reactor CAD configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ARC Reactor CAD configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Design persistence
	Storage StorageConfig `yaml:"storage"`

	// Diagram rendering
	Render RenderConfig `yaml:"render"`

	// Simulation
	Simulation SimulationConfig `yaml:"simulation"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// StorageConfig configures the design store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RenderConfig configures SVG output.
type RenderConfig struct {
	Scale     float64 `yaml:"scale"`
	PinLabels bool    `yaml:"pin_labels"`
}

// SimulationConfig configures the step simulator.
type SimulationConfig struct {
	PropagationSweeps int    `yaml:"propagation_sweeps"`
	StepInterval      string `yaml:"step_interval"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ARC Reactor CAD",
		Version: "1.0.0",

		LLM: LLMConfig{
			Model:           "gemini-2.5-pro",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "120s",
			MaxOutputTokens: 8192,
		},

		Storage: StorageConfig{
			DatabasePath: "data/arcreactor.db",
		},

		Render: RenderConfig{
			Scale:     1.0,
			PinLabels: true,
		},

		Simulation: SimulationConfig{
			PropagationSweeps: 5,
			StepInterval:      "250ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("ARC_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("ARC_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetStepInterval returns the simulation step interval as a duration.
func (c *Config) GetStepInterval() time.Duration {
	d, err := time.ParseDuration(c.Simulation.StepInterval)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// Validate validates the configuration. AI-backed commands require an API
// key; the deterministic commands (verify, simulate, render, local codegen)
// do not, so callers gate on RequireAPIKey instead of calling this blindly.
func (c *Config) Validate() error {
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database path not configured")
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("render scale must be positive, got %v", c.Render.Scale)
	}
	if c.Simulation.PropagationSweeps <= 0 {
		return fmt.Errorf("simulation propagation sweeps must be positive, got %d", c.Simulation.PropagationSweeps)
	}
	return nil
}

// RequireAPIKey returns an error when no Gemini key is configured.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY or llm.api_key)")
	}
	return nil
}
