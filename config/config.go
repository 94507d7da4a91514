// Package config loads the run configuration of the stepchain CLI and
// server from YAML, applying defaults and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/stepchain/core"
	"github.com/hupe1980/stepchain/prompts"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Environment variables overriding the file configuration.
const (
	EnvProvider = "STEPCHAIN_PROVIDER"
	EnvModel    = "STEPCHAIN_MODEL"
)

var (
	// ErrUnknownProvider is returned for a provider other than the supported ones.
	ErrUnknownProvider = errors.New("config: unknown provider")
	// ErrInvalidRoster is returned for an empty roster or bad agent names.
	ErrInvalidRoster = errors.New("config: invalid agent roster")
)

// Config describes one pipeline deployment.
type Config struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	// SummaryModel is used for the plain-language summary; Model when empty.
	SummaryModel string `yaml:"summary_model,omitempty" json:"summary_model,omitempty"`
	// Endpoint overrides the provider base URL.
	Endpoint      string           `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Temperature   *float64         `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens     int64            `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	MaxIterations int              `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	CodeLanguage  string           `yaml:"code_language,omitempty" json:"code_language,omitempty"`
	Agents        []core.AgentSpec `yaml:"agents,omitempty" json:"agents,omitempty"`
}

// Default returns the built-in configuration: OpenAI with the four-stage
// default roster.
func Default() *Config {
	return &Config{
		Provider:      ProviderOpenAI,
		Model:         "gpt-4o-mini",
		MaxIterations: 20,
		CodeLanguage:  "python",
		Agents:        prompts.DefaultRoster(),
	}
}

// Load reads path on top of Default, applies environment overrides and then
// overrides in order, and validates the result. An empty path yields the
// defaults. Agents given in the file replace the default roster as a whole.
// Callers pass explicit settings such as command-line flags as overrides so
// they win over file and environment before anything is validated.
func Load(path string, overrides ...func(c *Config)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	for _, fn := range overrides {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, overwriting only the keys present.
func Parse(data []byte, cfg *Config) error {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	cfg.merge(file)
	return nil
}

func (c *Config) merge(o Config) {
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.SummaryModel != "" {
		c.SummaryModel = o.SummaryModel
	}
	if o.Endpoint != "" {
		c.Endpoint = o.Endpoint
	}
	if o.Temperature != nil {
		c.Temperature = o.Temperature
	}
	if o.MaxTokens != 0 {
		c.MaxTokens = o.MaxTokens
	}
	if o.MaxIterations != 0 {
		c.MaxIterations = o.MaxIterations
	}
	if o.CodeLanguage != "" {
		c.CodeLanguage = o.CodeLanguage
	}
	if len(o.Agents) > 0 {
		c.Agents = o.Agents
	}
}

// ApplyEnv overrides provider and model from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvProvider)); v != "" {
		c.Provider = v
	}
	if v := strings.TrimSpace(getenv(EnvModel)); v != "" {
		c.Model = v
	}
}

// SummaryModelName returns the model used for summaries.
func (c *Config) SummaryModelName() string {
	if c.SummaryModel != "" {
		return c.SummaryModel
	}
	return c.Model
}

// Validate checks the provider and the agent roster.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.Model == "" {
		return errors.New("config: model is required")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("config: max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidRoster)
	}
	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: agent %d has no name", ErrInvalidRoster, i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate agent %q", ErrInvalidRoster, a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}
