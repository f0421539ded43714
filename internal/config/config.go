// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAnkiConnectURL = "http://localhost:8765"
	DefaultDeckName       = "Immersion"
	DefaultModelName      = "Immersion"
	DefaultTimeout        = 10 * time.Second
)

var DefaultTags = []string{"Immersion", "from::KanKenDeck"}

type Config struct {
	AnkiConnectURL string        `yaml:"anki_connect_url"`
	Timeout        time.Duration `yaml:"timeout"`
	DeckName       string        `yaml:"deck_name"`
	ModelName      string        `yaml:"model_name"`
	Tags           []string      `yaml:"tags"`
	Breaker        struct {
		Enabled     bool          `yaml:"enabled"`
		MaxFailures uint32        `yaml:"max_failures"`
		OpenTimeout time.Duration `yaml:"open_timeout"`
	} `yaml:"breaker"`
	// RetainPrevious starts the session keeping each submitted card as the
	// base for the next fire.
	RetainPrevious bool `yaml:"retain_previous"`
	Verbose        bool `yaml:"verbose"`
}

// Default is the configuration used when no file is given. The breaker is
// off unless a config file enables it.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AnkiConnectURL == "" {
		c.AnkiConnectURL = DefaultAnkiConnectURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DeckName == "" {
		c.DeckName = DefaultDeckName
	}
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	if len(c.Tags) == 0 {
		c.Tags = append([]string(nil), DefaultTags...)
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 3
	}
	if c.Breaker.OpenTimeout <= 0 {
		c.Breaker.OpenTimeout = 30 * time.Second
	}
}
