package cli

import (
	"io"
	"time"

	"github.com/kpauljoseph/ankicopycard/internal/anki"
	"github.com/kpauljoseph/ankicopycard/internal/config"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
)

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile string
	URL     string
	Verbose bool
	Debug   bool

	// fire flags
	Front      string
	AudioGuide string
	Back       string
	Wait       time.Duration
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Wait: 15 * time.Second,
	}
}

// LoadConfig reads the config file and applies flag overrides.
func (f *Flags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.CfgFile)
	if err != nil {
		return nil, err
	}
	if f.URL != "" {
		cfg.AnkiConnectURL = f.URL
	}
	if f.Verbose || f.Debug {
		cfg.Verbose = true
	}
	return cfg, nil
}

func (f *Flags) newLogger(w io.Writer, cfg *config.Config) *logger.Logger {
	level := logger.LevelInfo
	if f.Debug {
		level = logger.LevelTrace
	}
	return logger.New(
		logger.WithOutput(w),
		logger.WithVerbose(cfg.Verbose),
		logger.WithLevel(level),
	)
}

// NewService builds the AnkiConnect client for cfg.
func (f *Flags) NewService(cfg *config.Config, log *logger.Logger) *anki.Service {
	return anki.NewServiceFromConfig(cfg, log)
}
