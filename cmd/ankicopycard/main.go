package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/kpauljoseph/ankicopycard/internal/cli"
	"github.com/kpauljoseph/ankicopycard/internal/gui"
	"github.com/kpauljoseph/ankicopycard/internal/pipeline"
	"github.com/kpauljoseph/ankicopycard/internal/session"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/version"
)

func main() {
	flags := cli.NewFlags()
	rootCmd := cli.CreateRootCommand(flags, runGUI)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func runGUI(flags *cli.Flags) error {
	cfg, err := flags.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, logFileName, err := gui.SetupLogging(cfg.Verbose)
	if err != nil {
		log = gui.FallbackLogger(cfg.Verbose)
		log.Info("Warning: Failed to set up logging: %v", err)
	} else {
		log.Info("Logging to %s", logFileName)
	}
	if flags.Debug {
		log.SetLevel(logger.LevelTrace)
	}

	service := flags.NewService(cfg, log)
	if err := service.CheckConnection(context.Background()); err != nil {
		log.Info("%v", err)
	}

	gui.New(log, pipeline.New(service, log),
		session.WithRetainPrevious(cfg.RetainPrevious),
	).Run()
	return nil
}
