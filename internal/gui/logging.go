package gui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kpauljoseph/ankicopycard/pkg/logger"
)

const logPrefix = "[ankicopycard-gui] "

// SetupLogging creates a timestamped log file under ankicopycard-logs and
// returns a logger writing to both it and stdout.
func SetupLogging(verbose bool) (*logger.Logger, string, error) {
	logsDir := "ankicopycard-logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFileName := filepath.Join(logsDir, fmt.Sprintf("ankicopycard_%s.log", timestamp))

	absLogPath, err := filepath.Abs(logFileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	logFile, err := os.Create(absLogPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log := logger.New(
		logger.WithPrefix(logPrefix),
		logger.WithOutput(multiWriter),
		logger.WithVerbose(verbose),
	)

	return log, absLogPath, nil
}

// FallbackLogger is used when the log file cannot be created.
func FallbackLogger(verbose bool) *logger.Logger {
	return logger.New(logger.WithPrefix(logPrefix), logger.WithVerbose(verbose))
}
