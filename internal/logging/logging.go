package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures process logging.
type Options struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init routes the global logrus logger to stdout and a per-run rotating log
// file (run-YYYY-MM-DD_HH-MM-SS.log). Returns the log file path.
func Init(opts Options) (string, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	logFile := filepath.Join(opts.Dir, fmt.Sprintf("run-%s.log", time.Now().Format("2006-01-02_15-04-05")))

	fileWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	logrus.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logFile, nil
}
