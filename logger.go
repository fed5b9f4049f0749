package routing

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	Mode       string `yaml:"mode" json:"mode"` // "debug" logs to the console
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// NewLogger builds the app logger. Without a file path (or when its
// directory can't be created) it writes to stderr.
func NewLogger(cfg LogConfig) zerolog.Logger {
	var writer io.Writer
	if cfg.Mode == "debug" || cfg.FilePath == "" {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	} else if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		writer = os.Stderr
	} else {
		writer = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	return zerolog.New(writer).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// parseLevel falls back to info for unknown or empty levels.
func parseLevel(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
