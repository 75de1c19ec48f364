package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Development mode writes a console
// encoder at debug level; otherwise JSON at the requested level. When file
// is non-empty, logs also go there and its directory is created on demand.
func NewLogger(level string, development bool, file string) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level.SetLevel(lvl)
	}

	if file != "" {
		if dir := filepath.Dir(file); !PathExists(dir) {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	return cfg.Build()
}
