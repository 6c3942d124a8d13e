// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger shared by every component.
//
// Logs are JSON lines written to a file. The TUI owns the terminal, so
// nothing is written to stdout or stderr while it runs.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Level is "debug", "info", "warn", "error" or "off".
	Level string

	// File is the log file. Parent directories are created.
	File string

	// Verbose forces debug level.
	Verbose bool
}

// ParseLevel maps a level name to a zap level. ok is false for "off".
func ParseLevel(name string) (level zapcore.Level, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off", "none":
		return zapcore.InfoLevel, false, nil
	case "":
		return zapcore.InfoLevel, true, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zapcore.InfoLevel, false, fmt.Errorf("unknown log level %q", name)
	}
	return level, true, nil
}

// New builds a production-config logger writing to opts.File. A level of
// "off" or an empty file disables logging and returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	level, enabled, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level, enabled = zapcore.DebugLevel, true
	}
	if !enabled || opts.File == "" {
		return zap.NewNop(), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{opts.File}
	config.ErrorOutputPaths = []string{opts.File}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
