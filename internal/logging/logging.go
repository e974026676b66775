/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging constructs the logr.Logger used across the service,
// backed by zap.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
)

// Verbosity levels for logger.V(...) calls. logr maps higher values to
// lower-priority output; zap negates them internally.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// NewLogger creates a production JSON logger at the given verbosity
// level. Level "debug" enables V(DEBUG) output, "trace" enables V(TRACE).
func NewLogger(level string) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		// The production config only fails on invalid sink paths, which
		// we do not set; fall back to a no-op logger instead of dying.
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

// NewDevLogger creates a console-encoded logger for local runs.
func NewDevLogger() logr.Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

// NewTestLogger creates a verbose development logger for tests.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zapcore.Level(-TRACE)
	case "debug":
		return zapcore.Level(-DEBUG)
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
