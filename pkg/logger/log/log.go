// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package log

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields map[string]interface{}

// Config controls the global logger. Zero value logs text to stderr at info.
type Config struct {
	Level      string `json:"level" yaml:"level"`             // trace/debug/info/warn/error
	Format     string `json:"format" yaml:"format"`           // text or json
	FilePath   string `json:"file_path" yaml:"file_path"`     // empty means stderr only
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"` // rotation threshold
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "text"}
}

// Logger is the leveled logging surface used across the codebase.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithContext(ctx context.Context) Logger
	WithFields(fields Fields) Logger
}

type logrusWrapper struct {
	entry *logrus.Entry
}

func (l *logrusWrapper) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }
func (l *logrusWrapper) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusWrapper) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusWrapper) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusWrapper) Warningf(format string, args ...interface{}) {
	l.entry.Warningf(format, args...)
}
func (l *logrusWrapper) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusWrapper) WithContext(ctx context.Context) Logger {
	return &logrusWrapper{entry: l.entry.WithContext(ctx)}
}

func (l *logrusWrapper) WithFields(fields Fields) Logger {
	return &logrusWrapper{entry: l.entry.WithFields(logrus.Fields(fields))}
}

var globalLogger Logger
var ErrorLoggerNotInitialize = fmt.Errorf("Logger not initialized")

func init() {
	_ = InitGlobalLogger(DefaultConfig())
}

func InitGlobalLogger(conf *Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch conf.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if conf.FilePath != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   conf.FilePath,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	globalLogger = &logrusWrapper{entry: logrus.NewEntry(l)}
	return nil
}

func GlobalLogger() Logger {
	if globalLogger == nil {
		panic(ErrorLoggerNotInitialize)
	}
	return globalLogger
}

func SetGlobalLogger(logger Logger) {
	globalLogger = logger
}

func Trace(args ...interface{}) {
	GlobalLogger().Tracef("%s", fmt.Sprint(args...))
}

func Tracef(template string, args ...interface{}) {
	GlobalLogger().Tracef(template, args...)
}

func Debug(args ...interface{}) {
	GlobalLogger().Debugf("%s", fmt.Sprint(args...))
}

func Debugf(template string, args ...interface{}) {
	GlobalLogger().Debugf(template, args...)
}

func Info(args ...interface{}) {
	GlobalLogger().Infof("%s", fmt.Sprint(args...))
}

func Infof(template string, args ...interface{}) {
	GlobalLogger().Infof(template, args...)
}

func Warn(args ...interface{}) {
	GlobalLogger().Warnf("%s", fmt.Sprint(args...))
}

func Warnf(template string, args ...interface{}) {
	GlobalLogger().Warnf(template, args...)
}

func Error(args ...interface{}) {
	GlobalLogger().Errorf("%s", fmt.Sprint(args...))
}

func Errorf(template string, args ...interface{}) {
	GlobalLogger().Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	GlobalLogger().Errorf("%s", fmt.Sprint(args...))
	os.Exit(1)
}

func Fatalf(template string, args ...interface{}) {
	GlobalLogger().Errorf(template, args...)
	os.Exit(1)
}
