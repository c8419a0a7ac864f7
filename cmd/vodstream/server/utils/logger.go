package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
	LevelFatal = zapcore.FatalLevel
)

var (
	globalLevel  = zap.NewAtomicLevelAt(LevelInfo)
	globalLogger *logger
)

func init() {
	globalLogger = newLogger(globalLevel)
}

func newLogger(lv zap.AtomicLevel) *logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lv
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &logger{SugaredLogger: l.Sugar()}
}

type logger struct {
	*zap.SugaredLogger
}

// Warningf makes logger usable as badger logger
func (l *logger) Warningf(s string, i ...interface{}) {
	l.SugaredLogger.Warnf(s, i...)
}

// With returns child logger with key value pairs attached
func (l *logger) With(args ...interface{}) *logger {
	return &logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

func Logger() *logger {
	return globalLogger
}

// SetLevel changes level of the global logger and all its children
func SetLevel(lv LogLevel) {
	globalLevel.SetLevel(lv)
}

// ParseLevel accepts debug, info, warn, error and fatal
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}
