package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by every package in the api service. The level comes
// from LOG_LEVEL at startup; output goes to stdout so container runtimes
// collect it.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu    sync.RWMutex
	out   = log.New(os.Stdout, "", 0)
	level = LevelInfo
)

// Init sets the global level from its textual name (case-insensitive).
// Unknown names fall back to info.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", 0)
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func emit(lvl Level, tag, format string, v ...interface{}) {
	if !enabled(lvl) {
		return
	}
	prefix := time.Now().UTC().Format(time.RFC3339) + " [" + tag + "] "
	mu.RLock()
	l := out
	mu.RUnlock()
	l.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) { emit(LevelDebug, "DEBUG", format, v...) }
func Infof(format string, v ...interface{})  { emit(LevelInfo, "INFO", format, v...) }
func Warnf(format string, v ...interface{})  { emit(LevelWarn, "WARN", format, v...) }
func Errorf(format string, v ...interface{}) { emit(LevelError, "ERROR", format, v...) }

// Fatalf logs unconditionally and exits.
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := out
	mu.RUnlock()
	l.Printf(time.Now().UTC().Format(time.RFC3339)+" [FATAL] "+format, v...)
	os.Exit(1)
}

// Single-string convenience variants.
func Debug(msg string) { Debugf("%s", msg) }
func Info(msg string)  { Infof("%s", msg) }
func Warn(msg string)  { Warnf("%s", msg) }
func Error(msg string) { Errorf("%s", msg) }

// LevelString reports the active level name.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	for name, l := range map[string]Level{
		"debug": LevelDebug, "info": LevelInfo, "warn": LevelWarn,
		"error": LevelError, "fatal": LevelFatal,
	} {
		if l == level {
			return name
		}
	}
	return fmt.Sprintf("level(%d)", level)
}
