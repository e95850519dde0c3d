package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = newTextLogger(os.Stderr)

	// LOG_LEVEL wins until the config or a flag says otherwise
	SetLevel(os.Getenv("LOG_LEVEL"))
}

func newTextLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetLevel sets the global level by name. Unknown names fall back to info.
func SetLevel(level string) {
	Logger.SetLevel(ParseLevel(level))
}

// SetOutput redirects the global logger.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// WithPrefix returns a child logger. It copies the global output and level as
// they are at the time of the call.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}

// SetupFileLogging tees log output to path. The caller closes the returned file.
func SetupFileLogging(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	Logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// SetUINotifier replaces the global logger with one that hands every record to
// fn instead of writing text. Loggers obtained from WithPrefix before the call
// keep their old output. The returned func restores a stderr text logger.
func SetUINotifier(fn func(level, message string)) (restore func()) {
	level := Logger.GetLevel()
	pr, pw := io.Pipe()

	Logger = log.NewWithOptions(pw, log.Options{
		Formatter: log.JSONFormatter,
		Level:     level,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardRecords(pr, fn)
	}()

	return func() {
		Logger = newTextLogger(os.Stderr)
		Logger.SetLevel(level)
		pw.Close()
		<-done
	}
}

// forwardRecords decodes JSON log lines from r until EOF.
func forwardRecords(r io.Reader, fn func(level, message string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var rec map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			fn("info", scanner.Text())
			continue
		}
		fn(fmt.Sprint(rec["level"]), formatRecord(rec))
	}
}

func formatRecord(rec map[string]interface{}) string {
	msg := fmt.Sprint(rec["msg"])
	if prefix, ok := rec["prefix"].(string); ok && prefix != "" {
		msg = prefix + ": " + msg
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		switch k {
		case "level", "msg", "prefix", "time":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		msg += fmt.Sprintf(" %s=%v", k, rec[k])
	}
	return msg
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
