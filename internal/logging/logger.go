// Package logging wraps zap behind a small key/value API. One run writes a
// short summary to the console and a detailed JSON log to a timestamped file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
)

// Options controls where a run logs to.
type Options struct {
	Dir     string    // directory for the file sink, created if missing
	Level   string    // file sink level; the console always logs at info
	Console io.Writer // defaults to os.Stdout
	Now     time.Time // timestamp used in the file name; defaults to time.Now()
}

type Logger struct {
	zap    *zap.Logger
	file   *os.File
	path   string
	level  Level
	closed atomic.Bool
}

// New opens the log file and builds a console + file logger.
func New(opts Options) (*Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", opts.Level)
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create log dir %s", opts.Dir)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	path := filepath.Join(opts.Dir, "padel_etl_"+now.Format("20060102_150405")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(zapcore.AddSync(console)), LevelInfo),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.Lock(f), level),
	)

	return &Logger{
		zap:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		file:  f,
		path:  path,
		level: level,
	}, nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    "func",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewFromCore wraps an existing zap core, such as a zaptest observer. The
// logger has no file sink.
func NewFromCore(core zapcore.Core) *Logger {
	return &Logger{
		zap:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		level: LevelDebug,
	}
}

func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Path returns the file the logger writes to, or "" for a nop logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Level returns the file sink level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelInfo
	}
	return l.level
}

// Close flushes buffered entries and closes the log file. Safe to call twice.
func (l *Logger) Close() error {
	if l == nil || l.zap == nil {
		return nil
	}
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = l.zap.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return NewNop()
	}
	return &Logger{
		zap:   l.zap.With(zapFields(args)...),
		file:  l.file,
		path:  l.path,
		level: l.level,
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(zap.DebugLevel, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(zap.InfoLevel, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(zap.WarnLevel, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(zap.ErrorLevel, msg, args...)
}

func (l *Logger) log(level zapcore.Level, msg string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	if ce := l.zap.Check(level, msg); ce != nil {
		ce.Write(zapFields(args)...)
	}
}

func zapFields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg"
		}

		if i+1 >= len(args) {
			out = append(out, zap.Any(key, nil))
			break
		}

		value := args[i+1]
		if err, ok := value.(error); ok {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, value))
	}

	return out
}
