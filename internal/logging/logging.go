// Package logging configures the installer's rotating log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

// Options controls logger construction.
type Options struct {
	// Verbose also writes log lines to Console.
	Verbose bool
	// Console receives log lines in verbose mode; nil means stderr.
	Console io.Writer
	// RunID labels every line of this run; empty generates one.
	RunID string
}

// Logger is the configured logger together with its controls.
type Logger struct {
	*zap.Logger
	Level  zap.AtomicLevel
	RunID  string
	File   string
	closer io.Closer
}

// ParseLevel maps a configured level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch name {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("invalid log level: %s", name)
	}
}

// Configure builds a logger writing to $STATE_DIR/logs/install.log through a
// rotating file. Every line carries the run id.
func Configure(cfg *config.Config, opts Options) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	file := cfg.Paths().LogFile()
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		LocalTime:  true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(rotating), level),
	}
	if opts.Verbose {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(zapcore.AddSync(console)), level))
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("run_id", runID))

	return &Logger{Logger: logger, Level: level, RunID: runID, File: file, closer: rotating}, nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Nop returns a logger that discards everything, for commands that must
// not create files.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), Level: zap.NewAtomicLevel(), RunID: uuid.NewString()}
}
