package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// newLogger builds a zap logger that writes JSON lines to logDir/pkm.log
// and a console rendering to stderr, colored when stderr is a terminal.
// Every entry carries the operation id. The returned file must be closed
// after the logger is synced.
func newLogger(logDir, level, opID string) (*zap.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "pkm.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	lvl := zap.NewAtomicLevelAt(parseLevel(level))

	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(os.Stderr.Fd())) {
		consoleEnc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(f), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stderr), lvl),
	)
	logger := zap.New(core, zap.AddStacktrace(zapcore.FatalLevel)).With(zap.String("op", opID))
	return logger, f, nil
}

// parseLevel maps a config level name onto zap, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// zapAdapter wraps *zap.SugaredLogger to satisfy pkm.Logger.
type zapAdapter struct {
	l *zap.SugaredLogger
}

func newZapAdapter(l *zap.Logger) *zapAdapter {
	return &zapAdapter{l: l.Sugar()}
}

func (a *zapAdapter) Debug(msg string, kv ...any) { a.l.Debugw(msg, kv...) }
func (a *zapAdapter) Info(msg string, kv ...any)  { a.l.Infow(msg, kv...) }
func (a *zapAdapter) Warn(msg string, kv ...any)  { a.l.Warnw(msg, kv...) }
func (a *zapAdapter) Error(msg string, kv ...any) { a.l.Errorw(msg, kv...) }
