package utils

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Logger returns the process logger, building an info-level stdout logger on
// first use if Setup was never called.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = build(zapcore.InfoLevel, nil)
	}
	return logger
}

// Setup builds the process logger at level, teeing JSON lines into file when
// one is given. An unopenable file falls back to stdout only.
func Setup(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var sink zapcore.WriteSyncer
	var openErr error
	if file != "" {
		_ = os.MkdirAll(filepath.Dir(file), 0o755)
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			openErr = err
		} else {
			sink = zapcore.AddSync(f)
		}
	}
	l := build(lvl, sink)
	if openErr != nil {
		l.Warn("log file unavailable, logging to stdout only", zap.String("file", file), zap.Error(openErr))
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

func build(lvl zapcore.Level, file zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)
	if file != nil {
		core = zapcore.NewTee(zapcore.NewCore(enc, file, lvl), core)
	}
	return zap.New(core, zap.AddCaller())
}
