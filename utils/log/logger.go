package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

var logger *zap.Logger

func init() {
	logger = newLogger(os.Getenv("DEBUG") == "true")
}

func newLogger(debug bool) *zap.Logger {
	var l *zap.Logger
	if debug {
		l, _ = zap.NewDevelopment()
	} else {
		l, _ = zap.NewProduction()
	}
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Setup replaces the package logger once configuration is known. When file is
// set, JSON entries are also written to a rotated log file.
func Setup(debug bool, file string) {
	l := newLogger(debug)
	if file != "" {
		fileCore := newFileCore(debug, file)
		l = l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}
	logger = l
}

// SetupFileOnly is for interactive programs that own the terminal: entries go
// to the rotated file, or nowhere when file is empty.
func SetupFileOnly(debug bool, file string) {
	if file == "" {
		logger = zap.NewNop()
		return
	}
	logger = zap.New(newFileCore(debug, file))
}

func newFileCore(debug bool, file string) zapcore.Core {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		rotated,
		level,
	)
}

// Sync flushes buffered entries.
func Sync() {
	_ = logger.Sync()
}

// ContextWithRequestID tags ctx so that WithCtx loggers carry the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("request_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
