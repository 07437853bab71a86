package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Instance *zap.Logger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			level.SetLevel(zapcore.InfoLevel)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	Instance = zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(os.Stderr),
			level,
		),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
}

// SetLevel changes the level of the process-wide logger at runtime.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Level() zapcore.Level {
	return level.Level()
}

func Debug(msg string, fields ...zap.Field) {
	Instance.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Instance.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Instance.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Instance.Error(msg, fields...)
}

// Panic logs the message and panics. Use it for broken internal invariants only.
func Panic(msg string, fields ...zap.Field) {
	Instance.Panic(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Instance.Fatal(msg, fields...)
}

func Sync() {
	_ = Instance.Sync()
}
