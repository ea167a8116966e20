package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log глобальный логгер сервиса. До вызова Init пишет в никуда,
	// поэтому пакеты можно использовать в тестах без инициализации.
	Log = zap.NewNop()
)

// Init инициализирует глобальный логгер с указанным уровнем
func Init(level string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": "fala-icara"},
	}

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	Log = logger
	return nil
}

// Sync сбрасывает буферы логгера, ошибку синхронизации stdout игнорируем
func Sync() {
	_ = Log.Sync()
}

// WithContext возвращает логгер с дополнительными полями
func WithContext(fields ...zapcore.Field) *zap.Logger {
	return Log.With(fields...)
}

// Named возвращает дочерний логгер для компонента
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

func Debug(msg string, fields ...zapcore.Field) {
	Log.Debug(msg, fields...)
}

func Info(msg string, fields ...zapcore.Field) {
	Log.Info(msg, fields...)
}

func Warn(msg string, fields ...zapcore.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zapcore.Field) {
	Log.Error(msg, fields...)
}

// Fatal логирует сообщение и завершает процесс
func Fatal(msg string, fields ...zapcore.Field) {
	Log.Fatal(msg, fields...)
	os.Exit(1)
}

// Field создает произвольное поле для логирования
func Field(key string, value interface{}) zapcore.Field {
	return zap.Any(key, value)
}
