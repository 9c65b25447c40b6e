// Package log exposes a package-level zap logger so call sites stay short:
//
//	log.Error("load conversation failed", zap.Error(err))
package log

import "go.uber.org/zap"

var logger = zap.Must(zap.NewProduction())

// Replace swaps the underlying logger. Used by the terminal client to route
// output away from the screen tview owns.
func Replace(l *zap.Logger) {
	logger = l
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger.Sync()
}
