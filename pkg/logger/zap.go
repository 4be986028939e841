package logger

import (
	"go.uber.org/zap"
)

var zapLogger *zap.Logger

// ReplaceLogger installs a configured zap logger as the global backend.
func ReplaceLogger(logger *zap.Logger) {
	zapLogger = logger
	globalLogger = zapBackend{sugar: logger.Sugar()}
}

// GetLogger returns the underlying zap logger, or a nop one before
// ReplaceLogger has been called.
func GetLogger() *zap.Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return zapLogger
}

type zapBackend struct {
	sugar *zap.SugaredLogger
}

func (l zapBackend) Debug(v ...interface{})                 { l.sugar.Debug(v...) }
func (l zapBackend) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l zapBackend) Info(v ...interface{})                  { l.sugar.Info(v...) }
func (l zapBackend) Infof(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l zapBackend) Warn(v ...interface{})                  { l.sugar.Warn(v...) }
func (l zapBackend) Warnf(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l zapBackend) Error(v ...interface{})                 { l.sugar.Error(v...) }
func (l zapBackend) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }
func (l zapBackend) Fatal(v ...interface{})                 { l.sugar.Fatal(v...) }
func (l zapBackend) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }
