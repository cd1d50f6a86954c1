// pkg/logger/logger.go

package logger

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process logger. Falls back to a console logger if nothing
// has been initialized yet, so library code never receives nil.
func L() *zap.Logger {
	if log == nil {
		SetLogger(NewFallbackLogger())
	}
	return log
}

// SetLogger installs l as the process logger for zap.L(), otelzap.Ctx and L().
func SetLogger(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// Sync flushes any buffered log entries. Should be called before the application exits.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
