package queue

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// zapLoggerAdapter bridges watermill's logging interface onto the
// application's zap logger. Watermill's trace level maps to debug.
type zapLoggerAdapter struct {
	log *zap.SugaredLogger
}

func newZapLoggerAdapter(log *zap.SugaredLogger) watermill.LoggerAdapter {
	return &zapLoggerAdapter{log: log}
}

func (a *zapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(flatten(fields), "error", err)...)
}

func (a *zapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, flatten(fields)...)
}

func (a *zapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, flatten(fields)...)
}

func (a *zapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, flatten(fields)...)
}

func (a *zapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapLoggerAdapter{log: a.log.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
