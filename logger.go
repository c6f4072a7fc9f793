package conduit

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger to Logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{s: l.Sugar()}
}

// NewDevelopmentLogger returns a console logger at debug level.
func NewDevelopmentLogger() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NopLogger()
	}
	return NewZapLogger(l)
}

// NewLogger builds a JSON logger at the given level ("debug", "info", "warn",
// "error"), or a console logger when development is set.
func NewLogger(level string, development bool) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// NopLogger discards everything.
func NopLogger() Logger {
	return NewZapLogger(zap.NewNop())
}

func (l *zapLogger) Debug(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }
func (l *zapLogger) Info(msg string, keysAndValues ...any)  { l.s.Infow(msg, keysAndValues...) }
func (l *zapLogger) Warn(msg string, keysAndValues ...any)  { l.s.Warnw(msg, keysAndValues...) }
func (l *zapLogger) Error(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }

func logRequest(l Logger, requestID, method, url string, headers map[string]string) {
	if l == nil {
		return
	}
	l.Debug("request", "requestID", requestID, "method", method, "url", url, "headers", headers)
}

func logResponse(l Logger, requestID string, status int, headers http.Header) {
	if l == nil {
		return
	}
	l.Debug("response", "requestID", requestID, "status", status, "headers", headers)
}
