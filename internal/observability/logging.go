package observability

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/model"
)

// ServiceName identifies this service in logs and traces.
const ServiceName = "shinsei"

// NewLogger builds the service logger: JSON on stdout with ISO8601
// timestamps, tagged with the service name and build version. An unknown
// level falls back to info.
//
// Level conventions:
//   - error: infrastructure failures (session store down, panics)
//   - warn:  degraded operation (postal breaker open, directory record missing)
//   - info:  login and logout, workflow mounts, submissions
//   - debug: cache hits, dropped lookup outcomes, rejected request bodies
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if l, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		level = l
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig = enc
	zc.Sampling = nil
	zc.OutputPaths = []string{"stdout"}

	return zc.Build(zap.Fields(
		zap.String("service", ServiceName),
		zap.String("version", Version),
	))
}

// RequestLogger returns base tagged with the session, user and correlation
// of the request. The trace id falls back to the active span.
func RequestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	rctx := model.RequestContextFrom(ctx)
	if rctx == nil {
		return base
	}

	fields := []zap.Field{
		zap.String("session_id", rctx.SessionID),
		zap.String("user_id", rctx.UserID),
		zap.String("correlation_id", rctx.CorrelationID),
	}
	traceID := rctx.TraceID
	if traceID == "" {
		traceID = TraceIDFromContext(ctx)
	}
	if traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	return base.With(fields...)
}

const redactedValue = "[REDACTED]"

// alwaysRedacted lists body keys whose values never reach a log.
var alwaysRedacted = []string{"password", "secret", "token", "authorization", "cookie"}

// RedactBody returns a copy of a decoded JSON body, for debug logs, with the
// values of sensitive keys replaced. Keys match case-insensitively and extra
// adds to the built-in list. Nested objects and arrays are walked.
func RedactBody(body map[string]any, extra ...string) map[string]any {
	if body == nil {
		return nil
	}
	keys := append(slices.Clone(alwaysRedacted), extra...)
	return redactObject(body, keys)
}

func redactObject(obj map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if slices.ContainsFunc(keys, func(s string) bool { return strings.EqualFold(s, k) }) {
			out[k] = redactedValue
			continue
		}
		out[k] = redactValue(v, keys)
	}
	return out
}

func redactValue(v any, keys []string) any {
	switch t := v.(type) {
	case map[string]any:
		return redactObject(t, keys)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e, keys)
		}
		return out
	default:
		return v
	}
}
