package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/model"
)

func TestNewLogger_levels(t *testing.T) {
	tests := []struct {
		level     string
		enabled   zapcore.Level
		disabled  zapcore.Level
		checkLess bool
	}{
		{level: "debug", enabled: zapcore.DebugLevel},
		{level: "info", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel, checkLess: true},
		{level: "warn", enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel, checkLess: true},
		{level: "error", enabled: zapcore.ErrorLevel, disabled: zapcore.WarnLevel, checkLess: true},
		{level: "bogus", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel, checkLess: true},
		{level: "", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel, checkLess: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(config.ObservabilityConfig{LogLevel: tt.level})
			if err != nil {
				t.Fatalf("NewLogger(%q) error = %v", tt.level, err)
			}
			defer logger.Sync()

			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("%s should be enabled", tt.enabled)
			}
			if tt.checkLess && logger.Core().Enabled(tt.disabled) {
				t.Errorf("%s should be disabled", tt.disabled)
			}
		})
	}
}

func TestRequestLogger_sessionFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := model.WithRequestContext(context.Background(), &model.RequestContext{
		SessionID:     "sess-1",
		UserID:        "user123",
		CorrelationID: "corr-abc",
		TraceID:       "trace-xyz",
	})

	RequestLogger(ctx, zap.New(core)).Info("workflow mounted")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]string{
		"session_id":     "sess-1",
		"user_id":        "user123",
		"correlation_id": "corr-abc",
		"trace_id":       "trace-xyz",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %v, want %q", k, fields[k], v)
		}
	}
}

func TestRequestLogger_traceFromSpan(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = model.WithRequestContext(ctx, &model.RequestContext{SessionID: "sess-1", UserID: "user123"})

	RequestLogger(ctx, zap.New(core)).Info("submission accepted")

	if got := logs.All()[0].ContextMap()["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", got)
	}
}

func TestRequestLogger_withoutSession(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	if got := RequestLogger(context.Background(), base); got != base {
		t.Error("without a RequestContext the base logger should be returned")
	}
	RequestLogger(context.Background(), base).Info("login screen served")
	if _, ok := logs.All()[0].ContextMap()["session_id"]; ok {
		t.Error("session_id should be absent without a session")
	}
}

func TestRedactBody_login(t *testing.T) {
	body := map[string]any{"login_id": "jqit@gmail.com", "Password": "password"}

	got := RedactBody(body)
	if got["login_id"] != "jqit@gmail.com" {
		t.Errorf("login_id = %v, want it kept", got["login_id"])
	}
	if got["Password"] != redactedValue {
		t.Errorf("Password = %v, want %s", got["Password"], redactedValue)
	}
	if body["Password"] != "password" {
		t.Error("the original body was modified")
	}
}

func TestRedactBody_extraKeys(t *testing.T) {
	got := RedactBody(map[string]any{"login_id": "jqit@gmail.com", "workflow_id": "wf1_attendance"}, "login_id")
	if got["login_id"] != redactedValue {
		t.Errorf("login_id = %v, want %s", got["login_id"], redactedValue)
	}
	if got["workflow_id"] != "wf1_attendance" {
		t.Errorf("workflow_id = %v", got["workflow_id"])
	}
}

func TestRedactBody_nestedAndArrays(t *testing.T) {
	body := map[string]any{
		"fields": []any{
			map[string]any{"id": "reason", "value": "通院"},
			map[string]any{"id": "x", "token": "abc.def"},
		},
		"session": map[string]any{"secret": "s3cr3t", "driver": "redis"},
	}

	got := RedactBody(body)
	fields := got["fields"].([]any)
	if fields[0].(map[string]any)["value"] != "通院" {
		t.Errorf("fields[0] = %v", fields[0])
	}
	if fields[1].(map[string]any)["token"] != redactedValue {
		t.Errorf("fields[1].token = %v", fields[1])
	}
	session := got["session"].(map[string]any)
	if session["secret"] != redactedValue || session["driver"] != "redis" {
		t.Errorf("session = %v", session)
	}
	if body["fields"].([]any)[1].(map[string]any)["token"] != "abc.def" {
		t.Error("the original nested value was modified")
	}
}

func TestRedactBody_nil(t *testing.T) {
	if got := RedactBody(nil); got != nil {
		t.Errorf("RedactBody(nil) = %v, want nil", got)
	}
}
