package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fyrsmithlabs/learnhooks/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, level zapcore.Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = level
	cfg.Caller = false
	cfg.Output = &buf
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_JSONOutput(t *testing.T) {
	logger, buf := newBufferLogger(t, zapcore.InfoLevel)

	logger.Info(context.Background(), "hook executed", zap.String("result", "ok"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "hook executed", entry["msg"])
	assert.Equal(t, "ok", entry["result"])
	assert.Equal(t, "learnhooks", entry["service"])
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg)
	require.Error(t, err)

	cfg = NewDefaultConfig()
	cfg.Fields = map[string]string{"env": ""}
	_, err = NewLogger(cfg)
	require.Error(t, err)
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, zapcore.WarnLevel)

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden too")
	assert.Zero(t, buf.Len())

	logger.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_TraceLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, TraceLevel)

	logger.Trace(context.Background(), "host call")

	entry := decodeLine(t, buf)
	assert.Equal(t, "trace", entry["level"])
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	logger, buf := newBufferLogger(t, zapcore.InfoLevel)

	logger.Info(context.Background(), "connecting",
		zap.String("nats_token", "abc123"),
		zap.String("url", "nats://localhost:4222"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "[REDACTED]", entry["nats_token"])
	assert.Equal(t, "nats://localhost:4222", entry["url"])
}

func TestSecretField(t *testing.T) {
	logger := NewTestLogger()
	logger.Info(context.Background(), "events configured", Secret("creds", config.Secret("s3cret")))

	logger.AssertField(t, "events configured", "creds", "[REDACTED:6]")
}

func TestContextFields(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	ctx, span := tp.Tracer("test").Start(context.Background(), "hook")
	defer span.End()

	ctx = WithHook(ctx, "on-skill-invoke")
	ctx = WithUserID(ctx, "u_42")
	ctx = WithSkillID(ctx, "go-testing")
	ctx = WithRequestID(ctx, "req-1")

	logger := NewTestLogger()
	logger.Info(ctx, "invoked")

	logger.AssertField(t, "invoked", "hook", "on-skill-invoke")
	logger.AssertField(t, "invoked", "user.id", "u_42")
	logger.AssertField(t, "invoked", "skill.id", "go-testing")
	logger.AssertField(t, "invoked", "request.id", "req-1")
	logger.AssertField(t, "invoked", "trace_id", span.SpanContext().TraceID().String())
}

func TestWithID_RejectsInvalid(t *testing.T) {
	ctx := WithUserID(context.Background(), "bad user\n")
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithSkillID(context.Background(), "")
	assert.Empty(t, SkillIDFromContext(ctx))

	assert.Error(t, ValidateID("a*b", "id"))
	assert.NoError(t, ValidateID("skill.go-testing_1", "id"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)
	FromContext(ctx).Info(ctx, "from context")
	logger.AssertLogged(t, zapcore.InfoLevel, "from context")
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"trace": TraceLevel,
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := LevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LevelFromString("loud")
	assert.Error(t, err)
}
