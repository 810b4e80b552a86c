// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 7)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if hook := HookFromContext(ctx); hook != "" {
		fields = append(fields, zap.String("hook", hook))
	}
	if userID := UserIDFromContext(ctx); userID != "" {
		fields = append(fields, zap.String("user.id", userID))
	}
	if skillID := SkillIDFromContext(ctx); skillID != "" {
		fields = append(fields, zap.String("skill.id", skillID))
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}

type hookCtxKey struct{}
type userCtxKey struct{}
type skillCtxKey struct{}
type requestCtxKey struct{}

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// ValidateID checks that an identifier is safe to log and to use as a
// subject token.
func ValidateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", name)
	}
	return nil
}

// withID stores id under key. Invalid ids are not attached.
func withID(ctx context.Context, key any, id, name string) context.Context {
	if ValidateID(id, name) != nil {
		return ctx
	}
	return context.WithValue(ctx, key, id)
}

func stringFrom(ctx context.Context, key any) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// WithHook records the lifecycle hook being executed.
func WithHook(ctx context.Context, hook string) context.Context {
	return withID(ctx, hookCtxKey{}, hook, "hook")
}

func HookFromContext(ctx context.Context) string { return stringFrom(ctx, hookCtxKey{}) }

// WithUserID records the learner the request acts for.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withID(ctx, userCtxKey{}, userID, "userID")
}

func UserIDFromContext(ctx context.Context) string { return stringFrom(ctx, userCtxKey{}) }

// WithSkillID records the skill being invoked.
func WithSkillID(ctx context.Context, skillID string) context.Context {
	return withID(ctx, skillCtxKey{}, skillID, "skillID")
}

func SkillIDFromContext(ctx context.Context) string { return stringFrom(ctx, skillCtxKey{}) }

// WithRequestID adds request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withID(ctx, requestCtxKey{}, requestID, "requestID")
}

func RequestIDFromContext(ctx context.Context) string { return stringFrom(ctx, requestCtxKey{}) }

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
