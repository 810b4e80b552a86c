package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/learnhooks/internal/hooks"

var (
	// ErrUnknownHook is returned for hook types with no registered handler.
	ErrUnknownHook = errors.New("unknown hook")

	// ErrNoValue is returned when the host answers a query with nothing.
	ErrNoValue = errors.New("host returned no value")

	// ErrAlreadyCompleted is returned by MarkSkillComplete when another
	// invocation completed the skill first. on-skill-invoke then skips the
	// reward and still succeeds.
	ErrAlreadyCompleted = errors.New("skill already completed")
)

// HookType represents a plugin lifecycle point.
type HookType string

const (
	// HookOnLoad runs when the plugin is loaded for a learner.
	HookOnLoad HookType = "on-load"

	// HookOnSkillInvoke runs when a learner opens a skill.
	HookOnSkillInvoke HookType = "on-skill-invoke"
)

// ParseHookType maps a hook name to its type.
func ParseHookType(name string) (HookType, error) {
	switch HookType(name) {
	case HookOnLoad, HookOnSkillInvoke:
		return HookType(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHook, name)
}

// Hooks holds the built-in hook implementations.
type Hooks struct {
	config *Config
	logger *logging.Logger
	now    func() time.Time
}

// Option configures Hooks.
type Option func(*Hooks)

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hooks) { h.now = now }
}

// New creates the built-in hooks. A nil config uses DefaultConfig.
func New(config *Config, logger *logging.Logger, opts ...Option) *Hooks {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Hooks{config: config, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// recoverInto turns a panic inside a host call into a failed result.
func (h *Hooks) recoverInto(ctx context.Context, hook HookType, res *Result) {
	if r := recover(); r != nil {
		err := fmt.Errorf("panic in %s hook: %v", hook, r)
		h.logger.Error(ctx, "hook panicked", zap.Error(err))
		*res = errorResult(err)
	}
}

// Handler runs a hook against a host context.
type Handler func(ctx context.Context, hc Context) Result

// Manager dispatches hooks by type.
type Manager struct {
	config   *Config
	logger   *logging.Logger
	handlers map[HookType]Handler
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewManager creates a manager with the built-in hooks registered.
func NewManager(config *Config, logger *logging.Logger, opts ...Option) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	builtin := New(config, logger, opts...)

	m := &Manager{
		config:   config,
		logger:   logger,
		handlers: make(map[HookType]Handler),
		metrics:  NewMetrics(),
		tracer:   otel.Tracer(instrumentationName),
	}
	m.RegisterHandler(HookOnLoad, func(ctx context.Context, hc Context) Result {
		return builtin.OnLoad(ctx, hc)
	})
	m.RegisterHandler(HookOnSkillInvoke, func(ctx context.Context, hc Context) Result {
		return builtin.OnSkillInvoke(ctx, hc)
	})
	return m
}

// RegisterHandler sets the handler for a hook type, replacing any existing one.
func (m *Manager) RegisterHandler(hookType HookType, handler Handler) {
	m.handlers[hookType] = handler
}

// Has reports whether a handler is registered for hookType.
func (m *Manager) Has(hookType HookType) bool {
	_, ok := m.handlers[hookType]
	return ok
}

// Types returns the registered hook types in sorted order.
func (m *Manager) Types() []HookType {
	types := make([]HookType, 0, len(m.handlers))
	for t := range m.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Execute runs the handler for hookType against hc.
// Failures are reported in the Result, never as a panic.
func (m *Manager) Execute(ctx context.Context, hookType HookType, hc Context) Result {
	ctx, span := m.tracer.Start(ctx, "hooks.Execute",
		trace.WithAttributes(attribute.String("hook.type", string(hookType))))
	defer span.End()

	handler, ok := m.handlers[hookType]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownHook, hookType)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.metrics.RunsTotal.WithLabelValues(string(hookType), outcomeUnknown).Inc()
		m.logger.Warn(ctx, "no handler for hook", zap.String("hook", string(hookType)))
		return errorResult(err)
	}

	start := time.Now()
	res := m.run(ctx, hookType, handler, hc)
	elapsed := time.Since(start)

	outcome := outcomeSuccess
	if !res.Success {
		outcome = outcomeFailure
		span.SetStatus(codes.Error, res.Error)
	}
	span.SetAttributes(attribute.Bool("hook.success", res.Success))
	m.metrics.RunsTotal.WithLabelValues(string(hookType), outcome).Inc()
	m.metrics.RunDuration.WithLabelValues(string(hookType)).Observe(elapsed.Seconds())

	m.logger.Debug(ctx, "hook executed",
		zap.String("hook", string(hookType)),
		zap.Bool("success", res.Success),
		zap.Duration("duration", elapsed))
	return res
}

func (m *Manager) run(ctx context.Context, hookType HookType, handler Handler, hc Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s hook: %v", hookType, r)
			m.logger.Error(ctx, "hook handler panicked", zap.Error(err))
			res = errorResult(err)
		}
	}()
	return handler(ctx, hc)
}

// Config returns the hook configuration.
func (m *Manager) Config() *Config {
	return m.config
}
