// Package logging provides structured logging for learnhooks.
//
// Logger wraps Zap with context-aware methods. Correlation data carried on
// the context (trace and span ids, the learner, the skill, the hook being
// run, the request id) is attached to every entry:
//
//	ctx = logging.WithUserID(ctx, "u_42")
//	ctx = logging.WithHook(ctx, "on-load")
//	logger.Info(ctx, "welcome back", zap.String("name", name))
//
// Sensitive keys are redacted by the encoder before they reach stdout.
package logging
