// Package log carries a zap logger inside a context.Context so that fields
// attached while descending into a run (stage, domain, family) show up on
// every line logged below that point.
package log

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

type logCtx struct {
	context.Context

	logger  *zap.Logger
	sLogger *zap.SugaredLogger
}

func (c *logCtx) Value(k any) any {
	if _, ok := k.(loggerKey); ok {
		return c.logger
	}

	return c.Context.Value(k)
}

func WithLogger(parent context.Context, logger *zap.Logger) context.Context {
	return &logCtx{Context: parent, logger: logger, sLogger: logger.Sugar()}
}

// L returns logger in context, or the global zap logger if none is present.
func L(ctx context.Context) *zap.Logger {
	if l, ok := ctx.(*logCtx); ok {
		return l.logger
	}

	if l, _ := ctx.Value(loggerKey{}).(*zap.Logger); l != nil {
		return l
	}

	return zap.L()
}

// S returns sugared version of L.
func S(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.(*logCtx); ok {
		return l.sLogger
	}

	return L(ctx).Sugar()
}

func With(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, L(ctx).With(fields...))
}

func SWith(ctx context.Context, args ...interface{}) context.Context {
	return WithLogger(ctx, S(ctx).With(args...).Desugar())
}
