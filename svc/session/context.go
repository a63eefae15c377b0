package session

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

type contextKey struct{}

// WithResult stores res in ctx along with its tenant.
func WithResult(ctx context.Context, res *Result) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, res)
	if res.Tenant != nil {
		ctx = tenant.WithTenant(ctx, res.Tenant)
	}
	return ctx
}

// FromContext returns the resolution stored by Middleware.
func FromContext(ctx context.Context) (*Result, bool) {
	res, ok := ctx.Value(contextKey{}).(*Result)
	return res, ok
}

// MustFromContext returns the stored resolution or ErrNotInContext.
func MustFromContext(ctx context.Context) (*Result, error) {
	res, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNotInContext
	}
	return res, nil
}

// LoggerExtractor adds profile_id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if res, ok := FromContext(ctx); ok {
			return logger.ProfileID(res.Profile.ID), true
		}
		return slog.Attr{}, false
	}
}
