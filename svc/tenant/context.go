package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/chatblast/pkg/logger"
)

type contextKey struct{}

// WithTenant stores t in ctx.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant the request resolved to, or nil.
func FromContext(ctx context.Context) *Tenant {
	t, _ := ctx.Value(contextKey{}).(*Tenant)
	return t
}

// IDFromContext returns the tenant id, or "" outside any tenant.
func IDFromContext(ctx context.Context) string {
	if t := FromContext(ctx); t != nil {
		return t.ID
	}
	return ""
}

// LoggerExtractor adds tenant_id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := IDFromContext(ctx); id != "" {
			return logger.TenantID(id), true
		}
		return slog.Attr{}, false
	}
}
