package device

import (
	"context"
	"net/http"
)

type contextKey struct{}

func WithContext(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext returns the Info stored by Middleware. ok is false when the
// middleware did not run.
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(contextKey{}).(Info)
	return info, ok
}

// Middleware computes the device info once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), FromRequest(r))))
	})
}

// Resolve returns the device info stored in the request context, computing
// it when absent.
func Resolve(r *http.Request) Info {
	if info, ok := FromContext(r.Context()); ok {
		return info
	}
	return FromRequest(r)
}
