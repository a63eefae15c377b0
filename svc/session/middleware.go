package session

import (
	"net/http"

	"github.com/dmitrymomot/chatblast/handler"
)

// Middleware requires a resolved session. Failures go to onError, which
// clears the cookie for stale sessions.
func Middleware(rs *Resolver, onError handler.HTTPErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rs.Resolve(r.Context(), r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), res)))
		})
	}
}
