package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/chatblast/core"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/logger"
)

// HTTPErrorFunc writes err to w. It is the untyped form of ErrorHandler used
// by middlewares.
type HTTPErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// NewHTTPErrorFunc logs err, clears the cookie named by a stale-session error
// and writes the JSON error envelope.
func NewHTTPErrorFunc(log *slog.Logger, cookies *cookie.Manager) HTTPErrorFunc {
	if log == nil {
		log = logger.Discard()
	}
	if cookies == nil {
		cookies = cookie.New()
	}

	return func(w http.ResponseWriter, r *http.Request, err error) {
		status, _ := ClassifyError(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.Component("error_handler"),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		var opts []JSONOption
		if name, ok := core.CookieToClear(err); ok {
			opts = append(opts, WithBeforeWrite(func(w http.ResponseWriter) {
				cookies.Delete(w, name)
			}))
		}

		if renderErr := JSONError(err, opts...).Render(w, r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error",
				logger.Component("error_handler"),
				logger.Error(renderErr),
			)
		}
	}
}

// NewErrorHandler adapts NewHTTPErrorFunc to Wrap.
func NewErrorHandler(log *slog.Logger, cookies *cookie.Manager) ErrorHandler[Context] {
	fn := NewHTTPErrorFunc(log, cookies)
	return func(ctx Context, err error) {
		fn(ctx.ResponseWriter(), ctx.Request(), err)
	}
}
