package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/binder"
	"github.com/dmitrymomot/chatblast/core"
	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/logger"
)

type greetRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	greet := func(_ handler.Context, req greetRequest) handler.Response {
		if req.Name == "" {
			return handler.Error(core.Invalid("greet.name_required"))
		}
		return handler.JSON(map[string]string{"hello": req.Name})
	}
	h := handler.Wrap(greet, handler.WithBinders[handler.Context, greetRequest](binder.BindJSON()))

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"bob"}`)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{"hello": "bob"}, decode(t, w).Data)
	})

	t.Run("binder failure", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nick":"bob"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "binder.invalid_json", decode(t, w).Error.Code)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "greet.name_required", decode(t, w).Error.Code)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		nilHandler := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		w := httptest.NewRecorder()
		nilHandler(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()

		var order []string
		mark := func(name string) handler.Decorator[handler.Context, struct{}] {
			return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
				return func(ctx handler.Context, req struct{}) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(
			func(handler.Context, struct{}) handler.Response { return handler.Empty() },
			handler.WithDecorators(mark("outer"), mark("inner")),
		)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"outer", "inner"}, order)
	})
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	errHandler := handler.NewHTTPErrorFunc(logger.Discard(), cookie.New())

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthenticated", core.Unauthenticated("session.missing_token"), http.StatusUnauthorized, "session.missing_token"},
		{"stale session", core.StaleSession("t1-token"), http.StatusUnauthorized, handler.CodeRefresh},
		{"forbidden", core.Forbidden("tenant.not_owner"), http.StatusForbidden, "tenant.not_owner"},
		{"not found", core.NotFound("tenant.not_found"), http.StatusNotFound, "tenant.not_found"},
		{"conflict", core.Conflict("identity.username_taken"), http.StatusConflict, "identity.username_taken"},
		{"upstream", errors.Join(core.Upstream("delegated.verification_failed"), errors.New("dial tcp: refused")), http.StatusBadGateway, handler.CodeUpstream},
		{"internal", errors.New("mongo: boom"), http.StatusInternalServerError, handler.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			errHandler(w, httptest.NewRequest(http.MethodGet, "/api/profile/@me", nil), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "refused")
			assert.NotContains(t, body.Error.Message, "mongo")
		})
	}

	t.Run("stale session clears the named cookie", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		errHandler(w, httptest.NewRequest(http.MethodGet, "/", nil), core.StaleSession("t1-token"))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "t1-token", cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("unauthenticated leaves cookies alone", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		errHandler(w, httptest.NewRequest(http.MethodGet, "/", nil), core.Unauthenticated("session.tenant_mismatch"))

		assert.Empty(t, w.Result().Cookies())
	})
}
