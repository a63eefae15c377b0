package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/svc/session"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	mw := session.Middleware(e.resolver, handler.NewHTTPErrorFunc(nil, e.cookies))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := session.FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(res.Profile.Username))
	})
	h := mw(next)

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()
		c := e.issue(t, e.registered(t, "alice"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request())

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("stale token clears cookie", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(&http.Cookie{Name: "token", Value: "expired"}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)

		var body handler.JSONResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.NotNil(t, body.Error)
		assert.Equal(t, handler.CodeRefresh, body.Error.Code)
	})
}
