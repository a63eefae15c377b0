package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/handler"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("custom status", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		err := handler.JSON(map[string]bool{"ok": true}, handler.WithJSONStatus(http.StatusCreated)).
			Render(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"data":{"ok":true}}`, w.Body.String())
	})

	t.Run("validation errors carry details", func(t *testing.T) {
		t.Parallel()

		verr := validator.Apply(validator.Required("username", ""))
		w := httptest.NewRecorder()
		require.NoError(t, handler.JSONError(verr).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Contains(t, body.Error.Details, "username")
	})
}
