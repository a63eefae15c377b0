package token_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/pkg/token"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("session token shape", func(t *testing.T) {
		t.Parallel()

		tok, err := token.Session()
		require.NoError(t, err)
		assert.Len(t, tok, token.SessionLength)
		assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), tok)
	})

	t.Run("tokens differ", func(t *testing.T) {
		t.Parallel()

		a, err := token.Session()
		require.NoError(t, err)
		b, err := token.Session()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		t.Parallel()

		_, err := token.Generate(0)
		assert.ErrorIs(t, err, token.ErrInvalidLength)
	})
}
