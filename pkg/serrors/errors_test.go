package serrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Run("wrapped typed error", func(t *testing.T) {
		err := fmt.Errorf("loading task: %w", NotFound("TASK_NOT_FOUND", "task not found"))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.True(t, Is(err, KindNotFound))
		assert.False(t, Is(err, KindForbidden))
	})

	t.Run("untyped error is internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
		assert.False(t, Is(nil, KindInternal))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindInvalidState:    http.StatusBadRequest,
		KindValidation:      http.StatusBadRequest,
		KindConflict:        http.StatusConflict,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, status, kind.HTTPStatus())
		})
	}
}

func TestErrorCopies(t *testing.T) {
	base := Validation("TASK_COMMENT_REQUIRED", "comment", "comment is required")
	cause := fmt.Errorf("empty")
	wrapped := base.WithCause(cause)

	require.Nil(t, base.Cause)
	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "comment is required: empty", wrapped.Error())
	assert.Equal(t, "title", base.WithField("title").Field)
	assert.Equal(t, "comment", base.Field)
}
