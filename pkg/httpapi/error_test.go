package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func serve(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	r = r.WithContext(composables.WithRequestID(r.Context(), "req-1"))
	w := httptest.NewRecorder()
	WriteServiceError(w, r, err)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", serrors.Unauthenticated("TOKEN_INVALID", "invalid token"), 401, "TOKEN_INVALID"},
		{"forbidden", serrors.Forbidden("INVITE_CANNOT_SPONSOR", "employees cannot invite"), 403, "INVITE_CANNOT_SPONSOR"},
		{"not found", serrors.NotFound("TASK_NOT_FOUND", "task 1 not found"), 404, "TASK_NOT_FOUND"},
		{"validation", serrors.Validation("COMMENT_REQUIRED", "comment", "comment required"), 400, "COMMENT_REQUIRED"},
		{"invalid state", serrors.InvalidState("NO_TASKS", "no tasks"), 400, "NO_TASKS"},
		{"conflict", serrors.Conflict("INVITE_CONSUMED", "used"), 409, "INVITE_CONSUMED"},
		{"wrapped", fmt.Errorf("create: %w", serrors.Conflict("EMAIL_TAKEN", "taken")), 409, "EMAIL_TAKEN"},
		{"unclassified", errors.New("connection reset"), 500, "INTERNAL_SERVER_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := serve(t, tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, env.Code)
			assert.Equal(t, "req-1", env.Meta["request_id"])
		})
	}
}

func TestWriteServiceError_HidesDetails(t *testing.T) {
	_, env := serve(t, serrors.Forbidden("IMPERSONATION_FORBIDDEN", "team_admin cannot assume super_admin"))
	assert.Equal(t, "forbidden", env.Message)

	_, env = serve(t, serrors.Validation("COMMENT_REQUIRED", "comment", "a completion comment is required"))
	assert.Equal(t, "comment", env.Meta["field"])
	assert.Equal(t, "a completion comment is required", env.Message)
}
