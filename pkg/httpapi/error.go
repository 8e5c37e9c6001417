package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteServiceError maps err onto the error envelope. Forbidden responses carry a generic
// message and unclassified errors are logged and reported as internal.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	meta := map[string]string{}
	if id := composables.UseRequestID(r.Context()); id != "" {
		meta["request_id"] = id
	}

	se, ok := serrors.As(err)
	if !ok || se.Kind == serrors.KindInternal {
		composables.UseLogger(r.Context()).WithError(err).Error("request failed")
		_ = WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", meta)
		return
	}

	message := se.Message
	switch se.Kind {
	case serrors.KindForbidden:
		message = "forbidden"
	case serrors.KindNotFound:
		message = "not found"
	}
	if se.Field != "" {
		meta["field"] = se.Field
	}
	if len(meta) == 0 {
		meta = nil
	}
	_ = WriteError(w, se.Kind.HTTPStatus(), se.Code, message, meta)
}
