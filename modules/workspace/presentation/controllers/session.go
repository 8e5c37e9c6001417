package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers/dtos"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
	"github.com/jacksonlee411/taskgrid/pkg/middleware"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const apiPrefix = "/api/v1"

const maxBodyBytes = 1 << 20

// Session holds what the API controllers need to authenticate a request.
// It is registered as a service so every controller builds the same chain.
type Session struct {
	tokens            middleware.TokenParser
	impersonateHeader string
}

func NewSession(tokens middleware.TokenParser, impersonateHeader string) *Session {
	return &Session{tokens: tokens, impersonateHeader: impersonateHeader}
}

// Middleware returns the authentication chain: bearer token first, then the optional
// impersonation header.
func (s *Session) Middleware(app application.Application) []mux.MiddlewareFunc {
	users := app.Service(services.UserService{}).(*services.UserService)
	imp := app.Service(services.ImpersonationService{}).(*services.ImpersonationService)
	return []mux.MiddlewareFunc{
		middleware.Authenticate(s.tokens, users),
		middleware.Impersonate(s.impersonateHeader, imp),
	}
}

func authenticated(app application.Application, r *mux.Router) *mux.Router {
	session := app.Service(Session{}).(*Session)
	api := r.PathPrefix(apiPrefix).Subrouter()
	api.Use(session.Middleware(app)...)
	return api
}

var (
	errInvalidBody = serrors.Validation("INVALID_BODY", "body", "invalid json body")
	errInvalidID   = serrors.Validation("INVALID_ID", "id", "id must be a uuid")
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody.WithCause(err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

type validatable interface {
	Ok(ctx context.Context) (map[string]string, bool)
}

// validated runs the dto's Ok check and writes the first failure.
func validated(w http.ResponseWriter, r *http.Request, dto validatable) bool {
	errs, ok := dto.Ok(r.Context())
	if ok {
		return true
	}
	httpapi.WriteServiceError(w, r, dtos.Error(errs))
	return false
}

func query[T any](w http.ResponseWriter, r *http.Request, v T) (T, bool) {
	v, err := composables.UseQuery(v, r)
	if err != nil {
		httpapi.WriteServiceError(w, r, serrors.Validation("INVALID_QUERY", "query", "invalid query string").WithCause(err))
		return v, false
	}
	return v, true
}
