package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/pkg/authn"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/httpapi"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

type TokenParser interface {
	Parse(raw string) (authn.Identity, error)
}

// PrincipalLoader resolves the current role and team of an authenticated user.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, organizationID, userID uuid.UUID) (hierarchy.Principal, error)
}

type Impersonator interface {
	Assume(ctx context.Context, real hierarchy.Principal, targetID uuid.UUID) (impersonation.Context, error)
}

var errAuthRequired = serrors.Unauthenticated("AUTH_REQUIRED", "authentication required")

// Authenticate verifies the bearer token and binds an impersonation context whose real
// and effective principals are the caller.
func Authenticate(tokens TokenParser, loader PrincipalLoader) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := authn.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpapi.WriteServiceError(w, r, errAuthRequired)
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}
			principal, err := loader.LoadPrincipal(r.Context(), id.OrganizationID, id.UserID)
			if err != nil {
				if serrors.Is(err, serrors.KindNotFound) {
					err = errAuthRequired.WithCause(err)
				}
				httpapi.WriteServiceError(w, r, err)
				return
			}
			if err := principal.Validate(); err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}

			ctx := impersonation.WithContext(r.Context(), impersonation.New(principal))
			log := composables.UseLogger(ctx).WithFields(logrus.Fields{
				"user-id": principal.ID,
				"org-id":  principal.OrganizationID,
			})
			ctx = composables.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Impersonate switches the effective principal when header carries a target user id.
// It must run after Authenticate.
func Impersonate(header string, imp Impersonator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := strings.TrimSpace(r.Header.Get(header))
			if value == "" {
				next.ServeHTTP(w, r)
				return
			}
			targetID, err := uuid.Parse(value)
			if err != nil {
				httpapi.WriteServiceError(w, r, serrors.Validation("IMPERSONATION_TARGET_INVALID", header, "invalid impersonation target"))
				return
			}
			real, err := impersonation.RealPrincipal(r.Context())
			if err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}
			c, err := imp.Assume(r.Context(), real, targetID)
			if err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}

			ctx := impersonation.WithContext(r.Context(), c)
			if c.Impersonating() {
				ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithField("impersonating", c.Effective().ID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
