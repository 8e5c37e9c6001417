package authz

import (
	"fmt"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const errorCodeForbidden = "AUTHZ_FORBIDDEN"

// forbiddenError builds the error returned for denied requests. Request details stay in logs.
func forbiddenError(req Request) *serrors.Error {
	return serrors.Forbidden(errorCodeForbidden, "forbidden").
		WithCause(fmt.Errorf("denied %s %s.%s in %s", req.Subject, req.Object, req.Action, req.Domain))
}

func configError(msg string, args ...any) error {
	return fmt.Errorf("authz: "+msg, args...)
}
