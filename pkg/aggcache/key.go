package aggcache

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

// Key identifies one cached aggregate. Two principals with different visibility never share a key.
type Key struct {
	Endpoint       string
	PrincipalID    uuid.UUID
	OrganizationID uuid.UUID
	// TeamID is uuid.Nil for organization-wide principals.
	TeamID uuid.UUID
}

// KeyFor builds the key of endpoint for the effective principal p.
func KeyFor(endpoint string, p hierarchy.Principal) Key {
	k := Key{
		Endpoint:       endpoint,
		PrincipalID:    p.ID,
		OrganizationID: p.OrganizationID,
		TeamID:         p.TeamID,
	}
	if p.Role == hierarchy.RoleSuperAdmin {
		k.TeamID = uuid.Nil
	}
	return k
}

func (k Key) String() string {
	var b strings.Builder
	b.Grow(len(k.Endpoint) + 3*37)
	b.WriteString(k.OrganizationID.String())
	b.WriteByte(':')
	b.WriteString(k.TeamID.String())
	b.WriteByte(':')
	b.WriteString(k.PrincipalID.String())
	b.WriteByte(':')
	b.WriteString(k.Endpoint)
	return b.String()
}

// Name is the endpoint without its filter suffix ("tasks.stats?team=..." becomes "tasks.stats").
// It is the only form used as a metric label.
func (k Key) Name() string {
	name, _, _ := strings.Cut(k.Endpoint, "?")
	return name
}

func (k Key) valid() bool {
	return k.OrganizationID != uuid.Nil && k.PrincipalID != uuid.Nil && k.Endpoint != ""
}
