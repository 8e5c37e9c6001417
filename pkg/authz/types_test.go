package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSubjectForRole(t *testing.T) {
	assert.Equal(t, "role:team_admin", SubjectForRole(" Team_Admin "))
	assert.Equal(t, "role:manager", SubjectForRole("role:manager"))
	assert.Equal(t, "role:anonymous", SubjectForRole(""))
}

func TestDomainFromOrganization(t *testing.T) {
	id := uuid.MustParse("274B29C7-86CB-4DA1-85A3-3A221FE62A72")
	assert.Equal(t, "274b29c7-86cb-4da1-85a3-3a221fe62a72", DomainFromOrganization(id))
	assert.Equal(t, "global", DomainFromOrganization(uuid.Nil))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "workspace.tasks", ObjectName("WORKSPACE", "Tasks"))
	assert.Equal(t, "global.resource", ObjectName("", ""))
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "update_status", NormalizeAction(" Update_Status "))
	assert.Equal(t, "*", NormalizeAction(""))
}
