package viewmodels

import "time"

type Performance struct {
	Rating         *float64   `json:"rating"`
	CompletedTasks int        `json:"completed_tasks"`
	PendingTasks   int        `json:"pending_tasks"`
	OverdueTasks   int        `json:"overdue_tasks"`
	ActiveProjects int        `json:"active_projects"`
	LastActiveAt   *time.Time `json:"last_active_at,omitempty"`
}

type User struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	TeamID         string      `json:"team_id,omitempty"`
	Role           string      `json:"role"`
	ReportsTo      string      `json:"reports_to,omitempty"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	IsActive       bool        `json:"is_active"`
	IsAvailable    bool        `json:"is_available"`
	Performance    Performance `json:"performance"`
	CreatedAt      time.Time   `json:"created_at"`
}

type Subordinate struct {
	User
	Depth int `json:"depth"`
}

type Principal struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	TeamID         string `json:"team_id,omitempty"`
	Role           string `json:"role"`
}

type Session struct {
	Real          Principal `json:"real"`
	Effective     Principal `json:"effective"`
	Impersonating bool      `json:"impersonating"`
	// Capabilities of the effective principal, keyed by object.action.
	Capabilities map[string]bool `json:"capabilities,omitempty"`
}

type Registration struct {
	User           User      `json:"user"`
	OrganizationID string    `json:"organization_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type Invite struct {
	Code      string     `json:"code"`
	InviterID string     `json:"inviter_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TeamAdminID string    `json:"team_admin_id"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectMember struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type Project struct {
	ID          string          `json:"id"`
	TeamID      string          `json:"team_id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     []ProjectMember `json:"members"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Task struct {
	ID                string     `json:"id"`
	TeamID            string     `json:"team_id"`
	ProjectID         string     `json:"project_id"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	CreatedBy         string     `json:"created_by"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	Overdue           bool       `json:"overdue"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CompletionComment string     `json:"completion_comment,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// List wraps a page of items.
type List[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
