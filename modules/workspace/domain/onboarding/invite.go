package onboarding

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Invite struct {
	Code           string
	OrganizationID uuid.UUID
	InviterID      uuid.UUID
	CreatedAt      time.Time
	ExpiresAt      time.Time
	ConsumedAt     *time.Time
	ConsumedBy     uuid.UUID
}

// Usable reports whether the invite can still be redeemed at now.
func (i *Invite) Usable(now time.Time) bool {
	if i.ConsumedAt != nil {
		return false
	}
	return i.ExpiresAt.IsZero() || now.Before(i.ExpiresAt)
}

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewCode returns a random, URL-safe invite code.
func NewCode() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return codeEncoding.EncodeToString(buf)
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
