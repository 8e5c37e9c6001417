package authn

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const tokenType = "access"

var ErrInvalidToken = serrors.Unauthenticated("TOKEN_INVALID", "invalid or expired token")

// Claims identifies a user inside an organization. Role and team are loaded from storage
// on every request, so a token never carries stale authority.
type Claims struct {
	OrganizationID string `json:"org"`
	Type           string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a token.
type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	ExpiresAt      time.Time
}

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("authn: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("authn: token ttl must be positive")
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Mint signs an HS256 access token for the user.
func (i *Issuer) Mint(userID, orgID uuid.UUID) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := &Claims{
		OrganizationID: orgID.String(),
		Type:           tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its identity. Every failure is ErrInvalidToken.
func (i *Issuer) Parse(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken.WithCause(err)
	}
	if claims.Type != tokenType {
		return Identity{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken.WithCause(err)
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Identity{}, ErrInvalidToken.WithCause(err)
	}
	return Identity{UserID: userID, OrganizationID: orgID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
