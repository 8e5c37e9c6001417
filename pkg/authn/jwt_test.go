package authn

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func TestIssuer_MintParse(t *testing.T) {
	iss, err := NewIssuer("secret", "taskgrid", time.Hour)
	require.NoError(t, err)

	userID, orgID := uuid.New(), uuid.New()
	raw, expires, err := iss.Mint(userID, orgID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, orgID, id.OrganizationID)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	iss, err := NewIssuer("secret", "taskgrid", time.Hour)
	require.NoError(t, err)
	raw, _, err := iss.Mint(uuid.New(), uuid.New())
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewIssuer("other", "taskgrid", time.Hour)
		require.NoError(t, err)
		_, err = other.Parse(raw)
		assert.True(t, serrors.Is(err, serrors.KindUnauthenticated))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewIssuer("secret", "someone-else", time.Hour)
		require.NoError(t, err)
		_, err = other.Parse(raw)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := *iss
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.True(t, serrors.Is(err, serrors.KindUnauthenticated))
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Type: tokenType}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(unsigned)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer("", "taskgrid", time.Hour)
	assert.Error(t, err)
	_, err = NewIssuer("s", "taskgrid", 0)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("Basic xyz")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
