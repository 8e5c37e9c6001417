package composables

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseTx_WithoutPool(t *testing.T) {
	_, err := UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	err = InTx(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrNoPool)
}

func TestUseLogger_FallsBackToStandardLogger(t *testing.T) {
	assert.NotNil(t, UseLogger(context.Background()))

	entry := logrus.NewEntry(logrus.New()).WithField("request-id", "abc")
	ctx := WithLogger(context.Background(), entry)
	assert.Same(t, entry, UseLogger(ctx))
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, UseRequestID(context.Background()))
	assert.Equal(t, "r-1", UseRequestID(WithRequestID(context.Background(), "r-1")))
}

func TestUseQuery(t *testing.T) {
	type filters struct {
		Status string `form:"status"`
		Depth  int    `form:"depth"`
	}
	r := httptest.NewRequest("GET", "/tasks?status=done&depth=2", nil)
	got, err := UseQuery(&filters{}, r)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Status)
	assert.Equal(t, 2, got.Depth)
}
