package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantContext_SetOnce(t *testing.T) {
	tc := New()
	_, ok := tc.TenantID()
	assert.False(t, ok)

	first := uuid.New()
	require.NoError(t, tc.SetTenant(first))

	err := tc.SetTenant(uuid.New())
	assert.ErrorIs(t, err, ErrTenantAlreadySet)

	got, ok := tc.TenantID()
	assert.True(t, ok)
	assert.Equal(t, first, got)
}

func TestTenantContext_RejectsNilTenant(t *testing.T) {
	tc := New()
	assert.ErrorIs(t, tc.SetTenant(uuid.Nil), ErrNilTenant)
	assert.False(t, tc.HasTenant())
}

func TestTenantContext_NilReceiver(t *testing.T) {
	var tc *TenantContext
	_, ok := tc.TenantID()
	assert.False(t, ok)
	assert.Equal(t, "<unset>", tc.String())
}

func TestFromContext(t *testing.T) {
	unset := FromContext(context.Background())
	require.NotNil(t, unset)
	assert.False(t, unset.HasTenant())

	tc := ForTenant(uuid.New())
	ctx := WithTenantContext(context.Background(), tc)
	assert.Same(t, tc, FromContext(ctx))
}

func TestFromContext_FreshPerRequest(t *testing.T) {
	a := WithTenantContext(context.Background(), New())
	b := WithTenantContext(context.Background(), New())

	require.NoError(t, FromContext(a).SetTenant(uuid.New()))
	assert.False(t, FromContext(b).HasTenant())
}
