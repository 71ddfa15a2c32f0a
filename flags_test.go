package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

func TestFlagSetFor(t *testing.T) {
	for _, role := range auth.AllRoles() {
		set := auth.FlagSetFor(role)
		assert.Equal(t, 1, set.Count(), role)
		assert.Equal(t, role, set.Active())
		assert.True(t, set.Has(role))
	}

	assert.True(t, auth.FlagSetFor(auth.RoleUnknown).IsEmpty())
}

func TestRoleFlagSet_Valid(t *testing.T) {
	assert.True(t, auth.RoleFlagSet{}.Valid())
	assert.True(t, auth.RoleFlagSet{Company: true}.Valid())

	broken := auth.RoleFlagSet{Personal: true, NGO: true}
	assert.False(t, broken.Valid())
	assert.Equal(t, auth.RoleUnknown, broken.Active())
	assert.False(t, broken.Has(auth.RolePersonal))
}

func TestMemoryRoleFlags_Exclusive(t *testing.T) {
	flags := auth.NewMemoryRoleFlags()
	ctx := context.Background()

	sequence := []auth.Role{
		auth.RolePersonal,
		auth.RoleCompany,
		auth.RoleUnknown,
		auth.RoleNGO,
		auth.RoleNGO,
		auth.RolePersonal,
	}

	for _, role := range sequence {
		require.NoError(t, flags.Activate(ctx, role))

		set, err := flags.Get(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, set.Count(), 1)
		assert.Equal(t, role, set.Active())
	}

	require.NoError(t, flags.Clear(ctx))
	role, err := auth.ActiveRole(ctx, flags)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUnknown, role)
}
