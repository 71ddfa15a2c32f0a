package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *auth.Principal
		expected  auth.Role
	}{
		{name: "nil principal", principal: nil, expected: auth.RoleUnknown},
		{name: "no metadata", principal: &auth.Principal{ID: "1"}, expected: auth.RoleUnknown},
		{name: "missing role", principal: &auth.Principal{Metadata: map[string]any{"name": "Ana"}}, expected: auth.RoleUnknown},
		{name: "personal", principal: &auth.Principal{Metadata: map[string]any{"role": "personal"}}, expected: auth.RolePersonal},
		{name: "company", principal: &auth.Principal{Metadata: map[string]any{"role": "company"}}, expected: auth.RoleCompany},
		{name: "ngo", principal: &auth.Principal{Metadata: map[string]any{"role": "ngo"}}, expected: auth.RoleNGO},
		{name: "mixed case and spaces", principal: &auth.Principal{Metadata: map[string]any{"role": "  NGO "}}, expected: auth.RoleNGO},
		{name: "portuguese alias", principal: &auth.Principal{Metadata: map[string]any{"role": "empresa"}}, expected: auth.RoleCompany},
		{name: "typed role", principal: &auth.Principal{Metadata: map[string]any{"role": auth.RolePersonal}}, expected: auth.RolePersonal},
		{name: "unrecognised", principal: &auth.Principal{Metadata: map[string]any{"role": "superadmin"}}, expected: auth.RoleUnknown},
		{name: "wrong type", principal: &auth.Principal{Metadata: map[string]any{"role": 42}}, expected: auth.RoleUnknown},
		{name: "unknown is not assignable", principal: &auth.Principal{Metadata: map[string]any{"role": "unknown"}}, expected: auth.RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.ResolveRole(tt.principal))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("ong")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleNGO, role)

	role, ok = auth.ParseRole("")
	assert.False(t, ok)
	assert.Equal(t, auth.RoleUnknown, role)
}

func TestRole_IsValid(t *testing.T) {
	for _, role := range auth.AllRoles() {
		assert.True(t, role.IsValid(), role)
	}
	assert.False(t, auth.RoleUnknown.IsValid())
	assert.False(t, auth.Role("admin").IsValid())
	assert.Equal(t, "unknown", auth.Role("").String())
}
