package rbac

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatrixIsTotal(t *testing.T) {
	m := DefaultMatrix()
	roles := append(Roles(), Role("ROOT"), Role(""))
	for _, role := range roles {
		granted := m.PermissionsFor(role)
		assert.NotNil(t, granted, "%q", role)
		for _, perm := range Permissions() {
			has := m.HasPermission(role, perm)
			assert.Equal(t, slices.Contains(granted, perm), has, "%q %s", role, perm)
			assert.Equal(t, has, m.HasPermission(role, perm), "%q %s", role, perm)
		}
	}
	assert.Empty(t, m.PermissionsFor(Role("ROOT")))
}

func TestDefaultMatrixGrants(t *testing.T) {
	m := DefaultMatrix()

	assert.ElementsMatch(t, Permissions(), m.PermissionsFor(RoleAdmin))
	assert.Empty(t, m.PermissionsFor(RoleUser))
	assert.Equal(t, []Permission{
		PermViewDashboard,
		PermManageContent,
		PermEditContent,
		PermApproveContent,
		PermManageEvents,
		PermManageMessages,
		PermViewVolunteers,
	}, m.PermissionsFor(RoleEditor))

	assert.False(t, m.HasPermission(RoleEditor, PermManageUsers))
	assert.False(t, m.HasPermission(RoleEditor, PermDeleteContent))
	assert.False(t, m.HasPermission(RoleEditor, PermManageSettings))
	assert.True(t, m.HasPermission(RoleEditor, PermViewDashboard))
}

func TestMatrixAbsentRoleHoldsNothing(t *testing.T) {
	m := NewMatrix(map[Role][]Permission{RoleAdmin: {PermManageUsers}})
	assert.True(t, m.HasPermission(RoleAdmin, PermManageUsers))
	assert.False(t, m.HasPermission(RoleEditor, PermManageUsers))
	assert.False(t, m.HasPermission("", PermManageUsers))
	assert.False(t, m.HasPermission(Role("ROOT"), PermManageUsers))
	assert.False(t, m.HasPermission(RoleAdmin, Permission(0)))
	assert.False(t, m.HasPermission(RoleAdmin, Permission(200)))
}

func TestNewMatrixCopiesInput(t *testing.T) {
	grants := map[Role][]Permission{RoleEditor: {PermViewDashboard}}
	m := NewMatrix(grants)
	grants[RoleEditor] = append(grants[RoleEditor], PermManageUsers)
	grants[RoleUser] = []Permission{PermViewDashboard}

	assert.False(t, m.HasPermission(RoleEditor, PermManageUsers))
	assert.False(t, m.HasPermission(RoleUser, PermViewDashboard))
}

func TestMatrixAllows(t *testing.T) {
	m := DefaultMatrix()
	assert.False(t, m.Allows(nil, PermViewDashboard))
	assert.True(t, m.Allows(&Principal{ID: "1", Role: RoleEditor}, PermViewDashboard))
}

func TestCanAccessAdmin(t *testing.T) {
	cases := map[Role]bool{
		RoleAdmin:     true,
		RoleEditor:    true,
		RoleUser:      false,
		"":            false,
		Role("admin"): false,
	}
	for role, want := range cases {
		assert.Equal(t, want, CanAccessAdmin(role), "role %q", role)
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" editor ")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestPermissionNames(t *testing.T) {
	for _, perm := range Permissions() {
		parsed, ok := ParsePermission(perm.String())
		require.True(t, ok, perm.String())
		assert.Equal(t, perm, parsed)
	}
	_, ok := ParsePermission("delete:everything")
	assert.False(t, ok)
	assert.Equal(t, "invalid", Permission(0).String())

	_, err := Permission(0).MarshalText()
	assert.Error(t, err)
	text, err := PermManageUsers.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "manage:users", string(text))
}

func TestPrincipalValidate(t *testing.T) {
	assert.NoError(t, Principal{ID: "1", Role: RoleUser}.Validate())
	assert.Error(t, Principal{Role: RoleUser}.Validate())
	assert.Error(t, Principal{ID: "1"}.Validate())
	assert.Error(t, Principal{ID: "1", Role: Role("ROOT")}.Validate())
}
