package rbac_test

import (
	"testing"

	"sidesa/models"
	"sidesa/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatrixTotality verifies every declared role carries an explicit entry
// for every declared resource. A resource added to the enum without being
// populated for all roles must fail here.
func TestMatrixTotality(t *testing.T) {
	m := rbac.NewDefaultMatrix()

	require.ElementsMatch(t, models.AllRoles, m.Roles(), "matrix must be populated for exactly the declared roles")

	for _, role := range models.AllRoles {
		for _, resource := range models.AllResources {
			assert.True(t, m.HasEntry(role, resource), "missing matrix entry for (%s, %s)", role, resource)
		}
	}
}

// TestDefaultDeny covers P1: anything not explicitly granted answers false.
func TestDefaultDeny(t *testing.T) {
	m := rbac.NewDefaultMatrix()

	// Undeclared role string falls back to unknown, which is denied everything.
	ghost := models.ParseRole("kepala_rw")
	assert.Equal(t, models.RoleUnknown, ghost)
	for _, resource := range models.AllResources {
		for _, action := range []models.Action{models.ActionRead, models.ActionCreate, models.ActionUpdate, models.ActionDelete} {
			assert.False(t, m.Allowed(ghost, resource, action), "unknown role must be denied %s on %s", action, resource)
		}
	}

	// Undeclared action is denied even for super_admin.
	assert.False(t, m.Allowed(models.RoleSuperAdmin, models.ResourceNews, models.Action("publish")))

	// Auxiliary maps share the default-deny policy.
	assert.False(t, m.CanEnterAdminArea(models.RoleWargaDPKJ))
	assert.False(t, m.CanEnterAdminArea(models.RoleUnknown))
	assert.False(t, m.CanViewAggregateAnalytics(models.RoleKepalaDusun))
}

func TestComplaintGrants(t *testing.T) {
	m := rbac.NewDefaultMatrix()

	tests := []struct {
		role    models.Role
		action  models.Action
		allowed bool
	}{
		{models.RoleWargaDPKJ, models.ActionCreate, true},
		{models.RoleWargaDPKJ, models.ActionUpdate, false},
		{models.RoleWargaDPKJ, models.ActionDelete, false},
		{models.RoleWargaLuarDPKJ, models.ActionRead, false},
		{models.RoleWargaLuarDPKJ, models.ActionCreate, false},
		{models.RoleAdminDesa, models.ActionUpdate, true},
		{models.RoleAdminDesa, models.ActionDelete, true},
		{models.RoleKepalaDusun, models.ActionUpdate, true},
		{models.RoleKepalaDusun, models.ActionDelete, false},
		{models.RoleKepalaDesa, models.ActionUpdate, true},
		{models.RoleSuperAdmin, models.ActionDelete, true},
	}
	for _, tt := range tests {
		got := m.Allowed(tt.role, models.ResourceComplaints, tt.action)
		assert.Equal(t, tt.allowed, got, "%s %s complaints", tt.role, tt.action)
	}
}

func TestAdminAreaAndAnalytics(t *testing.T) {
	m := rbac.NewDefaultMatrix()

	assert.True(t, m.CanEnterAdminArea(models.RoleAdminDesa))
	assert.True(t, m.CanEnterAdminArea(models.RoleKepalaDusun))
	assert.True(t, m.CanEnterAdminArea(models.RoleKepalaDesa))
	assert.False(t, m.CanEnterAdminArea(models.RoleWargaLuarDPKJ))

	assert.True(t, m.CanViewAggregateAnalytics(models.RoleKepalaDesa))
	assert.False(t, m.CanViewAggregateAnalytics(models.RoleAdminDesa))
}

func TestSuperAdminConsoleRestricted(t *testing.T) {
	m := rbac.NewDefaultMatrix()

	assert.True(t, m.Allowed(models.RoleSuperAdmin, models.ResourceSuperAdmin, models.ActionRead))
	for _, role := range models.AllRoles {
		if role == models.RoleSuperAdmin {
			continue
		}
		assert.False(t, m.Allowed(role, models.ResourceSuperAdmin, models.ActionRead), "%s must not reach the super-admin console", role)
	}
}

func TestStorageNamespace(t *testing.T) {
	for _, role := range models.AllRoles {
		ns := models.StorageNamespace(role)
		assert.NotEmpty(t, ns, "namespace must be total over roles")
	}
	assert.Equal(t, "village_officials", models.StorageNamespace(models.RoleAdminDesa))
	assert.Equal(t, "village_officials", models.StorageNamespace(models.RoleKepalaDusun))
	assert.Equal(t, "citizens", models.StorageNamespace(models.RoleWargaDPKJ))
	assert.Equal(t, "citizens", models.StorageNamespace(models.RoleUnknown))
}
