// Package rbac holds the static role/resource permission matrix for the
// village administration portal. The matrix is pure data: it is built once at
// process start, injected where needed, and never mutated afterward.
package rbac

import "sidesa/models"

// Matrix is the (role, resource) -> permission lookup plus the two auxiliary
// capability maps. All lookups are total and default to deny: a (role,
// resource) pair that was never populated answers false, never an error.
type Matrix struct {
	grants    map[models.Role]map[models.Resource]models.Permission
	adminArea map[models.Role]bool
	analytics map[models.Role]bool
}

// Allowed reports whether role may perform action on resource.
func (m *Matrix) Allowed(role models.Role, resource models.Resource, action models.Action) bool {
	perms, ok := m.grants[role]
	if !ok {
		return false
	}
	return perms[resource].Allows(action)
}

// CanEnterAdminArea reports whether role may open the admin area at all.
func (m *Matrix) CanEnterAdminArea(role models.Role) bool {
	return m.adminArea[role]
}

// CanViewAggregateAnalytics reports whether role may see village-wide
// aggregate analytics.
func (m *Matrix) CanViewAggregateAnalytics(role models.Role) bool {
	return m.analytics[role]
}

// Permission returns the full 4-tuple for a (role, resource) pair. Missing
// pairs return the zero Permission (all false).
func (m *Matrix) Permission(role models.Role, resource models.Resource) models.Permission {
	return m.grants[role][resource]
}

// HasEntry reports whether the (role, resource) pair was explicitly
// populated. Lookups work either way; this exists so the totality invariant
// can be asserted, since a missing pair and an all-false pair answer lookups
// identically.
func (m *Matrix) HasEntry(role models.Role, resource models.Resource) bool {
	perms, ok := m.grants[role]
	if !ok {
		return false
	}
	_, ok = perms[resource]
	return ok
}

// Roles returns the roles the matrix was populated with.
func (m *Matrix) Roles() []models.Role {
	roles := make([]models.Role, 0, len(m.grants))
	for r := range m.grants {
		roles = append(roles, r)
	}
	return roles
}

// Shorthand grants used while building the default matrix.
var (
	full     = models.Permission{Read: true, Create: true, Update: true, Delete: true}
	readOnly = models.Permission{Read: true}
	none     = models.Permission{}
)

// NewDefaultMatrix builds the portal's permission matrix. Every declared role
// gets an explicit entry for every declared resource; adding a resource
// without populating it for all roles fails the totality test, so a new
// feature area can never be granted by accident.
func NewDefaultMatrix() *Matrix {
	m := &Matrix{
		grants:    make(map[models.Role]map[models.Resource]models.Permission),
		adminArea: make(map[models.Role]bool),
		analytics: make(map[models.Role]bool),
	}

	// super_admin: unrestricted, including the super-admin console.
	m.setAll(models.RoleSuperAdmin, full)

	// administrator: unrestricted except the super-admin console.
	m.setAll(models.RoleAdministrator, full)
	m.set(models.RoleAdministrator, models.ResourceSuperAdmin, none)

	// admin_desa: manages village content and complaints for their region.
	// No access to user management or the super-admin console.
	m.setAll(models.RoleAdminDesa, full)
	m.set(models.RoleAdminDesa, models.ResourceUserManagement, none)
	m.set(models.RoleAdminDesa, models.ResourceSuperAdmin, none)

	// kepala_desa: reads everything, signs off on complaints. Content is
	// maintained by admin_desa, not the village head.
	m.setAll(models.RoleKepalaDesa, readOnly)
	m.set(models.RoleKepalaDesa, models.ResourceComplaints, models.Permission{Read: true, Update: true})
	m.set(models.RoleKepalaDesa, models.ResourceUserManagement, none)
	m.set(models.RoleKepalaDesa, models.ResourceSuperAdmin, none)

	// kepala_dusun: reads public content, acts on complaints in their dusun.
	m.setAll(models.RoleKepalaDusun, readOnly)
	m.set(models.RoleKepalaDusun, models.ResourceComplaints, models.Permission{Read: true, Update: true})
	m.set(models.RoleKepalaDusun, models.ResourceFinance, none)
	m.set(models.RoleKepalaDusun, models.ResourceUserManagement, none)
	m.set(models.RoleKepalaDusun, models.ResourceSuperAdmin, none)

	// warga_dpkj: registered villagers read public content, file complaints,
	// list their businesses in the commerce directory, answer surveys.
	m.setAll(models.RoleWargaDPKJ, readOnly)
	m.set(models.RoleWargaDPKJ, models.ResourceComplaints, models.Permission{Read: true, Create: true})
	m.set(models.RoleWargaDPKJ, models.ResourceCommerceDirectory, models.Permission{Read: true, Create: true, Update: true})
	m.set(models.RoleWargaDPKJ, models.ResourceSatisfactionSurveys, models.Permission{Read: true, Create: true})
	m.set(models.RoleWargaDPKJ, models.ResourceFinance, readOnly)
	m.set(models.RoleWargaDPKJ, models.ResourceUserManagement, none)
	m.set(models.RoleWargaDPKJ, models.ResourceSuperAdmin, none)

	// warga_luar_dpkj: visitors from outside the village, public reads only.
	m.setAll(models.RoleWargaLuarDPKJ, readOnly)
	m.set(models.RoleWargaLuarDPKJ, models.ResourceComplaints, none)
	m.set(models.RoleWargaLuarDPKJ, models.ResourceFinance, none)
	m.set(models.RoleWargaLuarDPKJ, models.ResourceUserManagement, none)
	m.set(models.RoleWargaLuarDPKJ, models.ResourceVillageData, none)
	m.set(models.RoleWargaLuarDPKJ, models.ResourceSuperAdmin, none)

	// unknown: everything denied, explicitly.
	m.setAll(models.RoleUnknown, none)

	m.adminArea[models.RoleSuperAdmin] = true
	m.adminArea[models.RoleAdministrator] = true
	m.adminArea[models.RoleAdminDesa] = true
	m.adminArea[models.RoleKepalaDesa] = true
	m.adminArea[models.RoleKepalaDusun] = true

	m.analytics[models.RoleSuperAdmin] = true
	m.analytics[models.RoleAdministrator] = true
	m.analytics[models.RoleKepalaDesa] = true

	return m
}

func (m *Matrix) set(role models.Role, resource models.Resource, p models.Permission) {
	if m.grants[role] == nil {
		m.grants[role] = make(map[models.Resource]models.Permission, len(models.AllResources))
	}
	m.grants[role][resource] = p
}

func (m *Matrix) setAll(role models.Role, p models.Permission) {
	for _, resource := range models.AllResources {
		m.set(role, resource, p)
	}
}
