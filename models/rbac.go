package models

// Role represents an actor classification. Assigned at account creation and
// immutable for the lifetime of a session.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdministrator Role = "administrator"
	RoleAdminDesa     Role = "admin_desa"
	RoleKepalaDesa    Role = "kepala_desa"
	RoleKepalaDusun   Role = "kepala_dusun"
	RoleWargaDPKJ     Role = "warga_dpkj"
	RoleWargaLuarDPKJ Role = "warga_luar_dpkj"
	RoleUnknown       Role = "unknown"
)

// AllRoles lists every declared role. The permission matrix must carry an
// explicit entry for each of these against each resource.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdministrator,
	RoleAdminDesa,
	RoleKepalaDesa,
	RoleKepalaDusun,
	RoleWargaDPKJ,
	RoleWargaLuarDPKJ,
	RoleUnknown,
}

// RegionScoped reports whether the role only acts within its own
// administrative region. Region-global roles (kepala_desa and the admin
// super-roles) are exempt from region checks.
func (r Role) RegionScoped() bool {
	return r == RoleAdminDesa || r == RoleKepalaDusun
}

// SuperRole reports whether the role may override stage ownership when
// rejecting a complaint.
func (r Role) SuperRole() bool {
	return r == RoleSuperAdmin || r == RoleAdministrator
}

// ParseRole maps a raw role string (e.g. from a token claim) to a Role,
// falling back to RoleUnknown for anything undeclared.
func ParseRole(s string) Role {
	for _, r := range AllRoles {
		if string(r) == s {
			return r
		}
	}
	return RoleUnknown
}

// Resource represents a protected feature area. Static, closed set.
type Resource string

const (
	ResourceNews                Resource = "news"
	ResourceVillageProfile      Resource = "village_profile"
	ResourceRegulations         Resource = "regulations"
	ResourceFinance             Resource = "finance"
	ResourcePublicServices      Resource = "public_services"
	ResourceSatisfactionSurveys Resource = "satisfaction_surveys"
	ResourceCultureTourism      Resource = "culture_tourism"
	ResourceComplaints          Resource = "complaints"
	ResourceCommerceDirectory   Resource = "commerce_directory"
	ResourceUserManagement      Resource = "user_management"
	ResourceVillageData         Resource = "village_data"
	ResourceSuperAdmin          Resource = "super_admin"
)

// AllResources lists every declared resource.
var AllResources = []Resource{
	ResourceNews,
	ResourceVillageProfile,
	ResourceRegulations,
	ResourceFinance,
	ResourcePublicServices,
	ResourceSatisfactionSurveys,
	ResourceCultureTourism,
	ResourceComplaints,
	ResourceCommerceDirectory,
	ResourceUserManagement,
	ResourceVillageData,
	ResourceSuperAdmin,
}

// Action is one of the four CRUD verbs a permission can grant.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Permission is the 4-tuple of grants attached to a (role, resource) pair.
type Permission struct {
	Read   bool `json:"read"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Allows returns the grant bit for a single action.
func (p Permission) Allows(action Action) bool {
	switch action {
	case ActionRead:
		return p.Read
	case ActionCreate:
		return p.Create
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	}
	return false
}

// StorageNamespace maps a role to the directory table its account records
// live in. Total over all roles: unrecognized roles resolve to the citizens
// table rather than failing.
func StorageNamespace(role Role) string {
	switch role {
	case RoleSuperAdmin, RoleAdministrator, RoleAdminDesa, RoleKepalaDesa, RoleKepalaDusun:
		return "village_officials"
	default:
		return "citizens"
	}
}

// Actor is the caller identity attached to every workflow request. The core
// never authenticates; it only authorizes what the transport layer extracted.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// SystemActor is the pseudo-actor recorded by scheduled system transitions
// such as the auto-approval sweep. It never passes through role checks.
var SystemActor = Actor{ID: 0, Username: "system", Role: RoleUnknown}
