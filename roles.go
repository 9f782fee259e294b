package steward

// OrgRole is a role held within a single organization.
// Ordering: Viewer < Member < Manager < Admin.
type OrgRole string

const (
	// OrgRoleNone means no active organization membership.
	OrgRoleNone OrgRole = ""

	// OrgRoleViewer can read organization resources.
	OrgRoleViewer OrgRole = "viewer"

	// OrgRoleMember can work on organization resources.
	OrgRoleMember OrgRole = "member"

	// OrgRoleManager can manage projects and members.
	OrgRoleManager OrgRole = "manager"

	// OrgRoleAdmin has full control of the organization.
	OrgRoleAdmin OrgRole = "admin"
)

// ProjectRole is a role held within a single project.
// Ordering: Viewer < Member < Admin.
type ProjectRole string

const (
	// ProjectRoleNone means no active project membership.
	ProjectRoleNone ProjectRole = ""

	// ProjectRoleViewer can read project tickets.
	ProjectRoleViewer ProjectRole = "viewer"

	// ProjectRoleMember can create and work on tickets.
	ProjectRoleMember ProjectRole = "member"

	// ProjectRoleAdmin has full control of the project.
	ProjectRoleAdmin ProjectRole = "admin"
)

// SystemLevel is a platform-wide privilege tier.
// Ordering: User < OrganizationAdmin < SystemAdmin.
type SystemLevel string

const (
	// SystemLevelUser is any authenticated subject.
	SystemLevelUser SystemLevel = "user"

	// SystemLevelOrgAdmin is satisfied by administering any organization.
	SystemLevelOrgAdmin SystemLevel = "org_admin"

	// SystemLevelAdmin requires an explicit system-admin grant.
	SystemLevelAdmin SystemLevel = "system_admin"
)

var orgRoleRank = map[OrgRole]int{
	OrgRoleViewer:  1,
	OrgRoleMember:  2,
	OrgRoleManager: 3,
	OrgRoleAdmin:   4,
}

var projectRoleRank = map[ProjectRole]int{
	ProjectRoleViewer: 1,
	ProjectRoleMember: 2,
	ProjectRoleAdmin:  3,
}

var systemLevelRank = map[SystemLevel]int{
	SystemLevelUser:     1,
	SystemLevelOrgAdmin: 2,
	SystemLevelAdmin:    3,
}

// Sufficient reports whether the held role meets or exceeds required.
// An absent or unknown role on either side is never sufficient.
func (r OrgRole) Sufficient(required OrgRole) bool {
	held, ok := orgRoleRank[r]
	if !ok {
		return false
	}
	min, ok := orgRoleRank[required]
	if !ok {
		return false
	}
	return held >= min
}

// Valid reports whether r is a known organization role (None excluded).
func (r OrgRole) Valid() bool {
	_, ok := orgRoleRank[r]
	return ok
}

// Sufficient reports whether the held role meets or exceeds required.
func (r ProjectRole) Sufficient(required ProjectRole) bool {
	held, ok := projectRoleRank[r]
	if !ok {
		return false
	}
	min, ok := projectRoleRank[required]
	if !ok {
		return false
	}
	return held >= min
}

// Valid reports whether r is a known project role (None excluded).
func (r ProjectRole) Valid() bool {
	_, ok := projectRoleRank[r]
	return ok
}

// Sufficient reports whether the held level meets or exceeds required.
func (l SystemLevel) Sufficient(required SystemLevel) bool {
	held, ok := systemLevelRank[l]
	if !ok {
		return false
	}
	min, ok := systemLevelRank[required]
	if !ok {
		return false
	}
	return held >= min
}

// Valid reports whether l is a known system level.
func (l SystemLevel) Valid() bool {
	_, ok := systemLevelRank[l]
	return ok
}

// DeriveProjectRole maps an organization role to the project role it implies
// when the subject has no direct project membership. The derived role is a
// fallback only; it never replaces a direct membership row.
func DeriveProjectRole(r OrgRole) ProjectRole {
	switch r {
	case OrgRoleAdmin, OrgRoleManager:
		return ProjectRoleAdmin
	case OrgRoleMember:
		return ProjectRoleMember
	case OrgRoleViewer:
		return ProjectRoleViewer
	default:
		return ProjectRoleNone
	}
}
