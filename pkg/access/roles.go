package access

// GlobalRole is an account-wide capability level.
//
// team_admin and admin are siblings with overlapping route access, not a
// strict chain; only route policies decide which of them may reach a path.
type GlobalRole string

const (
	RoleUser       GlobalRole = "user"
	RoleTeamAdmin  GlobalRole = "team_admin"
	RoleAdmin      GlobalRole = "admin"
	RoleSuperAdmin GlobalRole = "super_admin"
)

// ValidGlobalRoles lists every assignable global role.
var ValidGlobalRoles = []GlobalRole{RoleUser, RoleTeamAdmin, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is a known global role.
func (r GlobalRole) Valid() bool {
	switch r {
	case RoleUser, RoleTeamAdmin, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Landing paths for each role's dashboard home.
const (
	PathLogin          = "/login"
	PathUserHome       = "/user"
	PathAdminHome      = "/admin"
	PathSuperAdminHome = "/super-admin"
)

// HomePath maps a role to its dashboard landing path. The mapping is total:
// unknown or empty roles land on the user home, so a redirect target always
// exists and redirect loops cannot form.
func (r GlobalRole) HomePath() string {
	switch r {
	case RoleSuperAdmin:
		return PathSuperAdminHome
	case RoleAdmin, RoleTeamAdmin:
		return PathAdminHome
	default:
		return PathUserHome
	}
}

// TeamRole is a capability level scoped to one team membership, independent
// of GlobalRole.
type TeamRole string

const (
	TeamRoleMember TeamRole = "member"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleOwner  TeamRole = "owner"
)

// teamRoleRank orders team roles for minimum-role checks.
var teamRoleRank = map[TeamRole]int{
	TeamRoleMember: 0,
	TeamRoleAdmin:  1,
	TeamRoleOwner:  2,
}

// Rank returns the position of r in the member < admin < owner ordering.
// Unknown roles rank below member so they never satisfy a minimum.
func (r TeamRole) Rank() int {
	if rank, ok := teamRoleRank[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether r is a known team role.
func (r TeamRole) Valid() bool {
	_, ok := teamRoleRank[r]
	return ok
}

// AtLeast reports whether r satisfies a minimum-role requirement.
func (r TeamRole) AtLeast(min TeamRole) bool {
	return r.Rank() >= min.Rank() && r.Valid()
}
