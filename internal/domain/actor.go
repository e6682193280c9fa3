package domain

// Role enumerates actor capabilities recognized by the engine. Roles come
// from the identity provider; the engine never re-derives them.
type Role string

const (
	RoleCitizen   Role = "CITIZEN"
	RoleModerator Role = "MODERATOR"
	RoleOfficer   Role = "OFFICER"
	RoleApprover  Role = "APPROVER"
	RoleAdmin     Role = "ADMIN"
)

// DepartmentRolePrefix scopes an officer to a department, e.g.
// "DEPARTMENT:WSD" marks membership of department WSD.
const DepartmentRolePrefix = "DEPARTMENT:"

// Actor is the authenticated caller as reported by the identity provider.
type Actor struct {
	ID    string
	Roles []Role
}

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MemberOfDepartment reports whether the actor carries a department-scoped
// role for the given department id.
func (a Actor) MemberOfDepartment(departmentID string) bool {
	want := Role(DepartmentRolePrefix + departmentID)
	for _, r := range a.Roles {
		if r == want {
			return true
		}
	}
	return false
}
