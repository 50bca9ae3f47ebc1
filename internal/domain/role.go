package domain

// Role is a closed enumeration of actor roles. Permission checks go through
// the capability table below rather than ad hoc string comparisons.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleApprover Role = "approver"
	RoleFinance  Role = "finance"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleEmployee, RoleApprover, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// roleCapabilities maps an actor role to the chain roles it may satisfy.
// Admin covers every level; everyone else only their own role.
var roleCapabilities = map[Role]map[Role]bool{
	RoleEmployee: {},
	RoleApprover: {RoleApprover: true},
	RoleFinance:  {RoleFinance: true},
	RoleAdmin:    {RoleApprover: true, RoleFinance: true, RoleAdmin: true},
}

// CanActAs reports whether an actor with role r may decide a chain level
// requiring the given role.
func (r Role) CanActAs(required Role) bool {
	return roleCapabilities[r][required]
}

// User is the identity-provider view of an actor.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}
