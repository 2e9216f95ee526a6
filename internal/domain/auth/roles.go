package auth

import (
	"slices"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleHRManager Role = "hr_manager"
	RoleEmployee  Role = "employee"
)

var Roles = []Role{RoleAdmin, RoleHRManager, RoleEmployee}

// ParseRole maps a token claim to a role. Legacy spellings are accepted.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "superadmin", "super_admin":
		return RoleAdmin, true
	case "hr_manager", "hr", "rh", "hrmanager":
		return RoleHRManager, true
	case "employee", "colaborador":
		return RoleEmployee, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// UserContext is the identity attached to an authenticated request.
type UserContext struct {
	UserID    string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
}

// CanAccessCompany reports whether the user may see data scoped to companyID.
func (u UserContext) CanAccessCompany(companyID string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleHRManager, RoleEmployee:
		return companyID != "" && u.CompanyID == companyID
	default:
		return false
	}
}

// IsSelf matches the user to an employee record by e-mail within the user's company.
func (u UserContext) IsSelf(companyID, email string) bool {
	if u.Email == "" || email == "" {
		return false
	}
	if u.CompanyID != "" && u.CompanyID != companyID {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}
