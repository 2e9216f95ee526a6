package core

import "fitbusiness/internal/domain/auth"

// CanViewEmployee applies the role visibility rules to a single record.
func CanViewEmployee(emp Employee, user auth.UserContext) bool {
	switch user.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleHRManager:
		return user.CompanyID == emp.CompanyID
	case auth.RoleEmployee:
		return user.IsSelf(emp.CompanyID, emp.Email)
	default:
		return false
	}
}

// CanEditGoals reports whether the user may change the employee's goal list.
// Anyone who can see the record may edit its goals.
func CanEditGoals(emp Employee, user auth.UserContext) bool {
	return CanViewEmployee(emp, user)
}

// FilterEmployeeFields redacts the wellness snapshot for viewers outside the
// employee's own company.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	switch user.Role {
	case auth.RoleHRManager:
		if user.CompanyID == emp.CompanyID {
			return
		}
	case auth.RoleEmployee:
		if user.IsSelf(emp.CompanyID, emp.Email) {
			return
		}
	}
	emp.Metrics = nil
}

// VisibleEmployees filters and redacts a list for the user.
func VisibleEmployees(list []Employee, user auth.UserContext) []Employee {
	out := make([]Employee, 0, len(list))
	for _, emp := range list {
		if !CanViewEmployee(emp, user) {
			continue
		}
		FilterEmployeeFields(&emp, user)
		out = append(out, emp)
	}
	return out
}
