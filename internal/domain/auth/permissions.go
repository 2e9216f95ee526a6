package auth

import (
	"context"
	"slices"
)

const (
	PermCompaniesRead  = "core.companies.read"
	PermCompaniesWrite = "core.companies.write"
	PermEmployeesRead  = "core.employees.read"
	PermEmployeesWrite = "core.employees.write"
	PermGoalsWrite     = "core.goals.write"
	PermImportsWrite   = "imports.write"
	PermDashboardRead  = "dashboard.read"
	PermReportsRead    = "reports.read"
	PermInsightsRead   = "insights.read"
	PermAuditRead      = "audit.read"
)

var DefaultPermissions = []string{
	PermCompaniesRead,
	PermCompaniesWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermGoalsWrite,
	PermImportsWrite,
	PermDashboardRead,
	PermReportsRead,
	PermInsightsRead,
	PermAuditRead,
}

var RolePermissions = map[Role][]string{
	RoleAdmin: DefaultPermissions,
	RoleHRManager: {
		PermCompaniesRead,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermGoalsWrite,
		PermImportsWrite,
		PermDashboardRead,
		PermReportsRead,
		PermInsightsRead,
		PermAuditRead,
	},
	RoleEmployee: {
		PermCompaniesRead,
		PermEmployeesRead,
		PermGoalsWrite,
		PermDashboardRead,
	},
}

// Permissions returns the grants of a role. Unknown roles get nothing.
func (r Role) Permissions() []string {
	switch r {
	case RoleAdmin, RoleHRManager, RoleEmployee:
		return RolePermissions[r]
	default:
		return nil
	}
}

func (r Role) Has(permission string) bool {
	return slices.Contains(r.Permissions(), permission)
}

// StaticPermissions resolves grants from the compiled role table.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role Role, permission string) (bool, error) {
	return role.Has(permission), nil
}
