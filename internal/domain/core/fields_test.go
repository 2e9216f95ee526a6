package core

import (
	"testing"

	"fitbusiness/internal/domain/auth"
)

func sampleEmployee() *Employee {
	return &Employee{
		ID:        "e-1",
		CompanyID: "c-1",
		Email:     "bia@acme.com",
		Metrics:   &WellnessMetrics{SleepHours: 6.5, StressPercent: 55, Mood: 3, Energy: 2},
	}
}

func TestFilterEmployeeFieldsHRSameCompany(t *testing.T) {
	emp := sampleEmployee()
	user := auth.UserContext{Role: auth.RoleHRManager, CompanyID: "c-1"}

	FilterEmployeeFields(emp, user)

	if emp.Metrics == nil {
		t.Fatal("HR of the same company should retain wellness metrics")
	}
}

func TestFilterEmployeeFieldsAdmin(t *testing.T) {
	emp := sampleEmployee()
	user := auth.UserContext{Role: auth.RoleAdmin}

	FilterEmployeeFields(emp, user)

	if emp.Metrics != nil {
		t.Fatal("Admin should not see individual wellness metrics")
	}
}

func TestFilterEmployeeFieldsEmployeeSelf(t *testing.T) {
	emp := sampleEmployee()
	user := auth.UserContext{Role: auth.RoleEmployee, CompanyID: "c-1", Email: "BIA@acme.com"}

	FilterEmployeeFields(emp, user)

	if emp.Metrics == nil {
		t.Fatal("Employee should see their own metrics")
	}
}

func TestVisibleEmployees(t *testing.T) {
	list := []Employee{
		{ID: "e-1", CompanyID: "c-1", Email: "bia@acme.com", Metrics: &WellnessMetrics{}},
		{ID: "e-2", CompanyID: "c-1", Email: "carl@acme.com", Metrics: &WellnessMetrics{}},
		{ID: "e-3", CompanyID: "c-2", Email: "dora@globex.com", Metrics: &WellnessMetrics{}},
	}

	cases := []struct {
		name string
		user auth.UserContext
		want []string
	}{
		{"admin", auth.UserContext{Role: auth.RoleAdmin}, []string{"e-1", "e-2", "e-3"}},
		{"hr", auth.UserContext{Role: auth.RoleHRManager, CompanyID: "c-1"}, []string{"e-1", "e-2"}},
		{"employee", auth.UserContext{Role: auth.RoleEmployee, CompanyID: "c-1", Email: "carl@acme.com"}, []string{"e-2"}},
		{"unknown", auth.UserContext{Role: "ghost", CompanyID: "c-1"}, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := VisibleEmployees(list, tc.user)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d employees, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected %s at %d, got %s", id, i, got[i].ID)
				}
			}
		})
	}
	if list[0].Metrics == nil {
		t.Fatal("filtering must not mutate the input slice")
	}
}
