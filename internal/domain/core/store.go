package core

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps companies and employees in memory in insertion order. Every
// mutation that touches the employee set recomputes the affected company
// aggregates under the same lock.
type Store struct {
	mu        sync.RWMutex
	companies []Company
	employees []Employee
	now       func() time.Time
	newID     func() string
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCompany stores a new company built from the defaults. Its aggregates are
// computed from the (empty) employee set straight away, so a fresh company
// reads zero employees and an average of 0.
func (s *Store) AddCompany(in CompanyInput) Company {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := NewCompany(s.newID(), in, s.now())
	s.companies = append(s.companies, c)
	s.recalculateLocked(c.ID)
	return s.companies[len(s.companies)-1].clone()
}

// UpdateCompany replaces the editable fields of a stored company. Identity,
// creation time and the derived aggregates come from the stored record.
func (s *Store) UpdateCompany(c Company) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndex(c.ID)
	if idx < 0 {
		return Company{}, ErrCompanyNotFound
	}
	stored := s.companies[idx]
	now := s.now()

	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = now
	c.RiskIndex = clampScore(c.RiskIndex)
	c.RiskHistory = stored.RiskHistory
	if c.RiskIndex != stored.RiskIndex {
		c.RiskHistory = upsertPoint(stored.RiskHistory, Point{Month: now.Format("2006-01"), Value: c.RiskIndex})
	}
	c.TotalEmployees = stored.TotalEmployees
	c.AverageFitScore = stored.AverageFitScore
	s.companies[idx] = c
	if c.Name != stored.Name {
		for i := range s.employees {
			if s.employees[i].CompanyID == c.ID {
				s.employees[i].CompanyName = c.Name
			}
		}
	}
	s.recalculateLocked(c.ID)
	return s.companies[idx].clone(), nil
}

// DeleteCompany removes the company and every employee referencing it.
func (s *Store) DeleteCompany(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndex(id)
	if idx < 0 {
		return 0, ErrCompanyNotFound
	}
	before := len(s.employees)
	s.employees = slices.DeleteFunc(s.employees, func(e Employee) bool { return e.CompanyID == id })
	s.companies = slices.Delete(s.companies, idx, idx+1)
	return before - len(s.employees), nil
}

func (s *Store) GetCompany(id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.companyIndex(id)
	if idx < 0 {
		return Company{}, ErrCompanyNotFound
	}
	return s.companies[idx].clone(), nil
}

func (s *Store) ListCompanies() []Company {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Company, len(s.companies))
	for i, c := range s.companies {
		out[i] = c.clone()
	}
	return out
}

func (s *Store) AddEmployee(in EmployeeInput) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndex(in.CompanyID)
	if idx < 0 {
		return Employee{}, ErrCompanyNotFound
	}
	e := NewEmployee(s.newID(), in, s.companies[idx], s.now(), s.newID)
	s.employees = append(s.employees, e)
	s.recalculateLocked(e.CompanyID)
	return e.clone(), nil
}

// BulkAddEmployees appends a batch for one company and recomputes once.
func (s *Store) BulkAddEmployees(companyID string, inputs []EmployeeInput) ([]Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndex(companyID)
	if idx < 0 {
		return nil, ErrCompanyNotFound
	}
	company := s.companies[idx]
	now := s.now()
	created := make([]Employee, 0, len(inputs))
	for _, in := range inputs {
		e := NewEmployee(s.newID(), in, company, now, s.newID)
		s.employees = append(s.employees, e)
		created = append(created, e.clone())
	}
	s.recalculateLocked(companyID)
	return created, nil
}

// UpdateEmployee replaces the stored employee with the same ID. When the
// company changes both the previous and the new company are recomputed.
func (s *Store) UpdateEmployee(e Employee) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEmployeeLocked(e)
}

// ModifyEmployee applies fn to the stored employee and writes the result back
// as one atomic replace.
func (s *Store) ModifyEmployee(id string, fn func(Employee) (Employee, error)) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.employeeIndex(id)
	if idx < 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	next, err := fn(s.employees[idx].clone())
	if err != nil {
		return Employee{}, err
	}
	next.ID = id
	return s.updateEmployeeLocked(next)
}

func (s *Store) updateEmployeeLocked(e Employee) (Employee, error) {
	idx := s.employeeIndex(e.ID)
	if idx < 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	cIdx := s.companyIndex(e.CompanyID)
	if cIdx < 0 {
		return Employee{}, ErrCompanyNotFound
	}
	if DuplicateGoalID(e.Goals) >= 0 {
		return Employee{}, ErrDuplicateGoal
	}
	stored := s.employees[idx]

	e.CompanyName = s.companies[cIdx].Name
	e.FitScore = clampScore(e.FitScore)
	e.RiskLevel = RiskLevelFor(e.FitScore)
	e.CreatedAt = stored.CreatedAt
	e.UpdatedAt = s.now()
	if e.Goals == nil {
		e.Goals = []Goal{}
	}
	e = e.clone()
	s.employees[idx] = e

	s.recalculateLocked(e.CompanyID)
	if stored.CompanyID != e.CompanyID {
		s.recalculateLocked(stored.CompanyID)
	}
	return e.clone(), nil
}

func (s *Store) DeleteEmployee(id string) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.employeeIndex(id)
	if idx < 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	removed := s.employees[idx]
	s.employees = slices.Delete(s.employees, idx, idx+1)
	s.recalculateLocked(removed.CompanyID)
	return removed, nil
}

// BulkDeleteEmployees removes the listed employees of one company and
// recomputes once. IDs belonging to other companies are left alone. An empty
// ID list or a blank company is a no-op.
func (s *Store) BulkDeleteEmployees(ids []string, companyID string) int {
	if len(ids) == 0 || strings.TrimSpace(companyID) == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}
	before := len(s.employees)
	s.employees = slices.DeleteFunc(s.employees, func(e Employee) bool {
		_, ok := targets[e.ID]
		return ok && e.CompanyID == companyID
	})
	s.recalculateLocked(companyID)
	return before - len(s.employees)
}

func (s *Store) GetEmployee(id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.employeeIndex(id)
	if idx < 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	return s.employees[idx].clone(), nil
}

func (s *Store) EmployeesByCompany(companyID string) []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Employee{}
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			out = append(out, e.clone())
		}
	}
	return out
}

func (s *Store) ListEmployees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Employee, len(s.employees))
	for i, e := range s.employees {
		out[i] = e.clone()
	}
	return out
}

// FindEmployeeByEmail looks up an employee of a company by case-insensitive e-mail.
func (s *Store) FindEmployeeByEmail(companyID, email string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, e := range s.employees {
		if e.CompanyID == companyID && strings.EqualFold(e.Email, email) {
			return e.clone(), nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

// Recalculate recomputes the aggregates of one company from the employee set.
func (s *Store) Recalculate(companyID string) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.recalculateLocked(companyID) {
		return Company{}, ErrCompanyNotFound
	}
	return s.companies[s.companyIndex(companyID)].clone(), nil
}

// Counts returns the number of companies and employees held.
func (s *Store) Counts() (companies, employees int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.companies), len(s.employees)
}

// recalculateLocked writes totalEmployees and averageFitScore onto the
// company, leaving every other field untouched. Unknown companies are a no-op.
func (s *Store) recalculateLocked(companyID string) bool {
	idx := s.companyIndex(companyID)
	if idx < 0 {
		return false
	}
	var members []Employee
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			members = append(members, e)
		}
	}
	s.companies[idx].TotalEmployees = len(members)
	s.companies[idx].AverageFitScore = AverageFitScore(members)
	return true
}

func (s *Store) companyIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.companies, func(c Company) bool { return c.ID == id })
}

func (s *Store) employeeIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.employees, func(e Employee) bool { return e.ID == id })
}

func upsertPoint(series []Point, p Point) []Point {
	out := append([]Point(nil), series...)
	if n := len(out); n > 0 && out[n-1].Month == p.Month {
		out[n-1] = p
		return out
	}
	return append(out, p)
}
