package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fitbusiness/internal/platform/events"
	"fitbusiness/internal/platform/logging"
)

// MutationRecorder receives store activity for metrics.
type MutationRecorder interface {
	RecordMutation(op string)
	SetStoreSize(companies, employees int)
}

// Service fronts the Store for the transport layer and emits a domain event
// plus a metric for every successful mutation. Event delivery failures are
// logged and never undo the mutation.
type Service struct {
	store     *Store
	publisher events.Publisher
	recorder  MutationRecorder
	now       func() time.Time
}

func NewService(store *Store, publisher events.Publisher, recorder MutationRecorder) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		store:     store,
		publisher: publisher,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListCompanies() []Company {
	return s.store.ListCompanies()
}

func (s *Service) GetCompany(id string) (Company, error) {
	return s.store.GetCompany(id)
}

func (s *Service) ListEmployees() []Employee {
	return s.store.ListEmployees()
}

func (s *Service) EmployeesByCompany(companyID string) []Employee {
	return s.store.EmployeesByCompany(companyID)
}

func (s *Service) GetEmployee(id string) (Employee, error) {
	return s.store.GetEmployee(id)
}

func (s *Service) FindEmployeeByEmail(companyID, email string) (Employee, error) {
	return s.store.FindEmployeeByEmail(companyID, email)
}

func (s *Service) CreateCompany(ctx context.Context, actorID string, in CompanyInput) Company {
	c := s.store.AddCompany(in)
	s.emit(ctx, "company.create", events.Event{Type: events.TypeCompanyCreated, CompanyID: c.ID, EntityID: c.ID, ActorID: actorID, Payload: c})
	return c
}

func (s *Service) UpdateCompany(ctx context.Context, actorID string, c Company) (Company, error) {
	updated, err := s.store.UpdateCompany(c)
	if err != nil {
		return Company{}, err
	}
	s.emit(ctx, "company.update", events.Event{Type: events.TypeCompanyUpdated, CompanyID: updated.ID, EntityID: updated.ID, ActorID: actorID, Payload: updated})
	return updated, nil
}

func (s *Service) DeleteCompany(ctx context.Context, actorID, id string) (int, error) {
	removed, err := s.store.DeleteCompany(id)
	if err != nil {
		return 0, err
	}
	s.emit(ctx, "company.delete", events.Event{Type: events.TypeCompanyDeleted, CompanyID: id, EntityID: id, ActorID: actorID, Payload: map[string]int{"removedEmployees": removed}})
	return removed, nil
}

func (s *Service) CreateEmployee(ctx context.Context, actorID string, in EmployeeInput) (Employee, error) {
	e, err := s.store.AddEmployee(in)
	if err != nil {
		return Employee{}, err
	}
	s.emit(ctx, "employee.create", events.Event{Type: events.TypeEmployeeCreated, CompanyID: e.CompanyID, EntityID: e.ID, ActorID: actorID, Payload: e})
	return e, nil
}

// ImportEmployees is the commit path of a bulk import: one batch, one recompute.
func (s *Service) ImportEmployees(ctx context.Context, actorID, companyID string, inputs []EmployeeInput) ([]Employee, error) {
	created, err := s.store.BulkAddEmployees(companyID, inputs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(created))
	for i, e := range created {
		ids[i] = e.ID
	}
	s.emit(ctx, "employee.import", events.Event{Type: events.TypeEmployeesImported, CompanyID: companyID, ActorID: actorID, Payload: map[string]any{"employeeIds": ids}})
	return created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, actorID string, e Employee) (Employee, error) {
	updated, err := s.store.UpdateEmployee(e)
	if err != nil {
		return Employee{}, err
	}
	s.emit(ctx, "employee.update", events.Event{Type: events.TypeEmployeeUpdated, CompanyID: updated.CompanyID, EntityID: updated.ID, ActorID: actorID, Payload: updated})
	return updated, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, actorID, id string) (Employee, error) {
	removed, err := s.store.DeleteEmployee(id)
	if err != nil {
		return Employee{}, err
	}
	s.emit(ctx, "employee.delete", events.Event{Type: events.TypeEmployeeDeleted, CompanyID: removed.CompanyID, EntityID: removed.ID, ActorID: actorID})
	return removed, nil
}

func (s *Service) BulkDeleteEmployees(ctx context.Context, actorID, companyID string, ids []string) int {
	removed := s.store.BulkDeleteEmployees(ids, companyID)
	if removed > 0 {
		s.emit(ctx, "employee.bulk_delete", events.Event{Type: events.TypeEmployeesRemoved, CompanyID: companyID, ActorID: actorID, Payload: map[string]any{"requested": ids, "removed": removed}})
	}
	return removed
}

func (s *Service) AddGoal(ctx context.Context, actorID, employeeID string, in GoalInput) (Employee, Goal, error) {
	var goal Goal
	updated, err := s.store.ModifyEmployee(employeeID, func(e Employee) (Employee, error) {
		goals, g, err := AddGoal(e.Goals, uuid.NewString(), in)
		if err != nil {
			return Employee{}, err
		}
		e.Goals, goal = goals, g
		return e, nil
	})
	if err != nil {
		return Employee{}, Goal{}, err
	}
	s.emit(ctx, "goal.create", events.Event{Type: events.TypeEmployeeUpdated, CompanyID: updated.CompanyID, EntityID: updated.ID, ActorID: actorID, Payload: goal})
	return updated, goal, nil
}

func (s *Service) UpdateGoal(ctx context.Context, actorID, employeeID, goalID string, in GoalInput) (Employee, Goal, error) {
	var goal Goal
	updated, err := s.store.ModifyEmployee(employeeID, func(e Employee) (Employee, error) {
		goals, g, err := ReplaceGoal(e.Goals, goalID, in)
		if err != nil {
			return Employee{}, err
		}
		e.Goals, goal = goals, g
		return e, nil
	})
	if err != nil {
		return Employee{}, Goal{}, err
	}
	s.emit(ctx, "goal.update", events.Event{Type: events.TypeEmployeeUpdated, CompanyID: updated.CompanyID, EntityID: updated.ID, ActorID: actorID, Payload: goal})
	return updated, goal, nil
}

func (s *Service) DeleteGoal(ctx context.Context, actorID, employeeID, goalID string) (Employee, error) {
	updated, err := s.store.ModifyEmployee(employeeID, func(e Employee) (Employee, error) {
		goals, err := RemoveGoal(e.Goals, goalID)
		if err != nil {
			return Employee{}, err
		}
		e.Goals = goals
		return e, nil
	})
	if err != nil {
		return Employee{}, err
	}
	s.emit(ctx, "goal.delete", events.Event{Type: events.TypeEmployeeUpdated, CompanyID: updated.CompanyID, EntityID: updated.ID, ActorID: actorID, Payload: map[string]string{"goalId": goalID}})
	return updated, nil
}

func (s *Service) emit(ctx context.Context, op string, evt events.Event) {
	if s.recorder != nil {
		s.recorder.RecordMutation(op)
		s.recorder.SetStoreSize(s.store.Counts())
	}
	evt.ID = uuid.NewString()
	evt.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logging.FromContext(ctx).Warn("domain event publish failed", "type", evt.Type, "entity", evt.EntityID, "err", err)
	}
}
