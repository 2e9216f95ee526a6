package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId"`
	ActorID    string          `json:"actorId"`
	ActorRole  string          `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Filter narrows a listing. An empty CompanyID matches every company.
type Filter struct {
	CompanyID  string
	Action     string
	EntityType string
	ActorUser  string
	// From is inclusive and To exclusive; zero values leave the side open.
	From time.Time
	To   time.Time
}

func (f Filter) Matches(evt Event) bool {
	if f.CompanyID != "" && evt.CompanyID != f.CompanyID {
		return false
	}
	if f.Action != "" && evt.Action != f.Action {
		return false
	}
	if f.EntityType != "" && evt.EntityType != f.EntityType {
		return false
	}
	if f.ActorUser != "" && evt.ActorID != f.ActorUser {
		return false
	}
	if !f.From.IsZero() && evt.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !evt.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

// Store persists audit events. List returns newest first; limit <= 0 means no limit.
type Store interface {
	Insert(ctx context.Context, evt Event) error
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error)
}

// Actor identifies who performed an audited action.
type Actor struct {
	UserID    string
	Role      string
	RequestID string
	IP        string
}

// FailureRecorder counts events that could not be persisted.
type FailureRecorder interface {
	RecordAuditFailure()
}

type Service struct {
	store    Store
	failures FailureRecorder
	now      func() time.Time
}

type Option func(*Service)

func WithFailureRecorder(r FailureRecorder) Option {
	return func(s *Service) { s.failures = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Record(ctx context.Context, companyID string, actor Actor, action, entityType, entityID string, before, after any) error {
	evt := Event{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  actor.RequestID,
		IP:         actor.IP,
		CreatedAt:  s.now(),
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		evt.After = payload
	}
	if err := s.store.Insert(ctx, evt); err != nil {
		if s.failures != nil {
			s.failures.RecordAuditFailure()
		}
		return err
	}
	return nil
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	return s.store.Count(ctx, filter)
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	return s.store.List(ctx, filter, includeDetails, limit, offset)
}

func (s *Service) ListExport(ctx context.Context, filter Filter) ([]Event, error) {
	return s.store.List(ctx, filter, false, 0, 0)
}
