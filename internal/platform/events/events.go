package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeCompanyCreated    = "company.created"
	TypeCompanyUpdated    = "company.updated"
	TypeCompanyDeleted    = "company.deleted"
	TypeEmployeeCreated   = "employee.created"
	TypeEmployeeUpdated   = "employee.updated"
	TypeEmployeeDeleted   = "employee.deleted"
	TypeEmployeesImported = "employees.imported"
	TypeEmployeesRemoved  = "employees.bulk_deleted"
)

// Event is a domain change notification. CompanyID is used as the partition key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CompanyID  string    `json:"companyId"`
	EntityID   string    `json:"entityId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
