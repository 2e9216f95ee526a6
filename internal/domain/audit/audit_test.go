package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServiceRecordAndList(t *testing.T) {
	ctx := context.Background()
	svc := New(NewMemoryStore(0))
	actor := Actor{UserID: "u-1", Role: "hr_manager", RequestID: "req-1", IP: "10.0.0.1"}

	require.NoError(t, svc.Record(ctx, "c-1", actor, "core.employee.create", "employee", "e-1", nil, map[string]int{"fitScore": 70}))
	require.NoError(t, svc.Record(ctx, "c-2", actor, "core.company.update", "company", "c-2", map[string]string{"name": "Old"}, map[string]string{"name": "New"}))
	require.NoError(t, svc.Record(ctx, "c-1", actor, "core.employee.delete", "employee", "e-1", nil, nil))

	total, err := svc.Count(ctx, Filter{CompanyID: "c-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	events, err := svc.List(ctx, Filter{CompanyID: "c-1"}, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "core.employee.delete", events[0].Action, "newest first")
	require.JSONEq(t, `{"fitScore":70}`, string(events[1].After))
	require.Equal(t, "req-1", events[1].RequestID)

	events, err = svc.List(ctx, Filter{}, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, evt := range events {
		require.Nil(t, evt.Before)
		require.Nil(t, evt.After)
	}
}

func TestMemoryStorePaginationAndFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		action := "core.employee.update"
		if i%2 == 0 {
			action = "core.employee.create"
		}
		require.NoError(t, store.Insert(ctx, Event{ID: fmt.Sprint(i), Action: action, ActorID: "u-1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	page, err := store.List(ctx, Filter{}, false, 3, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"4", "3", "2"}, ids(page))

	creates, err := store.List(ctx, Filter{Action: "core.employee.create"}, false, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"6", "4", "2", "0"}, ids(creates))

	none, err := store.List(ctx, Filter{ActorUser: "someone"}, false, 0, 0)
	require.NoError(t, err)
	require.Empty(t, none)

	window, err := store.List(ctx, Filter{From: base.Add(2 * time.Minute), To: base.Add(5 * time.Minute)}, false, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"4", "3", "2"}, ids(window), "from is inclusive, to exclusive")
}

func TestMemoryStoreCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, Event{ID: fmt.Sprint(i)}))
	}
	all, err := store.List(ctx, Filter{}, false, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"4", "3", "2"}, ids(all))
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

type failingStore struct{ MemoryStore }

func (*failingStore) Insert(context.Context, Event) error { return errors.New("disk full") }

type failureCounter struct{ n int }

func (c *failureCounter) RecordAuditFailure() { c.n++ }

func TestServiceCountsInsertFailures(t *testing.T) {
	counter := &failureCounter{}
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := New(&failingStore{}, WithFailureRecorder(counter), WithClock(func() time.Time { return fixed }))

	err := svc.Record(context.Background(), "c-1", Actor{UserID: "u-1"}, "core.company.delete", "company", "c-1", nil, nil)
	require.Error(t, err)
	require.Equal(t, 1, counter.n)
}
