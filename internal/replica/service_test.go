package replica

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/andesbank/coreledger/internal/account"
	"github.com/andesbank/coreledger/internal/events"
	"github.com/andesbank/coreledger/internal/logging"
)

func TestApplyCreatedAndUpdated(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, logging.Discard())
	ctx := context.Background()

	clientID := uuid.NewString()
	created := events.ClientEvent{
		Type:           events.TypeCreated,
		ClientID:       clientID,
		Name:           "Jose Lema",
		Identification: "1710034065",
		Active:         true,
		OccurredAt:     time.Now().UTC(),
	}
	if err := svc.Apply(ctx, created); err != nil {
		t.Fatalf("apply created: %v", err)
	}

	record, err := svc.Get(ctx, clientID)
	if err != nil {
		t.Fatalf("get replica record: %v", err)
	}
	if record.Name != "Jose Lema" || !record.Active {
		t.Fatalf("unexpected record: %+v", record)
	}

	updated := created
	updated.Type = events.TypeUpdated
	updated.Name = "Jose Lema Paredes"
	updated.OccurredAt = created.OccurredAt.Add(time.Second)
	if err := svc.Apply(ctx, updated); err != nil {
		t.Fatalf("apply updated: %v", err)
	}

	record, err = svc.Get(ctx, clientID)
	if err != nil {
		t.Fatalf("get replica record: %v", err)
	}
	if record.Name != "Jose Lema Paredes" {
		t.Fatalf("expected updated name, got %q", record.Name)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, logging.Discard())
	ctx := context.Background()

	event := events.ClientEvent{
		Type:       events.TypeCreated,
		ClientID:   uuid.NewString(),
		Name:       "Marianela Montalvo",
		Active:     true,
		OccurredAt: time.Now().UTC(),
	}

	for i := 0; i < 3; i++ {
		if err := svc.Apply(ctx, event); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	record, err := svc.Get(ctx, event.ClientID)
	if err != nil {
		t.Fatalf("get replica record: %v", err)
	}
	if record.Name != "Marianela Montalvo" || !record.UpdatedAt.Equal(event.OccurredAt) {
		t.Fatalf("re-applied event must leave the record unchanged: %+v", record)
	}
}

func TestStaleUpdateDropped(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, logging.Discard())
	ctx := context.Background()

	clientID := uuid.NewString()
	now := time.Now().UTC()

	fresh := events.ClientEvent{
		Type:       events.TypeUpdated,
		ClientID:   clientID,
		Name:       "current name",
		Active:     true,
		OccurredAt: now,
	}
	if err := svc.Apply(ctx, fresh); err != nil {
		t.Fatalf("apply fresh: %v", err)
	}

	stale := fresh
	stale.Name = "old name"
	stale.OccurredAt = now.Add(-time.Minute)
	if err := svc.Apply(ctx, stale); err != nil {
		t.Fatalf("apply stale: %v", err)
	}

	record, err := svc.Get(ctx, clientID)
	if err != nil {
		t.Fatalf("get replica record: %v", err)
	}
	if record.Name != "current name" {
		t.Fatalf("stale event must not overwrite newer state, got %q", record.Name)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, logging.Discard())
	ctx := context.Background()

	clientID := uuid.NewString()
	if err := svc.Apply(ctx, events.ClientEvent{
		Type:       events.TypeCreated,
		ClientID:   clientID,
		Name:       "to remove",
		Active:     true,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("apply created: %v", err)
	}

	deleted := events.ClientEvent{Type: events.TypeDeleted, ClientID: clientID, OccurredAt: time.Now().UTC()}
	if err := svc.Apply(ctx, deleted); err != nil {
		t.Fatalf("apply deleted: %v", err)
	}
	if err := svc.Apply(ctx, deleted); err != nil {
		t.Fatalf("re-applying delete must succeed: %v", err)
	}

	if _, err := svc.Get(ctx, clientID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUnknownEventTypeDropped(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, logging.Discard())

	err := svc.Apply(context.Background(), events.ClientEvent{
		Type:       "MERGED",
		ClientID:   uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unknown event type must be dropped without error, got %v", err)
	}
}

func TestDeactivationCascadesToAccounts(t *testing.T) {
	store := NewMemoryStore()
	accounts := account.NewMemoryRepository()
	svc := NewService(store, accounts, logging.Discard())
	ctx := context.Background()

	clientID := uuid.NewString()
	acc := account.Account{
		ID:       uuid.NewString(),
		ClientID: clientID,
		Number:   "478758",
		Type:     account.TypeSavings,
		Active:   true,
	}
	if err := accounts.Create(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	deactivated := events.ClientEvent{
		Type:       events.TypeUpdated,
		ClientID:   clientID,
		Name:       "Juan Osorio",
		Active:     false,
		OccurredAt: time.Now().UTC(),
	}
	if err := svc.Apply(ctx, deactivated); err != nil {
		t.Fatalf("apply deactivation: %v", err)
	}

	got, err := accounts.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Active {
		t.Fatalf("client deactivation must cascade to accounts")
	}
}
