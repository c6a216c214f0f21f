package client

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/andesbank/coreledger/internal/events"
	"github.com/andesbank/coreledger/internal/logging"
)

type capturingPublisher struct {
	published []events.ClientEvent
	fail      bool
}

func (p *capturingPublisher) Publish(_ context.Context, event events.ClientEvent) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, event)
	return nil
}

func newClientService() (*Service, *capturingPublisher) {
	pub := &capturingPublisher{}
	return NewService(NewMemoryRepository(), pub, logging.Discard()), pub
}

func TestCreateHashesPasswordAndPublishes(t *testing.T) {
	svc, pub := newClientService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{
		Name:           "Jose Lema",
		Gender:         "male",
		Age:            34,
		Identification: "1710034065",
		Address:        "Otavalo sn y principal",
		Phone:          "098254785",
		Password:       "1234",
		Active:         true,
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if bytes.Contains(created.PasswordHash, []byte("1234")) {
		t.Fatalf("password must not be stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword(created.PasswordHash, []byte("1234")); err != nil {
		t.Fatalf("stored hash must verify the original password: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	event := pub.published[0]
	if event.Type != events.TypeCreated || event.ClientID != created.ID || event.Name != "Jose Lema" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.OccurredAt.IsZero() {
		t.Fatalf("event must carry a timestamp")
	}
}

func TestCreateRequiresPassword(t *testing.T) {
	svc, _ := newClientService()

	if _, err := svc.Create(context.Background(), Input{Name: "x", Identification: "1"}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestCreateRejectsDuplicateIdentification(t *testing.T) {
	svc, pub := newClientService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Name: "A", Identification: "1710034065", Password: "p", Active: true}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, Input{Name: "B", Identification: "1710034065", Password: "q", Active: true}); !errors.Is(err, ErrDuplicateIdentification) {
		t.Fatalf("expected ErrDuplicateIdentification, got %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("rejected create must not publish, got %d events", len(pub.published))
	}
}

func TestUpdateKeepsHashWhenPasswordBlank(t *testing.T) {
	svc, pub := newClientService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "Marianela Montalvo", Identification: "0925874963", Password: "5678", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, Input{
		Name:           "Marianela Montalvo",
		Identification: "0925874963",
		Address:        "Amazonas y NNUU",
		Active:         true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !bytes.Equal(updated.PasswordHash, created.PasswordHash) {
		t.Fatalf("blank password must leave the stored hash untouched")
	}
	if updated.Address != "Amazonas y NNUU" {
		t.Fatalf("profile fields must update, got %q", updated.Address)
	}

	last := pub.published[len(pub.published)-1]
	if last.Type != events.TypeUpdated || last.ClientID != created.ID {
		t.Fatalf("expected UPDATED event, got %+v", last)
	}
}

func TestUpdateRotatesPassword(t *testing.T) {
	svc, _ := newClientService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "Juan Osorio", Identification: "0999", Password: "old", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, Input{Name: "Juan Osorio", Identification: "0999", Password: "new", Active: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if bytes.Equal(updated.PasswordHash, created.PasswordHash) {
		t.Fatalf("supplying a password must rotate the hash")
	}
	if _, err := svc.Authenticate(ctx, "0999", "new"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "0999", "old"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestAuthenticateUnknownIdentification(t *testing.T) {
	svc, _ := newClientService()

	if _, err := svc.Authenticate(context.Background(), "0000", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateRejectsTakenIdentification(t *testing.T) {
	svc, _ := newClientService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Name: "A", Identification: "111", Password: "p", Active: true}); err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := svc.Create(ctx, Input{Name: "B", Identification: "222", Password: "p", Active: true})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	if _, err := svc.Update(ctx, b.ID, Input{Name: "B", Identification: "111", Active: true}); !errors.Is(err, ErrDuplicateIdentification) {
		t.Fatalf("expected ErrDuplicateIdentification, got %v", err)
	}
}

func TestDeletePublishesEvent(t *testing.T) {
	svc, pub := newClientService()
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "to delete", Identification: "333", Password: "p", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	last := pub.published[len(pub.published)-1]
	if last.Type != events.TypeDeleted || last.ClientID != created.ID {
		t.Fatalf("expected DELETED event, got %+v", last)
	}
}

func TestDeleteMissingClient(t *testing.T) {
	svc, pub := newClientService()

	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("failed delete must not publish")
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &capturingPublisher{fail: true}
	svc := NewService(NewMemoryRepository(), pub, logging.Discard())
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "resilient", Identification: "444", Password: "p", Active: true})
	if err != nil {
		t.Fatalf("create must succeed despite publish failure: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Fatalf("client must be durably stored: %v", err)
	}
}
