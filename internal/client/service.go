package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/andesbank/coreledger/internal/events"
)

var (
	// ErrDuplicateIdentification indicates another client already owns the
	// identification number.
	ErrDuplicateIdentification = errors.New("identification already registered")

	// ErrPasswordRequired indicates a create request without a password.
	ErrPasswordRequired = errors.New("password is required")

	// ErrInvalidCredentials indicates a failed identification/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service manages the client lifecycle. Every successful durable write is
// followed by a fire-and-forget event publication; a failed publish is
// logged and never rolls back or fails the write.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a new client service.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Input captures the mutable client attributes supplied by callers. Password
// is the raw credential; it is hashed before it ever reaches a repository.
type Input struct {
	Name           string
	Gender         string
	Age            int
	Identification string
	Address        string
	Phone          string
	Password       string
	Active         bool
}

// Create registers a new client with a hashed credential.
func (s *Service) Create(ctx context.Context, input Input) (Client, error) {
	if input.Password == "" {
		return Client{}, ErrPasswordRequired
	}

	exists, err := s.repo.ExistsIdentification(ctx, input.Identification)
	if err != nil {
		return Client{}, err
	}
	if exists {
		s.logger.Warn("duplicate identification on create", slog.String("identification", input.Identification))
		return Client{}, ErrDuplicateIdentification
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Client{}, err
	}

	now := time.Now().UTC()
	c := Client{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Gender:         input.Gender,
		Age:            input.Age,
		Identification: input.Identification,
		Address:        input.Address,
		Phone:          input.Phone,
		PasswordHash:   hash,
		Active:         input.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Client{}, err
	}
	s.logger.Info("client created", slog.String("client_id", c.ID), slog.String("identification", c.Identification))

	s.publish(ctx, events.ClientEvent{
		Type:           events.TypeCreated,
		ClientID:       c.ID,
		Name:           c.Name,
		Identification: c.Identification,
		Active:         c.Active,
		OccurredAt:     c.UpdatedAt,
	})
	return c, nil
}

// Get fetches a client by id.
func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	return s.repo.Get(ctx, id)
}

// GetByIdentification fetches a client by identification number.
func (s *Service) GetByIdentification(ctx context.Context, identification string) (Client, error) {
	return s.repo.GetByIdentification(ctx, identification)
}

// List returns a page of clients.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Client, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListActive returns a page of active clients.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]Client, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// Update overwrites a client's profile. The stored credential is replaced
// only when a new password is supplied.
func (s *Service) Update(ctx context.Context, id string, input Input) (Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}

	if existing.Identification != input.Identification {
		exists, err := s.repo.ExistsIdentification(ctx, input.Identification)
		if err != nil {
			return Client{}, err
		}
		if exists {
			s.logger.Warn("duplicate identification on update",
				slog.String("client_id", id), slog.String("identification", input.Identification))
			return Client{}, ErrDuplicateIdentification
		}
	}

	existing.Name = input.Name
	existing.Gender = input.Gender
	existing.Age = input.Age
	existing.Identification = input.Identification
	existing.Address = input.Address
	existing.Phone = input.Phone
	existing.Active = input.Active
	existing.UpdatedAt = time.Now().UTC()

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return Client{}, err
		}
		existing.PasswordHash = hash
		s.logger.Info("client credential rotated", slog.String("client_id", id))
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return Client{}, err
	}
	s.logger.Info("client updated", slog.String("client_id", id))

	s.publish(ctx, events.ClientEvent{
		Type:           events.TypeUpdated,
		ClientID:       existing.ID,
		Name:           existing.Name,
		Identification: existing.Identification,
		Active:         existing.Active,
		OccurredAt:     existing.UpdatedAt,
	})
	return existing, nil
}

// Delete removes a client. Owned accounts and their movements go with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", slog.String("client_id", id))

	s.publish(ctx, events.ClientEvent{
		Type:       events.TypeDeleted,
		ClientID:   id,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// Authenticate verifies a credential against the stored hash. The raw value
// is never recoverable; comparison is hash-compare only.
func (s *Service) Authenticate(ctx context.Context, identification, password string) (Client, error) {
	c, err := s.repo.GetByIdentification(ctx, identification)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Client{}, ErrInvalidCredentials
		}
		return Client{}, err
	}
	if err := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)); err != nil {
		return Client{}, ErrInvalidCredentials
	}
	return c, nil
}

func (s *Service) publish(ctx context.Context, event events.ClientEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish client event",
			slog.String("type", event.Type),
			slog.String("client_id", event.ClientID),
			slog.Any("error", err))
	}
}
