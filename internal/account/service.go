package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidType indicates an account type outside the fixed enumeration.
	ErrInvalidType = errors.New("invalid account type")

	// ErrNegativeOpeningBalance rejects accounts opened in the red.
	ErrNegativeOpeningBalance = errors.New("opening balance cannot be negative")

	// ErrDuplicateNumber indicates the external account number is taken.
	ErrDuplicateNumber = errors.New("account number already registered")

	// ErrNumberRequired indicates a create request without an account number.
	ErrNumberRequired = errors.New("account number is required")

	// ErrInvalidClientID indicates a malformed owning client identifier.
	ErrInvalidClientID = errors.New("invalid client id")
)

// Service manages account metadata. Balances live in the movement log, not
// here.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds an account service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput captures data required to open an account.
type CreateInput struct {
	ClientID       string
	Number         string
	Type           string
	OpeningBalance decimal.Decimal
	Active         bool
}

// Create opens an account for a client.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	if input.Number == "" {
		return Account{}, ErrNumberRequired
	}
	if !ValidType(input.Type) {
		return Account{}, ErrInvalidType
	}
	if input.OpeningBalance.IsNegative() {
		return Account{}, ErrNegativeOpeningBalance
	}
	if _, err := uuid.Parse(input.ClientID); err != nil {
		return Account{}, ErrInvalidClientID
	}

	if _, err := s.repo.GetByNumber(ctx, input.Number); err == nil {
		s.logger.Warn("duplicate account number", slog.String("number", input.Number))
		return Account{}, ErrDuplicateNumber
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	a := Account{
		ID:             uuid.New().String(),
		ClientID:       input.ClientID,
		Number:         input.Number,
		Type:           input.Type,
		OpeningBalance: input.OpeningBalance,
		Active:         input.Active,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}
	s.logger.Info("account created",
		slog.String("account_id", a.ID),
		slog.String("number", a.Number),
		slog.String("type", a.Type),
		slog.String("opening_balance", a.OpeningBalance.String()))
	return a, nil
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Account, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListByClient returns the accounts owned by a client.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Account, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// UpdateInput captures the mutable account fields.
type UpdateInput struct {
	Number string
	Type   string
	Active bool
}

// Update changes an account's number, type or active flag.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Account, error) {
	if !ValidType(input.Type) {
		return Account{}, ErrInvalidType
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}

	if existing.Number != input.Number {
		if input.Number == "" {
			return Account{}, ErrNumberRequired
		}
		if _, err := s.repo.GetByNumber(ctx, input.Number); err == nil {
			return Account{}, ErrDuplicateNumber
		} else if !errors.Is(err, ErrNotFound) {
			return Account{}, err
		}
	}

	existing.Number = input.Number
	existing.Type = input.Type
	existing.Active = input.Active

	if err := s.repo.Update(ctx, existing); err != nil {
		return Account{}, err
	}
	s.logger.Info("account updated", slog.String("account_id", id), slog.Bool("active", existing.Active))
	return existing, nil
}

// Delete removes an account and, by cascade, its movement history.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", slog.String("account_id", id))
	return nil
}
