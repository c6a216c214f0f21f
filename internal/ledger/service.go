package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Service validates and records movements against the append-only log and
// answers derived balance reads.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds a ledger service instance.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateMovement applies one deposit or withdrawal. The store performs the
// balance computation and insert atomically; on any rejection nothing is
// persisted.
func (s *Service) CreateMovement(ctx context.Context, accountID, movementType string, value decimal.Decimal) (Movement, error) {
	if !ValidType(movementType) {
		s.logger.Warn("invalid movement type", slog.String("type", movementType))
		return Movement{}, ErrInvalidMovementType
	}
	if !value.IsPositive() {
		s.logger.Warn("non-positive movement value",
			slog.String("account_id", accountID), slog.String("value", value.String()))
		return Movement{}, ErrNonPositiveValue
	}

	m, err := s.store.Append(ctx, accountID, movementType, value)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrAccountInactive) || errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("movement rejected",
				slog.String("account_id", accountID),
				slog.String("type", movementType),
				slog.String("value", value.String()),
				slog.Any("reason", err))
		}
		return Movement{}, err
	}

	s.logger.Info("movement recorded",
		slog.String("movement_id", m.ID),
		slog.String("account_id", m.AccountID),
		slog.String("type", m.Type),
		slog.String("value", m.Value.String()),
		slog.String("balance", m.Balance.String()))
	return m, nil
}

// CurrentBalance resolves an account's derived balance.
func (s *Service) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.store.CurrentBalance(ctx, accountID)
}

// MovementsByAccount lists an account's history, most recent first.
func (s *Service) MovementsByAccount(ctx context.Context, accountID string) ([]Movement, error) {
	return s.store.ListByAccount(ctx, accountID)
}

// MovementsByClient lists the history across all of a client's accounts.
func (s *Service) MovementsByClient(ctx context.Context, clientID string) ([]Movement, error) {
	return s.store.ListByClient(ctx, clientID)
}

// MovementsByClientBetween restricts MovementsByClient to a date range.
func (s *Service) MovementsByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]Movement, error) {
	return s.store.ListByClientBetween(ctx, clientID, from, to)
}
