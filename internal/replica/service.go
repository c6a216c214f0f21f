package replica

import (
	"context"
	"errors"
	"log/slog"

	"github.com/andesbank/coreledger/internal/events"
)

// AccountDeactivator marks a client's accounts inactive. Satisfied by the
// account repository.
type AccountDeactivator interface {
	DeactivateByClient(ctx context.Context, clientID string) error
}

// Service applies client identity events to the local replica. Application
// is idempotent and tolerates out-of-order delivery: writes are last-write-
// wins keyed by the event's own timestamp, and an event older than the
// stored record is discarded.
type Service struct {
	store    Store
	accounts AccountDeactivator
	logger   *slog.Logger
}

// NewService builds a replica service. accounts may be nil, in which case
// client deactivation does not cascade.
func NewService(store Store, accounts AccountDeactivator, logger *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts, logger: logger}
}

// Apply processes one client event. Business edge cases (unknown type, stale
// timestamp) are absorbed; storage errors propagate so the delivery
// substrate can redeliver.
func (s *Service) Apply(ctx context.Context, event events.ClientEvent) error {
	switch event.Type {
	case events.TypeCreated, events.TypeUpdated:
		return s.upsert(ctx, event)
	case events.TypeDeleted:
		if err := s.store.Delete(ctx, event.ClientID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		s.logger.Info("client removed from replica", slog.String("client_id", event.ClientID))
		return nil
	default:
		s.logger.Warn("unknown client event type, dropping",
			slog.String("type", event.Type), slog.String("client_id", event.ClientID))
		return nil
	}
}

func (s *Service) upsert(ctx context.Context, event events.ClientEvent) error {
	existing, err := s.store.Get(ctx, event.ClientID)
	switch {
	case err == nil:
		if event.OccurredAt.Before(existing.UpdatedAt) {
			s.logger.Info("stale client event, dropping",
				slog.String("client_id", event.ClientID),
				slog.Time("event_at", event.OccurredAt),
				slog.Time("replica_at", existing.UpdatedAt))
			return nil
		}
	case errors.Is(err, ErrNotFound):
		// first sighting of this client
	default:
		return err
	}

	record := Record{
		ClientID:       event.ClientID,
		Name:           event.Name,
		Identification: event.Identification,
		Active:         event.Active,
		UpdatedAt:      event.OccurredAt,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return err
	}
	s.logger.Info("client replica updated",
		slog.String("client_id", event.ClientID), slog.Bool("active", event.Active))

	// Deactivating a client cascades to its accounts.
	if !event.Active && s.accounts != nil {
		if err := s.accounts.DeactivateByClient(ctx, event.ClientID); err != nil {
			return err
		}
		s.logger.Info("accounts deactivated for client", slog.String("client_id", event.ClientID))
	}
	return nil
}

// Get reads a replica record.
func (s *Service) Get(ctx context.Context, clientID string) (Record, error) {
	return s.store.Get(ctx, clientID)
}
