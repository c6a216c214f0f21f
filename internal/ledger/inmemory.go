package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryAccount struct {
	clientID string
	opening  decimal.Decimal
	active   bool
}

// MemoryStore is a concurrency-safe in-memory movement log applying the same
// policy as the Postgres store. Used by unit tests and local development.
type MemoryStore struct {
	mu        sync.Mutex
	accounts  map[string]memoryAccount
	movements map[string][]Movement
}

// NewMemoryStore creates an empty in-memory movement log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]memoryAccount),
		movements: make(map[string][]Movement),
	}
}

// SeedAccount registers an account the log can append against.
func (s *MemoryStore) SeedAccount(id, clientID string, opening decimal.Decimal, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = memoryAccount{clientID: clientID, opening: opening, active: active}
}

// SetActive flips a seeded account's active flag.
func (s *MemoryStore) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.active = active
		s.accounts[id] = a
	}
}

// Append validates and records one movement under the store mutex.
func (s *MemoryStore) Append(_ context.Context, accountID, movementType string, value decimal.Decimal) (Movement, error) {
	if !ValidType(movementType) {
		return Movement{}, ErrInvalidMovementType
	}
	if !value.IsPositive() {
		return Movement{}, ErrNonPositiveValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return Movement{}, ErrAccountNotFound
	}
	if !account.active {
		return Movement{}, ErrAccountInactive
	}

	current := account.opening
	if log := s.movements[accountID]; len(log) > 0 {
		current = log[len(log)-1].Balance
	}

	balance, err := nextBalance(current, movementType, value)
	if err != nil {
		return Movement{}, err
	}

	m := Movement{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		OccurredAt: time.Now().UTC(),
		Type:       movementType,
		Value:      value,
		Balance:    balance,
	}
	s.movements[accountID] = append(s.movements[accountID], m)
	return m, nil
}

// CurrentBalance derives the balance from the log.
func (s *MemoryStore) CurrentBalance(_ context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log := s.movements[accountID]; len(log) > 0 {
		return log[len(log)-1].Balance, nil
	}
	account, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, nil
	}
	return account.opening, nil
}

// ListByAccount returns an account's movements, most recent first.
func (s *MemoryStore) ListByAccount(_ context.Context, accountID string) ([]Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(s.movements[accountID]), nil
}

// ListByClient returns the movements across all of a client's accounts.
func (s *MemoryStore) ListByClient(_ context.Context, clientID string) ([]Movement, error) {
	return s.listByClient(clientID, func(Movement) bool { return true })
}

// ListByClientBetween restricts ListByClient to a closed date range.
func (s *MemoryStore) ListByClientBetween(_ context.Context, clientID string, from, to time.Time) ([]Movement, error) {
	return s.listByClient(clientID, func(m Movement) bool {
		return !m.OccurredAt.Before(from) && !m.OccurredAt.After(to)
	})
}

func (s *MemoryStore) listByClient(clientID string, keep func(Movement) bool) ([]Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Movement
	for accountID, account := range s.accounts {
		if account.clientID != clientID {
			continue
		}
		for _, m := range s.movements[accountID] {
			if keep(m) {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func reversed(in []Movement) []Movement {
	out := make([]Movement, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		out = append(out, in[i])
	}
	return out
}
