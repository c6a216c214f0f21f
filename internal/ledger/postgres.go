package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists the movement log in PostgreSQL. Per-account
// serialization comes from locking the account row for the duration of the
// append transaction; rows of other accounts stay untouched.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed movement log.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const movementColumns = `id, account_id, occurred_at, type, value::text, balance::text`

// Append validates and records one movement inside a single transaction.
func (s *PostgresStore) Append(ctx context.Context, accountID, movementType string, value decimal.Decimal) (Movement, error) {
	if !ValidType(movementType) {
		return Movement{}, ErrInvalidMovementType
	}
	if !value.IsPositive() {
		return Movement{}, ErrNonPositiveValue
	}
	accID, err := uuid.Parse(accountID)
	if err != nil {
		return Movement{}, ErrAccountNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Movement{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var (
		opening string
		active  bool
	)
	err = tx.QueryRow(ctx, `SELECT opening_balance::text, active FROM accounts WHERE id = $1 FOR UPDATE`, accID).
		Scan(&opening, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrAccountNotFound
		}
		return Movement{}, err
	}
	if !active {
		return Movement{}, ErrAccountInactive
	}

	current, err := decimal.NewFromString(opening)
	if err != nil {
		return Movement{}, err
	}

	var last string
	err = tx.QueryRow(ctx, `SELECT balance::text FROM movements
        WHERE account_id = $1 ORDER BY occurred_at DESC LIMIT 1`, accID).Scan(&last)
	switch {
	case err == nil:
		if current, err = decimal.NewFromString(last); err != nil {
			return Movement{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		// empty log, stay on the opening balance
	default:
		return Movement{}, err
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

	_, err = tx.Exec(ctx, `INSERT INTO movements (id, account_id, occurred_at, type, value, balance)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.MustParse(m.ID), accID, m.OccurredAt, m.Type, m.Value.String(), m.Balance.String())
	if err != nil {
		return Movement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Movement{}, err
	}
	return m, nil
}

// CurrentBalance derives the balance from the log without locking.
func (s *PostgresStore) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	accID, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, nil
	}

	var last string
	err = s.db.QueryRow(ctx, `SELECT balance::text FROM movements
        WHERE account_id = $1 ORDER BY occurred_at DESC LIMIT 1`, accID).Scan(&last)
	if err == nil {
		return decimal.NewFromString(last)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	var opening string
	err = s.db.QueryRow(ctx, `SELECT opening_balance::text FROM accounts WHERE id = $1`, accID).Scan(&opening)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// dangling reference, default defensively
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(opening)
}

// ListByAccount returns an account's movements, most recent first.
func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string) ([]Movement, error) {
	accID, err := uuid.Parse(accountID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+movementColumns+` FROM movements
        WHERE account_id = $1 ORDER BY occurred_at DESC`, accID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListByClient returns the movements across all of a client's accounts.
func (s *PostgresStore) ListByClient(ctx context.Context, clientID string) ([]Movement, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT m.id, m.account_id, m.occurred_at, m.type, m.value::text, m.balance::text
        FROM movements m JOIN accounts a ON a.id = m.account_id
        WHERE a.client_id = $1 ORDER BY m.occurred_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListByClientBetween restricts ListByClient to a closed date range.
func (s *PostgresStore) ListByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]Movement, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT m.id, m.account_id, m.occurred_at, m.type, m.value::text, m.balance::text
        FROM movements m JOIN accounts a ON a.id = m.account_id
        WHERE a.client_id = $1 AND m.occurred_at BETWEEN $2 AND $3
        ORDER BY m.occurred_at DESC`, id, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	var out []Movement
	for rows.Next() {
		var (
			id         uuid.UUID
			accID      uuid.UUID
			occurredAt time.Time
			value      string
			balance    string
			m          Movement
		)
		if err := rows.Scan(&id, &accID, &occurredAt, &m.Type, &value, &balance); err != nil {
			return nil, err
		}
		var err error
		if m.Value, err = decimal.NewFromString(value); err != nil {
			return nil, err
		}
		if m.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, err
		}
		m.ID = id.String()
		m.AccountID = accID.String()
		m.OccurredAt = occurredAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
