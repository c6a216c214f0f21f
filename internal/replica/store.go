package replica

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the client has no record in the replica.
var ErrNotFound = errors.New("client not in replica")

// Record is the denormalized local copy of a client's identity held by the
// account service. UpdatedAt carries the timestamp of the event that last
// wrote it, not a local clock.
type Record struct {
	ClientID       string
	Name           string
	Identification string
	Active         bool
	UpdatedAt      time.Time
}

// Store persists replica records.
type Store interface {
	Get(ctx context.Context, clientID string) (Record, error)
	Upsert(ctx context.Context, r Record) error
	Delete(ctx context.Context, clientID string) error
}

// PostgresStore keeps the replica in the account service's own database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed replica store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get fetches a replica record by client id.
func (s *PostgresStore) Get(ctx context.Context, clientID string) (Record, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return Record{}, ErrNotFound
	}
	var (
		r         Record
		updatedAt time.Time
	)
	err = s.db.QueryRow(ctx, `SELECT client_id, name, identification, active, updated_at
        FROM client_replica WHERE client_id = $1`, id).
		Scan(&id, &r.Name, &r.Identification, &r.Active, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	r.ClientID = id.String()
	r.UpdatedAt = updatedAt.UTC()
	return r, nil
}

// Upsert inserts or overwrites a replica record.
func (s *PostgresStore) Upsert(ctx context.Context, r Record) error {
	id, err := uuid.Parse(r.ClientID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO client_replica (client_id, name, identification, active, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (client_id) DO UPDATE
        SET name = EXCLUDED.name, identification = EXCLUDED.identification,
            active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		id, r.Name, r.Identification, r.Active, r.UpdatedAt.UTC())
	return err
}

// Delete removes a replica record. Removing a missing record is not an error.
func (s *PostgresStore) Delete(ctx context.Context, clientID string) error {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil
	}
	_, err = s.db.Exec(ctx, `DELETE FROM client_replica WHERE client_id = $1`, id)
	return err
}
