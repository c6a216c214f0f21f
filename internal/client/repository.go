package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the referenced client does not exist.
var ErrNotFound = errors.New("client not found")

// Repository persists clients.
type Repository interface {
	Create(ctx context.Context, c Client) error
	Get(ctx context.Context, id string) (Client, error)
	GetByIdentification(ctx context.Context, identification string) (Client, error)
	ExistsIdentification(ctx context.Context, identification string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]Client, error)
	ListActive(ctx context.Context, limit, offset int) ([]Client, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL. Deleting a
// client cascades to its accounts and their movements via the schema's
// foreign keys.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed client repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const clientColumns = `id, name, gender, age, identification, address, phone, password_hash, active, created_at, updated_at`

// Create inserts a new client.
func (r *PostgresRepository) Create(ctx context.Context, c Client) error {
	clientID, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO clients (`+clientColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		clientID, c.Name, c.Gender, c.Age, c.Identification, c.Address, c.Phone,
		c.PasswordHash, c.Active, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return err
}

// Get fetches a client by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return Client{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, clientID)
	return scanClient(row)
}

// GetByIdentification fetches a client by its unique identification number.
func (r *PostgresRepository) GetByIdentification(ctx context.Context, identification string) (Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE identification = $1`, identification)
	return scanClient(row)
}

// ExistsIdentification reports whether a client with the identification exists.
func (r *PostgresRepository) ExistsIdentification(ctx context.Context, identification string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE identification = $1)`, identification).Scan(&exists)
	return exists, err
}

// List returns a page of clients ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients
        ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClients(rows)
}

// ListActive returns a page of active clients ordered by creation time.
func (r *PostgresRepository) ListActive(ctx context.Context, limit, offset int) ([]Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients
        WHERE active ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClients(rows)
}

// Update overwrites a client record.
func (r *PostgresRepository) Update(ctx context.Context, c Client) error {
	clientID, err := uuid.Parse(c.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE clients SET name = $1, gender = $2, age = $3,
        identification = $4, address = $5, phone = $6, password_hash = $7, active = $8,
        updated_at = $9 WHERE id = $10`,
		c.Name, c.Gender, c.Age, c.Identification, c.Address, c.Phone,
		c.PasswordHash, c.Active, c.UpdatedAt.UTC(), clientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a client; accounts and movements follow by cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, clientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (Client, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		updatedAt time.Time
		c         Client
	)
	if err := row.Scan(&id, &c.Name, &c.Gender, &c.Age, &c.Identification, &c.Address,
		&c.Phone, &c.PasswordHash, &c.Active, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	c.ID = id.String()
	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}

func scanClients(rows pgx.Rows) ([]Client, error) {
	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
