package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the referenced account does not exist.
var ErrNotFound = errors.New("account not found")

// Repository persists account metadata.
type Repository interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	List(ctx context.Context, limit, offset int) ([]Account, error)
	ListByClient(ctx context.Context, clientID string) ([]Account, error)
	Update(ctx context.Context, a Account) error
	Delete(ctx context.Context, id string) error
	DeactivateByClient(ctx context.Context, clientID string) error
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, client_id, number, type, opening_balance::text, active, created_at`

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, a Account) error {
	accountID, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	clientID, err := uuid.Parse(a.ClientID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, client_id, number, type, opening_balance, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountID, clientID, a.Number, a.Type, a.OpeningBalance.String(), a.Active, a.CreatedAt.UTC())
	return err
}

// Get fetches account metadata by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// GetByNumber fetches account metadata by its unique external number.
func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	return scanAccount(row)
}

// List returns a page of accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// ListByClient returns every account owned by a client.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]Account, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE client_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// Update overwrites the mutable account fields. The opening balance is fixed
// at creation and never rewritten.
func (r *PostgresRepository) Update(ctx context.Context, a Account) error {
	accountID, err := uuid.Parse(a.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET number = $1, type = $2, active = $3 WHERE id = $4`,
		a.Number, a.Type, a.Active, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account; its movements follow by cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateByClient marks every account of a client inactive. Used by the
// identity replica when a client deactivation event wins.
func (r *PostgresRepository) DeactivateByClient(ctx context.Context, clientID string) error {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil
	}
	_, err = r.db.Exec(ctx, `UPDATE accounts SET active = FALSE WHERE client_id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		id        uuid.UUID
		clientID  uuid.UUID
		opening   string
		createdAt time.Time
		a         Account
	)
	if err := row.Scan(&id, &clientID, &a.Number, &a.Type, &opening, &a.Active, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	balance, err := decimal.NewFromString(opening)
	if err != nil {
		return Account{}, err
	}
	a.ID = id.String()
	a.ClientID = clientID.String()
	a.OpeningBalance = balance
	a.CreatedAt = createdAt.UTC()
	return a, nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
