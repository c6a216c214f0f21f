package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Movement types recognised by the ledger.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

var (
	// ErrAccountNotFound occurs when a movement references a missing account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive rejects movements against a deactivated account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidMovementType rejects types outside the fixed enumeration.
	ErrInvalidMovementType = errors.New("invalid movement type")

	// ErrInsufficientFunds occurs when a withdrawal would drive the
	// resulting balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNonPositiveValue rejects zero or negative movement values.
	ErrNonPositiveValue = errors.New("movement value must be positive")
)

// ValidType reports whether t is a recognised movement type.
func ValidType(t string) bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Movement is one immutable entry of an account's append-only log: a deposit
// or withdrawal together with the balance it produced. Once written it is
// never updated or deleted except through cascading account removal.
type Movement struct {
	ID         string
	AccountID  string
	OccurredAt time.Time
	Type       string
	Value      decimal.Decimal
	Balance    decimal.Decimal
}

// Store is the contract implemented by movement log backends.
//
// Append runs the entire validate-compute-insert sequence for one new
// movement. Implementations must serialize appends per account: no two
// concurrent appends on the same account may compute against the same prior
// balance. Appends on different accounts must not contend. Nothing is
// persisted on any failure path.
//
// CurrentBalance derives the account's balance from the log: the most recent
// movement's resulting balance, the opening balance when the log is empty,
// or zero when the account itself is gone. It is a snapshot read with no
// side effects and takes no locks.
type Store interface {
	Append(ctx context.Context, accountID, movementType string, value decimal.Decimal) (Movement, error)
	CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	ListByAccount(ctx context.Context, accountID string) ([]Movement, error)
	ListByClient(ctx context.Context, clientID string) ([]Movement, error)
	ListByClientBetween(ctx context.Context, clientID string, from, to time.Time) ([]Movement, error)
}

// nextBalance applies one movement to the current balance according to its
// type and enforces the non-negative invariant.
func nextBalance(current decimal.Decimal, movementType string, value decimal.Decimal) (decimal.Decimal, error) {
	switch movementType {
	case TypeDeposit:
		return current.Add(value), nil
	case TypeWithdrawal:
		balance := current.Sub(value)
		if balance.IsNegative() {
			return decimal.Decimal{}, ErrInsufficientFunds
		}
		return balance, nil
	default:
		return decimal.Decimal{}, ErrInvalidMovementType
	}
}
