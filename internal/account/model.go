package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types accepted by the system.
const (
	TypeSavings  = "savings"
	TypeChecking = "checking"
)

// ValidType reports whether t is a recognised account type.
func ValidType(t string) bool {
	return t == TypeSavings || t == TypeChecking
}

// Account belongs to exactly one client. It carries the opening balance the
// movement log starts from; the current balance is never stored here, it is
// always derived from the log.
type Account struct {
	ID             string
	ClientID       string
	Number         string
	Type           string
	OpeningBalance decimal.Decimal
	Active         bool
	CreatedAt      time.Time
}
