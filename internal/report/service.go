package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andesbank/coreledger/internal/account"
	"github.com/andesbank/coreledger/internal/ledger"
	"github.com/andesbank/coreledger/internal/lookup"
)

// ClientLookup resolves client identity for statement headers. Satisfied by
// the lookup guard, so a dead client service degrades the name instead of
// failing the statement.
type ClientLookup interface {
	GetClient(ctx context.Context, clientID string) lookup.ClientInfo
}

// Line is one entry of an account statement.
type Line struct {
	Date           time.Time       `json:"date"`
	Client         string          `json:"client"`
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Active         bool            `json:"active"`
	Value          decimal.Decimal `json:"value"`
	Balance        decimal.Decimal `json:"balance"`
}

// Service produces account statements by joining the movement log with
// account metadata and a guarded identity lookup.
type Service struct {
	movements ledger.Store
	accounts  account.Repository
	clients   ClientLookup
	logger    *slog.Logger
}

// NewService builds a report service.
func NewService(movements ledger.Store, accounts account.Repository, clients ClientLookup, logger *slog.Logger) *Service {
	return &Service{movements: movements, accounts: accounts, clients: clients, logger: logger}
}

// Statement lists a client's movements in the date range, one line per
// movement, joined with account metadata and the client's (possibly
// degraded) identity.
func (s *Service) Statement(ctx context.Context, clientID string, from, to time.Time) ([]Line, error) {
	movements, err := s.movements.ListByClientBetween(ctx, clientID, from, to)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]account.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	info := s.clients.GetClient(ctx, clientID)
	if info.Name == lookup.FallbackName {
		s.logger.Warn("statement rendered with degraded client identity",
			slog.String("client_id", clientID))
	}

	lines := make([]Line, 0, len(movements))
	for _, m := range movements {
		line := Line{
			Date:    m.OccurredAt,
			Client:  info.Name,
			Value:   m.Value,
			Balance: m.Balance,
		}
		if a, ok := byID[m.AccountID]; ok {
			line.AccountNumber = a.Number
			line.AccountType = a.Type
			line.OpeningBalance = a.OpeningBalance
			line.Active = a.Active
		} else {
			line.AccountNumber = "N/A"
			line.AccountType = "N/A"
			line.OpeningBalance = decimal.Zero
		}
		lines = append(lines, line)
	}
	return lines, nil
}
