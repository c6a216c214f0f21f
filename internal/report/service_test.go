package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andesbank/coreledger/internal/account"
	"github.com/andesbank/coreledger/internal/ledger"
	"github.com/andesbank/coreledger/internal/logging"
	"github.com/andesbank/coreledger/internal/lookup"
)

type stubLookup struct {
	info lookup.ClientInfo
}

func (s stubLookup) GetClient(context.Context, string) lookup.ClientInfo {
	return s.info
}

func TestStatementJoinsMovementsAccountsAndClient(t *testing.T) {
	ctx := context.Background()

	movements := ledger.NewMemoryStore()
	accounts := account.NewMemoryRepository()

	clientID := uuid.NewString()
	acc := account.Account{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		Number:         "478758",
		Type:           account.TypeSavings,
		OpeningBalance: decimal.NewFromInt(2000),
		Active:         true,
	}
	if err := accounts.Create(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	movements.SeedAccount(acc.ID, clientID, acc.OpeningBalance, true)

	if _, err := movements.Append(ctx, acc.ID, ledger.TypeDeposit, decimal.NewFromInt(600)); err != nil {
		t.Fatalf("append deposit: %v", err)
	}
	if _, err := movements.Append(ctx, acc.ID, ledger.TypeWithdrawal, decimal.NewFromInt(575)); err != nil {
		t.Fatalf("append withdrawal: %v", err)
	}

	svc := NewService(movements, accounts, stubLookup{info: lookup.ClientInfo{
		ClientID: clientID, Name: "Jose Lema", Active: true,
	}}, logging.Discard())

	now := time.Now().UTC()
	lines, err := svc.Statement(ctx, clientID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 statement lines, got %d", len(lines))
	}

	// Most recent first: the withdrawal leading to 2025.
	first := lines[0]
	if first.Client != "Jose Lema" {
		t.Fatalf("expected client name on line, got %q", first.Client)
	}
	if first.AccountNumber != "478758" || first.AccountType != account.TypeSavings {
		t.Fatalf("line must carry account metadata: %+v", first)
	}
	if !first.OpeningBalance.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected opening balance 2000, got %s", first.OpeningBalance)
	}
	if !first.Balance.Equal(decimal.NewFromInt(2025)) {
		t.Fatalf("expected resulting balance 2025, got %s", first.Balance)
	}
}

func TestStatementFiltersDateRange(t *testing.T) {
	ctx := context.Background()

	movements := ledger.NewMemoryStore()
	accounts := account.NewMemoryRepository()

	clientID := uuid.NewString()
	accountID := uuid.NewString()
	movements.SeedAccount(accountID, clientID, decimal.Zero, true)
	if err := accounts.Create(ctx, account.Account{
		ID: accountID, ClientID: clientID, Number: "1", Type: account.TypeChecking, Active: true,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	if _, err := movements.Append(ctx, accountID, ledger.TypeDeposit, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("append: %v", err)
	}

	svc := NewService(movements, accounts, stubLookup{info: lookup.ClientInfo{ClientID: clientID, Name: "x", Active: true}}, logging.Discard())

	past := time.Now().UTC().Add(-48 * time.Hour)
	lines, err := svc.Statement(ctx, clientID, past.Add(-time.Hour), past)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty statement outside the range, got %d lines", len(lines))
	}
}

func TestStatementWithDegradedIdentity(t *testing.T) {
	ctx := context.Background()

	movements := ledger.NewMemoryStore()
	accounts := account.NewMemoryRepository()

	clientID := uuid.NewString()
	accountID := uuid.NewString()
	movements.SeedAccount(accountID, clientID, decimal.Zero, true)
	if err := accounts.Create(ctx, account.Account{
		ID: accountID, ClientID: clientID, Number: "9", Type: account.TypeSavings, Active: true,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if _, err := movements.Append(ctx, accountID, ledger.TypeDeposit, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("append: %v", err)
	}

	svc := NewService(movements, accounts, stubLookup{info: lookup.ClientInfo{
		ClientID: clientID, Name: lookup.FallbackName, Active: false,
	}}, logging.Discard())

	now := time.Now().UTC()
	lines, err := svc.Statement(ctx, clientID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("statement must succeed with degraded identity: %v", err)
	}
	if len(lines) != 1 || lines[0].Client != lookup.FallbackName {
		t.Fatalf("expected degraded client name, got %+v", lines)
	}
}

func TestStatementWithMissingAccountMetadata(t *testing.T) {
	ctx := context.Background()

	movements := ledger.NewMemoryStore()
	accounts := account.NewMemoryRepository()

	clientID := uuid.NewString()
	accountID := uuid.NewString()
	// Movement exists but the account row is gone from metadata.
	movements.SeedAccount(accountID, clientID, decimal.Zero, true)
	if _, err := movements.Append(ctx, accountID, ledger.TypeDeposit, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("append: %v", err)
	}

	svc := NewService(movements, accounts, stubLookup{info: lookup.ClientInfo{ClientID: clientID, Name: "x", Active: true}}, logging.Discard())

	now := time.Now().UTC()
	lines, err := svc.Statement(ctx, clientID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].AccountNumber != "N/A" || lines[0].AccountType != "N/A" {
		t.Fatalf("missing account metadata must render as N/A: %+v", lines[0])
	}
	if !lines[0].OpeningBalance.IsZero() {
		t.Fatalf("missing account metadata must render zero opening balance")
	}
}
