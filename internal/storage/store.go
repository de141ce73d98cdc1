// Package storage defines the persistence boundary of the engine. Every
// multi-row mutation runs inside exactly one Tx obtained from Store.WithinTx;
// the engine never spans multiple transactions for a single logical operation.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
)

// Store owns the transaction boundary. WithinTx begins a transaction, runs fn
// against it, and commits; any error from fn rolls everything back and is
// returned unchanged.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// AccountActivity is one account's debit/credit line sums over a date range.
type AccountActivity struct {
	Account domain.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Tx is the unit-of-work handle passed into every engine function. All reads
// and writes of one logical operation go through the same Tx.
type Tx interface {
	// Accounts
	InsertAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	// AddToAccountBalance applies a signed delta to the running balance.
	AddToAccountBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// Journal
	InsertJournalEntry(ctx context.Context, e *domain.JournalEntry) error
	InsertJournalLine(ctx context.Context, l *domain.JournalLine) error
	// AccountActivity sums line amounts per account for entries dated within
	// [from, to]. Accounts with no activity in range are omitted.
	AccountActivity(ctx context.Context, from, to time.Time) ([]AccountActivity, error)

	// Projects
	InsertProject(ctx context.Context, p *domain.InvestmentProject) error
	GetProject(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error)
	UpdateProject(ctx context.Context, p *domain.InvestmentProject) error

	// Investors
	InsertInvestor(ctx context.Context, inv *domain.Investor) error
	GetInvestor(ctx context.Context, id uuid.UUID) (*domain.Investor, error)
	UpdateInvestor(ctx context.Context, inv *domain.Investor) error

	// Investments
	InsertInvestment(ctx context.Context, i *domain.Investment) error
	GetInvestment(ctx context.Context, id uuid.UUID) (*domain.Investment, error)
	UpdateInvestment(ctx context.Context, i *domain.Investment) error
	ListInvestmentsByProject(ctx context.Context, projectID uuid.UUID, onlyActive bool) ([]domain.Investment, error)

	// Share classes
	InsertShareClass(ctx context.Context, sc *domain.ShareClass) error
	GetShareClass(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error)
	UpdateShareClass(ctx context.Context, sc *domain.ShareClass) error

	// Allocations
	InsertAllocation(ctx context.Context, a *domain.ShareholderAllocation) error
	GetAllocation(ctx context.Context, id uuid.UUID) (*domain.ShareholderAllocation, error)
	UpdateAllocation(ctx context.Context, a *domain.ShareholderAllocation) error
	ListActiveAllocationsByClass(ctx context.Context, classID uuid.UUID) ([]domain.ShareholderAllocation, error)

	// Capital calls
	InsertCapitalCall(ctx context.Context, c *domain.CapitalCall) error
	GetCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error)
	UpdateCapitalCall(ctx context.Context, c *domain.CapitalCall) error

	// Payments
	InsertPayment(ctx context.Context, p *domain.ShareholderPayment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.ShareholderPayment, error)
	UpdatePayment(ctx context.Context, p *domain.ShareholderPayment) error
	ListPaymentsByCall(ctx context.Context, callID uuid.UUID) ([]domain.ShareholderPayment, error)

	// Distributions
	InsertDistribution(ctx context.Context, d *domain.Distribution) error
	GetDistribution(ctx context.Context, id uuid.UUID) (*domain.Distribution, error)
	UpdateDistribution(ctx context.Context, d *domain.Distribution) error
	ListDistributionsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Distribution, error)

	// Transfers
	InsertShareTransfer(ctx context.Context, t *domain.ShareTransfer) error
}
