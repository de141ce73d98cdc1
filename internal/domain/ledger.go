package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account for reporting.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// NormalBalance says whether an account's balance grows with debits or credits.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// DefaultNormalBalance returns the conventional normal balance for a type.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case AccountAsset, AccountExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account is a ledger account. CurrentBalance is the append-only running sum
// of every posted line against it.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	NormalBalance  NormalBalance   `json:"normalBalance"`
	ParentID       *uuid.UUID      `json:"parentId,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// LineType is the side of a journal line.
type LineType string

const (
	LineDebit  LineType = "debit"
	LineCredit LineType = "credit"
)

// EntryStatus has a single value: entries are immutable once created and
// there is no amendment path.
type EntryStatus string

const EntryPosted EntryStatus = "posted"

// JournalEntry is an immutable, balanced record of a financial event.
// TotalDebit always equals TotalCredit and both equal the sum of the
// respective line amounts.
type JournalEntry struct {
	ID          uuid.UUID       `json:"id"`
	EntryNumber string          `json:"entryNumber"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	SourceType  string          `json:"sourceType"`
	Status      EntryStatus     `json:"status"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// JournalLine is one debit or credit movement against a single account.
// Lines are created only as matched debit/credit pairs by the posting service.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	EntryID     uuid.UUID       `json:"entryId"`
	AccountID   uuid.UUID       `json:"accountId"`
	Type        LineType        `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}
