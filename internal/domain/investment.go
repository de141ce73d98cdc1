package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus lifecycle: draft → funding → active → completed | cancelled.
// The funding→active flip happens automatically when raisedAmount reaches
// targetAmount.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectFunding   ProjectStatus = "funding"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// InvestmentProject is a capital-raising vehicle. The three optional account
// links gate whether its transactions post into the ledger.
type InvestmentProject struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Type              string           `json:"type"`
	Status            ProjectStatus    `json:"status"`
	TargetAmount      decimal.Decimal  `json:"targetAmount"`
	RaisedAmount      decimal.Decimal  `json:"raisedAmount"`
	MinInvestment     *decimal.Decimal `json:"minimumInvestment,omitempty"`
	MaxInvestment     *decimal.Decimal `json:"maximumInvestment,omitempty"`
	AssetAccountID    *uuid.UUID       `json:"accountingAssetAccountId,omitempty"`
	EquityAccountID   *uuid.UUID       `json:"accountingEquityAccountId,omitempty"`
	RevenueAccountID  *uuid.UUID       `json:"accountingRevenueAccountId,omitempty"`
	DiscountRate      decimal.Decimal  `json:"discountRate"`
	HurdleRate        decimal.Decimal  `json:"hurdleRate"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// KYCStatus gates an investor's ability to invest or receive shares.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

type Investor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	KYCStatus KYCStatus `json:"kycStatus"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvestmentStatus lifecycle: pending → active → exited | defaulted (terminal).
type InvestmentStatus string

const (
	InvestmentPending   InvestmentStatus = "pending"
	InvestmentActive    InvestmentStatus = "active"
	InvestmentExited    InvestmentStatus = "exited"
	InvestmentDefaulted InvestmentStatus = "defaulted"
)

// Investment is one investor's stake in a project. EquityPercentage is always
// recomputed from amount/raisedAmount, never set independently.
type Investment struct {
	ID                 uuid.UUID        `json:"id"`
	ProjectID          uuid.UUID        `json:"projectId"`
	InvestorID         uuid.UUID        `json:"investorId"`
	Amount             decimal.Decimal  `json:"amount"`
	EquityPercentage   decimal.Decimal  `json:"equityPercentage"`
	Status             InvestmentStatus `json:"status"`
	ActualReturnAmount decimal.Decimal  `json:"actualReturnAmount"`
	InvestmentDate     time.Time        `json:"investmentDate"`
	ExitDate           *time.Time       `json:"exitDate,omitempty"`
	JournalEntryID     *uuid.UUID       `json:"journalEntryId,omitempty"`
	Notes              string           `json:"notes,omitempty"`
}

// DistributionStatus lifecycle: scheduled/pending → paid | cancelled.
type DistributionStatus string

const (
	DistributionScheduled DistributionStatus = "scheduled"
	DistributionPending   DistributionStatus = "pending"
	DistributionPaid      DistributionStatus = "paid"
	DistributionCancelled DistributionStatus = "cancelled"
)

// Distribution is one investor's proportional slice of a project payout.
type Distribution struct {
	ID             uuid.UUID          `json:"id"`
	ProjectID      uuid.UUID          `json:"projectId"`
	InvestmentID   uuid.UUID          `json:"investmentId"`
	InvestorID     uuid.UUID          `json:"investorId"`
	Amount         decimal.Decimal    `json:"amount"`
	Type           string             `json:"type"`
	Status         DistributionStatus `json:"status"`
	PaidDate       *time.Time         `json:"paidDate,omitempty"`
	JournalEntryID *uuid.UUID         `json:"journalEntryId,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}
