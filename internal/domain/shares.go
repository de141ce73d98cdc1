package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareClass tracks issuance against an optional authorized cap.
type ShareClass struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	AuthorizedShares *int64    `json:"authorizedShares,omitempty"`
	IssuedShares     int64     `json:"issuedShares"`
	VotingRights     bool      `json:"votingRights"`
	DividendPriority int       `json:"dividendPriority"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AllocationStatus lifecycle: transferred and cancelled are terminal for the
// row; a transfer creates a new active row for the recipient.
type AllocationStatus string

const (
	AllocationActive      AllocationStatus = "active"
	AllocationTransferred AllocationStatus = "transferred"
	AllocationCancelled   AllocationStatus = "cancelled"
	AllocationSuspended   AllocationStatus = "suspended"
)

// ShareholderAllocation is the issuance of shares of a class to an investor.
// Every allocation carries its own certificate number, including the fresh
// row a transfer creates for the recipient.
type ShareholderAllocation struct {
	ID                 uuid.UUID        `json:"id"`
	CertificateNumber  string           `json:"certificateNumber"`
	InvestorID         uuid.UUID        `json:"investorId"`
	ShareClassID       uuid.UUID        `json:"shareClassId"`
	NumberOfShares     int64            `json:"numberOfShares"`
	IssuePricePerShare decimal.Decimal  `json:"issuePricePerShare"`
	TotalConsideration decimal.Decimal  `json:"totalConsideration"`
	Status             AllocationStatus `json:"status"`
	IssueDate          time.Time        `json:"issueDate"`
	JournalEntryID     *uuid.UUID       `json:"journalEntryId,omitempty"`
}

// CapitalCallStatus lifecycle: draft → issued → partially_paid → fully_paid;
// draft|issued → cancelled.
type CapitalCallStatus string

const (
	CallDraft         CapitalCallStatus = "draft"
	CallIssued        CapitalCallStatus = "issued"
	CallPartiallyPaid CapitalCallStatus = "partially_paid"
	CallFullyPaid     CapitalCallStatus = "fully_paid"
	CallCancelled     CapitalCallStatus = "cancelled"
)

// CapitalCall demands a per-share amount from every active allocation of a
// share class. TotalAmountCalled is computed at issue time.
type CapitalCall struct {
	ID                uuid.UUID         `json:"id"`
	ShareClassID      uuid.UUID         `json:"shareClassId"`
	AmountPerShare    decimal.Decimal   `json:"amountPerShare"`
	Status            CapitalCallStatus `json:"status"`
	TotalAmountCalled decimal.Decimal   `json:"totalAmountCalled"`
	DueDate           time.Time         `json:"dueDate"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// PaymentType distinguishes money flowing in from money flowing out; the
// posting direction of markPaid depends on it.
type PaymentType string

const (
	PaymentCapitalCall         PaymentType = "capital_call"
	PaymentCapitalContribution PaymentType = "capital_contribution"
	PaymentDividend            PaymentType = "dividend"
	PaymentLoanRepayment       PaymentType = "loan_repayment"
	PaymentInterest            PaymentType = "interest"
)

// Incoming reports whether the payment moves cash into the company.
func (t PaymentType) Incoming() bool {
	return t == PaymentCapitalCall || t == PaymentCapitalContribution
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentWaived  PaymentStatus = "waived"
)

// ShareholderPayment tracks an amount owed by or to a shareholder.
// JournalEntryID is set only when marking it paid produced a posting.
type ShareholderPayment struct {
	ID             uuid.UUID       `json:"id"`
	InvestorID     uuid.UUID       `json:"investorId"`
	CapitalCallID  *uuid.UUID      `json:"capitalCallId,omitempty"`
	Type           PaymentType     `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Status         PaymentStatus   `json:"status"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	PaidDate       *time.Time      `json:"paidDate,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	JournalEntryID *uuid.UUID      `json:"journalEntryId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ShareTransfer is the audit row recorded when an allocation changes hands.
type ShareTransfer struct {
	ID               uuid.UUID        `json:"id"`
	FromAllocationID uuid.UUID        `json:"fromAllocationId"`
	ToAllocationID   uuid.UUID        `json:"toAllocationId"`
	FromInvestorID   uuid.UUID        `json:"fromInvestorId"`
	ToInvestorID     uuid.UUID        `json:"toInvestorId"`
	ShareClassID     uuid.UUID        `json:"shareClassId"`
	NumberOfShares   int64            `json:"numberOfShares"`
	PricePerShare    *decimal.Decimal `json:"pricePerShare,omitempty"`
	TransferDate     time.Time        `json:"transferDate"`
}
