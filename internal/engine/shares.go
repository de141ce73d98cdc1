package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/events"
	"CapLedger/internal/identity"
	"CapLedger/internal/ledger"
	"CapLedger/internal/storage"
)

var certSeq atomic.Uint64

// newCertificateNumber follows the entry-number scheme: best-effort unique,
// with the store's unique index as the backstop.
func newCertificateNumber(issued time.Time) string {
	return fmt.Sprintf("CERT-%s-%06d", issued.Format("20060102-150405"), certSeq.Add(1)%1_000_000)
}

// AllotSharesInput issues new shares of a class to an investor. The account
// links are optional; when both are set the consideration is posted
// debit-cash/credit-share-capital.
type AllotSharesInput struct {
	InvestorID            uuid.UUID
	ShareClassID          uuid.UUID
	NumberOfShares        int64
	IssuePricePerShare    decimal.Decimal
	IssueDate             time.Time
	CashAccountID         *uuid.UUID
	ShareCapitalAccountID *uuid.UUID
}

// AllotShares issues shares against a class, bumping issuedShares and
// enforcing the authorized cap when the class has one.
func (e *Engine) AllotShares(ctx context.Context, in AllotSharesInput) (*domain.ShareholderAllocation, error) {
	if in.NumberOfShares <= 0 {
		return nil, domain.Validationf("number of shares must be positive, got %d", in.NumberOfShares)
	}
	if in.IssuePricePerShare.IsNegative() {
		return nil, domain.Validationf("issue price must not be negative, got %s", in.IssuePricePerShare)
	}

	var allocation *domain.ShareholderAllocation
	err := e.run(ctx, "allot_shares", func(tx storage.Tx) error {
		investor, err := tx.GetInvestor(ctx, in.InvestorID)
		if err != nil {
			return err
		}
		if investor.KYCStatus != domain.KYCApproved {
			return domain.Validationf("investor %s kyc status is %s, must be approved", investor.ID, investor.KYCStatus)
		}

		class, err := tx.GetShareClass(ctx, in.ShareClassID)
		if err != nil {
			return err
		}
		newIssued := class.IssuedShares + in.NumberOfShares
		if class.AuthorizedShares != nil && newIssued > *class.AuthorizedShares {
			return domain.Validationf("allotting %d shares would issue %d of %d authorized in class %s",
				in.NumberOfShares, newIssued, *class.AuthorizedShares, class.Code)
		}

		consideration := in.IssuePricePerShare.Mul(decimal.NewFromInt(in.NumberOfShares))
		allocation = &domain.ShareholderAllocation{
			ID:                 uuid.New(),
			CertificateNumber:  newCertificateNumber(in.IssueDate),
			InvestorID:         investor.ID,
			ShareClassID:       class.ID,
			NumberOfShares:     in.NumberOfShares,
			IssuePricePerShare: in.IssuePricePerShare,
			TotalConsideration: consideration,
			Status:             domain.AllocationActive,
			IssueDate:          in.IssueDate,
		}

		if consideration.IsPositive() {
			sink := ledger.SinkForAccounts(e.poster, in.CashAccountID, in.ShareCapitalAccountID)
			entry, err := sink.Post(ctx, tx, ledger.Posting{
				Date:        in.IssueDate,
				Description: fmt.Sprintf("Allotment of %d %s shares to %s", in.NumberOfShares, class.Code, investor.Name),
				SourceType:  "SHARE",
				CreatedBy:   identity.Actor(ctx),
				Amount:      consideration,
			})
			if err != nil {
				return err
			}
			if entry != nil {
				allocation.JournalEntryID = &entry.ID
			}
		}

		if err := tx.InsertAllocation(ctx, allocation); err != nil {
			return err
		}

		class.IssuedShares = newIssued
		return tx.UpdateShareClass(ctx, class)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeSharesAllotted, allocation)
	return allocation, nil
}

// TransferSharesInput moves an entire allocation to another investor.
// PricePerShare, when set, overrides the recorded issue price on the new row.
type TransferSharesInput struct {
	AllocationID  uuid.UUID
	ToInvestorID  uuid.UUID
	TransferDate  time.Time
	PricePerShare *decimal.Decimal
}

// TransferShares retires the source allocation and creates a fresh active one
// for the recipient, plus an audit row. The class's issuedShares is unchanged
// and no journal entry is posted: a secondary transfer moves no company cash.
func (e *Engine) TransferShares(ctx context.Context, in TransferSharesInput) (*domain.ShareTransfer, error) {
	var transfer *domain.ShareTransfer
	err := e.run(ctx, "transfer_shares", func(tx storage.Tx) error {
		source, err := tx.GetAllocation(ctx, in.AllocationID)
		if err != nil {
			return err
		}
		if source.Status != domain.AllocationActive {
			return domain.InvalidStatef("allocation %s is %s, only active allocations can be transferred", source.ID, source.Status)
		}

		recipient, err := tx.GetInvestor(ctx, in.ToInvestorID)
		if err != nil {
			return err
		}
		if recipient.KYCStatus != domain.KYCApproved {
			return domain.Validationf("recipient investor %s kyc status is %s, must be approved", recipient.ID, recipient.KYCStatus)
		}

		source.Status = domain.AllocationTransferred
		if err := tx.UpdateAllocation(ctx, source); err != nil {
			return err
		}

		price := source.IssuePricePerShare
		if in.PricePerShare != nil {
			price = *in.PricePerShare
		}
		next := domain.ShareholderAllocation{
			ID:                 uuid.New(),
			CertificateNumber:  newCertificateNumber(in.TransferDate),
			InvestorID:         recipient.ID,
			ShareClassID:       source.ShareClassID,
			NumberOfShares:     source.NumberOfShares,
			IssuePricePerShare: price,
			TotalConsideration: price.Mul(decimal.NewFromInt(source.NumberOfShares)),
			Status:             domain.AllocationActive,
			IssueDate:          in.TransferDate,
		}
		if err := tx.InsertAllocation(ctx, &next); err != nil {
			return err
		}

		transfer = &domain.ShareTransfer{
			ID:               uuid.New(),
			FromAllocationID: source.ID,
			ToAllocationID:   next.ID,
			FromInvestorID:   source.InvestorID,
			ToInvestorID:     recipient.ID,
			ShareClassID:     source.ShareClassID,
			NumberOfShares:   source.NumberOfShares,
			PricePerShare:    in.PricePerShare,
			TransferDate:     in.TransferDate,
		}
		return tx.InsertShareTransfer(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeSharesTransferred, transfer)
	return transfer, nil
}

func (e *Engine) GetAllocation(ctx context.Context, id uuid.UUID) (*domain.ShareholderAllocation, error) {
	var allocation *domain.ShareholderAllocation
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		allocation, err = tx.GetAllocation(ctx, id)
		return err
	})
	return allocation, err
}
