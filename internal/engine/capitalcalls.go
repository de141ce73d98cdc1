package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/events"
	"CapLedger/internal/storage"
)

// CreateCapitalCall drafts a per-share demand against a share class. Nothing
// is owed until the call is issued.
func (e *Engine) CreateCapitalCall(ctx context.Context, shareClassID uuid.UUID, amountPerShare decimal.Decimal, dueDate time.Time) (*domain.CapitalCall, error) {
	if !amountPerShare.IsPositive() {
		return nil, domain.Validationf("amount per share must be positive, got %s", amountPerShare)
	}

	call := &domain.CapitalCall{
		ID:                uuid.New(),
		ShareClassID:      shareClassID,
		AmountPerShare:    amountPerShare,
		Status:            domain.CallDraft,
		TotalAmountCalled: decimal.Zero,
		DueDate:           dueDate,
		CreatedAt:         e.now(),
	}

	err := e.run(ctx, "create_capital_call", func(tx storage.Tx) error {
		if _, err := tx.GetShareClass(ctx, shareClassID); err != nil {
			return err
		}
		return tx.InsertCapitalCall(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return call, nil
}

// IssueCapitalCall turns a draft call into pending payments: one
// ShareholderPayment of shares × amountPerShare per active allocation of the
// share class, with the sum recorded as totalAmountCalled. Issuing against a
// class with no active allocations fails and creates nothing.
func (e *Engine) IssueCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error) {
	var call *domain.CapitalCall
	err := e.run(ctx, "issue_capital_call", func(tx storage.Tx) error {
		var err error
		call, err = tx.GetCapitalCall(ctx, id)
		if err != nil {
			return err
		}
		if call.Status != domain.CallDraft {
			return domain.InvalidStatef("capital call %s is %s, only draft calls can be issued", id, call.Status)
		}

		allocations, err := tx.ListActiveAllocationsByClass(ctx, call.ShareClassID)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return domain.Validationf("share class %s has no active allocations to call against", call.ShareClassID)
		}

		total := decimal.Zero
		for _, allocation := range allocations {
			amount := call.AmountPerShare.Mul(decimal.NewFromInt(allocation.NumberOfShares))
			dueDate := call.DueDate
			payment := domain.ShareholderPayment{
				ID:            uuid.New(),
				InvestorID:    allocation.InvestorID,
				CapitalCallID: &call.ID,
				Type:          domain.PaymentCapitalCall,
				Amount:        amount,
				Status:        domain.PaymentPending,
				DueDate:       &dueDate,
				CreatedAt:     e.now(),
			}
			if err := tx.InsertPayment(ctx, &payment); err != nil {
				return err
			}
			total = total.Add(amount)
		}

		call.TotalAmountCalled = total
		call.Status = domain.CallIssued
		return tx.UpdateCapitalCall(ctx, call)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeCapitalCallIssued, call)
	return call, nil
}

// CancelCapitalCall waives every associated payment and cancels the call.
// Only draft and issued calls can be cancelled.
func (e *Engine) CancelCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error) {
	var call *domain.CapitalCall
	err := e.run(ctx, "cancel_capital_call", func(tx storage.Tx) error {
		var err error
		call, err = tx.GetCapitalCall(ctx, id)
		if err != nil {
			return err
		}
		if call.Status != domain.CallDraft && call.Status != domain.CallIssued {
			return domain.InvalidStatef("capital call %s is %s, only draft or issued calls can be cancelled", id, call.Status)
		}

		payments, err := tx.ListPaymentsByCall(ctx, id)
		if err != nil {
			return err
		}
		for i := range payments {
			payments[i].Status = domain.PaymentWaived
			if err := tx.UpdatePayment(ctx, &payments[i]); err != nil {
				return err
			}
		}

		call.Status = domain.CallCancelled
		return tx.UpdateCapitalCall(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return call, nil
}

func (e *Engine) GetCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error) {
	var call *domain.CapitalCall
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		call, err = tx.GetCapitalCall(ctx, id)
		return err
	})
	return call, err
}
