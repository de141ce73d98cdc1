package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"CapLedger/internal/domain"
	"CapLedger/internal/events"
	"CapLedger/internal/identity"
	"CapLedger/internal/ledger"
	"CapLedger/internal/storage"
)

// MarkPaymentPaidInput settles a payment. The two account links are optional;
// the payment is settled either way, a journal entry is posted only when both
// are supplied.
type MarkPaymentPaidInput struct {
	PaymentID       uuid.UUID
	CashAccountID   *uuid.UUID
	ContraAccountID *uuid.UUID
	Reference       string
}

// MarkPaymentPaid settles a shareholder payment. Incoming payment types post
// debit-cash/credit-contra, outgoing types the reverse. When the payment
// belongs to a capital call, the call's status is recomputed from its sibling
// payments: fully_paid when all are paid, partially_paid when at least one is.
func (e *Engine) MarkPaymentPaid(ctx context.Context, in MarkPaymentPaidInput) (*domain.ShareholderPayment, error) {
	var payment *domain.ShareholderPayment
	err := e.run(ctx, "mark_payment_paid", func(tx storage.Tx) error {
		var err error
		payment, err = tx.GetPayment(ctx, in.PaymentID)
		if err != nil {
			return err
		}
		if payment.Status == domain.PaymentPaid {
			return domain.InvalidStatef("payment %s is already paid", in.PaymentID)
		}

		if payment.Amount.IsPositive() {
			debit, credit := in.CashAccountID, in.ContraAccountID
			if !payment.Type.Incoming() {
				debit, credit = in.ContraAccountID, in.CashAccountID
			}
			entry, err := ledger.SinkForAccounts(e.poster, debit, credit).Post(ctx, tx, ledger.Posting{
				Date:        e.now(),
				Description: fmt.Sprintf("Shareholder payment %s (%s)", payment.ID, payment.Type),
				SourceType:  "PAY",
				CreatedBy:   identity.Actor(ctx),
				Amount:      payment.Amount,
			})
			if err != nil {
				return err
			}
			if entry != nil {
				payment.JournalEntryID = &entry.ID
			}
		}

		now := e.now()
		payment.Status = domain.PaymentPaid
		payment.PaidDate = &now
		if in.Reference != "" {
			payment.Reference = in.Reference
		}
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		if payment.CapitalCallID != nil {
			return recomputeCallStatus(ctx, tx, *payment.CapitalCallID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypePaymentPaid, payment)
	return payment, nil
}

// recomputeCallStatus rolls the paid/unpaid split of a call's payments up
// into the call status. Cancelled calls are left alone.
func recomputeCallStatus(ctx context.Context, tx storage.Tx, callID uuid.UUID) error {
	call, err := tx.GetCapitalCall(ctx, callID)
	if err != nil {
		return err
	}
	if call.Status == domain.CallCancelled {
		return nil
	}

	payments, err := tx.ListPaymentsByCall(ctx, callID)
	if err != nil {
		return err
	}

	paid := 0
	for _, p := range payments {
		if p.Status == domain.PaymentPaid {
			paid++
		}
	}

	switch {
	case len(payments) > 0 && paid == len(payments):
		call.Status = domain.CallFullyPaid
	case paid > 0:
		call.Status = domain.CallPartiallyPaid
	default:
		return nil
	}
	return tx.UpdateCapitalCall(ctx, call)
}

func (e *Engine) GetPayment(ctx context.Context, id uuid.UUID) (*domain.ShareholderPayment, error) {
	var payment *domain.ShareholderPayment
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		payment, err = tx.GetPayment(ctx, id)
		return err
	})
	return payment, err
}

func (e *Engine) ListCallPayments(ctx context.Context, callID uuid.UUID) ([]domain.ShareholderPayment, error) {
	var payments []domain.ShareholderPayment
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		payments, err = tx.ListPaymentsByCall(ctx, callID)
		return err
	})
	return payments, err
}
