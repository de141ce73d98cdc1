package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/storage"
)

// RecalculateEquity recomputes every active investment's proportional
// ownership of a project as amount / raisedAmount. It is a full recompute,
// not an incremental update: each new investor dilutes all existing ones.
//
// Callers must invoke it inside the same transaction that changed
// raisedAmount, so no reader ever observes stale percentages after the total
// has moved. After it returns, the active percentages sum to 1 within
// rounding tolerance (or are all zero when nothing has been raised).
func RecalculateEquity(ctx context.Context, tx storage.Tx, projectID uuid.UUID) error {
	project, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	investments, err := tx.ListInvestmentsByProject(ctx, projectID, true)
	if err != nil {
		return err
	}

	for i := range investments {
		inv := &investments[i]
		if project.RaisedAmount.IsZero() {
			inv.EquityPercentage = decimal.Zero
		} else {
			inv.EquityPercentage = inv.Amount.Div(project.RaisedAmount)
		}
		if err := tx.UpdateInvestment(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}
