package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/engine"
	"CapLedger/internal/storage"
	"CapLedger/internal/storage/memory"
)

// ============================================================================
// Test: equity recompute
// ============================================================================

func TestRecalculateEquity_FullRecompute(t *testing.T) {
	store := memory.NewStore()
	projectID := uuid.New()

	amounts := []string{"100", "250", "650"}
	err := store.WithinTx(context.Background(), func(tx storage.Tx) error {
		project := &domain.InvestmentProject{
			ID:           projectID,
			Name:         "p",
			Status:       domain.ProjectActive,
			TargetAmount: decimal.RequireFromString("1000"),
			RaisedAmount: decimal.RequireFromString("1000"),
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.InsertProject(context.Background(), project); err != nil {
			return err
		}
		for _, amount := range amounts {
			inv := &domain.Investment{
				ID:             uuid.New(),
				ProjectID:      projectID,
				InvestorID:     uuid.New(),
				Amount:         decimal.RequireFromString(amount),
				Status:         domain.InvestmentActive,
				InvestmentDate: time.Now().UTC(),
			}
			if err := tx.InsertInvestment(context.Background(), inv); err != nil {
				return err
			}
		}
		return engine.RecalculateEquity(context.Background(), tx, projectID)
	})
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	store.WithinTx(context.Background(), func(tx storage.Tx) error {
		investments, err := tx.ListInvestmentsByProject(context.Background(), projectID, true)
		if err != nil {
			return err
		}

		sum := decimal.Zero
		for _, inv := range investments {
			want := inv.Amount.Div(decimal.RequireFromString("1000"))
			if !inv.EquityPercentage.Equal(want) {
				t.Errorf("equity for %s = %s, want %s", inv.Amount, inv.EquityPercentage, want)
			}
			sum = sum.Add(inv.EquityPercentage)
		}
		if diff := sum.Sub(decimal.RequireFromString("1")).Abs(); diff.GreaterThan(decimal.RequireFromString("0.000001")) {
			t.Errorf("equity percentages sum to %s, want ~1", sum)
		}
		return nil
	})
}

func TestRecalculateEquity_NothingRaised(t *testing.T) {
	store := memory.NewStore()
	projectID := uuid.New()

	err := store.WithinTx(context.Background(), func(tx storage.Tx) error {
		project := &domain.InvestmentProject{
			ID:           projectID,
			Name:         "p",
			Status:       domain.ProjectFunding,
			TargetAmount: decimal.RequireFromString("1000"),
			RaisedAmount: decimal.Zero,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.InsertProject(context.Background(), project); err != nil {
			return err
		}
		inv := &domain.Investment{
			ID:               uuid.New(),
			ProjectID:        projectID,
			InvestorID:       uuid.New(),
			Amount:           decimal.RequireFromString("100"),
			EquityPercentage: decimal.RequireFromString("0.5"), // stale
			Status:           domain.InvestmentActive,
			InvestmentDate:   time.Now().UTC(),
		}
		if err := tx.InsertInvestment(context.Background(), inv); err != nil {
			return err
		}
		return engine.RecalculateEquity(context.Background(), tx, projectID)
	})
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	store.WithinTx(context.Background(), func(tx storage.Tx) error {
		investments, _ := tx.ListInvestmentsByProject(context.Background(), projectID, true)
		if !investments[0].EquityPercentage.IsZero() {
			t.Errorf("equity with nothing raised = %s, want 0", investments[0].EquityPercentage)
		}
		return nil
	})
}
