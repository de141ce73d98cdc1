package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/events"
	"CapLedger/internal/identity"
	"CapLedger/internal/ledger"
	"CapLedger/internal/storage"
)

// CreateDistributions splits a total payout across every active investment
// in the project, proportional to equity percentage. Rows are created
// scheduled; nothing is posted until a distribution is marked paid.
func (e *Engine) CreateDistributions(ctx context.Context, projectID uuid.UUID, totalAmount decimal.Decimal, distributionType string) ([]domain.Distribution, error) {
	if !totalAmount.IsPositive() {
		return nil, domain.Validationf("distribution total must be positive, got %s", totalAmount)
	}

	var created []domain.Distribution
	err := e.run(ctx, "create_distributions", func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}

		investments, err := tx.ListInvestmentsByProject(ctx, projectID, true)
		if err != nil {
			return err
		}

		created = created[:0]
		for _, inv := range investments {
			d := domain.Distribution{
				ID:           uuid.New(),
				ProjectID:    projectID,
				InvestmentID: inv.ID,
				InvestorID:   inv.InvestorID,
				Amount:       totalAmount.Mul(inv.EquityPercentage),
				Type:         distributionType,
				Status:       domain.DistributionScheduled,
				CreatedAt:    e.now(),
			}
			if err := tx.InsertDistribution(ctx, &d); err != nil {
				return err
			}
			created = append(created, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MarkDistributionPaid pays out one distribution: posts
// debit-revenue/credit-asset when the project's accounts are configured,
// adds the amount to the investment's realized return, and sets the terminal
// paid status. Paying an already-paid distribution fails and changes nothing.
func (e *Engine) MarkDistributionPaid(ctx context.Context, id uuid.UUID) (*domain.Distribution, error) {
	var distribution *domain.Distribution
	err := e.run(ctx, "mark_distribution_paid", func(tx storage.Tx) error {
		var err error
		distribution, err = tx.GetDistribution(ctx, id)
		if err != nil {
			return err
		}
		if distribution.Status == domain.DistributionPaid {
			return domain.InvalidStatef("distribution %s is already paid", id)
		}
		if distribution.Status == domain.DistributionCancelled {
			return domain.InvalidStatef("distribution %s is cancelled", id)
		}

		project, err := tx.GetProject(ctx, distribution.ProjectID)
		if err != nil {
			return err
		}

		if distribution.Amount.IsPositive() {
			sink := ledger.SinkForAccounts(e.poster, project.RevenueAccountID, project.AssetAccountID)
			entry, err := sink.Post(ctx, tx, ledger.Posting{
				Date:        e.now(),
				Description: fmt.Sprintf("Distribution %s payout for %s", distribution.ID, project.Name),
				SourceType:  "DIST",
				CreatedBy:   identity.Actor(ctx),
				Amount:      distribution.Amount,
			})
			if err != nil {
				return err
			}
			if entry != nil {
				distribution.JournalEntryID = &entry.ID
			}
		}

		investment, err := tx.GetInvestment(ctx, distribution.InvestmentID)
		if err != nil {
			return err
		}
		investment.ActualReturnAmount = investment.ActualReturnAmount.Add(distribution.Amount)
		if err := tx.UpdateInvestment(ctx, investment); err != nil {
			return err
		}

		now := e.now()
		distribution.Status = domain.DistributionPaid
		distribution.PaidDate = &now
		return tx.UpdateDistribution(ctx, distribution)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeDistributionPaid, distribution)
	return distribution, nil
}

func (e *Engine) ListDistributions(ctx context.Context, projectID uuid.UUID) ([]domain.Distribution, error) {
	var distributions []domain.Distribution
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		distributions, err = tx.ListDistributionsByProject(ctx, projectID)
		return err
	})
	return distributions, err
}
