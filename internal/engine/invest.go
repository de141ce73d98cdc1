package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/events"
	"CapLedger/internal/identity"
	"CapLedger/internal/ledger"
	"CapLedger/internal/storage"
)

// InvestInput is the invest operation contract.
type InvestInput struct {
	ProjectID  uuid.UUID
	InvestorID uuid.UUID
	Amount     decimal.Decimal
	Date       time.Time
	Notes      string
}

// Invest records a new investment in a project. In one transaction it
// inserts the active Investment row, bumps the project's raisedAmount
// (flipping the project to active when the target is reached), recomputes
// equity percentages for every active investment in the project, and, when
// the project's asset and equity accounts are configured, posts a balanced
// debit-asset/credit-equity entry linked to the investment.
func (e *Engine) Invest(ctx context.Context, in InvestInput) (*domain.Investment, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Validationf("investment amount must be positive, got %s", in.Amount)
	}

	var investment *domain.Investment
	err := e.run(ctx, "invest", func(tx storage.Tx) error {
		project, err := tx.GetProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectFunding && project.Status != domain.ProjectActive {
			return domain.InvalidStatef("project %s is %s, investments require funding or active status", project.ID, project.Status)
		}

		investor, err := tx.GetInvestor(ctx, in.InvestorID)
		if err != nil {
			return err
		}
		if investor.KYCStatus != domain.KYCApproved {
			return domain.Validationf("investor %s kyc status is %s, must be approved", investor.ID, investor.KYCStatus)
		}

		if project.MinInvestment != nil && in.Amount.LessThan(*project.MinInvestment) {
			return domain.Validationf("amount %s is below minimum investment %s", in.Amount, project.MinInvestment)
		}
		if project.MaxInvestment != nil && in.Amount.GreaterThan(*project.MaxInvestment) {
			return domain.Validationf("amount %s is above maximum investment %s", in.Amount, project.MaxInvestment)
		}

		newRaised := project.RaisedAmount.Add(in.Amount)
		if newRaised.GreaterThan(project.TargetAmount) {
			return domain.Validationf("amount %s would raise %s past the target %s", in.Amount, newRaised, project.TargetAmount)
		}

		investment = &domain.Investment{
			ID:                 uuid.New(),
			ProjectID:          project.ID,
			InvestorID:         investor.ID,
			Amount:             in.Amount,
			EquityPercentage:   decimal.Zero, // set by the recompute below
			Status:             domain.InvestmentActive,
			ActualReturnAmount: decimal.Zero,
			InvestmentDate:     in.Date,
			Notes:              in.Notes,
		}

		sink := ledger.SinkForAccounts(e.poster, project.AssetAccountID, project.EquityAccountID)
		entry, err := sink.Post(ctx, tx, ledger.Posting{
			Date:        in.Date,
			Description: fmt.Sprintf("Investment by %s in %s", investor.Name, project.Name),
			SourceType:  "INV",
			CreatedBy:   identity.Actor(ctx),
			Amount:      in.Amount,
		})
		if err != nil {
			return err
		}
		if entry != nil {
			investment.JournalEntryID = &entry.ID
		}

		if err := tx.InsertInvestment(ctx, investment); err != nil {
			return err
		}

		project.RaisedAmount = newRaised
		if project.Status == domain.ProjectFunding && newRaised.GreaterThanOrEqual(project.TargetAmount) {
			project.Status = domain.ProjectActive
		}
		if err := tx.UpdateProject(ctx, project); err != nil {
			return err
		}

		if err := RecalculateEquity(ctx, tx, project.ID); err != nil {
			return err
		}

		// Pick up the percentage the recompute just wrote.
		investment, err = tx.GetInvestment(ctx, investment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeInvestmentCreated, investment)
	return investment, nil
}

// Exit settles an investment: sets the terminal exited status, the exit date
// and the realized return, and, when the project's accounts are configured,
// posts debit-equity/credit-asset for the return amount. Other investors'
// percentages are untouched.
func (e *Engine) Exit(ctx context.Context, investmentID uuid.UUID, actualReturnAmount decimal.Decimal, exitDate time.Time) (*domain.Investment, error) {
	if actualReturnAmount.IsNegative() {
		return nil, domain.Validationf("actual return amount must not be negative, got %s", actualReturnAmount)
	}

	var investment *domain.Investment
	err := e.run(ctx, "exit", func(tx storage.Tx) error {
		var err error
		investment, err = tx.GetInvestment(ctx, investmentID)
		if err != nil {
			return err
		}

		project, err := tx.GetProject(ctx, investment.ProjectID)
		if err != nil {
			return err
		}

		if actualReturnAmount.IsPositive() {
			sink := ledger.SinkForAccounts(e.poster, project.EquityAccountID, project.AssetAccountID)
			entry, err := sink.Post(ctx, tx, ledger.Posting{
				Date:        exitDate,
				Description: fmt.Sprintf("Exit of investment %s from %s", investment.ID, project.Name),
				SourceType:  "EXIT",
				CreatedBy:   identity.Actor(ctx),
				Amount:      actualReturnAmount,
			})
			if err != nil {
				return err
			}
			if entry != nil {
				investment.JournalEntryID = &entry.ID
			}
		}

		investment.Status = domain.InvestmentExited
		investment.ActualReturnAmount = actualReturnAmount
		investment.ExitDate = &exitDate
		return tx.UpdateInvestment(ctx, investment)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.TypeInvestmentExited, investment)
	return investment, nil
}

func (e *Engine) GetInvestment(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	var investment *domain.Investment
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		investment, err = tx.GetInvestment(ctx, id)
		return err
	})
	return investment, err
}

func (e *Engine) ListInvestments(ctx context.Context, projectID uuid.UUID) ([]domain.Investment, error) {
	var investments []domain.Investment
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		investments, err = tx.ListInvestmentsByProject(ctx, projectID, false)
		return err
	})
	return investments, err
}
