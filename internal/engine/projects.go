package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/storage"
)

// CreateProjectInput describes a new project. The three account links are
// optional; their presence gates whether the project's transactions post into
// the ledger.
type CreateProjectInput struct {
	Name             string
	Type             string
	TargetAmount     decimal.Decimal
	MinInvestment    *decimal.Decimal
	MaxInvestment    *decimal.Decimal
	AssetAccountID   *uuid.UUID
	EquityAccountID  *uuid.UUID
	RevenueAccountID *uuid.UUID
	DiscountRate     decimal.Decimal
	HurdleRate       decimal.Decimal
}

func (e *Engine) CreateProject(ctx context.Context, in CreateProjectInput) (*domain.InvestmentProject, error) {
	if in.Name == "" {
		return nil, domain.Validationf("project name is required")
	}
	if in.TargetAmount.IsNegative() {
		return nil, domain.Validationf("target amount must not be negative")
	}
	if in.MinInvestment != nil && in.MaxInvestment != nil && in.MinInvestment.GreaterThan(*in.MaxInvestment) {
		return nil, domain.Validationf("minimum investment exceeds maximum investment")
	}

	project := &domain.InvestmentProject{
		ID:               uuid.New(),
		Name:             in.Name,
		Type:             in.Type,
		Status:           domain.ProjectDraft,
		TargetAmount:     in.TargetAmount,
		RaisedAmount:     decimal.Zero,
		MinInvestment:    in.MinInvestment,
		MaxInvestment:    in.MaxInvestment,
		AssetAccountID:   in.AssetAccountID,
		EquityAccountID:  in.EquityAccountID,
		RevenueAccountID: in.RevenueAccountID,
		DiscountRate:     in.DiscountRate,
		HurdleRate:       in.HurdleRate,
		CreatedAt:        e.now(),
	}

	err := e.run(ctx, "create_project", func(tx storage.Tx) error {
		for _, accountID := range []*uuid.UUID{in.AssetAccountID, in.EquityAccountID, in.RevenueAccountID} {
			if accountID == nil {
				continue
			}
			if _, err := tx.GetAccount(ctx, *accountID); err != nil {
				return err
			}
		}
		return tx.InsertProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (e *Engine) GetProject(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error) {
	var project *domain.InvestmentProject
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		return err
	})
	return project, err
}

// PublishProject moves a draft project into funding. Requires a positive
// target amount.
func (e *Engine) PublishProject(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error) {
	var project *domain.InvestmentProject
	err := e.run(ctx, "publish_project", func(tx storage.Tx) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectDraft {
			return domain.InvalidStatef("project %s is %s, only draft projects can be published", id, project.Status)
		}
		if !project.TargetAmount.IsPositive() {
			return domain.Validationf("project target amount must be positive to publish")
		}
		project.Status = domain.ProjectFunding
		return tx.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CloseProject manually completes or cancels an active project.
func (e *Engine) CloseProject(ctx context.Context, id uuid.UUID, target domain.ProjectStatus) (*domain.InvestmentProject, error) {
	if target != domain.ProjectCompleted && target != domain.ProjectCancelled {
		return nil, domain.Validationf("close target must be completed or cancelled, got %q", target)
	}

	var project *domain.InvestmentProject
	err := e.run(ctx, "close_project", func(tx storage.Tx) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectActive {
			return domain.InvalidStatef("project %s is %s, only active projects can be closed", id, project.Status)
		}
		project.Status = target
		return tx.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}
