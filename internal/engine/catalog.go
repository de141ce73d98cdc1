package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/storage"
)

// The catalog surface is the thin row plumbing the engine operations depend
// on: ledger accounts, investors, share classes. Uniqueness (account code,
// share class code, investor email) is enforced by the store and surfaces as
// Conflict.

// CreateAccountInput describes a new ledger account.
type CreateAccountInput struct {
	Code          string
	Name          string
	Type          domain.AccountType
	NormalBalance domain.NormalBalance // defaults by account type when empty
	ParentID      *uuid.UUID
}

func (e *Engine) CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error) {
	if in.Code == "" || in.Name == "" {
		return nil, domain.Validationf("account code and name are required")
	}
	switch in.Type {
	case domain.AccountAsset, domain.AccountLiability, domain.AccountEquity,
		domain.AccountRevenue, domain.AccountExpense:
	default:
		return nil, domain.Validationf("unknown account type %q", in.Type)
	}

	normal := in.NormalBalance
	if normal == "" {
		normal = domain.DefaultNormalBalance(in.Type)
	}

	account := &domain.Account{
		ID:             uuid.New(),
		Code:           in.Code,
		Name:           in.Name,
		Type:           in.Type,
		NormalBalance:  normal,
		ParentID:       in.ParentID,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
		CreatedAt:      e.now(),
	}

	err := e.run(ctx, "create_account", func(tx storage.Tx) error {
		if in.ParentID != nil {
			if _, err := tx.GetAccount(ctx, *in.ParentID); err != nil {
				return err
			}
		}
		return tx.InsertAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (e *Engine) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account *domain.Account
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		account, err = tx.GetAccount(ctx, id)
		return err
	})
	return account, err
}

func (e *Engine) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		accounts, err = tx.ListAccounts(ctx)
		return err
	})
	return accounts, err
}

// CreateInvestorInput creates an investor. New investors start with pending
// KYC and cannot invest until approved.
type CreateInvestorInput struct {
	Name  string
	Email string
}

func (e *Engine) CreateInvestor(ctx context.Context, in CreateInvestorInput) (*domain.Investor, error) {
	if in.Name == "" || in.Email == "" {
		return nil, domain.Validationf("investor name and email are required")
	}

	investor := &domain.Investor{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		KYCStatus: domain.KYCPending,
		CreatedAt: e.now(),
	}

	err := e.run(ctx, "create_investor", func(tx storage.Tx) error {
		return tx.InsertInvestor(ctx, investor)
	})
	if err != nil {
		return nil, err
	}
	return investor, nil
}

func (e *Engine) GetInvestor(ctx context.Context, id uuid.UUID) (*domain.Investor, error) {
	var investor *domain.Investor
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		investor, err = tx.GetInvestor(ctx, id)
		return err
	})
	return investor, err
}

// SetInvestorKYC moves an investor's KYC status.
func (e *Engine) SetInvestorKYC(ctx context.Context, id uuid.UUID, status domain.KYCStatus) (*domain.Investor, error) {
	switch status {
	case domain.KYCPending, domain.KYCApproved, domain.KYCRejected:
	default:
		return nil, domain.Validationf("unknown kyc status %q", status)
	}

	var investor *domain.Investor
	err := e.run(ctx, "set_investor_kyc", func(tx storage.Tx) error {
		var err error
		investor, err = tx.GetInvestor(ctx, id)
		if err != nil {
			return err
		}
		investor.KYCStatus = status
		return tx.UpdateInvestor(ctx, investor)
	})
	if err != nil {
		return nil, err
	}
	return investor, nil
}

// CreateShareClassInput creates a share class. A nil AuthorizedShares means
// uncapped issuance.
type CreateShareClassInput struct {
	Code             string
	Name             string
	AuthorizedShares *int64
	VotingRights     bool
	DividendPriority int
}

func (e *Engine) CreateShareClass(ctx context.Context, in CreateShareClassInput) (*domain.ShareClass, error) {
	if in.Code == "" || in.Name == "" {
		return nil, domain.Validationf("share class code and name are required")
	}
	if in.AuthorizedShares != nil && *in.AuthorizedShares <= 0 {
		return nil, domain.Validationf("authorized shares must be positive when set")
	}

	sc := &domain.ShareClass{
		ID:               uuid.New(),
		Code:             in.Code,
		Name:             in.Name,
		AuthorizedShares: in.AuthorizedShares,
		IssuedShares:     0,
		VotingRights:     in.VotingRights,
		DividendPriority: in.DividendPriority,
		CreatedAt:        e.now(),
	}

	err := e.run(ctx, "create_share_class", func(tx storage.Tx) error {
		return tx.InsertShareClass(ctx, sc)
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (e *Engine) GetShareClass(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	var sc *domain.ShareClass
	err := e.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		sc, err = tx.GetShareClass(ctx, id)
		return err
	})
	return sc, err
}
