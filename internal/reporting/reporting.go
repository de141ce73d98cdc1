// Package reporting derives the read-side financial statements from posted
// journal activity: trial balance, profit & loss, balance sheet, and
// per-project performance metrics. Reports are computed on demand, never
// stored.
package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/fincalc"
	"CapLedger/internal/storage"
)

// balanceTolerance absorbs decimal rounding when checking that the books
// balance.
var balanceTolerance = decimal.NewFromFloat(0.01)

// reportEpoch is the lower bound used for as-of reports; no entry predates it.
var reportEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Service computes reports against the store. It is read-only: every method
// runs a single transaction and writes nothing.
type Service struct {
	store storage.Store
	log   zerolog.Logger
}

func NewService(store storage.Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// TrialBalanceRow is one account's aggregate debits and credits over the
// report period.
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"accountId"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance lists per-account debit/credit sums for a period. Balanced is
// true when total debits and credits agree within the rounding tolerance.
type TrialBalance struct {
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	Balanced     bool              `json:"balanced"`
}

func (s *Service) TrialBalance(ctx context.Context, from, to time.Time) (*TrialBalance, error) {
	report := &TrialBalance{
		From:         from,
		To:           to,
		Rows:         []TrialBalanceRow{},
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}

	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		activity, err := tx.AccountActivity(ctx, from, to)
		if err != nil {
			return err
		}
		for _, a := range activity {
			report.Rows = append(report.Rows, TrialBalanceRow{
				AccountID:   a.Account.ID,
				AccountCode: a.Account.Code,
				AccountName: a.Account.Name,
				Debit:       a.Debit,
				Credit:      a.Credit,
			})
			report.TotalDebits = report.TotalDebits.Add(a.Debit)
			report.TotalCredits = report.TotalCredits.Add(a.Credit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Balanced = report.TotalDebits.Sub(report.TotalCredits).Abs().LessThanOrEqual(balanceTolerance)
	if !report.Balanced {
		s.log.Error().
			Str("total_debits", report.TotalDebits.String()).
			Str("total_credits", report.TotalCredits.String()).
			Msg("trial balance does not balance")
	}
	return report, nil
}

// StatementLine is one account's contribution to a statement section.
type StatementLine struct {
	AccountID   uuid.UUID       `json:"accountId"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Amount      decimal.Decimal `json:"amount"`
}

// ProfitAndLoss nets revenue against expenses over a period. Revenue lines
// carry credit minus debit, expense lines debit minus credit, so both read as
// positive in the normal case.
type ProfitAndLoss struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	RevenueLines  []StatementLine `json:"revenueLines"`
	ExpenseLines  []StatementLine `json:"expenseLines"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
}

func (s *Service) ProfitAndLoss(ctx context.Context, from, to time.Time) (*ProfitAndLoss, error) {
	report := &ProfitAndLoss{
		From:          from,
		To:            to,
		RevenueLines:  []StatementLine{},
		ExpenseLines:  []StatementLine{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		activity, err := tx.AccountActivity(ctx, from, to)
		if err != nil {
			return err
		}
		for _, a := range activity {
			switch a.Account.Type {
			case domain.AccountRevenue:
				amount := a.Credit.Sub(a.Debit)
				report.RevenueLines = append(report.RevenueLines, statementLine(a.Account, amount))
				report.TotalRevenue = report.TotalRevenue.Add(amount)
			case domain.AccountExpense:
				amount := a.Debit.Sub(a.Credit)
				report.ExpenseLines = append(report.ExpenseLines, statementLine(a.Account, amount))
				report.TotalExpenses = report.TotalExpenses.Add(amount)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

// BalanceSheet states the accounting equation at a point in time. Net income
// accumulated by revenue and expense accounts is folded into equity as
// retained earnings, so assets = liabilities + equity holds on balanced books.
type BalanceSheet struct {
	AsOf             time.Time       `json:"asOf"`
	AssetLines       []StatementLine `json:"assetLines"`
	LiabilityLines   []StatementLine `json:"liabilityLines"`
	EquityLines      []StatementLine `json:"equityLines"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	RetainedEarnings decimal.Decimal `json:"retainedEarnings"`
	Balanced         bool            `json:"balanced"`
}

func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (*BalanceSheet, error) {
	report := &BalanceSheet{
		AsOf:             asOf,
		AssetLines:       []StatementLine{},
		LiabilityLines:   []StatementLine{},
		EquityLines:      []StatementLine{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		RetainedEarnings: decimal.Zero,
	}

	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		activity, err := tx.AccountActivity(ctx, reportEpoch, asOf)
		if err != nil {
			return err
		}
		for _, a := range activity {
			balance := a.Debit.Sub(a.Credit)
			if a.Account.NormalBalance == domain.NormalCredit {
				balance = a.Credit.Sub(a.Debit)
			}
			switch a.Account.Type {
			case domain.AccountAsset:
				report.AssetLines = append(report.AssetLines, statementLine(a.Account, balance))
				report.TotalAssets = report.TotalAssets.Add(balance)
			case domain.AccountLiability:
				report.LiabilityLines = append(report.LiabilityLines, statementLine(a.Account, balance))
				report.TotalLiabilities = report.TotalLiabilities.Add(balance)
			case domain.AccountEquity:
				report.EquityLines = append(report.EquityLines, statementLine(a.Account, balance))
				report.TotalEquity = report.TotalEquity.Add(balance)
			case domain.AccountRevenue:
				report.RetainedEarnings = report.RetainedEarnings.Add(balance)
			case domain.AccountExpense:
				report.RetainedEarnings = report.RetainedEarnings.Sub(balance)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.TotalEquity = report.TotalEquity.Add(report.RetainedEarnings)
	diff := report.TotalAssets.Sub(report.TotalLiabilities.Add(report.TotalEquity))
	report.Balanced = diff.Abs().LessThanOrEqual(balanceTolerance)
	if !report.Balanced {
		s.log.Error().
			Str("total_assets", report.TotalAssets.String()).
			Str("total_liabilities", report.TotalLiabilities.String()).
			Str("total_equity", report.TotalEquity.String()).
			Msg("balance sheet does not balance")
	}
	return report, nil
}

func statementLine(a domain.Account, amount decimal.Decimal) StatementLine {
	return StatementLine{
		AccountID:   a.ID,
		AccountCode: a.Code,
		AccountName: a.Name,
		Amount:      amount,
	}
}

// ProjectPerformance summarizes a project's capital flows. IRR and NPV are
// best-effort analytics over yearly cash-flow buckets; they are advisory
// figures, not postings.
type ProjectPerformance struct {
	ProjectID       uuid.UUID            `json:"projectId"`
	ProjectName     string               `json:"projectName"`
	Status          domain.ProjectStatus `json:"status"`
	TargetAmount    decimal.Decimal      `json:"targetAmount"`
	RaisedAmount    decimal.Decimal      `json:"raisedAmount"`
	TotalInvested   decimal.Decimal      `json:"totalInvested"`
	TotalReturned   decimal.Decimal      `json:"totalReturned"`
	InvestmentCount int                  `json:"investmentCount"`
	ROI             decimal.Decimal      `json:"roi"`
	IRR             float64              `json:"irr"`
	NPV             float64              `json:"npv"`
	DiscountRate    decimal.Decimal      `json:"discountRate"`
}

// irrGuess is the Newton-Raphson starting point for project IRR.
const irrGuess = 0.1

func (s *Service) ProjectPerformance(ctx context.Context, projectID uuid.UUID) (*ProjectPerformance, error) {
	var (
		project       *domain.InvestmentProject
		investments   []domain.Investment
		distributions []domain.Distribution
	)
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		if project, err = tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		if investments, err = tx.ListInvestmentsByProject(ctx, projectID, false); err != nil {
			return err
		}
		distributions, err = tx.ListDistributionsByProject(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &ProjectPerformance{
		ProjectID:       project.ID,
		ProjectName:     project.Name,
		Status:          project.Status,
		TargetAmount:    project.TargetAmount,
		RaisedAmount:    project.RaisedAmount,
		TotalInvested:   decimal.Zero,
		TotalReturned:   decimal.Zero,
		InvestmentCount: len(investments),
		DiscountRate:    project.DiscountRate,
	}

	for _, inv := range investments {
		report.TotalInvested = report.TotalInvested.Add(inv.Amount)
		report.TotalReturned = report.TotalReturned.Add(inv.ActualReturnAmount)
	}
	report.ROI = fincalc.ROI(report.TotalReturned, report.TotalInvested)

	flows := projectCashFlows(investments, distributions)
	if len(flows) > 1 {
		report.IRR = fincalc.IRR(flows, irrGuess)
		report.NPV = fincalc.NPV(flows, project.DiscountRate.InexactFloat64())
	}
	return report, nil
}

// projectCashFlows buckets the project's actual cash movements into calendar
// years from the first investment: investments as outflows, paid
// distributions and exit proceeds as inflows. Year resolution is coarse but
// matches how the rates are quoted.
func projectCashFlows(investments []domain.Investment, distributions []domain.Distribution) []float64 {
	if len(investments) == 0 {
		return nil
	}

	baseYear := investments[0].InvestmentDate.Year()
	for _, inv := range investments[1:] {
		if y := inv.InvestmentDate.Year(); y < baseYear {
			baseYear = y
		}
	}

	buckets := map[int]float64{}
	lastYear := 0
	add := func(year int, amount float64) {
		offset := year - baseYear
		if offset < 0 {
			offset = 0
		}
		buckets[offset] += amount
		if offset > lastYear {
			lastYear = offset
		}
	}

	for _, inv := range investments {
		add(inv.InvestmentDate.Year(), -inv.Amount.InexactFloat64())
		if inv.Status == domain.InvestmentExited && inv.ExitDate != nil {
			add(inv.ExitDate.Year(), inv.ActualReturnAmount.InexactFloat64())
		}
	}
	for _, d := range distributions {
		if d.Status == domain.DistributionPaid && d.PaidDate != nil {
			add(d.PaidDate.Year(), d.Amount.InexactFloat64())
		}
	}

	flows := make([]float64, lastYear+1)
	for offset, amount := range buckets {
		flows[offset] = amount
	}
	return flows
}
