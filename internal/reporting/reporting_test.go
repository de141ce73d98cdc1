package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/ledger"
	"CapLedger/internal/reporting"
	"CapLedger/internal/storage"
	"CapLedger/internal/storage/memory"
)

type books struct {
	store  *memory.Store
	poster *ledger.Poster
	svc    *reporting.Service
}

func newBooks() *books {
	store := memory.NewStore()
	return &books{
		store:  store,
		poster: ledger.NewPoster(zerolog.Nop(), nil),
		svc:    reporting.NewService(store, zerolog.Nop()),
	}
}

func (b *books) account(t *testing.T, code string, accType domain.AccountType) uuid.UUID {
	t.Helper()
	account := &domain.Account{
		ID:             uuid.New(),
		Code:           code,
		Name:           code,
		Type:           accType,
		NormalBalance:  domain.DefaultNormalBalance(accType),
		CurrentBalance: decimal.Zero,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	err := b.store.WithinTx(context.Background(), func(tx storage.Tx) error {
		return tx.InsertAccount(context.Background(), account)
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", code, err)
	}
	return account.ID
}

func (b *books) post(t *testing.T, date time.Time, debit, credit uuid.UUID, amount string) {
	t.Helper()
	err := b.store.WithinTx(context.Background(), func(tx storage.Tx) error {
		_, err := b.poster.PostEntry(context.Background(), tx, ledger.PostEntryInput{
			Date:       date,
			SourceType: "TEST",
			Lines:      ledger.BalancedPair(debit, credit, decimal.RequireFromString(amount), ""),
		})
		return err
	})
	if err != nil {
		t.Fatalf("post %s: %v", amount, err)
	}
}

// ============================================================================
// Test: trial balance
// ============================================================================

func TestTrialBalance(t *testing.T) {
	b := newBooks()
	cash := b.account(t, "1000", domain.AccountAsset)
	equity := b.account(t, "3000", domain.AccountEquity)

	now := time.Now().UTC()
	b.post(t, now, cash, equity, "100000")

	report, err := b.svc.TrialBalance(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}

	if !report.Balanced {
		t.Error("trial balance should balance")
	}
	if !report.TotalDebits.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("total debits = %s, want 100000", report.TotalDebits)
	}
	if !report.TotalCredits.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("total credits = %s, want 100000", report.TotalCredits)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(report.Rows))
	}
	// Rows are ordered by account code.
	if report.Rows[0].AccountCode != "1000" || report.Rows[1].AccountCode != "3000" {
		t.Errorf("row order = %s, %s; want 1000, 3000", report.Rows[0].AccountCode, report.Rows[1].AccountCode)
	}
	if !report.Rows[0].Debit.Equal(decimal.RequireFromString("100000")) || !report.Rows[0].Credit.IsZero() {
		t.Errorf("cash row = %s/%s, want 100000/0", report.Rows[0].Debit, report.Rows[0].Credit)
	}
}

func TestTrialBalance_ExcludesOutOfRangeEntries(t *testing.T) {
	b := newBooks()
	cash := b.account(t, "1000", domain.AccountAsset)
	equity := b.account(t, "3000", domain.AccountEquity)

	now := time.Now().UTC()
	b.post(t, now.AddDate(-1, 0, 0), cash, equity, "500")
	b.post(t, now, cash, equity, "100")

	report, err := b.svc.TrialBalance(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !report.TotalDebits.Equal(decimal.RequireFromString("100")) {
		t.Errorf("total debits = %s, want 100 (last year excluded)", report.TotalDebits)
	}
}

// ============================================================================
// Test: profit and loss
// ============================================================================

func TestProfitAndLoss(t *testing.T) {
	b := newBooks()
	cash := b.account(t, "1000", domain.AccountAsset)
	revenue := b.account(t, "4000", domain.AccountRevenue)
	expense := b.account(t, "5000", domain.AccountExpense)

	now := time.Now().UTC()
	b.post(t, now, cash, revenue, "8000") // earn
	b.post(t, now, expense, cash, "3000") // spend

	report, err := b.svc.ProfitAndLoss(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("p&l: %v", err)
	}

	if !report.TotalRevenue.Equal(decimal.RequireFromString("8000")) {
		t.Errorf("revenue = %s, want 8000", report.TotalRevenue)
	}
	if !report.TotalExpenses.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("expenses = %s, want 3000", report.TotalExpenses)
	}
	if !report.NetIncome.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("net income = %s, want 5000", report.NetIncome)
	}
	if len(report.RevenueLines) != 1 || len(report.ExpenseLines) != 1 {
		t.Errorf("line counts = %d/%d, want 1/1", len(report.RevenueLines), len(report.ExpenseLines))
	}
}

// ============================================================================
// Test: balance sheet
// ============================================================================

func TestBalanceSheet_FoldsRetainedEarnings(t *testing.T) {
	b := newBooks()
	cash := b.account(t, "1000", domain.AccountAsset)
	equity := b.account(t, "3000", domain.AccountEquity)
	revenue := b.account(t, "4000", domain.AccountRevenue)
	expense := b.account(t, "5000", domain.AccountExpense)

	now := time.Now().UTC()
	b.post(t, now, cash, equity, "10000") // capital in
	b.post(t, now, cash, revenue, "4000") // earn
	b.post(t, now, expense, cash, "1000") // spend

	report, err := b.svc.BalanceSheet(context.Background(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}

	if !report.TotalAssets.Equal(decimal.RequireFromString("13000")) {
		t.Errorf("assets = %s, want 13000", report.TotalAssets)
	}
	if !report.RetainedEarnings.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("retained earnings = %s, want 3000", report.RetainedEarnings)
	}
	if !report.TotalEquity.Equal(decimal.RequireFromString("13000")) {
		t.Errorf("equity incl. retained earnings = %s, want 13000", report.TotalEquity)
	}
	if !report.Balanced {
		t.Errorf("balance sheet should balance: assets=%s liabilities=%s equity=%s",
			report.TotalAssets, report.TotalLiabilities, report.TotalEquity)
	}
}

// ============================================================================
// Test: project performance
// ============================================================================

func seedPerformanceProject(t *testing.T, store *memory.Store) uuid.UUID {
	t.Helper()
	projectID := uuid.New()
	base := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	err := store.WithinTx(context.Background(), func(tx storage.Tx) error {
		project := &domain.InvestmentProject{
			ID:           projectID,
			Name:         "Fund I",
			Status:       domain.ProjectActive,
			TargetAmount: decimal.RequireFromString("1000"),
			RaisedAmount: decimal.RequireFromString("1000"),
			DiscountRate: decimal.RequireFromString("0.05"),
			CreatedAt:    base,
		}
		if err := tx.InsertProject(context.Background(), project); err != nil {
			return err
		}

		investmentID := uuid.New()
		investorID := uuid.New()
		investment := &domain.Investment{
			ID:                 investmentID,
			ProjectID:          projectID,
			InvestorID:         investorID,
			Amount:             decimal.RequireFromString("1000"),
			EquityPercentage:   decimal.RequireFromString("1"),
			Status:             domain.InvestmentActive,
			ActualReturnAmount: decimal.RequireFromString("1250"),
			InvestmentDate:     base,
		}
		if err := tx.InsertInvestment(context.Background(), investment); err != nil {
			return err
		}

		// Five annual payouts of 250.
		for year := 1; year <= 5; year++ {
			paidAt := base.AddDate(year, 0, 0)
			d := &domain.Distribution{
				ID:           uuid.New(),
				ProjectID:    projectID,
				InvestmentID: investmentID,
				InvestorID:   investorID,
				Amount:       decimal.RequireFromString("250"),
				Type:         "dividend",
				Status:       domain.DistributionPaid,
				PaidDate:     &paidAt,
				CreatedAt:    base,
			}
			if err := tx.InsertDistribution(context.Background(), d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return projectID
}

func TestProjectPerformance(t *testing.T) {
	store := memory.NewStore()
	svc := reporting.NewService(store, zerolog.Nop())
	projectID := seedPerformanceProject(t, store)

	report, err := svc.ProjectPerformance(context.Background(), projectID)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}

	if !report.TotalInvested.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("invested = %s, want 1000", report.TotalInvested)
	}
	if !report.TotalReturned.Equal(decimal.RequireFromString("1250")) {
		t.Errorf("returned = %s, want 1250", report.TotalReturned)
	}
	if !report.ROI.Equal(decimal.RequireFromString("25")) {
		t.Errorf("roi = %s%%, want 25%%", report.ROI)
	}

	// -1000 then five annual 250s: IRR near 7.93%.
	if report.IRR < 0.078 || report.IRR > 0.081 {
		t.Errorf("irr = %v, want ~0.0793", report.IRR)
	}
	// Discounted at 5%, the series is comfortably positive.
	if report.NPV <= 0 {
		t.Errorf("npv = %v, want > 0 at 5%% discount", report.NPV)
	}
}

func TestProjectPerformance_UnknownProject(t *testing.T) {
	store := memory.NewStore()
	svc := reporting.NewService(store, zerolog.Nop())

	_, err := svc.ProjectPerformance(context.Background(), uuid.New())
	if domain.ErrorCode(err) != "NOT_FOUND" {
		t.Errorf("error code = %s, want NOT_FOUND", domain.ErrorCode(err))
	}
}
