package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/engine"
	"CapLedger/internal/events"
	"CapLedger/internal/ledger"
	"CapLedger/internal/storage"
	"CapLedger/internal/storage/memory"
)

type fixture struct {
	store *memory.Store
	eng   *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	poster := ledger.NewPoster(zerolog.Nop(), nil)
	eng := engine.New(store, poster, events.NopPublisher{}, zerolog.Nop(), nil)
	return &fixture{store: store, eng: eng}
}

func (f *fixture) account(t *testing.T, code string, accType domain.AccountType) uuid.UUID {
	t.Helper()
	account, err := f.eng.CreateAccount(context.Background(), engine.CreateAccountInput{
		Code: code,
		Name: code,
		Type: accType,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", code, err)
	}
	return account.ID
}

func (f *fixture) approvedInvestor(t *testing.T, name string) uuid.UUID {
	t.Helper()
	investor, err := f.eng.CreateInvestor(context.Background(), engine.CreateInvestorInput{
		Name:  name,
		Email: name + "@example.com",
	})
	if err != nil {
		t.Fatalf("create investor %s: %v", name, err)
	}
	if _, err := f.eng.SetInvestorKYC(context.Background(), investor.ID, domain.KYCApproved); err != nil {
		t.Fatalf("approve investor %s: %v", name, err)
	}
	return investor.ID
}

// fundingProject creates a published project with ledger accounts wired.
func (f *fixture) fundingProject(t *testing.T, target string) *domain.InvestmentProject {
	t.Helper()
	asset := f.account(t, "1000-"+target, domain.AccountAsset)
	equity := f.account(t, "3000-"+target, domain.AccountEquity)
	revenue := f.account(t, "4000-"+target, domain.AccountRevenue)

	project, err := f.eng.CreateProject(context.Background(), engine.CreateProjectInput{
		Name:             "Solar Farm " + target,
		Type:             "real_estate",
		TargetAmount:     decimal.RequireFromString(target),
		AssetAccountID:   &asset,
		EquityAccountID:  &equity,
		RevenueAccountID: &revenue,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	project, err = f.eng.PublishProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("publish project: %v", err)
	}
	return project
}

func (f *fixture) balance(t *testing.T, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := f.store.WithinTx(context.Background(), func(tx storage.Tx) error {
		account, err := tx.GetAccount(context.Background(), accountID)
		if err != nil {
			return err
		}
		balance = account.CurrentBalance
		return nil
	})
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return balance
}

func mustInvest(t *testing.T, f *fixture, projectID, investorID uuid.UUID, amount string) *domain.Investment {
	t.Helper()
	investment, err := f.eng.Invest(context.Background(), engine.InvestInput{
		ProjectID:  projectID,
		InvestorID: investorID,
		Amount:     decimal.RequireFromString(amount),
		Date:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("invest %s: %v", amount, err)
	}
	return investment
}

// ============================================================================
// Test: invest lifecycle
// ============================================================================

func TestInvest_EquityDilutionAndActivation(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investorX := f.approvedInvestor(t, "x")
	investorY := f.approvedInvestor(t, "y")

	first := mustInvest(t, f, project.ID, investorX, "100000")
	if !first.EquityPercentage.Equal(decimal.RequireFromString("1")) {
		t.Errorf("sole investor equity = %s, want 1", first.EquityPercentage)
	}

	current, _ := f.eng.GetProject(context.Background(), project.ID)
	if current.Status != domain.ProjectFunding {
		t.Errorf("project status = %s, want funding while under target", current.Status)
	}

	second := mustInvest(t, f, project.ID, investorY, "400000")
	if !second.EquityPercentage.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("second investor equity = %s, want 0.8", second.EquityPercentage)
	}

	// The first investor was diluted by the recompute.
	first, _ = f.eng.GetInvestment(context.Background(), first.ID)
	if !first.EquityPercentage.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("first investor equity after dilution = %s, want 0.2", first.EquityPercentage)
	}

	current, _ = f.eng.GetProject(context.Background(), project.ID)
	if current.Status != domain.ProjectActive {
		t.Errorf("project status = %s, want active at target", current.Status)
	}
	if !current.RaisedAmount.Equal(decimal.RequireFromString("500000")) {
		t.Errorf("raised = %s, want 500000", current.RaisedAmount)
	}

	// Postings: both investments hit debit-asset/credit-equity.
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("500000")) {
		t.Errorf("asset balance = %s, want 500000", got)
	}
	if got := f.balance(t, *project.EquityAccountID); !got.Equal(decimal.RequireFromString("500000")) {
		t.Errorf("equity balance = %s, want 500000", got)
	}
	if first.JournalEntryID == nil {
		t.Error("investment should link its journal entry")
	}
}

func TestInvest_Validation(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	approved := f.approvedInvestor(t, "ok")

	pending, err := f.eng.CreateInvestor(context.Background(), engine.CreateInvestorInput{
		Name: "pending", Email: "pending@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	min := decimal.RequireFromString("1000")
	max := decimal.RequireFromString("5000")
	bounded, err := f.eng.CreateProject(context.Background(), engine.CreateProjectInput{
		Name:          "Bounded",
		TargetAmount:  decimal.RequireFromString("100000"),
		MinInvestment: &min,
		MaxInvestment: &max,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.PublishProject(context.Background(), bounded.ID); err != nil {
		t.Fatal(err)
	}

	draft, err := f.eng.CreateProject(context.Background(), engine.CreateProjectInput{
		Name:         "Draft",
		TargetAmount: decimal.RequireFromString("100000"),
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		projectID uuid.UUID
		investor  uuid.UUID
		amount    string
		wantCode  string
	}{
		{"zero amount", project.ID, approved, "0", "BAD_REQUEST"},
		{"negative amount", project.ID, approved, "-10", "BAD_REQUEST"},
		{"draft project", draft.ID, approved, "1000", "CONFLICT"},
		{"pending kyc", project.ID, pending.ID, "1000", "BAD_REQUEST"},
		{"below minimum", bounded.ID, approved, "500", "BAD_REQUEST"},
		{"above maximum", bounded.ID, approved, "6000", "BAD_REQUEST"},
		{"over target", project.ID, approved, "500001", "BAD_REQUEST"},
		{"unknown project", uuid.New(), approved, "1000", "NOT_FOUND"},
		{"unknown investor", project.ID, uuid.New(), "1000", "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.Invest(context.Background(), engine.InvestInput{
				ProjectID:  tt.projectID,
				InvestorID: tt.investor,
				Amount:     decimal.RequireFromString(tt.amount),
				Date:       time.Now().UTC(),
			})
			if domain.ErrorCode(err) != tt.wantCode {
				t.Errorf("error code = %s (err=%v), want %s", domain.ErrorCode(err), err, tt.wantCode)
			}
		})
	}

	// None of the rejected attempts may leave partial writes behind.
	if got := f.balance(t, *project.AssetAccountID); !got.IsZero() {
		t.Errorf("asset balance after rejected investments = %s, want 0", got)
	}
}

func TestInvest_OverfundRejectedLeavesStateIntact(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investor := f.approvedInvestor(t, "x")

	mustInvest(t, f, project.ID, investor, "450000")

	_, err := f.eng.Invest(context.Background(), engine.InvestInput{
		ProjectID:  project.ID,
		InvestorID: investor,
		Amount:     decimal.RequireFromString("100000"),
		Date:       time.Now().UTC(),
	})
	if domain.ErrorCode(err) != "BAD_REQUEST" {
		t.Fatalf("error code = %s, want BAD_REQUEST", domain.ErrorCode(err))
	}

	current, _ := f.eng.GetProject(context.Background(), project.ID)
	if !current.RaisedAmount.Equal(decimal.RequireFromString("450000")) {
		t.Errorf("raised after rejected overfund = %s, want 450000", current.RaisedAmount)
	}
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("450000")) {
		t.Errorf("asset balance = %s, want 450000", got)
	}
}

// ============================================================================
// Test: exit
// ============================================================================

func TestExit_SettlesInvestment(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investor := f.approvedInvestor(t, "x")
	investment := mustInvest(t, f, project.ID, investor, "100000")

	exitDate := time.Now().UTC()
	exited, err := f.eng.Exit(context.Background(), investment.ID, decimal.RequireFromString("120000"), exitDate)
	if err != nil {
		t.Fatalf("exit: %v", err)
	}

	if exited.Status != domain.InvestmentExited {
		t.Errorf("status = %s, want exited", exited.Status)
	}
	if !exited.ActualReturnAmount.Equal(decimal.RequireFromString("120000")) {
		t.Errorf("actual return = %s, want 120000", exited.ActualReturnAmount)
	}
	if exited.ExitDate == nil || !exited.ExitDate.Equal(exitDate) {
		t.Errorf("exit date = %v, want %v", exited.ExitDate, exitDate)
	}

	// Exit posts debit-equity/credit-asset for the return.
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("-20000")) {
		t.Errorf("asset balance = %s, want -20000 (100000 in, 120000 out)", got)
	}
	if got := f.balance(t, *project.EquityAccountID); !got.Equal(decimal.RequireFromString("-20000")) {
		t.Errorf("equity balance = %s, want -20000", got)
	}
}

func TestExit_ZeroReturnSkipsPosting(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investor := f.approvedInvestor(t, "x")
	investment := mustInvest(t, f, project.ID, investor, "100000")

	exited, err := f.eng.Exit(context.Background(), investment.ID, decimal.Zero, time.Now().UTC())
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if exited.Status != domain.InvestmentExited {
		t.Errorf("status = %s, want exited", exited.Status)
	}
	// Only the original investment posting remains on the asset account.
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("asset balance = %s, want 100000", got)
	}
}

func TestExit_NegativeReturnRejected(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investor := f.approvedInvestor(t, "x")
	investment := mustInvest(t, f, project.ID, investor, "100000")

	_, err := f.eng.Exit(context.Background(), investment.ID, decimal.RequireFromString("-1"), time.Now().UTC())
	if domain.ErrorCode(err) != "BAD_REQUEST" {
		t.Errorf("error code = %s, want BAD_REQUEST", domain.ErrorCode(err))
	}
}

// ============================================================================
// Test: distributions
// ============================================================================

func TestDistributions_ProportionalSplit(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investorX := f.approvedInvestor(t, "x")
	investorY := f.approvedInvestor(t, "y")
	mustInvest(t, f, project.ID, investorX, "100000")
	mustInvest(t, f, project.ID, investorY, "400000")

	distributions, err := f.eng.CreateDistributions(context.Background(), project.ID, decimal.RequireFromString("10000"), "dividend")
	if err != nil {
		t.Fatalf("create distributions: %v", err)
	}
	if len(distributions) != 2 {
		t.Fatalf("got %d distributions, want 2", len(distributions))
	}

	total := decimal.Zero
	byInvestor := map[uuid.UUID]decimal.Decimal{}
	for _, d := range distributions {
		if d.Status != domain.DistributionScheduled {
			t.Errorf("status = %s, want scheduled", d.Status)
		}
		total = total.Add(d.Amount)
		byInvestor[d.InvestorID] = d.Amount
	}
	if !total.Equal(decimal.RequireFromString("10000")) {
		t.Errorf("distribution total = %s, want 10000", total)
	}
	if !byInvestor[investorX].Equal(decimal.RequireFromString("2000")) {
		t.Errorf("20%% investor got %s, want 2000", byInvestor[investorX])
	}
	if !byInvestor[investorY].Equal(decimal.RequireFromString("8000")) {
		t.Errorf("80%% investor got %s, want 8000", byInvestor[investorY])
	}
}

func TestDistributions_NoActiveInvestments(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")

	distributions, err := f.eng.CreateDistributions(context.Background(), project.ID, decimal.RequireFromString("10000"), "dividend")
	if err != nil {
		t.Fatalf("create distributions: %v", err)
	}
	if len(distributions) != 0 {
		t.Errorf("got %d distributions for a project with no investments, want 0", len(distributions))
	}
}

func TestMarkDistributionPaid_DoublePayRejected(t *testing.T) {
	f := newFixture(t)
	project := f.fundingProject(t, "500000")
	investor := f.approvedInvestor(t, "x")
	investment := mustInvest(t, f, project.ID, investor, "100000")

	distributions, err := f.eng.CreateDistributions(context.Background(), project.ID, decimal.RequireFromString("5000"), "dividend")
	if err != nil {
		t.Fatal(err)
	}

	paid, err := f.eng.MarkDistributionPaid(context.Background(), distributions[0].ID)
	if err != nil {
		t.Fatalf("pay distribution: %v", err)
	}
	if paid.Status != domain.DistributionPaid || paid.PaidDate == nil {
		t.Errorf("paid distribution: status=%s paidDate=%v", paid.Status, paid.PaidDate)
	}

	// Payout posted debit-revenue/credit-asset and accrued on the investment.
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("95000")) {
		t.Errorf("asset balance = %s, want 95000", got)
	}
	current, _ := f.eng.GetInvestment(context.Background(), investment.ID)
	if !current.ActualReturnAmount.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("actual return = %s, want 5000", current.ActualReturnAmount)
	}

	// A second pay attempt fails and leaves balances untouched.
	_, err = f.eng.MarkDistributionPaid(context.Background(), distributions[0].ID)
	if domain.ErrorCode(err) != "CONFLICT" {
		t.Fatalf("double pay error code = %s, want CONFLICT", domain.ErrorCode(err))
	}
	if got := f.balance(t, *project.AssetAccountID); !got.Equal(decimal.RequireFromString("95000")) {
		t.Errorf("asset balance after rejected double pay = %s, want 95000", got)
	}
	current, _ = f.eng.GetInvestment(context.Background(), investment.ID)
	if !current.ActualReturnAmount.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("actual return after rejected double pay = %s, want 5000", current.ActualReturnAmount)
	}
}

// ============================================================================
// Test: project lifecycle
// ============================================================================

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)

	project, err := f.eng.CreateProject(context.Background(), engine.CreateProjectInput{
		Name:         "Wind Farm",
		TargetAmount: decimal.RequireFromString("100000"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if project.Status != domain.ProjectDraft {
		t.Errorf("new project status = %s, want draft", project.Status)
	}

	// Closing requires active.
	if _, err := f.eng.CloseProject(context.Background(), project.ID, domain.ProjectCompleted); domain.ErrorCode(err) != "CONFLICT" {
		t.Errorf("close draft: error code = %s, want CONFLICT", domain.ErrorCode(err))
	}

	project, err = f.eng.PublishProject(context.Background(), project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if project.Status != domain.ProjectFunding {
		t.Errorf("published status = %s, want funding", project.Status)
	}

	// Publishing twice is an invalid transition.
	if _, err := f.eng.PublishProject(context.Background(), project.ID); domain.ErrorCode(err) != "CONFLICT" {
		t.Errorf("re-publish: error code = %s, want CONFLICT", domain.ErrorCode(err))
	}

	investor := f.approvedInvestor(t, "x")
	mustInvest(t, f, project.ID, investor, "100000")

	project, err = f.eng.CloseProject(context.Background(), project.ID, domain.ProjectCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if project.Status != domain.ProjectCompleted {
		t.Errorf("closed status = %s, want completed", project.Status)
	}
}

func TestPublishProject_RequiresPositiveTarget(t *testing.T) {
	f := newFixture(t)
	project, err := f.eng.CreateProject(context.Background(), engine.CreateProjectInput{
		Name:         "Empty",
		TargetAmount: decimal.Zero,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.PublishProject(context.Background(), project.ID); domain.ErrorCode(err) != "BAD_REQUEST" {
		t.Errorf("error code = %s, want BAD_REQUEST", domain.ErrorCode(err))
	}
}

// ============================================================================
// Test: catalog
// ============================================================================

func TestCreateAccount_DuplicateCodeConflicts(t *testing.T) {
	f := newFixture(t)
	f.account(t, "1000", domain.AccountAsset)

	_, err := f.eng.CreateAccount(context.Background(), engine.CreateAccountInput{
		Code: "1000", Name: "Other", Type: domain.AccountAsset,
	})
	if domain.ErrorCode(err) != "CONFLICT" {
		t.Errorf("error code = %s, want CONFLICT", domain.ErrorCode(err))
	}
}

func TestCreateAccount_DefaultsNormalBalance(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		accType domain.AccountType
		want    domain.NormalBalance
	}{
		{domain.AccountAsset, domain.NormalDebit},
		{domain.AccountExpense, domain.NormalDebit},
		{domain.AccountLiability, domain.NormalCredit},
		{domain.AccountEquity, domain.NormalCredit},
		{domain.AccountRevenue, domain.NormalCredit},
	}
	for _, tt := range tests {
		account, err := f.eng.CreateAccount(context.Background(), engine.CreateAccountInput{
			Code: "acc-" + string(tt.accType), Name: string(tt.accType), Type: tt.accType,
		})
		if err != nil {
			t.Fatal(err)
		}
		if account.NormalBalance != tt.want {
			t.Errorf("%s normal balance = %s, want %s", tt.accType, account.NormalBalance, tt.want)
		}
	}
}

func TestSetInvestorKYC(t *testing.T) {
	f := newFixture(t)
	investor, err := f.eng.CreateInvestor(context.Background(), engine.CreateInvestorInput{
		Name: "x", Email: "x@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if investor.KYCStatus != domain.KYCPending {
		t.Errorf("new investor kyc = %s, want pending", investor.KYCStatus)
	}

	investor, err = f.eng.SetInvestorKYC(context.Background(), investor.ID, domain.KYCApproved)
	if err != nil {
		t.Fatal(err)
	}
	if investor.KYCStatus != domain.KYCApproved {
		t.Errorf("kyc = %s, want approved", investor.KYCStatus)
	}

	if _, err := f.eng.SetInvestorKYC(context.Background(), investor.ID, "bogus"); domain.ErrorCode(err) != "BAD_REQUEST" {
		t.Errorf("error code = %s, want BAD_REQUEST", domain.ErrorCode(err))
	}
}
