// Package postgres implements the storage interfaces on PostgreSQL via
// database/sql and lib/pq. Monetary columns are NUMERIC and scan straight
// into decimals; unique violations surface as domain conflicts.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/storage"
)

// Store wraps a *sql.DB and hands out transactional handles.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn in one database transaction. Errors from fn roll back and
// are returned unchanged; commit errors are wrapped.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.Conflictf("duplicate key (%s)", pqErr.Constraint)
	}
	return err
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("%s %v", what, id)
	}
	return err
}

// --- Accounts ---

func (t *pgTx) InsertAccount(ctx context.Context, a *domain.Account) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (id, code, name, type, normal_balance, parent_id, current_balance, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Code, a.Name, a.Type, a.NormalBalance, nullUUID(a.ParentID), a.CurrentBalance, a.IsActive, a.CreatedAt,
	)
	return mapError(err)
}

const accountColumns = `id, code, name, type, normal_balance, parent_id, current_balance, is_active, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var (
		a        domain.Account
		parentID uuid.NullUUID
	)
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &parentID, &a.CurrentBalance, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ParentID = fromNullUUID(parentID)
	return &a, nil
}

func (t *pgTx) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, "account", id)
	}
	return a, nil
}

func (t *pgTx) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (t *pgTx) AddToAccountBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET current_balance = current_balance + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	return requireRow(res, "account", id)
}

// --- Journal ---

func (t *pgTx) InsertJournalEntry(ctx context.Context, e *domain.JournalEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, entry_number, date, description, source_type, status, total_debit, total_credit, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.EntryNumber, e.Date, e.Description, e.SourceType, e.Status, e.TotalDebit, e.TotalCredit, e.CreatedBy, e.CreatedAt,
	)
	return mapError(err)
}

func (t *pgTx) InsertJournalLine(ctx context.Context, l *domain.JournalLine) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO journal_lines (id, entry_id, account_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.EntryID, l.AccountID, l.Type, l.Amount, l.Description,
	)
	return mapError(err)
}

func (t *pgTx) AccountActivity(ctx context.Context, from, to time.Time) ([]storage.AccountActivity, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT a.id, a.code, a.name, a.type, a.normal_balance, a.parent_id, a.current_balance, a.is_active, a.created_at,
		       COALESCE(SUM(CASE WHEN l.type = 'debit'  THEN l.amount ELSE 0 END), 0) AS debit,
		       COALESCE(SUM(CASE WHEN l.type = 'credit' THEN l.amount ELSE 0 END), 0) AS credit
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.date >= $1 AND e.date <= $2
		GROUP BY a.id
		ORDER BY a.code`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []storage.AccountActivity
	for rows.Next() {
		var (
			row      storage.AccountActivity
			parentID uuid.NullUUID
		)
		a := &row.Account
		if err := rows.Scan(
			&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &parentID, &a.CurrentBalance, &a.IsActive, &a.CreatedAt,
			&row.Debit, &row.Credit,
		); err != nil {
			return nil, err
		}
		a.ParentID = fromNullUUID(parentID)
		activity = append(activity, row)
	}
	return activity, rows.Err()
}

// --- Projects ---

const projectColumns = `id, name, type, status, target_amount, raised_amount, min_investment, max_investment,
	asset_account_id, equity_account_id, revenue_account_id, discount_rate, hurdle_rate, created_at`

func (t *pgTx) InsertProject(ctx context.Context, p *domain.InvestmentProject) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO investment_projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, p.Type, p.Status, p.TargetAmount, p.RaisedAmount,
		nullDecimal(p.MinInvestment), nullDecimal(p.MaxInvestment),
		nullUUID(p.AssetAccountID), nullUUID(p.EquityAccountID), nullUUID(p.RevenueAccountID),
		p.DiscountRate, p.HurdleRate, p.CreatedAt,
	)
	return mapError(err)
}

func scanProject(row interface{ Scan(...any) error }) (*domain.InvestmentProject, error) {
	var (
		p                  domain.InvestmentProject
		minInv, maxInv     decimal.NullDecimal
		asset, equity, rev uuid.NullUUID
	)
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Status, &p.TargetAmount, &p.RaisedAmount,
		&minInv, &maxInv, &asset, &equity, &rev, &p.DiscountRate, &p.HurdleRate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.MinInvestment = fromNullDecimal(minInv)
	p.MaxInvestment = fromNullDecimal(maxInv)
	p.AssetAccountID = fromNullUUID(asset)
	p.EquityAccountID = fromNullUUID(equity)
	p.RevenueAccountID = fromNullUUID(rev)
	return &p, nil
}

func (t *pgTx) GetProject(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM investment_projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

func (t *pgTx) UpdateProject(ctx context.Context, p *domain.InvestmentProject) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE investment_projects
		SET name = $2, type = $3, status = $4, target_amount = $5, raised_amount = $6,
		    min_investment = $7, max_investment = $8,
		    asset_account_id = $9, equity_account_id = $10, revenue_account_id = $11,
		    discount_rate = $12, hurdle_rate = $13
		WHERE id = $1`,
		p.ID, p.Name, p.Type, p.Status, p.TargetAmount, p.RaisedAmount,
		nullDecimal(p.MinInvestment), nullDecimal(p.MaxInvestment),
		nullUUID(p.AssetAccountID), nullUUID(p.EquityAccountID), nullUUID(p.RevenueAccountID),
		p.DiscountRate, p.HurdleRate,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "project", p.ID)
}

// --- Investors ---

func (t *pgTx) InsertInvestor(ctx context.Context, inv *domain.Investor) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO investors (id, name, email, kyc_status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inv.ID, inv.Name, inv.Email, inv.KYCStatus, inv.CreatedAt,
	)
	return mapError(err)
}

func (t *pgTx) GetInvestor(ctx context.Context, id uuid.UUID) (*domain.Investor, error) {
	var inv domain.Investor
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, name, email, kyc_status, created_at FROM investors WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.Name, &inv.Email, &inv.KYCStatus, &inv.CreatedAt)
	if err != nil {
		return nil, notFound(err, "investor", id)
	}
	return &inv, nil
}

func (t *pgTx) UpdateInvestor(ctx context.Context, inv *domain.Investor) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE investors SET name = $2, email = $3, kyc_status = $4 WHERE id = $1`,
		inv.ID, inv.Name, inv.Email, inv.KYCStatus,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "investor", inv.ID)
}

// --- Investments ---

const investmentColumns = `id, project_id, investor_id, amount, equity_percentage, status,
	actual_return_amount, investment_date, exit_date, journal_entry_id, notes`

func (t *pgTx) InsertInvestment(ctx context.Context, i *domain.Investment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO investments (`+investmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		i.ID, i.ProjectID, i.InvestorID, i.Amount, i.EquityPercentage, i.Status,
		i.ActualReturnAmount, i.InvestmentDate, nullTime(i.ExitDate), nullUUID(i.JournalEntryID), i.Notes,
	)
	return mapError(err)
}

func scanInvestment(row interface{ Scan(...any) error }) (*domain.Investment, error) {
	var (
		i        domain.Investment
		exitDate sql.NullTime
		entryID  uuid.NullUUID
	)
	err := row.Scan(&i.ID, &i.ProjectID, &i.InvestorID, &i.Amount, &i.EquityPercentage, &i.Status,
		&i.ActualReturnAmount, &i.InvestmentDate, &exitDate, &entryID, &i.Notes)
	if err != nil {
		return nil, err
	}
	i.ExitDate = fromNullTime(exitDate)
	i.JournalEntryID = fromNullUUID(entryID)
	return &i, nil
}

func (t *pgTx) GetInvestment(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id)
	i, err := scanInvestment(row)
	if err != nil {
		return nil, notFound(err, "investment", id)
	}
	return i, nil
}

func (t *pgTx) UpdateInvestment(ctx context.Context, i *domain.Investment) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE investments
		SET amount = $2, equity_percentage = $3, status = $4, actual_return_amount = $5,
		    investment_date = $6, exit_date = $7, journal_entry_id = $8, notes = $9
		WHERE id = $1`,
		i.ID, i.Amount, i.EquityPercentage, i.Status, i.ActualReturnAmount,
		i.InvestmentDate, nullTime(i.ExitDate), nullUUID(i.JournalEntryID), i.Notes,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "investment", i.ID)
}

func (t *pgTx) ListInvestmentsByProject(ctx context.Context, projectID uuid.UUID, onlyActive bool) ([]domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE project_id = $1`
	args := []any{projectID}
	if onlyActive {
		query += ` AND status = $2`
		args = append(args, domain.InvestmentActive)
	}
	query += ` ORDER BY investment_date, id`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *i)
	}
	return investments, rows.Err()
}

// --- Share classes ---

func (t *pgTx) InsertShareClass(ctx context.Context, sc *domain.ShareClass) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO share_classes (id, code, name, authorized_shares, issued_shares, voting_rights, dividend_priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sc.ID, sc.Code, sc.Name, nullInt64(sc.AuthorizedShares), sc.IssuedShares, sc.VotingRights, sc.DividendPriority, sc.CreatedAt,
	)
	return mapError(err)
}

func (t *pgTx) GetShareClass(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	var (
		sc         domain.ShareClass
		authorized sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, code, name, authorized_shares, issued_shares, voting_rights, dividend_priority, created_at
		FROM share_classes WHERE id = $1`, id,
	).Scan(&sc.ID, &sc.Code, &sc.Name, &authorized, &sc.IssuedShares, &sc.VotingRights, &sc.DividendPriority, &sc.CreatedAt)
	if err != nil {
		return nil, notFound(err, "share class", id)
	}
	sc.AuthorizedShares = fromNullInt64(authorized)
	return &sc, nil
}

func (t *pgTx) UpdateShareClass(ctx context.Context, sc *domain.ShareClass) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE share_classes
		SET code = $2, name = $3, authorized_shares = $4, issued_shares = $5, voting_rights = $6, dividend_priority = $7
		WHERE id = $1`,
		sc.ID, sc.Code, sc.Name, nullInt64(sc.AuthorizedShares), sc.IssuedShares, sc.VotingRights, sc.DividendPriority,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "share class", sc.ID)
}

// --- Allocations ---

const allocationColumns = `id, certificate_number, investor_id, share_class_id, number_of_shares,
	issue_price_per_share, total_consideration, status, issue_date, journal_entry_id`

func (t *pgTx) InsertAllocation(ctx context.Context, a *domain.ShareholderAllocation) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO shareholder_allocations (`+allocationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.CertificateNumber, a.InvestorID, a.ShareClassID, a.NumberOfShares,
		a.IssuePricePerShare, a.TotalConsideration, a.Status, a.IssueDate, nullUUID(a.JournalEntryID),
	)
	return mapError(err)
}

func scanAllocation(row interface{ Scan(...any) error }) (*domain.ShareholderAllocation, error) {
	var (
		a       domain.ShareholderAllocation
		entryID uuid.NullUUID
	)
	err := row.Scan(&a.ID, &a.CertificateNumber, &a.InvestorID, &a.ShareClassID, &a.NumberOfShares,
		&a.IssuePricePerShare, &a.TotalConsideration, &a.Status, &a.IssueDate, &entryID)
	if err != nil {
		return nil, err
	}
	a.JournalEntryID = fromNullUUID(entryID)
	return &a, nil
}

func (t *pgTx) GetAllocation(ctx context.Context, id uuid.UUID) (*domain.ShareholderAllocation, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+allocationColumns+` FROM shareholder_allocations WHERE id = $1`, id)
	a, err := scanAllocation(row)
	if err != nil {
		return nil, notFound(err, "allocation", id)
	}
	return a, nil
}

func (t *pgTx) UpdateAllocation(ctx context.Context, a *domain.ShareholderAllocation) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE shareholder_allocations
		SET number_of_shares = $2, issue_price_per_share = $3, total_consideration = $4,
		    status = $5, issue_date = $6, journal_entry_id = $7
		WHERE id = $1`,
		a.ID, a.NumberOfShares, a.IssuePricePerShare, a.TotalConsideration,
		a.Status, a.IssueDate, nullUUID(a.JournalEntryID),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "allocation", a.ID)
}

func (t *pgTx) ListActiveAllocationsByClass(ctx context.Context, classID uuid.UUID) ([]domain.ShareholderAllocation, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+allocationColumns+` FROM shareholder_allocations
		WHERE share_class_id = $1 AND status = $2
		ORDER BY issue_date, id`,
		classID, domain.AllocationActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.ShareholderAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, *a)
	}
	return allocations, rows.Err()
}

// --- Capital calls ---

func (t *pgTx) InsertCapitalCall(ctx context.Context, c *domain.CapitalCall) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO capital_calls (id, share_class_id, amount_per_share, status, total_amount_called, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ShareClassID, c.AmountPerShare, c.Status, c.TotalAmountCalled, c.DueDate, c.CreatedAt,
	)
	return mapError(err)
}

func (t *pgTx) GetCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error) {
	var c domain.CapitalCall
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, share_class_id, amount_per_share, status, total_amount_called, due_date, created_at
		FROM capital_calls WHERE id = $1`, id,
	).Scan(&c.ID, &c.ShareClassID, &c.AmountPerShare, &c.Status, &c.TotalAmountCalled, &c.DueDate, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "capital call", id)
	}
	return &c, nil
}

func (t *pgTx) UpdateCapitalCall(ctx context.Context, c *domain.CapitalCall) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE capital_calls
		SET amount_per_share = $2, status = $3, total_amount_called = $4, due_date = $5
		WHERE id = $1`,
		c.ID, c.AmountPerShare, c.Status, c.TotalAmountCalled, c.DueDate,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "capital call", c.ID)
}

// --- Payments ---

const paymentColumns = `id, investor_id, capital_call_id, type, amount, status,
	due_date, paid_date, reference, journal_entry_id, created_at`

func (t *pgTx) InsertPayment(ctx context.Context, p *domain.ShareholderPayment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO shareholder_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.InvestorID, nullUUID(p.CapitalCallID), p.Type, p.Amount, p.Status,
		nullTime(p.DueDate), nullTime(p.PaidDate), p.Reference, nullUUID(p.JournalEntryID), p.CreatedAt,
	)
	return mapError(err)
}

func scanPayment(row interface{ Scan(...any) error }) (*domain.ShareholderPayment, error) {
	var (
		p                 domain.ShareholderPayment
		callID, entryID   uuid.NullUUID
		dueDate, paidDate sql.NullTime
	)
	err := row.Scan(&p.ID, &p.InvestorID, &callID, &p.Type, &p.Amount, &p.Status,
		&dueDate, &paidDate, &p.Reference, &entryID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CapitalCallID = fromNullUUID(callID)
	p.DueDate = fromNullTime(dueDate)
	p.PaidDate = fromNullTime(paidDate)
	p.JournalEntryID = fromNullUUID(entryID)
	return &p, nil
}

func (t *pgTx) GetPayment(ctx context.Context, id uuid.UUID) (*domain.ShareholderPayment, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM shareholder_payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, notFound(err, "payment", id)
	}
	return p, nil
}

func (t *pgTx) UpdatePayment(ctx context.Context, p *domain.ShareholderPayment) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE shareholder_payments
		SET type = $2, amount = $3, status = $4, due_date = $5, paid_date = $6, reference = $7, journal_entry_id = $8
		WHERE id = $1`,
		p.ID, p.Type, p.Amount, p.Status, nullTime(p.DueDate), nullTime(p.PaidDate), p.Reference, nullUUID(p.JournalEntryID),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "payment", p.ID)
}

func (t *pgTx) ListPaymentsByCall(ctx context.Context, callID uuid.UUID) ([]domain.ShareholderPayment, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM shareholder_payments
		WHERE capital_call_id = $1
		ORDER BY created_at, id`, callID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.ShareholderPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// --- Distributions ---

const distributionColumns = `id, project_id, investment_id, investor_id, amount, type, status,
	paid_date, journal_entry_id, created_at`

func (t *pgTx) InsertDistribution(ctx context.Context, d *domain.Distribution) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO distributions (`+distributionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.ProjectID, d.InvestmentID, d.InvestorID, d.Amount, d.Type, d.Status,
		nullTime(d.PaidDate), nullUUID(d.JournalEntryID), d.CreatedAt,
	)
	return mapError(err)
}

func scanDistribution(row interface{ Scan(...any) error }) (*domain.Distribution, error) {
	var (
		d        domain.Distribution
		paidDate sql.NullTime
		entryID  uuid.NullUUID
	)
	err := row.Scan(&d.ID, &d.ProjectID, &d.InvestmentID, &d.InvestorID, &d.Amount, &d.Type, &d.Status,
		&paidDate, &entryID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.PaidDate = fromNullTime(paidDate)
	d.JournalEntryID = fromNullUUID(entryID)
	return &d, nil
}

func (t *pgTx) GetDistribution(ctx context.Context, id uuid.UUID) (*domain.Distribution, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+distributionColumns+` FROM distributions WHERE id = $1`, id)
	d, err := scanDistribution(row)
	if err != nil {
		return nil, notFound(err, "distribution", id)
	}
	return d, nil
}

func (t *pgTx) UpdateDistribution(ctx context.Context, d *domain.Distribution) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE distributions
		SET amount = $2, type = $3, status = $4, paid_date = $5, journal_entry_id = $6
		WHERE id = $1`,
		d.ID, d.Amount, d.Type, d.Status, nullTime(d.PaidDate), nullUUID(d.JournalEntryID),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res, "distribution", d.ID)
}

func (t *pgTx) ListDistributionsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Distribution, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+distributionColumns+` FROM distributions
		WHERE project_id = $1
		ORDER BY created_at, id`, projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var distributions []domain.Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		distributions = append(distributions, *d)
	}
	return distributions, rows.Err()
}

// --- Transfers ---

func (t *pgTx) InsertShareTransfer(ctx context.Context, tr *domain.ShareTransfer) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO share_transfers (id, from_allocation_id, to_allocation_id, from_investor_id, to_investor_id,
			share_class_id, number_of_shares, price_per_share, transfer_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tr.ID, tr.FromAllocationID, tr.ToAllocationID, tr.FromInvestorID, tr.ToInvestorID,
		tr.ShareClassID, tr.NumberOfShares, nullDecimal(tr.PricePerShare), tr.TransferDate,
	)
	return mapError(err)
}

// --- Null helpers ---

func requireRow(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundf("%s %s", what, id)
	}
	return nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	i := n.Int64
	return &i
}
