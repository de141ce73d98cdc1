// Package memory is an in-memory Store used by unit tests and local
// development. It honors the same transactional contract as the Postgres
// store: WithinTx snapshots state up front and restores it when fn fails,
// so a failed operation leaves no partial writes behind.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/storage"
)

// table keeps rows by ID plus insertion order for deterministic listings.
type table[T any] struct {
	rows  map[uuid.UUID]T
	order []uuid.UUID
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[uuid.UUID]T)}
}

func (t *table[T]) insert(id uuid.UUID, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) update(id uuid.UUID, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) clone() table[T] {
	c := table[T]{
		rows:  make(map[uuid.UUID]T, len(t.rows)),
		order: append([]uuid.UUID(nil), t.order...),
	}
	for id, row := range t.rows {
		c.rows[id] = row
	}
	return c
}

// Store holds every collection behind one mutex. Transactions are serialized,
// which is stricter isolation than Postgres provides but correct for tests.
type Store struct {
	mu sync.Mutex

	accounts      table[domain.Account]
	entries       table[domain.JournalEntry]
	lines         table[domain.JournalLine]
	projects      table[domain.InvestmentProject]
	investors     table[domain.Investor]
	investments   table[domain.Investment]
	shareClasses  table[domain.ShareClass]
	allocations   table[domain.ShareholderAllocation]
	capitalCalls  table[domain.CapitalCall]
	payments      table[domain.ShareholderPayment]
	distributions table[domain.Distribution]
	transfers     table[domain.ShareTransfer]
}

func NewStore() *Store {
	return &Store{
		accounts:      newTable[domain.Account](),
		entries:       newTable[domain.JournalEntry](),
		lines:         newTable[domain.JournalLine](),
		projects:      newTable[domain.InvestmentProject](),
		investors:     newTable[domain.Investor](),
		investments:   newTable[domain.Investment](),
		shareClasses:  newTable[domain.ShareClass](),
		allocations:   newTable[domain.ShareholderAllocation](),
		capitalCalls:  newTable[domain.CapitalCall](),
		payments:      newTable[domain.ShareholderPayment](),
		distributions: newTable[domain.Distribution](),
		transfers:     newTable[domain.ShareTransfer](),
	}
}

var _ storage.Store = (*Store)(nil)
var _ storage.Tx = (*Store)(nil)

// WithinTx runs fn with the store itself as the Tx handle. On error the
// pre-transaction snapshot is restored.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	accounts      table[domain.Account]
	entries       table[domain.JournalEntry]
	lines         table[domain.JournalLine]
	projects      table[domain.InvestmentProject]
	investors     table[domain.Investor]
	investments   table[domain.Investment]
	shareClasses  table[domain.ShareClass]
	allocations   table[domain.ShareholderAllocation]
	capitalCalls  table[domain.CapitalCall]
	payments      table[domain.ShareholderPayment]
	distributions table[domain.Distribution]
	transfers     table[domain.ShareTransfer]
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		accounts:      s.accounts.clone(),
		entries:       s.entries.clone(),
		lines:         s.lines.clone(),
		projects:      s.projects.clone(),
		investors:     s.investors.clone(),
		investments:   s.investments.clone(),
		shareClasses:  s.shareClasses.clone(),
		allocations:   s.allocations.clone(),
		capitalCalls:  s.capitalCalls.clone(),
		payments:      s.payments.clone(),
		distributions: s.distributions.clone(),
		transfers:     s.transfers.clone(),
	}
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.entries = snap.entries
	s.lines = snap.lines
	s.projects = snap.projects
	s.investors = snap.investors
	s.investments = snap.investments
	s.shareClasses = snap.shareClasses
	s.allocations = snap.allocations
	s.capitalCalls = snap.capitalCalls
	s.payments = snap.payments
	s.distributions = snap.distributions
	s.transfers = snap.transfers
}

// --- Accounts ---

func (s *Store) InsertAccount(ctx context.Context, a *domain.Account) error {
	for _, existing := range s.accounts.rows {
		if existing.Code == a.Code {
			return domain.Conflictf("account code %q already exists", a.Code)
		}
	}
	s.accounts.insert(a.ID, *a)
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := s.accounts.get(id)
	if !ok {
		return nil, domain.NotFoundf("account %s", id)
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	out := s.accounts.list()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) AddToAccountBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	a, ok := s.accounts.get(id)
	if !ok {
		return domain.NotFoundf("account %s", id)
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	s.accounts.update(id, a)
	return nil
}

// --- Journal ---

func (s *Store) InsertJournalEntry(ctx context.Context, e *domain.JournalEntry) error {
	for _, existing := range s.entries.rows {
		if existing.EntryNumber == e.EntryNumber {
			return domain.Conflictf("entry number %q already exists", e.EntryNumber)
		}
	}
	s.entries.insert(e.ID, *e)
	return nil
}

func (s *Store) InsertJournalLine(ctx context.Context, l *domain.JournalLine) error {
	s.lines.insert(l.ID, *l)
	return nil
}

func (s *Store) AccountActivity(ctx context.Context, from, to time.Time) ([]storage.AccountActivity, error) {
	type sums struct{ debit, credit decimal.Decimal }
	perAccount := make(map[uuid.UUID]*sums)

	for _, line := range s.lines.list() {
		entry, ok := s.entries.get(line.EntryID)
		if !ok {
			continue
		}
		if entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		agg, ok := perAccount[line.AccountID]
		if !ok {
			agg = &sums{debit: decimal.Zero, credit: decimal.Zero}
			perAccount[line.AccountID] = agg
		}
		if line.Type == domain.LineDebit {
			agg.debit = agg.debit.Add(line.Amount)
		} else {
			agg.credit = agg.credit.Add(line.Amount)
		}
	}

	out := make([]storage.AccountActivity, 0, len(perAccount))
	for accountID, agg := range perAccount {
		account, ok := s.accounts.get(accountID)
		if !ok {
			continue
		}
		out = append(out, storage.AccountActivity{
			Account: account,
			Debit:   agg.debit,
			Credit:  agg.credit,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.Code < out[j].Account.Code })
	return out, nil
}

// --- Projects ---

func (s *Store) InsertProject(ctx context.Context, p *domain.InvestmentProject) error {
	s.projects.insert(p.ID, *p)
	return nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error) {
	p, ok := s.projects.get(id)
	if !ok {
		return nil, domain.NotFoundf("project %s", id)
	}
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.InvestmentProject) error {
	if !s.projects.update(p.ID, *p) {
		return domain.NotFoundf("project %s", p.ID)
	}
	return nil
}

// --- Investors ---

func (s *Store) InsertInvestor(ctx context.Context, inv *domain.Investor) error {
	for _, existing := range s.investors.rows {
		if existing.Email == inv.Email {
			return domain.Conflictf("investor email %q already exists", inv.Email)
		}
	}
	s.investors.insert(inv.ID, *inv)
	return nil
}

func (s *Store) GetInvestor(ctx context.Context, id uuid.UUID) (*domain.Investor, error) {
	inv, ok := s.investors.get(id)
	if !ok {
		return nil, domain.NotFoundf("investor %s", id)
	}
	return &inv, nil
}

func (s *Store) UpdateInvestor(ctx context.Context, inv *domain.Investor) error {
	if !s.investors.update(inv.ID, *inv) {
		return domain.NotFoundf("investor %s", inv.ID)
	}
	return nil
}

// --- Investments ---

func (s *Store) InsertInvestment(ctx context.Context, i *domain.Investment) error {
	s.investments.insert(i.ID, *i)
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	i, ok := s.investments.get(id)
	if !ok {
		return nil, domain.NotFoundf("investment %s", id)
	}
	return &i, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, i *domain.Investment) error {
	if !s.investments.update(i.ID, *i) {
		return domain.NotFoundf("investment %s", i.ID)
	}
	return nil
}

func (s *Store) ListInvestmentsByProject(ctx context.Context, projectID uuid.UUID, onlyActive bool) ([]domain.Investment, error) {
	var out []domain.Investment
	for _, i := range s.investments.list() {
		if i.ProjectID != projectID {
			continue
		}
		if onlyActive && i.Status != domain.InvestmentActive {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

// --- Share classes ---

func (s *Store) InsertShareClass(ctx context.Context, sc *domain.ShareClass) error {
	for _, existing := range s.shareClasses.rows {
		if existing.Code == sc.Code {
			return domain.Conflictf("share class code %q already exists", sc.Code)
		}
	}
	s.shareClasses.insert(sc.ID, *sc)
	return nil
}

func (s *Store) GetShareClass(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	sc, ok := s.shareClasses.get(id)
	if !ok {
		return nil, domain.NotFoundf("share class %s", id)
	}
	return &sc, nil
}

func (s *Store) UpdateShareClass(ctx context.Context, sc *domain.ShareClass) error {
	if !s.shareClasses.update(sc.ID, *sc) {
		return domain.NotFoundf("share class %s", sc.ID)
	}
	return nil
}

// --- Allocations ---

func (s *Store) InsertAllocation(ctx context.Context, a *domain.ShareholderAllocation) error {
	for _, existing := range s.allocations.rows {
		if existing.CertificateNumber == a.CertificateNumber {
			return domain.Conflictf("certificate number %q already exists", a.CertificateNumber)
		}
	}
	s.allocations.insert(a.ID, *a)
	return nil
}

func (s *Store) GetAllocation(ctx context.Context, id uuid.UUID) (*domain.ShareholderAllocation, error) {
	a, ok := s.allocations.get(id)
	if !ok {
		return nil, domain.NotFoundf("allocation %s", id)
	}
	return &a, nil
}

func (s *Store) UpdateAllocation(ctx context.Context, a *domain.ShareholderAllocation) error {
	if !s.allocations.update(a.ID, *a) {
		return domain.NotFoundf("allocation %s", a.ID)
	}
	return nil
}

func (s *Store) ListActiveAllocationsByClass(ctx context.Context, classID uuid.UUID) ([]domain.ShareholderAllocation, error) {
	var out []domain.ShareholderAllocation
	for _, a := range s.allocations.list() {
		if a.ShareClassID == classID && a.Status == domain.AllocationActive {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- Capital calls ---

func (s *Store) InsertCapitalCall(ctx context.Context, c *domain.CapitalCall) error {
	s.capitalCalls.insert(c.ID, *c)
	return nil
}

func (s *Store) GetCapitalCall(ctx context.Context, id uuid.UUID) (*domain.CapitalCall, error) {
	c, ok := s.capitalCalls.get(id)
	if !ok {
		return nil, domain.NotFoundf("capital call %s", id)
	}
	return &c, nil
}

func (s *Store) UpdateCapitalCall(ctx context.Context, c *domain.CapitalCall) error {
	if !s.capitalCalls.update(c.ID, *c) {
		return domain.NotFoundf("capital call %s", c.ID)
	}
	return nil
}

// --- Payments ---

func (s *Store) InsertPayment(ctx context.Context, p *domain.ShareholderPayment) error {
	s.payments.insert(p.ID, *p)
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*domain.ShareholderPayment, error) {
	p, ok := s.payments.get(id)
	if !ok {
		return nil, domain.NotFoundf("payment %s", id)
	}
	return &p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *domain.ShareholderPayment) error {
	if !s.payments.update(p.ID, *p) {
		return domain.NotFoundf("payment %s", p.ID)
	}
	return nil
}

func (s *Store) ListPaymentsByCall(ctx context.Context, callID uuid.UUID) ([]domain.ShareholderPayment, error) {
	var out []domain.ShareholderPayment
	for _, p := range s.payments.list() {
		if p.CapitalCallID != nil && *p.CapitalCallID == callID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Distributions ---

func (s *Store) InsertDistribution(ctx context.Context, d *domain.Distribution) error {
	s.distributions.insert(d.ID, *d)
	return nil
}

func (s *Store) GetDistribution(ctx context.Context, id uuid.UUID) (*domain.Distribution, error) {
	d, ok := s.distributions.get(id)
	if !ok {
		return nil, domain.NotFoundf("distribution %s", id)
	}
	return &d, nil
}

func (s *Store) UpdateDistribution(ctx context.Context, d *domain.Distribution) error {
	if !s.distributions.update(d.ID, *d) {
		return domain.NotFoundf("distribution %s", d.ID)
	}
	return nil
}

func (s *Store) ListDistributionsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Distribution, error) {
	var out []domain.Distribution
	for _, d := range s.distributions.list() {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- Transfers ---

func (s *Store) InsertShareTransfer(ctx context.Context, t *domain.ShareTransfer) error {
	s.transfers.insert(t.ID, *t)
	return nil
}
