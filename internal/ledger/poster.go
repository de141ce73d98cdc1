// Package ledger is the double-entry posting core. It inserts balanced
// journal entries and maintains account running balances. The poster never
// opens its own transaction: it writes through the caller's Tx handle, so a
// failure anywhere aborts the whole caller operation.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/observability"
	"CapLedger/internal/storage"
)

// Line is one side of a posting as supplied by a caller.
type Line struct {
	AccountID   uuid.UUID
	Type        domain.LineType
	Amount      decimal.Decimal
	Description string
}

// BalancedPair builds the matched debit/credit lines every posting in this
// system is composed of.
func BalancedPair(debitAccount, creditAccount uuid.UUID, amount decimal.Decimal, description string) []Line {
	return []Line{
		{AccountID: debitAccount, Type: domain.LineDebit, Amount: amount, Description: description},
		{AccountID: creditAccount, Type: domain.LineCredit, Amount: amount, Description: description},
	}
}

// PostEntryInput describes one posting.
type PostEntryInput struct {
	Date        time.Time
	Description string
	SourceType  string
	CreatedBy   string
	Lines       []Line
}

// Poster inserts journal entries and updates balances.
type Poster struct {
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewPoster(log zerolog.Logger, metrics *observability.Metrics) *Poster {
	return &Poster{log: log, metrics: metrics}
}

// PostEntry inserts one JournalEntry plus its lines, then adjusts each target
// account's running balance: a debit line increases the balance when the
// account's normal balance is debit and decreases it otherwise; a credit line
// does the opposite.
//
// Callers guarantee the line set balances (they construct matched pairs via
// BalancedPair); the poster sums totals from the lines without re-verifying
// equality.
func (p *Poster) PostEntry(ctx context.Context, tx storage.Tx, in PostEntryInput) (*domain.JournalEntry, error) {
	if len(in.Lines) == 0 {
		return nil, domain.Validationf("journal entry requires at least one line")
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, line := range in.Lines {
		if line.Amount.IsNegative() || line.Amount.IsZero() {
			return nil, domain.Validationf("line amount must be positive, got %s", line.Amount)
		}
		switch line.Type {
		case domain.LineDebit:
			totalDebit = totalDebit.Add(line.Amount)
		case domain.LineCredit:
			totalCredit = totalCredit.Add(line.Amount)
		default:
			return nil, domain.Validationf("unknown line type %q", line.Type)
		}
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	entry := &domain.JournalEntry{
		ID:          uuid.New(),
		EntryNumber: GenerateEntryNumber(in.SourceType),
		Date:        in.Date,
		Description: in.Description,
		SourceType:  in.SourceType,
		Status:      domain.EntryPosted,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.InsertJournalEntry(ctx, entry); err != nil {
		return nil, err
	}

	for _, line := range in.Lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return nil, err
		}

		if err := tx.InsertJournalLine(ctx, &domain.JournalLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   line.AccountID,
			Type:        line.Type,
			Amount:      line.Amount,
			Description: line.Description,
		}); err != nil {
			return nil, err
		}

		delta := line.Amount
		if !increasesBalance(line.Type, account.NormalBalance) {
			delta = delta.Neg()
		}
		if err := tx.AddToAccountBalance(ctx, account.ID, delta); err != nil {
			return nil, err
		}
	}

	p.metrics.JournalPosted(len(in.Lines))
	p.log.Debug().
		Str("entry_number", entry.EntryNumber).
		Str("source_type", entry.SourceType).
		Str("total_debit", entry.TotalDebit.String()).
		Int("lines", len(in.Lines)).
		Msg("journal entry posted")

	return entry, nil
}

// increasesBalance: debit raises debit-normal accounts, credit raises
// credit-normal accounts.
func increasesBalance(lineType domain.LineType, normal domain.NormalBalance) bool {
	return (lineType == domain.LineDebit) == (normal == domain.NormalDebit)
}
