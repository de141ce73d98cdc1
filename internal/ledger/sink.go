package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
	"CapLedger/internal/storage"
)

// Posting is one balanced debit/credit movement handed to a Sink.
type Posting struct {
	Date        time.Time
	Description string
	SourceType  string
	CreatedBy   string
	Amount      decimal.Decimal
}

// Sink is the conditional posting capability. Engine operations post through
// a Sink instead of null-checking account configuration at every call site:
// when the relevant accounts are not configured the sink is a no-op and
// Post returns (nil, nil).
type Sink interface {
	// Post writes a balanced entry inside the caller's transaction and
	// returns it, or (nil, nil) when posting is disabled.
	Post(ctx context.Context, tx storage.Tx, p Posting) (*domain.JournalEntry, error)
	Enabled() bool
}

// SinkForAccounts returns a posting sink when both account ids are set and a
// no-op sink otherwise. Absence of configured accounts is not an error.
func SinkForAccounts(poster *Poster, debitAccount, creditAccount *uuid.UUID) Sink {
	if debitAccount == nil || creditAccount == nil {
		return nopSink{}
	}
	return &accountSink{poster: poster, debit: *debitAccount, credit: *creditAccount}
}

type nopSink struct{}

func (nopSink) Post(context.Context, storage.Tx, Posting) (*domain.JournalEntry, error) {
	return nil, nil
}

func (nopSink) Enabled() bool { return false }

type accountSink struct {
	poster *Poster
	debit  uuid.UUID
	credit uuid.UUID
}

func (s *accountSink) Post(ctx context.Context, tx storage.Tx, p Posting) (*domain.JournalEntry, error) {
	return s.poster.PostEntry(ctx, tx, PostEntryInput{
		Date:        p.Date,
		Description: p.Description,
		SourceType:  p.SourceType,
		CreatedBy:   p.CreatedBy,
		Lines:       BalancedPair(s.debit, s.credit, p.Amount, p.Description),
	})
}

func (s *accountSink) Enabled() bool { return true }
