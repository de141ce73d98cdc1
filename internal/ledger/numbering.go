package ledger

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var entrySeq atomic.Uint64

// GenerateEntryNumber returns a human-readable identifier for a posting,
// tagged by the originating operation, e.g. "INV-20260823-104501-000042".
// The suffix combines wall-clock time with a process-local counter; it is
// intended to be unique per posting but carries no distributed-uniqueness
// guarantee; the store's unique index on entry_number is the backstop.
func GenerateEntryNumber(prefix string) string {
	if prefix == "" {
		prefix = "GEN"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("%s-%s-%06d",
		strings.ToUpper(prefix),
		now.Format("20060102-150405"),
		entrySeq.Add(1)%1_000_000,
	)
}
