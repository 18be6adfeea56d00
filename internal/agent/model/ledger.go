package model

import "context"

// LedgerRepository is the append-only sink for finalized orders. The core
// never reads it back.
type LedgerRepository interface {
	// Append writes one finalized order row. A returned error means the row
	// was not durably recorded and the order must not be considered done.
	Append(ctx context.Context, order *FinalizedOrder) error
}
