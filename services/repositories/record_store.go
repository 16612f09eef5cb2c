package repositories

import (
	"context"
	"fmt"

	"github.com/lac-hong-legacy/guessword_api/model"
)

// RecordStore persists the three game tables. Implementations serialize every
// mutation behind a single write lock, so concurrent finalizes for different
// identities never lose an update.
type RecordStore interface {
	AppendSession(ctx context.Context, rec model.SessionRecord) error
	Sessions(ctx context.Context) (ParseResult[model.SessionRecord], error)
	// FinalizeSession moves the most recent in_progress record of identity to
	// status. It reports false, without error, when no open record exists.
	FinalizeSession(ctx context.Context, identity model.Identity, status model.SessionStatus, elapsedSeconds int) (bool, error)

	AppendDistribution(ctx context.Context, rec model.DistributionRecord) error
	Distributions(ctx context.Context) (ParseResult[model.DistributionRecord], error)

	AppendGiftReceipts(ctx context.Context, receipts []model.GiftReceipt) error
	GiftReceipts(ctx context.Context) (ParseResult[model.GiftReceipt], error)

	Close() error
}

// RowError describes one persisted row that could not be decoded.
type RowError struct {
	Table string
	Line  int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

// ParseResult holds the decodable rows of a table, in storage order, plus the
// rows that were skipped.
type ParseResult[T any] struct {
	Records  []T
	Failures []RowError
}
