package repository

import (
	"context"
	"time"

	"halloween-rock-api/internal/model"
)

// StateRepository persists whole PlayerState blobs keyed by player id.
// Writes are full-state overwrites; the service layer decides when a write
// may be coalesced and when it must happen immediately.
type StateRepository interface {
	// SaveState overwrites the persisted blob for the player.
	SaveState(ctx context.Context, playerID string, raw []byte) error

	// LoadState returns the persisted blob and its last write time.
	// A missing player returns (nil, nil, nil); absence is not an error.
	LoadState(ctx context.Context, playerID string) ([]byte, *time.Time, error)

	// GetStats returns statistics about the state database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// LedgerRepository records successful purchases for auditing and history.
type LedgerRepository interface {
	// RecordPurchase appends one ledger row.
	RecordPurchase(ctx context.Context, rec *model.PurchaseRecord) error

	// ListPurchases returns a player's purchases, newest first, with the
	// total row count for pagination.
	ListPurchases(ctx context.Context, playerID string, limit, offset int) ([]model.PurchaseRecord, int64, error)
}
