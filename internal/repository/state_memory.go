package repository

import (
	"context"
	"sync"
	"time"

	"halloween-rock-api/internal/model"
)

// MemoryStateRepository implements StateRepository and LedgerRepository
// in memory. For tests and single-instance development runs; nothing
// survives a restart.
type MemoryStateRepository struct {
	mu        sync.RWMutex
	states    map[string][]byte
	updatedAt map[string]time.Time
	ledger    []model.PurchaseRecord
	nextID    int64
}

// NewMemoryStateRepository creates an empty in-memory repository.
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{
		states:    make(map[string][]byte),
		updatedAt: make(map[string]time.Time),
		nextID:    1,
	}
}

// SaveState overwrites the stored blob for the player.
func (r *MemoryStateRepository) SaveState(ctx context.Context, playerID string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(raw))
	copy(stored, raw)
	r.states[playerID] = stored
	r.updatedAt[playerID] = time.Now().UTC()
	return nil
}

// LoadState returns the stored blob, or (nil, nil, nil) when absent.
func (r *MemoryStateRepository) LoadState(ctx context.Context, playerID string) ([]byte, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.states[playerID]
	if !ok {
		return nil, nil, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	at := r.updatedAt[playerID]
	return out, &at, nil
}

// RecordPurchase appends one ledger entry.
func (r *MemoryStateRepository) RecordPurchase(ctx context.Context, rec *model.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	rec.CreatedAt = time.Now().UTC()
	r.ledger = append(r.ledger, *rec)
	return nil
}

// ListPurchases returns a player's purchases, newest first.
func (r *MemoryStateRepository) ListPurchases(ctx context.Context, playerID string, limit, offset int) ([]model.PurchaseRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []model.PurchaseRecord{}
	for i := len(r.ledger) - 1; i >= 0; i-- {
		if r.ledger[i].PlayerID == playerID {
			matched = append(matched, r.ledger[i])
		}
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.PurchaseRecord{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// GetStats returns statistics about the stored states.
func (r *MemoryStateRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]interface{}{
		"total_players":   int64(len(r.states)),
		"total_purchases": int64(len(r.ledger)),
	}, nil
}

// Close is a no-op for the in-memory repository.
func (r *MemoryStateRepository) Close() error {
	return nil
}

// Ensure MemoryStateRepository implements both interfaces
var (
	_ StateRepository  = (*MemoryStateRepository)(nil)
	_ LedgerRepository = (*MemoryStateRepository)(nil)
)
