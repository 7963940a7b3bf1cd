package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"halloween-rock-api/internal/cache"
	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/model"
	"halloween-rock-api/internal/progression"
	"halloween-rock-api/internal/repository"
)

// RateObserver is notified when a player's owned-upgrade set changes, so the
// passive-income scheduler can cancel and restart that player's ticker with
// the new rate.
type RateObserver interface {
	Refresh(playerID string)
}

// ProgressionService owns the live PlayerState lifecycle: load, mutate under
// a per-player lock, persist. Earn writes may be coalesced through the Redis
// buffer; purchase and equip results are always written straight through so
// ownership survives a crash.
type ProgressionService struct {
	catalog  *catalog.Catalog
	repo     repository.StateRepository
	ledger   repository.LedgerRepository
	buffer   *cache.RedisStateBuffer
	observer RateObserver

	locks sync.Map // playerID -> *sync.Mutex
}

// NewProgressionService creates a new progression service.
// Returns nil if either required dependency is nil.
func NewProgressionService(
	cat *catalog.Catalog,
	repo repository.StateRepository,
	ledger repository.LedgerRepository,
) *ProgressionService {
	if cat == nil || repo == nil {
		return nil
	}
	return &ProgressionService{
		catalog: cat,
		repo:    repo,
		ledger:  ledger,
	}
}

// SetBuffer sets the Redis buffer for write-behind persistence of earn and
// passive-income writes.
func (s *ProgressionService) SetBuffer(buffer *cache.RedisStateBuffer) {
	s.buffer = buffer
}

// SetRateObserver registers the observer notified after upgrade purchases.
func (s *ProgressionService) SetRateObserver(observer RateObserver) {
	s.observer = observer
}

// Catalog returns the catalog the service operates against.
func (s *ProgressionService) Catalog() *catalog.Catalog {
	return s.catalog
}

// lock returns the mutex guarding one player's read-modify-persist cycle.
func (s *ProgressionService) lock(playerID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(playerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// load reads and decodes the player's state. Missing players get a fresh
// default; a corrupt blob degrades to a fresh default as well (logged, never
// surfaced). Callers must hold the player lock.
func (s *ProgressionService) load(ctx context.Context, playerID string) (*model.PlayerState, error) {
	var raw []byte

	// The buffer may hold a newer state than the database.
	if s.buffer != nil {
		if buffered, err := s.buffer.Get(ctx, playerID); err == nil && buffered != nil {
			raw = buffered.Raw
		}
	}

	if raw == nil {
		stored, _, err := s.repo.LoadState(ctx, playerID)
		if err != nil {
			return nil, err
		}
		raw = stored
	}

	if raw == nil {
		return progression.Default(), nil
	}

	state, err := progression.Decode(raw)
	if err != nil {
		if errors.Is(err, progression.ErrCorruptPersistedState) {
			log.Printf("[ProgressionService] Corrupt state for player %s, resetting: %v", playerID, err)
			return progression.Default(), nil
		}
		return nil, err
	}
	return state, nil
}

// persistThrottled records a state write that may be coalesced: through the
// buffer when available, direct otherwise. Losing a few seconds of earn
// progress on crash is acceptable.
func (s *ProgressionService) persistThrottled(ctx context.Context, playerID string, state *model.PlayerState) error {
	raw, err := progression.Encode(state)
	if err != nil {
		return err
	}
	if s.buffer != nil {
		return s.buffer.Add(ctx, playerID, raw)
	}
	return s.repo.SaveState(ctx, playerID, raw)
}

// persistForced writes the state straight to the database, updating the
// buffered copy as well so subsequent reads stay fresh.
func (s *ProgressionService) persistForced(ctx context.Context, playerID string, state *model.PlayerState) error {
	raw, err := progression.Encode(state)
	if err != nil {
		return err
	}
	if err := s.repo.SaveState(ctx, playerID, raw); err != nil {
		return err
	}
	if s.buffer != nil {
		if err := s.buffer.Add(ctx, playerID, raw); err != nil {
			log.Printf("[ProgressionService] Buffer update after forced write failed: %v", err)
		}
	}
	return nil
}

// GetState returns a snapshot of the player's current state.
func (s *ProgressionService) GetState(ctx context.Context, playerID string) (*model.PlayerState, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Tap credits one base reward (times the active multiplier) and persists
// through the throttled path. Returns the credited amount and the new state.
func (s *ProgressionService) Tap(ctx context.Context, playerID string, amount int64) (int64, *model.PlayerState, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return 0, nil, err
	}

	credited, err := progression.Earn(s.catalog, state, amount)
	if err != nil {
		return 0, nil, err
	}

	if err := s.persistThrottled(ctx, playerID, state); err != nil {
		return 0, nil, err
	}
	return credited, state.Clone(), nil
}

// Purchase buys a catalog item. The write is forced so ownership survives a
// crash; the purchase is recorded in the ledger and, for upgrades, the rate
// observer is notified. When autoEquip is set the item is equipped right
// after the purchase; a client policy layered on the two primitives, not a
// purchase guarantee.
func (s *ProgressionService) Purchase(ctx context.Context, playerID, itemID string, autoEquip bool) (*model.PlayerState, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if err := progression.Purchase(s.catalog, state, itemID); err != nil {
		return nil, err
	}
	item, _ := s.catalog.FindByID(itemID)

	if autoEquip {
		switch item.Category {
		case model.CategoryCostume, model.CategoryBackground:
			_ = progression.Equip(s.catalog, state, item.Category, &item.ID, "")
		case model.CategorySkin:
			_ = progression.Equip(s.catalog, state, item.Category, &item.ID, item.Target)
		}
	}

	if err := s.persistForced(ctx, playerID, state); err != nil {
		return nil, err
	}

	if s.ledger != nil {
		rec := &model.PurchaseRecord{
			PlayerID:     playerID,
			ItemID:       item.ID,
			Category:     item.Category,
			Price:        item.Price,
			BalanceAfter: state.Currency,
		}
		if err := s.ledger.RecordPurchase(ctx, rec); err != nil {
			log.Printf("[ProgressionService] Failed to record purchase %s/%s: %v", playerID, itemID, err)
		}
	}

	if item.Category == model.CategoryUpgrade && s.observer != nil {
		s.observer.Refresh(playerID)
	}

	return state.Clone(), nil
}

// Equip changes an equipped slot; itemID nil unequips. The write is forced.
func (s *ProgressionService) Equip(ctx context.Context, playerID string, category model.Category, itemID *string, target string) (*model.PlayerState, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if err := progression.Equip(s.catalog, state, category, itemID, target); err != nil {
		return nil, err
	}

	if err := s.persistForced(ctx, playerID, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// PassiveRate returns the player's current passive income rate per second.
func (s *ProgressionService) PassiveRate(ctx context.Context, playerID string) (int64, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return progression.PassiveRate(s.catalog, state), nil
}

// AccruePassive awards one tick of passive income: the current rate, once,
// through the earn path. No catch-up for missed ticks. Returns the credited
// amount (zero when the player owns no passive upgrades).
func (s *ProgressionService) AccruePassive(ctx context.Context, playerID string) (int64, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return 0, err
	}

	rate := progression.PassiveRate(s.catalog, state)
	if rate == 0 {
		return 0, nil
	}

	credited, err := progression.Earn(s.catalog, state, rate)
	if err != nil {
		return 0, err
	}

	if err := s.persistThrottled(ctx, playerID, state); err != nil {
		return 0, err
	}
	return credited, nil
}

// Soundboard returns the (instrument, sample) pairs for the player's owned
// drums with equipped skins applied.
func (s *ProgressionService) Soundboard(ctx context.Context, playerID string) ([]progression.InstrumentSample, error) {
	mu := s.lock(playerID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return progression.Soundboard(s.catalog, state), nil
}

// ListPurchases returns the player's purchase history, newest first.
func (s *ProgressionService) ListPurchases(ctx context.Context, playerID string, limit, offset int) ([]model.PurchaseRecord, int64, error) {
	if s.ledger == nil {
		return []model.PurchaseRecord{}, 0, nil
	}
	return s.ledger.ListPurchases(ctx, playerID, limit, offset)
}

// CreateFlushFunc creates a flush function for the Redis state buffer.
func CreateFlushFunc(repo repository.StateRepository) cache.FlushFunc {
	return func(ctx context.Context, items []*model.BufferedState) error {
		for _, item := range items {
			if err := repo.SaveState(ctx, item.PlayerID, item.Raw); err != nil {
				return err
			}
		}
		return nil
	}
}
