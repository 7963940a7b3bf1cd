package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// PassiveIncomeScheduler awards passive income to tracked players on a
// fixed tick. One goroutine runs per tracked player; each tick awards the
// player's current rate exactly once, so a stalled or missed tick is simply
// lost rather than backfilled. Refresh cancels a player's ticker and starts
// a fresh one, which is how rate changes after an upgrade purchase take
// effect without a stale-rate leak.
type PassiveIncomeScheduler struct {
	svc      *ProgressionService
	interval time.Duration

	mu      sync.Mutex
	tickers map[string]chan struct{}
	stopped bool
}

// NewPassiveIncomeScheduler creates a scheduler ticking at the interval.
func NewPassiveIncomeScheduler(svc *ProgressionService, interval time.Duration) *PassiveIncomeScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &PassiveIncomeScheduler{
		svc:      svc,
		interval: interval,
		tickers:  make(map[string]chan struct{}),
	}
}

// Track starts awarding passive income to the player. Tracking an already
// tracked player is a no-op.
func (p *PassiveIncomeScheduler) Track(playerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if _, ok := p.tickers[playerID]; ok {
		return
	}

	stop := make(chan struct{})
	p.tickers[playerID] = stop
	go p.run(playerID, stop)

	log.Printf("[PassiveIncomeScheduler] Tracking player %s (interval %v)", playerID, p.interval)
}

// Untrack stops awarding passive income to the player.
func (p *PassiveIncomeScheduler) Untrack(playerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.untrackLocked(playerID)
}

func (p *PassiveIncomeScheduler) untrackLocked(playerID string) {
	if stop, ok := p.tickers[playerID]; ok {
		close(stop)
		delete(p.tickers, playerID)
	}
}

// Refresh restarts the player's ticker. Called after the owned-upgrade set
// changes; the fresh ticker picks up the new rate on its next tick.
func (p *PassiveIncomeScheduler) Refresh(playerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if _, ok := p.tickers[playerID]; !ok {
		return
	}

	p.untrackLocked(playerID)
	stop := make(chan struct{})
	p.tickers[playerID] = stop
	go p.run(playerID, stop)
}

// Tracked returns the number of players currently receiving passive income.
func (p *PassiveIncomeScheduler) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tickers)
}

// run is one player's award loop.
func (p *PassiveIncomeScheduler) run(playerID string, stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := p.svc.AccruePassive(ctx, playerID); err != nil {
				log.Printf("[PassiveIncomeScheduler] Accrue error for %s: %v", playerID, err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// Stop cancels every ticker. The scheduler cannot be restarted.
func (p *PassiveIncomeScheduler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	for playerID := range p.tickers {
		p.untrackLocked(playerID)
	}
	log.Printf("[PassiveIncomeScheduler] Stopped")
}

// Ensure the scheduler satisfies the service's observer hook.
var _ RateObserver = (*PassiveIncomeScheduler)(nil)
