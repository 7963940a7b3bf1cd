package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/repository"
)

func TestSchedulerTrackUntrack(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewPassiveIncomeScheduler(svc, 10*time.Millisecond)
	defer sched.Stop()

	assert.Zero(t, sched.Tracked())

	sched.Track("p1")
	sched.Track("p1") // no-op
	sched.Track("p2")
	assert.Equal(t, 2, sched.Tracked())

	sched.Untrack("p1")
	assert.Equal(t, 1, sched.Tracked())

	sched.Untrack("nobody") // no-op
	assert.Equal(t, 1, sched.Tracked())
}

func TestSchedulerAwardsPassiveIncome(t *testing.T) {
	repo := repository.NewMemoryStateRepository()
	svc := NewProgressionService(catalog.Default(), repo, repo)
	require.NotNil(t, svc)
	ctx := context.Background()

	_, _, err := svc.Tap(ctx, "p1", 100)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "p1", "metronome", false)
	require.NoError(t, err)

	before, err := svc.GetState(ctx, "p1")
	require.NoError(t, err)

	sched := NewPassiveIncomeScheduler(svc, 10*time.Millisecond)
	defer sched.Stop()
	sched.Track("p1")

	require.Eventually(t, func() bool {
		state, err := svc.GetState(ctx, "p1")
		return err == nil && state.Currency > before.Currency
	}, 2*time.Second, 10*time.Millisecond, "tracked player should accrue income")

	sched.Untrack("p1")
	assert.Zero(t, sched.Tracked())
}

func TestSchedulerRefreshKeepsTracking(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewPassiveIncomeScheduler(svc, 10*time.Millisecond)
	defer sched.Stop()

	sched.Refresh("p1") // not tracked: no-op
	assert.Zero(t, sched.Tracked())

	sched.Track("p1")
	sched.Refresh("p1")
	assert.Equal(t, 1, sched.Tracked())
}

func TestSchedulerStop(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewPassiveIncomeScheduler(svc, 10*time.Millisecond)

	sched.Track("p1")
	sched.Track("p2")
	sched.Stop()
	assert.Zero(t, sched.Tracked())

	// Stopped schedulers refuse new work
	sched.Track("p3")
	assert.Zero(t, sched.Tracked())

	sched.Stop() // idempotent
}

func TestSchedulerDefaultInterval(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewPassiveIncomeScheduler(svc, 0)
	defer sched.Stop()
	assert.Equal(t, time.Second, sched.interval)
}
