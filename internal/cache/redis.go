package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"halloween-rock-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// Buffer configuration
const (
	MaxBatchSize       = 50
	FlushTimeout       = 60 * time.Second
	StaleDataThreshold = 1 * time.Hour
	CleanupInterval    = 5 * time.Minute
)

// FlushFunc is called to persist buffered player states to the database.
type FlushFunc func(ctx context.Context, items []*model.BufferedState) error

var deleteIfUnchangedScript = redis.NewScript(`
	if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
		redis.call("HDEL", KEYS[1], ARGV[1])
		redis.call("SREM", KEYS[2], ARGV[1])
		return 1
	else
		return 0
	end
`)

// RedisStateBuffer coalesces player-state writes in Redis before flushing
// them to the state repository. Earn and passive-income ticks go through the
// buffer so a tap storm does not hammer the database; purchase and equip
// writes bypass it (the service writes those straight through) and only
// update the buffered copy so reads stay fresh.
type RedisStateBuffer struct {
	client        *redis.Client
	flushFunc     FlushFunc
	flushTicker   *time.Ticker
	cleanupTicker *time.Ticker
	stopFlush     chan struct{}
	stopOnce      sync.Once
	keyPrefix     string
}

// RedisBufferConfig holds configuration for the Redis state buffer.
type RedisBufferConfig struct {
	Addr          string
	Password      string
	DB            int
	FlushInterval time.Duration
	KeyPrefix     string
}

// NewRedisStateBuffer creates a Redis-backed write-behind state buffer.
func NewRedisStateBuffer(cfg RedisBufferConfig, flushFunc FlushFunc) (*RedisStateBuffer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "halloweenrock:state"
	}

	b := &RedisStateBuffer{
		client:        client,
		flushFunc:     flushFunc,
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopFlush:     make(chan struct{}),
		keyPrefix:     keyPrefix,
	}

	go b.backgroundFlush()
	go b.backgroundCleanup()

	log.Printf("[RedisStateBuffer] Started - DB:%d, prefix:%s, flush:%v, batch:%d",
		cfg.DB, keyPrefix, cfg.FlushInterval, MaxBatchSize)
	return b, nil
}

func (b *RedisStateBuffer) bufferKey() string {
	return b.keyPrefix + ":buffer"
}

func (b *RedisStateBuffer) pendingKey() string {
	return b.keyPrefix + ":pending"
}

// Add buffers a player-state write in Redis.
func (b *RedisStateBuffer) Add(ctx context.Context, playerID string, raw []byte) error {
	data := &model.BufferedState{
		PlayerID:  playerID,
		Raw:       raw,
		UpdatedAt: time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	pipe := b.client.Pipeline()
	pipe.HSet(ctx, b.bufferKey(), playerID, jsonData)
	pipe.SAdd(ctx, b.pendingKey(), playerID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves a buffered state from Redis, or nil when none is pending.
func (b *RedisStateBuffer) Get(ctx context.Context, playerID string) (*model.BufferedState, error) {
	data, err := b.client.HGet(ctx, b.bufferKey(), playerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state model.BufferedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Count returns the number of pending writes.
func (b *RedisStateBuffer) Count(ctx context.Context) (int64, error) {
	return b.client.SCard(ctx, b.pendingKey()).Result()
}

// FlushBatch writes up to MaxBatchSize pending states to the database.
func (b *RedisStateBuffer) FlushBatch(ctx context.Context) (int, error) {
	playerIDs, err := b.client.SRandMemberN(ctx, b.pendingKey(), MaxBatchSize).Result()
	if err != nil {
		return 0, err
	}

	if len(playerIDs) == 0 {
		return 0, nil
	}

	totalPending, _ := b.Count(ctx)
	log.Printf("[RedisStateBuffer] Flushing %d/%d states", len(playerIDs), totalPending)

	items := make([]*model.BufferedState, 0, len(playerIDs))
	originalData := make(map[string]string)

	for _, playerID := range playerIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), playerID).Bytes()
		if err == redis.Nil {
			b.client.SRem(ctx, b.pendingKey(), playerID)
			continue
		}
		if err != nil {
			log.Printf("[RedisStateBuffer] Error getting %s: %v", playerID, err)
			continue
		}

		originalData[playerID] = string(data)

		var state model.BufferedState
		if err := json.Unmarshal(data, &state); err != nil {
			log.Printf("[RedisStateBuffer] Error unmarshaling %s: %v", playerID, err)
			b.client.HDel(ctx, b.bufferKey(), playerID)
			b.client.SRem(ctx, b.pendingKey(), playerID)
			continue
		}
		items = append(items, &state)
	}

	if len(items) == 0 {
		return 0, nil
	}

	if err := b.flushFunc(ctx, items); err != nil {
		log.Printf("[RedisStateBuffer] Flush error: %v", err)
		return 0, err
	}

	// Clear only entries that were not overwritten while the flush ran.
	pipe := b.client.Pipeline()
	for playerID, raw := range originalData {
		deleteIfUnchangedScript.Run(ctx, pipe, []string{b.bufferKey(), b.pendingKey()}, playerID, raw)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		log.Printf("[RedisStateBuffer] Error clearing Redis: %v", err)
	}

	log.Printf("[RedisStateBuffer] Successfully flushed %d states", len(items))
	return len(items), nil
}

// Flush writes one batch of buffered states to the database.
func (b *RedisStateBuffer) Flush(ctx context.Context) error {
	_, err := b.FlushBatch(ctx)
	return err
}

// CleanupStale removes buffered states older than StaleDataThreshold.
func (b *RedisStateBuffer) CleanupStale(ctx context.Context) (int, error) {
	playerIDs, err := b.client.SMembers(ctx, b.pendingKey()).Result()
	if err != nil {
		return 0, err
	}

	if len(playerIDs) == 0 {
		return 0, nil
	}

	staleThreshold := time.Now().Add(-StaleDataThreshold)
	staleCount := 0
	pipe := b.client.Pipeline()

	for _, playerID := range playerIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), playerID).Bytes()
		if err == redis.Nil {
			pipe.SRem(ctx, b.pendingKey(), playerID)
			continue
		}
		if err != nil {
			continue
		}

		var state model.BufferedState
		if err := json.Unmarshal(data, &state); err != nil {
			pipe.HDel(ctx, b.bufferKey(), playerID)
			pipe.SRem(ctx, b.pendingKey(), playerID)
			staleCount++
			continue
		}

		if state.UpdatedAt.Before(staleThreshold) {
			pipe.HDel(ctx, b.bufferKey(), playerID)
			pipe.SRem(ctx, b.pendingKey(), playerID)
			staleCount++
		}
	}

	if staleCount > 0 {
		_, err = pipe.Exec(ctx)
		if err != nil {
			log.Printf("[RedisStateBuffer] Cleanup exec error: %v", err)
			return 0, err
		}
		log.Printf("[RedisStateBuffer] Cleaned up %d stale states", staleCount)
	}

	return staleCount, nil
}

func (b *RedisStateBuffer) backgroundFlush() {
	for {
		select {
		case <-b.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
			if _, err := b.FlushBatch(ctx); err != nil {
				log.Printf("[RedisStateBuffer] Background flush error: %v", err)
			}
			cancel()
		case <-b.stopFlush:
			log.Printf("[RedisStateBuffer] Shutdown: flushing remaining states...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			for {
				flushed, err := b.FlushBatch(ctx)
				if err != nil {
					log.Printf("[RedisStateBuffer] Shutdown flush error: %v", err)
					break
				}
				if flushed == 0 {
					break
				}
			}
			cancel()
			log.Printf("[RedisStateBuffer] Shutdown flush complete")
			return
		}
	}
}

func (b *RedisStateBuffer) backgroundCleanup() {
	for {
		select {
		case <-b.cleanupTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.CleanupStale(ctx)
			cancel()
		case <-b.stopFlush:
			return
		}
	}
}

// Close stops the buffer and performs a final flush.
func (b *RedisStateBuffer) Close() error {
	b.stopOnce.Do(func() {
		b.flushTicker.Stop()
		b.cleanupTicker.Stop()
		close(b.stopFlush)
	})
	return b.client.Close()
}
