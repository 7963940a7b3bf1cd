package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"halloween-rock-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStateRepository implements StateRepository and LedgerRepository
// using SQLite. Thread-safe with WAL mode for high-concurrency reads.
type SQLiteStateRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStateRepository creates a new SQLite state repository.
// dbPath is the path to the SQLite database file (e.g., "./data/players.db")
func NewSQLiteStateRepository(dbPath string) (*SQLiteStateRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStateRepository] Initialized with database: %s", dbPath)
	return &SQLiteStateRepository{db: db}, nil
}

// createSQLiteTables creates the player state and purchase ledger tables.
func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS player_state (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id TEXT NOT NULL UNIQUE,
		state_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_player_id ON player_state(player_id);
	CREATE TABLE IF NOT EXISTS purchase_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		category TEXT NOT NULL,
		price INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_player ON purchase_ledger(player_id, created_at);
	`
	_, err := db.Exec(query)
	return err
}

// SaveState overwrites the persisted state blob for the player.
func (r *SQLiteStateRepository) SaveState(ctx context.Context, playerID string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO player_state (player_id, state_json, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(player_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = datetime('now')`

	_, err := r.db.ExecContext(ctx, query, playerID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save player state: %w", err)
	}
	return nil
}

// LoadState retrieves the persisted state blob for the player.
func (r *SQLiteStateRepository) LoadState(ctx context.Context, playerID string) ([]byte, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT state_json, updated_at FROM player_state WHERE player_id = ?`

	var raw string
	var updatedAt time.Time

	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&raw, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load player state: %w", err)
	}

	return []byte(raw), &updatedAt, nil
}

// RecordPurchase appends one row to the purchase ledger.
func (r *SQLiteStateRepository) RecordPurchase(ctx context.Context, rec *model.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO purchase_ledger (player_id, item_id, category, price, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.PlayerID, rec.ItemID, string(rec.Category), rec.Price, rec.BalanceAfter, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

// ListPurchases returns a player's purchases, newest first.
func (r *SQLiteStateRepository) ListPurchases(ctx context.Context, playerID string, limit, offset int) ([]model.PurchaseRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, player_id, item_id, category, price, balance_after, created_at
		FROM purchase_ledger
		WHERE player_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	records := []model.PurchaseRecord{}
	for rows.Next() {
		var rec model.PurchaseRecord
		var category string
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.ItemID, &category, &rec.Price, &rec.BalanceAfter, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		rec.Category = model.Category(category)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchase_ledger WHERE player_id = ?`, playerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetStats returns statistics about the state database.
func (r *SQLiteStateRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var players int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM player_state").Scan(&players); err != nil {
		return nil, err
	}
	stats["total_players"] = players

	var purchases int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM purchase_ledger").Scan(&purchases); err == nil {
		stats["total_purchases"] = purchases
	}

	var lastWrite sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM player_state").Scan(&lastWrite); err == nil && lastWrite.Valid {
		stats["last_write"] = lastWrite.Time
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteStateRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteStateRepository implements both interfaces
var (
	_ StateRepository  = (*SQLiteStateRepository)(nil)
	_ LedgerRepository = (*SQLiteStateRepository)(nil)
)
