package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"halloween-rock-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStateRepository implements StateRepository and LedgerRepository
// using MySQL.
type MySQLStateRepository struct {
	db *sql.DB
}

// NewMySQLStateRepository creates a new MySQL state repository.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStateRepository(dsn string) (*MySQLStateRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLStateRepository] Initialized")
	return &MySQLStateRepository{db: db}, nil
}

// createMySQLTables creates the player state and ledger tables.
func createMySQLTables(db *sql.DB) error {
	stateTable := `
	CREATE TABLE IF NOT EXISTS player_state (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		player_id VARCHAR(64) NOT NULL UNIQUE,
		state_json JSON NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(stateTable); err != nil {
		return err
	}

	ledgerTable := `
	CREATE TABLE IF NOT EXISTS purchase_ledger (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		player_id VARCHAR(64) NOT NULL,
		item_id VARCHAR(64) NOT NULL,
		category VARCHAR(16) NOT NULL,
		price BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_ledger_player (player_id, created_at)
	)`
	_, err := db.Exec(ledgerTable)
	return err
}

// SaveState overwrites the persisted state blob for the player.
func (r *MySQLStateRepository) SaveState(ctx context.Context, playerID string, raw []byte) error {
	query := `
		INSERT INTO player_state (player_id, state_json, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			state_json = VALUES(state_json),
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, playerID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save player state: %w", err)
	}
	return nil
}

// LoadState retrieves the persisted state blob for the player.
func (r *MySQLStateRepository) LoadState(ctx context.Context, playerID string) ([]byte, *time.Time, error) {
	query := `SELECT state_json, updated_at FROM player_state WHERE player_id = ? LIMIT 1`

	var raw []byte
	var updatedAt time.Time

	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&raw, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load player state: %w", err)
	}

	return raw, &updatedAt, nil
}

// RecordPurchase appends one row to the purchase ledger.
func (r *MySQLStateRepository) RecordPurchase(ctx context.Context, rec *model.PurchaseRecord) error {
	rec.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO purchase_ledger (player_id, item_id, category, price, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.PlayerID, rec.ItemID, string(rec.Category), rec.Price, rec.BalanceAfter, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// ListPurchases returns a player's purchases, newest first.
func (r *MySQLStateRepository) ListPurchases(ctx context.Context, playerID string, limit, offset int) ([]model.PurchaseRecord, int64, error) {
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
func (r *MySQLStateRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
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

	dbStats := r.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":     dbStats.OpenConnections,
		"in_use":   dbStats.InUse,
		"idle":     dbStats.Idle,
		"max_open": dbStats.MaxOpenConnections,
	}

	return stats, nil
}

// Close closes the database connection pool.
func (r *MySQLStateRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLStateRepository implements both interfaces
var (
	_ StateRepository  = (*MySQLStateRepository)(nil)
	_ LedgerRepository = (*MySQLStateRepository)(nil)
)
