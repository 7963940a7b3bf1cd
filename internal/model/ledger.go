package model

import "time"

// PurchaseRecord is one row of the purchase ledger, written after every
// successful purchase.
type PurchaseRecord struct {
	ID           int64     `json:"id"`
	PlayerID     string    `json:"player_id"`
	ItemID       string    `json:"item_id"`
	Category     Category  `json:"category"`
	Price        int64     `json:"price"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
