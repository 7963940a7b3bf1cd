package model

import "time"

// BufferedState is a pending player-state write held in the write-behind
// buffer before it is flushed to the state repository.
type BufferedState struct {
	PlayerID  string    `json:"player_id"`
	Raw       []byte    `json:"raw"`
	UpdatedAt time.Time `json:"updated_at"`
}
