package model

import "time"

// SessionData is the payload stored with a player session token.
type SessionData struct {
	PlayerID  string    `json:"player_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
