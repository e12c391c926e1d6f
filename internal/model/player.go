package model

import (
	"strings"
	"time"
)

// PlayerName uniquely identifies a player across the system.
// Names are unique case-insensitively; Key() gives the canonical form.
type PlayerName string

// Key returns the canonical lowercase form used for lookups and uniqueness.
func (n PlayerName) Key() string {
	return strings.ToLower(string(n))
}

// Player is the aggregate view of a player: persistent progress plus
// the current inventory.
type Player struct {
	Name         PlayerName      `json:"name"`
	Gold         int             `json:"gold"`
	RodTier      int             `json:"rodTier"`
	LastArea     AreaID          `json:"lastArea"`
	LastPosition Position        `json:"lastPosition"`
	Inventory    []InventoryItem `json:"inventory"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastLogin    time.Time       `json:"lastLogin"`
}

// Credentials holds a player's login secret, stored separately from the
// player row so the hash never travels with gameplay state.
type Credentials struct {
	Name         PlayerName `json:"name"`
	PasswordHash string     `json:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Session is an opaque bearer token bound to a player with a fixed expiry.
type Session struct {
	Token      string     `json:"token"`
	PlayerName PlayerName `json:"playerName"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
