package model

import "errors"

// Common errors used across the application
var (
	// Auth errors
	ErrNameTaken          = errors.New("name already taken")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")

	// World errors
	ErrUnknownArea = errors.New("unknown area")

	// Gameplay errors
	ErrCannotFishHere    = errors.New("cannot fish from this position")
	ErrAlreadyFishing    = errors.New("already fishing")
	ErrNotNearShop       = errors.New("not near a shop")
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMaxRodTier        = errors.New("rod is already at the highest tier")
)
