package server

import (
	"errors"

	"github.com/pondside/pondside/internal/model"
)

// Error codes carried in error and auth_error payloads.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNameTaken          = "NAME_TAKEN"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeDuplicateSession   = "DUPLICATE_SESSION"
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeInvalidArea        = "INVALID_AREA"
	CodeCannotFish         = "CANNOT_FISH"
	CodeAlreadyFishing     = "ALREADY_FISHING"
	CodeNotNearShop        = "NOT_NEAR_SHOP"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeMaxTier            = "MAX_TIER"
	CodeInternal           = "INTERNAL_ERROR"
)

// codeFor maps a service error to its wire code. Unknown-player lookups
// map to INVALID_CREDENTIALS so login failures never reveal whether an
// account exists.
func codeFor(err error) string {
	switch {
	case errors.Is(err, model.ErrNameTaken):
		return CodeNameTaken
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrPlayerNotFound):
		return CodeInvalidCredentials
	case errors.Is(err, model.ErrInvalidSession):
		return CodeInvalidSession
	case errors.Is(err, model.ErrUnknownArea):
		return CodeInvalidArea
	case errors.Is(err, model.ErrCannotFishHere):
		return CodeCannotFish
	case errors.Is(err, model.ErrAlreadyFishing):
		return CodeAlreadyFishing
	case errors.Is(err, model.ErrNotNearShop):
		return CodeNotNearShop
	case errors.Is(err, model.ErrItemNotFound):
		return CodeItemNotFound
	case errors.Is(err, model.ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, model.ErrMaxRodTier):
		return CodeMaxTier
	default:
		return CodeInternal
	}
}
