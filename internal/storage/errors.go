package storage

import "errors"

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")

	// ErrTokenNotFound indicates a lookup by id or symbol matched no token.
	ErrTokenNotFound = errors.New("token not found")
	// ErrAlertNotFound indicates the alert was already consumed or never existed.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrHoldingNotFound indicates the user holds none of the token.
	ErrHoldingNotFound = errors.New("holding not found")
	// ErrSymbolExists indicates a mint collided with an existing symbol.
	ErrSymbolExists = errors.New("token symbol already exists")

	// ErrTokenCrashed rejects trades against a crashed token.
	ErrTokenCrashed = errors.New("token has crashed")
	// ErrInsufficientSupply rejects a buy exceeding the available supply.
	ErrInsufficientSupply = errors.New("insufficient available supply")
	// ErrInsufficientHolding rejects a sell exceeding the user's holding.
	ErrInsufficientHolding = errors.New("insufficient holding")
)
