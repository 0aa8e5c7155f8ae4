package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Table errors
	ErrTableNotFound = errors.New("table not found")
	ErrTableFull     = errors.New("table is full")
	ErrTableClosed   = errors.New("table has been closed")

	// Action errors
	ErrInvalidAction     = errors.New("action not valid for the current phase or seat")
	ErrInsufficientFunds = errors.New("bet exceeds available balance")
	ErrMalformedMessage  = errors.New("malformed message")

	// Round-fatal errors
	ErrEmptyDeck         = errors.New("deck exhausted")
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// Ledger errors
	ErrAccountNotFound = errors.New("account not found")

	// Wager errors
	ErrWagerNotFound = errors.New("wager not found")
)
