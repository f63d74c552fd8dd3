package services

import "errors"

// Common service errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidFlagType     = errors.New("unknown risk flag type")
	ErrBatchAlreadyRunning = errors.New("interest batch is already running")
	ErrInvalidState        = errors.New("invalid account state transition")
	ErrAccountBlocked      = errors.New("account does not accept further credit")
	ErrNothingOutstanding  = errors.New("account has no outstanding balance")
)
