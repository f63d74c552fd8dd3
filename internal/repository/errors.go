package repository

import "errors"

var (
	// ErrConcurrencyConflict is returned when a version-checked account update
	// matched no rows, meaning another mutation committed first. Callers retry
	// a bounded number of times.
	ErrConcurrencyConflict = errors.New("account was modified concurrently")

	// ErrUnbalancedTransaction is returned when a ledger transaction's debit
	// and credit totals do not match.
	ErrUnbalancedTransaction = errors.New("ledger transaction debits and credits do not balance")
)
