package services

import "sync"

// accountLocks serializes mutations per account. Interest accrual, payment
// allocation and risk re-evaluation for the same account must not interleave;
// mutations on different accounts may run concurrently.
type accountLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{
		locks: make(map[uint]*sync.Mutex),
	}
}

// Lock acquires the mutex for the given account, creating it on first use.
// Locks are never removed; the account set of a single retailer is small.
func (l *accountLocks) Lock(accountID uint) {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
}

// Unlock releases the mutex for the given account.
func (l *accountLocks) Unlock(accountID uint) {
	l.mu.Lock()
	m := l.locks[accountID]
	l.mu.Unlock()

	if m != nil {
		m.Unlock()
	}
}
