package services

import "sync"

// userLocks hands out one mutex per user id. Entries are dropped when nobody holds them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*refMutex)}
}

// lock blocks until userID is free and returns the matching unlock func.
func (u *userLocks) lock(userID string) func() {
	u.mu.Lock()
	m, ok := u.locks[userID]
	if !ok {
		m = &refMutex{}
		u.locks[userID] = m
	}
	m.refs++
	u.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		u.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(u.locks, userID)
		}
		u.mu.Unlock()
	}
}
