package services

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks hands out one mutex per session so a conversation has at most
// one in-flight turn at a time. Entries are reference-counted and removed
// when the last holder releases, so the map does not grow with session count.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

// Lock blocks until the session's mutex is held and returns the release
// function.
func (l *sessionLocks) Lock(sessionID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
