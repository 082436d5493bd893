package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock is the source of "now" for alignment and closing logs.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = systemClock{}

// newID returns a time-ordered id, so ids break creation-time ties.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// employeeLocks serialises mutating work per employee within this process.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[string]*refMutex)}
}

// lock blocks until key is free and returns the matching unlock.
func (l *employeeLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
