package service

import (
	"log/slog"
	"time"

	"github.com/alexanderramin/timeledger/internal/repository"
)

// engine implements every service over one storage backend. Reads outside a
// unit of work go through store; every mutation goes through uow.
type engine struct {
	store       repository.Store
	uow         repository.UnitOfWork
	clock       Clock
	observer    UseCaseObserver
	logger      *slog.Logger
	forceDelete bool
	locks       *employeeLocks
}

// Option customises an engine.
type Option func(*engine)

func WithClock(c Clock) Option {
	return func(e *engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithObserver(o UseCaseObserver) Option {
	return func(e *engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithForceDelete makes every internal removal a hard delete.
func WithForceDelete(force bool) Option {
	return func(e *engine) {
		e.forceDelete = force
	}
}

// NewEngine builds the time-tracking engine over store and uow.
func NewEngine(store repository.Store, uow repository.UnitOfWork, opts ...Option) Engine {
	e := &engine{
		store:    store,
		uow:      uow,
		clock:    SystemClock,
		observer: NoopUseCaseObserver{},
		logger:   slog.Default(),
		locks:    newEmployeeLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) now() time.Time {
	return e.clock.Now().UTC()
}

// withForce returns an engine whose removals use the given delete mode.
func (e *engine) withForce(force bool) *engine {
	if force == e.forceDelete {
		return e
	}
	c := *e
	c.forceDelete = force
	return &c
}
