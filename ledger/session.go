package ledger

import (
	"log"

	"github.com/dskart/payment-engine/store"
)

// App owns the long-lived store handle a process constructs once at
// startup; every unit of work opens its own Session from it.
type App struct {
	store *store.Store
}

func NewApp(s *store.Store) *App {
	return &App{store: s}
}

// NewSession opens a Session bound to logger, the request- or batch-row-
// scoped destination for this session's internal-error log lines.
func (a *App) NewSession(logger *log.Logger) Session {
	return Session{app: a, store: a.store, logger: logger}
}

// Session is the per-unit-of-work handle every ledger operation hangs off.
// It is cheap to copy; WithReadCache/WithEventuallyConsistentReads return a
// new Session rather than mutating the receiver.
type Session struct {
	app    *App
	store  *store.Store
	logger *log.Logger
}

// Detach produces a DetachedSession usable across an API boundary that
// can't carry a live *App reference (e.g. a goroutine spawned without one),
// retaining only the logger. Call Attach to resume work.
func (s Session) Detach() DetachedSession {
	return DetachedSession{logger: s.logger}
}

// WithReadCache returns a Session whose reads are memoized for the
// session's lifetime. Never use the result for a write-containing call
// path; AtomicWrite never consults the cache.
func (s Session) WithReadCache() Session {
	return Session{app: s.app, store: s.store.WithReadCache(), logger: s.logger}
}

// WithEventuallyConsistentReads returns a Session whose reads may be served
// from a replica, where the backend supports it.
func (s Session) WithEventuallyConsistentReads() Session {
	return Session{app: s.app, store: s.store.WithEventuallyConsistentReads(), logger: s.logger}
}

// DetachedSession carries only what survives a boundary an *App can't
// cross; Attach reconnects it to a live App to resume store access.
type DetachedSession struct {
	logger *log.Logger
}

func (d DetachedSession) Attach(app *App) Session {
	return Session{app: app, store: app.store, logger: d.logger}
}
