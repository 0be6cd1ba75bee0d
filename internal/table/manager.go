package table

import (
    "github.com/coder/quartz"
)

// Manager coordinates every seat and chip transition for running games.
// It owns no state of its own: all decisions are made against the Store
// inside transactions, deadlines live in the Scheduler, and clients are
// informed through the Notifier after commit.
type Manager struct {
    store  Store
    dir    Directory
    timers Scheduler
    notify Notifier
    clock  quartz.Clock
}

// NewManager constructs a Manager.  All dependencies must be non-nil; the
// clock is injected so tests can drive time deterministically.
func NewManager(store Store, dir Directory, timers Scheduler, notify Notifier, clock quartz.Clock) *Manager {
    if store == nil || dir == nil || timers == nil || notify == nil {
        panic("nil dependency passed to NewManager")
    }
    if clock == nil {
        clock = quartz.NewReal()
    }
    return &Manager{
        store:  store,
        dir:    dir,
        timers: timers,
        notify: notify,
        clock:  clock,
    }
}
