// Package timer provides the keyed wall-clock callback service.  A timer
// is identified by (gameID, playerID, purpose); at most one live handle
// exists per key.  Scheduling a new deadline for an existing key replaces
// the previous handle, cancelling is a no-op for unknown keys, and a
// handle fires exactly once or not at all.
package timer

import (
    "sync"
    "time"

    "github.com/coder/quartz"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// FireFunc is invoked when a scheduled deadline passes.  It runs on the
// clock's goroutine, outside the registry lock, so handlers may freely
// schedule and cancel further timers.
type FireFunc func(gameID, playerID uint64, purpose model.TimerPurpose)

type key struct {
    gameID   uint64
    playerID uint64
    purpose  model.TimerPurpose
}

// handle pairs a quartz timer with the generation that armed it.  The
// generation lets a fire that raced with its own replacement detect that
// it has been superseded and stand down.
type handle struct {
    t   *quartz.Timer
    gen uint64
}

// Registry is an in-process implementation of the timer service.  The
// clock is injected so tests can drive time deterministically with
// quartz.Mock.
type Registry struct {
    clock quartz.Clock

    mu      sync.Mutex
    fire    FireFunc
    gen     uint64
    handles map[key]handle
}

// NewRegistry returns an empty registry on the given clock.  OnFire must
// be called before any timer is scheduled.
func NewRegistry(clock quartz.Clock) *Registry {
    if clock == nil {
        clock = quartz.NewReal()
    }
    return &Registry{
        clock:   clock,
        handles: make(map[key]handle),
    }
}

// OnFire registers the callback timers dispatch to.  It exists separately
// from the constructor because the registry and the coordinator reference
// each other.
func (r *Registry) OnFire(fn FireFunc) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.fire = fn
}

// Schedule arms a timer for the key at the given deadline, superseding
// any live handle for the same key.  A deadline in the past fires almost
// immediately rather than being dropped, so a slow caller cannot lose a
// timeout.
func (r *Registry) Schedule(gameID, playerID uint64, purpose model.TimerPurpose, deadline time.Time) {
    k := key{gameID: gameID, playerID: playerID, purpose: purpose}
    d := deadline.Sub(r.clock.Now())
    if d <= 0 {
        // Clamp to the shortest schedulable duration.  A non-positive
        // AfterFunc fires outside the clock's timer path, which callers
        // cannot synchronise with.
        d = time.Nanosecond
    }

    r.mu.Lock()
    defer r.mu.Unlock()
    if old, ok := r.handles[k]; ok {
        old.t.Stop()
    }
    r.gen++
    gen := r.gen
    r.handles[k] = handle{
        gen: gen,
        t: r.clock.AfterFunc(d, func() {
            r.fired(k, gen)
        }),
    }
}

// Cancel stops and forgets the handle for the key, if any.
func (r *Registry) Cancel(gameID, playerID uint64, purpose model.TimerPurpose) {
    k := key{gameID: gameID, playerID: playerID, purpose: purpose}
    r.mu.Lock()
    defer r.mu.Unlock()
    if h, ok := r.handles[k]; ok {
        h.t.Stop()
        delete(r.handles, k)
    }
}

// Live reports whether a handle is currently armed for the key.
func (r *Registry) Live(gameID, playerID uint64, purpose model.TimerPurpose) bool {
    r.mu.Lock()
    defer r.mu.Unlock()
    _, ok := r.handles[key{gameID: gameID, playerID: playerID, purpose: purpose}]
    return ok
}

// fired removes the handle and invokes the callback.  A fire whose
// generation no longer matches lost a race with Schedule or Cancel and
// must not dispatch.
func (r *Registry) fired(k key, gen uint64) {
    r.mu.Lock()
    h, ok := r.handles[k]
    if !ok || h.gen != gen {
        r.mu.Unlock()
        return
    }
    fn := r.fire
    delete(r.handles, k)
    r.mu.Unlock()
    if fn != nil {
        fn(k.gameID, k.playerID, k.purpose)
    }
}
