package table

import (
    "context"
    "errors"
    "log"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// HandleTimerFired is the generic dispatcher the timer service invokes
// when a scheduled deadline passes.  A fired timer whose precondition no
// longer holds (the player left, sat down, or the request was resolved)
// must be a safe no-op; each purpose handler re-validates state inside a
// fresh transaction.
func (m *Manager) HandleTimerFired(gameID, playerID uint64, purpose model.TimerPurpose) {
    ctx := context.Background()
    game, err := m.store.GameByID(ctx, gameID)
    if err != nil {
        if !errors.Is(err, ErrGameNotFound) {
            log.Printf("timer: loading game %d for %s failed: %v", gameID, purpose, err)
        }
        return
    }
    if game.Status == model.GameEnded {
        return
    }

    switch purpose {
    case model.TimerWaitlistSeating:
        err = m.waitlistSeatingExpired(ctx, game, playerID)
    case model.TimerBuyinApproval:
        err = m.reloadApprovalExpired(ctx, game, playerID)
    case model.TimerBreakTime:
        err = m.breakTimeExpired(ctx, game, playerID)
    case model.TimerIPGPSCheck:
        err = m.RunProximitySweep(ctx, game)
    default:
        log.Printf("timer: unknown purpose %q for game %d player %d", purpose, gameID, playerID)
        return
    }
    if err != nil {
        log.Printf("timer: %s for game %d player %d failed: %v", purpose, gameID, playerID, err)
    }
}
