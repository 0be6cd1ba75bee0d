package table

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// The break manager moves seated players on and off breaks.  A player on
// a break keeps the seat until the break clock runs out; only then is the
// seat freed and offered to the waiting list.

// BreakResult reports whether the break took effect immediately or was
// deferred to the next hand boundary.
type BreakResult struct {
    Deferred  bool       `json:"deferred"`
    ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TakeBreak starts a break for a playing player.  While a hand is running
// the break is queued as a TAKE_BREAK deferred update and applied at the
// next boundary; otherwise it takes effect immediately and the break
// timer starts.
func (m *Manager) TakeBreak(ctx context.Context, game *model.Game, player *model.Player) (*BreakResult, error) {
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return nil, err
    }
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    res := &BreakResult{}

    err = m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        rec, err = tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        switch rec.Status {
        case model.PlayerPlaying:
        case model.PlayerInBreak:
            return invalidState("player %s is already on a break", player.Name)
        default:
            return invalidState("player %s is not playing", player.Name)
        }

        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.TableStatus == model.TableGameRunning {
            res.Deferred = true
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:     game.ID,
                PlayerID:   player.ID,
                PlayerName: player.Name,
                PlayerUUID: player.UUID,
                Kind:       model.UpdateTakeBreak,
            })
            return err
        }
        exp := startBreak(rec, now, settings)
        res.ExpiresAt = &exp
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil {
        return nil, err
    }

    if !res.Deferred {
        m.timers.Schedule(game.ID, player.ID, model.TimerBreakTime, *res.ExpiresAt)
        m.notify.PlayerStatusChanged(game, rec, model.PlayerPlaying)
    }
    return res, nil
}

// SitBack returns a player from a break to active play.  The move is
// gated by the proximity guard using the fresh IP/GPS data supplied by
// the client, and cancels the running break timer.
func (m *Manager) SitBack(ctx context.Context, game *model.Game, player *model.Player, ip string, loc *model.Location) error {
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return err
    }
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    err = m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        rec, err = tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        if rec.Status != model.PlayerInBreak {
            return invalidState("player %s is not on a break", player.Name)
        }

        seats, err := tx.SeatedPlayers(ctx, game.ID)
        if err != nil {
            return err
        }
        if err := CheckProximityForPlayer(settings, now, player.ID, ip, loc, &now, seats); err != nil {
            return err
        }

        rec.Status = model.PlayerPlaying
        rec.BreakTimeStartedAt = nil
        rec.BreakTimeExpAt = nil
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil {
        return err
    }

    m.timers.Cancel(game.ID, player.ID, model.TimerBreakTime)
    m.notify.PlayerStatusChanged(game, rec, model.PlayerInBreak)
    return nil
}

// breakTimeExpired handles the BREAK_TIME timer: the player never sat
// back, so the seat is freed and offered to the waiting list.  A stale
// fire (the player already sat back or left) is a no-op.
func (m *Manager) breakTimeExpired(ctx context.Context, game *model.Game, playerID uint64) error {
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, playerID)
        if err != nil {
            if errors.Is(err, ErrSeatRecordNotFound) {
                return nil
            }
            return err
        }
        if existing.Status != model.PlayerInBreak {
            return nil
        }
        rec = existing
        rec.Status = model.PlayerNotPlaying
        rec.ReleaseSeat(now)
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil || rec == nil {
        return err
    }

    m.notify.PlayerStatusChanged(game, rec, model.PlayerInBreak)
    return m.RunWaitlist(ctx, game)
}

// forceBreak pushes a proximity violator onto a break regardless of their
// consent.  Mid-hand the break is deferred like any voluntary one.
func (m *Manager) forceBreak(ctx context.Context, game *model.Game, settings *model.GameSettings, playerID uint64) error {
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    var deferred bool
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, playerID)
        if err != nil {
            return err
        }
        if existing.Status != model.PlayerPlaying {
            return nil
        }
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.TableStatus == model.TableGameRunning {
            deferred = true
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:     game.ID,
                PlayerID:   playerID,
                PlayerName: existing.PlayerName,
                PlayerUUID: existing.PlayerUUID,
                Kind:       model.UpdateTakeBreak,
            })
            return err
        }
        rec = existing
        startBreak(rec, now, settings)
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil || deferred || rec == nil {
        return err
    }

    m.timers.Schedule(game.ID, playerID, model.TimerBreakTime, *rec.BreakTimeExpAt)
    m.notify.PlayerStatusChanged(game, rec, model.PlayerPlaying)
    return nil
}

// startBreak flips the record into IN_BREAK and stamps the break window.
// The seat is retained; only break expiry frees it.
func startBreak(rec *model.SeatRecord, now time.Time, settings *model.GameSettings) time.Time {
    exp := now.Add(time.Duration(settings.BreakLength) * time.Second)
    rec.Status = model.PlayerInBreak
    rec.BreakTimeStartedAt = &now
    rec.BreakTimeExpAt = &exp
    return exp
}
