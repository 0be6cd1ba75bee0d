package table

import (
    "context"
    "errors"
    "log"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// The deferred update queue is the single mechanism by which any workflow
// postpones a mutation until the hand boundary.  Workflows enqueue while
// the table is GAME_RUNNING; the external hand-boundary driver calls
// DrainPendingUpdates between hands, which is the sole applier of queued
// effects.

// Leave removes a player from their seat.  While a hand is running the
// leave is queued so the hand cannot be torn mid-play; otherwise it takes
// effect immediately and the freed seat is offered to the waiting list.
func (m *Manager) Leave(ctx context.Context, game *model.Game, player *model.Player) error {
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    var oldStatus model.PlayerStatus
    var deferred bool

    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        if existing.SeatNo == 0 {
            return invalidState("player %s is not seated at game %s", player.Name, game.GameCode)
        }
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.TableStatus == model.TableGameRunning {
            deferred = true
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:     game.ID,
                PlayerID:   player.ID,
                PlayerName: player.Name,
                PlayerUUID: player.UUID,
                Kind:       model.UpdateLeave,
            })
            return err
        }
        rec = existing
        oldStatus = rec.Status
        rec.Status = model.PlayerNotPlaying
        rec.ReleaseSeat(now)
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil || deferred {
        return err
    }

    m.timers.Cancel(game.ID, player.ID, model.TimerBreakTime)
    m.notify.PlayerStatusChanged(game, rec, oldStatus)
    return m.RunWaitlist(ctx, game)
}

// EndGame ends the game, deferring to the hand boundary when a hand is
// running.  PauseGame behaves the same with PAUSE_GAME.
func (m *Manager) EndGame(ctx context.Context, game *model.Game, reason string) error {
    return m.gameLevelUpdate(ctx, game, model.UpdateEndGame, reason)
}

// PauseGame pauses the game at the next safe point.
func (m *Manager) PauseGame(ctx context.Context, game *model.Game) error {
    return m.gameLevelUpdate(ctx, game, model.UpdatePauseGame, "")
}

func (m *Manager) gameLevelUpdate(ctx context.Context, game *model.Game, kind model.UpdateKind, reason string) error {
    return m.store.RunInTx(ctx, func(tx Tx) error {
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.Status == model.GameEnded {
            return invalidState("game %s has already ended", game.GameCode)
        }
        if g.TableStatus == model.TableGameRunning {
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:    game.ID,
                Kind:      kind,
                EndReason: reason,
            })
            return err
        }
        if kind == model.UpdateEndGame {
            return tx.SetGameStatus(ctx, game.ID, model.GameEnded)
        }
        return tx.SetGameStatus(ctx, game.ID, model.GamePaused)
    })
}

// DrainPendingUpdates is invoked once per hand boundary, when no hand is
// in progress.  Entries are applied in insertion order, each in its own
// transaction that deletes the entry first; a delete that affects no row
// means another drain already consumed it, so the entry is skipped.
// Draining an empty queue is a no-op.  When any applied entry freed a
// seat, the waitlist runs afterwards.
func (m *Manager) DrainPendingUpdates(ctx context.Context, game *model.Game) error {
    entries, err := m.store.PendingUpdates(ctx, game.ID)
    if err != nil {
        return err
    }
    if len(entries) == 0 {
        return nil
    }

    now := m.clock.Now().UTC()
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return err
    }

    seatFreed := false
    for i := range entries {
        upd := &entries[i]

        var rec *model.SeatRecord
        var oldStatus model.PlayerStatus
        applied := false

        err := m.store.RunInTx(ctx, func(tx Tx) error {
            ok, err := tx.DeletePending(ctx, upd.ID)
            if err != nil || !ok {
                return err
            }
            applied = true

            switch upd.Kind {
            case model.UpdateLeave:
                rec, err = tx.SeatRecord(ctx, game.ID, upd.PlayerID)
                if err != nil {
                    if errors.Is(err, ErrSeatRecordNotFound) {
                        rec = nil
                        return nil
                    }
                    return err
                }
                oldStatus = rec.Status
                rec.Status = model.PlayerNotPlaying
                rec.ReleaseSeat(now)
                seatFreed = true
                return tx.UpdateSeatRecord(ctx, rec)

            case model.UpdateTakeBreak:
                rec, err = tx.SeatRecord(ctx, game.ID, upd.PlayerID)
                if err != nil {
                    return err
                }
                if rec.Status != model.PlayerPlaying {
                    rec = nil
                    return nil
                }
                oldStatus = rec.Status
                startBreak(rec, now, settings)
                return tx.UpdateSeatRecord(ctx, rec)

            case model.UpdateReloadApproved:
                rec, err = tx.SeatRecord(ctx, game.ID, upd.PlayerID)
                if err != nil {
                    return err
                }
                amount := reloadAmountWithinCap(rec, upd.BuyinAmount, settings.BuyInMax)
                if amount == 0 {
                    rec = nil
                    return nil
                }
                oldStatus = rec.Status
                rec.Stack += amount
                rec.BuyIn += amount
                rec.NoOfBuyins++
                return tx.UpdateSeatRecord(ctx, rec)

            case model.UpdateEndGame:
                return tx.SetGameStatus(ctx, game.ID, model.GameEnded)

            case model.UpdatePauseGame:
                return tx.SetGameStatus(ctx, game.ID, model.GamePaused)

            default:
                log.Printf("pending: unknown update kind %q for game %d", upd.Kind, upd.GameID)
                return nil
            }
        })
        if err != nil {
            return err
        }
        if !applied || rec == nil {
            continue
        }

        switch upd.Kind {
        case model.UpdateTakeBreak:
            m.timers.Schedule(game.ID, upd.PlayerID, model.TimerBreakTime, *rec.BreakTimeExpAt)
            m.notify.PlayerStatusChanged(game, rec, oldStatus)
        case model.UpdateLeave:
            m.timers.Cancel(game.ID, upd.PlayerID, model.TimerBreakTime)
            m.notify.PlayerStatusChanged(game, rec, oldStatus)
        case model.UpdateReloadApproved:
            m.notify.ReloadApproved(game, rec, upd.BuyinAmount)
        }
    }

    if seatFreed {
        return m.RunWaitlist(ctx, game)
    }
    return nil
}
