package table

import (
    "context"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// ReloadResult is returned to the caller of RequestReload.  A reload that
// was approved but reduced by the buy-in cap reports Clamped, including
// the case where a concurrent stack change left no room and the applied
// amount became zero.
type ReloadResult struct {
    Approved      bool  `json:"approved"`
    ExpireSeconds uint32 `json:"expire_seconds,omitempty"`
    AppliedAmount int64 `json:"applied_amount"`
    Clamped       bool  `json:"clamped"`
    Deferred      bool  `json:"deferred"` // applied at the next hand boundary
}

// RequestReload runs the buy-in/reload approval workflow in one
// transaction.  Only club games support reloads; the request passes the
// proximity guard first; the amount is clamped to the table's buy-in
// window; approval is decided by role bypasses or the club credit rule.  An approved amount is applied immediately unless a
// hand is running, in which case it is deferred to the next boundary.  An
// unapproved request is parked as WAIT_RELOAD_APPROVAL for the host, with
// an expiry timer.
func (m *Manager) RequestReload(ctx context.Context, game *model.Game, player *model.Player, amount int64) (*ReloadResult, error) {
    if game.ClubCode == "" {
        return nil, invalidState("game %s is not a club game; reloads are not supported", game.GameCode)
    }
    if amount <= 0 {
        return nil, invalidState("reload amount must be positive")
    }
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return nil, err
    }
    now := m.clock.Now().UTC()

    var rec *model.SeatRecord
    res := &ReloadResult{}

    err = m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        rec, err = tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        if rec.SeatNo == 0 {
            return invalidState("player %s is not seated at game %s", player.Name, game.GameCode)
        }

        // Reloads are gated by the same anti-collusion check as joins.
        seats, err := tx.SeatedPlayers(ctx, game.ID)
        if err != nil {
            return err
        }
        if err := CheckProximityForPlayer(settings, now, player.ID,
            player.IPAddress, player.Location, player.LocationUpdatedAt, seats); err != nil {
            return err
        }

        if rec.Stack+amount < settings.BuyInMin {
            return invalidState("stack after reload would be below the minimum buy-in of %d", settings.BuyInMin)
        }
        if rec.Stack+amount > settings.BuyInMax {
            amount = settings.BuyInMax - rec.Stack
            res.Clamped = true
            if amount < 0 {
                amount = 0
            }
        }

        approved, err := approveByCreditRule(ctx, tx, game, settings, player, rec, amount)
        if err != nil {
            return err
        }
        res.Approved = approved

        if !approved {
            res.ExpireSeconds = settings.BuyInTimeout
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:      game.ID,
                PlayerID:    player.ID,
                PlayerName:  player.Name,
                PlayerUUID:  player.UUID,
                Kind:        model.UpdateWaitReloadApproval,
                BuyinAmount: amount,
            })
            return err
        }

        if amount == 0 {
            // Clamped to nothing; approved but a no-op.
            return nil
        }
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.TableStatus == model.TableGameRunning {
            res.Deferred = true
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:      game.ID,
                PlayerID:    player.ID,
                PlayerName:  player.Name,
                PlayerUUID:  player.UUID,
                Kind:        model.UpdateReloadApproved,
                BuyinAmount: amount,
            })
            return err
        }
        rec.Stack += amount
        rec.BuyIn += amount
        rec.NoOfBuyins++
        res.AppliedAmount = amount
        return tx.UpdateSeatRecord(ctx, rec)
    })
    if err != nil {
        return nil, err
    }

    if res.Approved {
        if res.AppliedAmount > 0 {
            m.notify.ReloadApproved(game, rec, res.AppliedAmount)
        }
    } else {
        deadline := now.Add(time.Duration(settings.BuyInTimeout) * time.Second)
        m.timers.Schedule(game.ID, player.ID, model.TimerBuyinApproval, deadline)
        m.notify.ReloadPending(game, player.ID, player.Name, amount, settings.BuyInTimeout)
    }
    return res, nil
}

// approveByCreditRule decides approval for a clamped reload amount.  The
// club owner, managers, members flagged for auto approval, games that do
// not require approval and the table host all bypass the credit check.
// Everyone else is approved iff the amount fits within
// creditLimit - (current buy-in + buy-ins over ended games at the club); a
// negative credit limit means unlimited.  The membership row is read
// inside the transaction, never from the cache.
func approveByCreditRule(ctx context.Context, tx Tx, game *model.Game, settings *model.GameSettings, player *model.Player, rec *model.SeatRecord, amount int64) (bool, error) {
    member, err := tx.ClubMember(ctx, game.ClubCode, player.UUID)
    if err != nil {
        return false, err
    }
    if member.IsOwner || member.IsManager || member.AutoBuyinApproval ||
        !settings.BuyInApproval || player.UUID == game.HostUUID {
        return true, nil
    }
    if member.CreditLimit < 0 {
        return true, nil
    }
    pastBuyIns, err := tx.OutstandingBuyIn(ctx, game.ClubCode, player.UUID, game.ID)
    if err != nil {
        return false, err
    }
    outstanding := rec.BuyIn + pastBuyIns
    available := member.CreditLimit - outstanding
    return amount <= available, nil
}

// ApproveDenyReload is the host's resolution of a pending reload.  On
// approval the parked amount is applied immediately, or deferred to the
// next hand boundary when a hand is running.  On denial nothing changes
// except the pending entry and timer going away.
func (m *Manager) ApproveDenyReload(ctx context.Context, game *model.Game, playerID uint64, status model.ApprovalStatus) error {
    var pending *model.DeferredUpdate
    var rec *model.SeatRecord
    var applied int64

    err := m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        pending, err = tx.PendingUpdate(ctx, game.ID, playerID, model.UpdateWaitReloadApproval)
        if err != nil {
            return err
        }
        if pending == nil {
            return invalidState("no reload is waiting for approval for player %d", playerID)
        }
        if _, err := tx.DeletePending(ctx, pending.ID); err != nil {
            return err
        }
        if status != model.ApprovalApproved {
            return nil
        }

        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        if g.TableStatus == model.TableGameRunning {
            _, err := tx.EnqueuePending(ctx, &model.DeferredUpdate{
                GameID:      game.ID,
                PlayerID:    playerID,
                PlayerName:  pending.PlayerName,
                PlayerUUID:  pending.PlayerUUID,
                Kind:        model.UpdateReloadApproved,
                BuyinAmount: pending.BuyinAmount,
            })
            return err
        }

        rec, err = tx.SeatRecord(ctx, game.ID, playerID)
        if err != nil {
            return err
        }
        settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
        if err != nil {
            return err
        }
        applied = reloadAmountWithinCap(rec, pending.BuyinAmount, settings.BuyInMax)
        if applied > 0 {
            rec.Stack += applied
            rec.BuyIn += applied
            rec.NoOfBuyins++
            return tx.UpdateSeatRecord(ctx, rec)
        }
        return nil
    })
    if err != nil {
        return err
    }

    m.timers.Cancel(game.ID, playerID, model.TimerBuyinApproval)
    if status == model.ApprovalApproved {
        if applied > 0 {
            m.notify.ReloadApproved(game, rec, applied)
        }
    } else {
        m.notify.ReloadDenied(game, playerID, pending.PlayerName)
    }
    return nil
}

// reloadApprovalExpired handles the BUYIN_APPROVAL timer: the host never
// decided, so the pending request is dropped and the requester told the
// request timed out.  A fire after the host already resolved the request
// finds no entry and is a no-op.
func (m *Manager) reloadApprovalExpired(ctx context.Context, game *model.Game, playerID uint64) error {
    var pending *model.DeferredUpdate
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        pending, err = tx.PendingUpdate(ctx, game.ID, playerID, model.UpdateWaitReloadApproval)
        if err != nil || pending == nil {
            return err
        }
        _, err = tx.DeletePending(ctx, pending.ID)
        return err
    })
    if err != nil || pending == nil {
        return err
    }
    m.notify.ReloadTimedOut(game, playerID, pending.PlayerName)
    return nil
}

// reloadAmountWithinCap returns the amount that can actually be applied
// without pushing the stack over the buy-in cap.  A concurrent stack
// change may have consumed the room since approval; in that case the
// reload silently becomes zero rather than tearing the cap invariant.
func reloadAmountWithinCap(rec *model.SeatRecord, amount, buyInMax int64) int64 {
    if rec.Stack+amount > buyInMax {
        return 0
    }
    return amount
}
