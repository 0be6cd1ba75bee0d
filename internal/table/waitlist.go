package table

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// The waitlist engine orders queued players and manages the single
// outstanding seat offer per game.  Ranks come from the game's monotonic
// waitlist counter, so a lower waitlist_num always means an earlier join
// and a number is never reused within a game.

// AddToWaitlist puts a player at the back of the game's waiting list.  A
// player who is already playing is rejected; a player already queued is
// rejected rather than re-ranked.  The rank assignment is an atomic
// counter increment under the game row lock, so two concurrent adds can
// never share a number.
func (m *Manager) AddToWaitlist(ctx context.Context, game *model.Game, player *model.Player) error {
    now := m.clock.Now().UTC()
    var rec *model.SeatRecord
    var oldStatus model.PlayerStatus
    var waiting uint32

    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, player.ID)
        switch {
        case err == nil:
            if existing.Status.Seated() {
                return invalidState("player %s is already seated at seat %d", player.Name, existing.SeatNo)
            }
            if existing.Status == model.PlayerInQueue || existing.Status == model.PlayerWaitlistSeating {
                return invalidState("player %s is already on the waiting list", player.Name)
            }
            rec = existing
        case errors.Is(err, ErrSeatRecordNotFound):
            rec = &model.SeatRecord{
                GameID:     game.ID,
                PlayerID:   player.ID,
                PlayerName: player.Name,
                PlayerUUID: player.UUID,
                Status:     model.PlayerNotPlaying,
            }
            if err := tx.CreateSeatRecord(ctx, rec); err != nil {
                return err
            }
        default:
            return err
        }

        num, err := tx.NextWaitlistNum(ctx, game.ID)
        if err != nil {
            return err
        }
        oldStatus = rec.Status
        rec.Status = model.PlayerInQueue
        rec.WaitingFrom = &now
        rec.WaitlistNum = num
        rec.WaitlistTimeExp = nil
        if err := tx.UpdateSeatRecord(ctx, rec); err != nil {
            return err
        }

        waiting, err = queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        return tx.SetWaitlistSeating(ctx, game.ID, g.SeatingInProgress, waiting)
    })
    if err != nil {
        return err
    }

    m.notify.PlayerStatusChanged(game, rec, oldStatus)
    m.notify.WaitlistChanged(game, waiting)
    return nil
}

// RemoveFromWaitlist takes a queued player off the waiting list.  Only
// valid from IN_QUEUE; a player holding the current seat offer must
// decline it instead.
func (m *Manager) RemoveFromWaitlist(ctx context.Context, game *model.Game, player *model.Player) error {
    var rec *model.SeatRecord
    var waiting uint32

    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        if existing.Status != model.PlayerInQueue {
            return invalidState("player %s is not on the waiting list", player.Name)
        }
        rec = existing
        rec.Status = model.PlayerNotPlaying
        rec.WaitlistNum = 0
        rec.WaitingFrom = nil
        rec.WaitlistTimeExp = nil
        if err := tx.UpdateSeatRecord(ctx, rec); err != nil {
            return err
        }

        waiting, err = queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        return tx.SetWaitlistSeating(ctx, game.ID, g.SeatingInProgress, waiting)
    })
    if err != nil {
        return err
    }

    m.notify.PlayerStatusChanged(game, rec, model.PlayerInQueue)
    m.notify.WaitlistChanged(game, waiting)
    return nil
}

// WaitingList returns the queued players of a game in offer order.
func (m *Manager) WaitingList(ctx context.Context, game *model.Game) ([]model.SeatRecord, error) {
    var rows []model.SeatRecord
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        var err error
        rows, err = tx.QueuedSeatRecords(ctx, game.ID)
        return err
    })
    return rows, err
}

// RunWaitlist is the seat-offer algorithm, invoked whenever a seat may
// have opened: after a drain that freed a seat, after a break timeout and
// after a declined or expired offer.  It promotes at most one player to
// WAITLIST_SEATING; while an unexpired offer is outstanding it does
// nothing, so there is never more than one offer at a time.
func (m *Manager) RunWaitlist(ctx context.Context, game *model.Game) error {
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return err
    }
    now := m.clock.Now().UTC()

    var candidate *model.SeatRecord
    var expiresAt time.Time
    var demoted []model.SeatRecord
    var waiting uint32

    err = m.store.RunInTx(ctx, func(tx Tx) error {
        g, err := tx.Game(ctx, game.ID)
        if err != nil {
            return err
        }
        occupied, err := tx.OccupiedSeatCount(ctx, game.ID)
        if err != nil {
            return err
        }
        if occupied >= g.MaxPlayers {
            return nil // no open seats
        }

        rows, err := tx.QueuedSeatRecords(ctx, game.ID)
        if err != nil {
            return err
        }
        for i := range rows {
            r := &rows[i]
            if r.Status == model.PlayerWaitlistSeating {
                if r.WaitlistTimeExp != nil && r.WaitlistTimeExp.After(now) {
                    // Someone is already being offered the seat; only
                    // one offer may be outstanding at a time.
                    return nil
                }
                // Stale offer: demote and keep scanning.
                r.Status = model.PlayerNotPlaying
                r.WaitlistNum = 0
                r.WaitingFrom = nil
                r.WaitlistTimeExp = nil
                if err := tx.UpdateSeatRecord(ctx, r); err != nil {
                    return err
                }
                demoted = append(demoted, *r)
                continue
            }
            candidate = r
            break
        }

        waiting, err = queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        if candidate == nil {
            return tx.SetWaitlistSeating(ctx, game.ID, false, waiting)
        }

        expiresAt = now.Add(time.Duration(settings.WaitlistSittingTimeout) * time.Second)
        candidate.Status = model.PlayerWaitlistSeating
        candidate.WaitlistTimeExp = &expiresAt
        if err := tx.UpdateSeatRecord(ctx, candidate); err != nil {
            return err
        }
        return tx.SetWaitlistSeating(ctx, game.ID, true, waiting)
    })
    if err != nil {
        return err
    }

    for i := range demoted {
        m.timers.Cancel(game.ID, demoted[i].PlayerID, model.TimerWaitlistSeating)
        m.notify.PlayerStatusChanged(game, &demoted[i], model.PlayerWaitlistSeating)
    }
    if candidate != nil {
        m.timers.Schedule(game.ID, candidate.PlayerID, model.TimerWaitlistSeating, expiresAt)
        m.notify.WaitlistSeatOffered(game, candidate, expiresAt)
        m.notify.WaitlistChanged(game, waiting)
    }
    return nil
}

// SeatPlayer seats a player at an open seat.  When an unexpired waitlist
// offer is outstanding, only its holder may sit; anyone else is rejected
// with a SeatTakenError.  Joining is also gated by the proximity guard.
func (m *Manager) SeatPlayer(ctx context.Context, game *model.Game, player *model.Player, seatNo uint32) error {
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return err
    }
    now := m.clock.Now().UTC()
    if seatNo == 0 || seatNo > game.MaxPlayers {
        return invalidState("seat %d does not exist at this table", seatNo)
    }

    var rec *model.SeatRecord
    var oldStatus model.PlayerStatus
    var hadOffer bool

    err = m.store.RunInTx(ctx, func(tx Tx) error {
        rows, err := tx.QueuedSeatRecords(ctx, game.ID)
        if err != nil {
            return err
        }
        for i := range rows {
            r := &rows[i]
            if r.Status != model.PlayerWaitlistSeating {
                continue
            }
            if r.WaitlistTimeExp != nil && !r.WaitlistTimeExp.After(now) {
                continue // expired offer; RunWaitlist will demote it
            }
            if r.PlayerID != player.ID {
                return &SeatTakenError{SeatNo: seatNo, PlayerName: r.PlayerName}
            }
            hadOffer = true
        }

        if occ, err := tx.SeatOccupant(ctx, game.ID, seatNo); err != nil {
            return err
        } else if occ != nil {
            return invalidState("seat %d is already occupied by %s", seatNo, occ.PlayerName)
        }

        seats, err := tx.SeatedPlayers(ctx, game.ID)
        if err != nil {
            return err
        }
        if err := CheckProximityForPlayer(settings, now, player.ID,
            player.IPAddress, player.Location, player.LocationUpdatedAt, seats); err != nil {
            return err
        }

        existing, err := tx.SeatRecord(ctx, game.ID, player.ID)
        switch {
        case err == nil:
            rec = existing
        case errors.Is(err, ErrSeatRecordNotFound):
            rec = &model.SeatRecord{
                GameID:     game.ID,
                PlayerID:   player.ID,
                PlayerName: player.Name,
                PlayerUUID: player.UUID,
            }
            if err := tx.CreateSeatRecord(ctx, rec); err != nil {
                return err
            }
        default:
            return err
        }
        if rec.SeatNo != 0 {
            return invalidState("player %s is already seated at seat %d", player.Name, rec.SeatNo)
        }

        oldStatus = rec.Status
        rec.SeatNo = seatNo
        rec.SatAt = &now
        rec.WaitingFrom = nil
        rec.WaitlistNum = 0
        rec.WaitlistTimeExp = nil
        if rec.Stack < settings.BuyInMin {
            rec.Status = model.PlayerWaitForBuyin
        } else {
            rec.Status = model.PlayerPlaying
        }
        if err := tx.UpdateSeatRecord(ctx, rec); err != nil {
            return err
        }

        waiting, err := queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        return tx.SetWaitlistSeating(ctx, game.ID, false, waiting)
    })
    if err != nil {
        return err
    }

    if hadOffer {
        m.timers.Cancel(game.ID, player.ID, model.TimerWaitlistSeating)
    }
    if settings.IPCheck || settings.GPSCheck {
        interval := time.Duration(settings.IPGPSCheckInterval) * time.Second
        if interval > 0 {
            m.timers.Schedule(game.ID, 0, model.TimerIPGPSCheck, now.Add(interval))
        }
    }
    m.notify.PlayerStatusChanged(game, rec, oldStatus)
    return nil
}

// DeclineWaitlistSeat gives up the current seat offer.  The offer passes
// to the next candidate immediately rather than waiting for a new
// external trigger.
func (m *Manager) DeclineWaitlistSeat(ctx context.Context, game *model.Game, player *model.Player) error {
    var rec *model.SeatRecord
    var queueRemains bool
    var waiting uint32

    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, player.ID)
        if err != nil {
            return err
        }
        if existing.Status != model.PlayerWaitlistSeating {
            return invalidState("player %s does not hold the current seat offer", player.Name)
        }
        rec = existing
        rec.Status = model.PlayerNotPlaying
        rec.WaitlistNum = 0
        rec.WaitingFrom = nil
        rec.WaitlistTimeExp = nil
        if err := tx.UpdateSeatRecord(ctx, rec); err != nil {
            return err
        }

        waiting, err = queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        queueRemains = waiting > 0
        return tx.SetWaitlistSeating(ctx, game.ID, false, waiting)
    })
    if err != nil {
        return err
    }

    m.timers.Cancel(game.ID, player.ID, model.TimerWaitlistSeating)
    m.notify.PlayerStatusChanged(game, rec, model.PlayerWaitlistSeating)
    m.notify.WaitlistChanged(game, waiting)
    if queueRemains {
        return m.RunWaitlist(ctx, game)
    }
    return nil
}

// ApplyWaitlistOrder lets the host re-sequence the whole queue.  The
// submitted list must contain exactly the currently queued player IDs; a
// length or membership mismatch indicates a stale client view and is
// rejected.  Ranks are reassigned 1..N in the given order and the game's
// counter is rewound to N so later adds continue from N+1.
func (m *Manager) ApplyWaitlistOrder(ctx context.Context, game *model.Game, playerIDs []uint64) error {
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        rows, err := tx.QueuedSeatRecords(ctx, game.ID)
        if err != nil {
            return err
        }
        if len(playerIDs) != len(rows) {
            return invalidState("waiting list has %d players, order submits %d", len(rows), len(playerIDs))
        }
        byPlayer := make(map[uint64]*model.SeatRecord, len(rows))
        for i := range rows {
            byPlayer[rows[i].PlayerID] = &rows[i]
        }
        for i, pid := range playerIDs {
            r, ok := byPlayer[pid]
            if !ok {
                return invalidState("player %d is not on the waiting list", pid)
            }
            r.WaitlistNum = uint32(i + 1)
            if err := tx.UpdateSeatRecord(ctx, r); err != nil {
                return err
            }
        }
        return tx.ResetWaitlistCounter(ctx, game.ID, uint32(len(playerIDs)))
    })
    if err != nil {
        return err
    }
    m.notify.WaitlistChanged(game, uint32(len(playerIDs)))
    return nil
}

// waitlistSeatingExpired handles the WAITLIST_SEATING timer: the holder
// did not sit within the offer window, so the offer passes on.  A stale
// fire (player already seated, left or re-queued) is a no-op.
func (m *Manager) waitlistSeatingExpired(ctx context.Context, game *model.Game, playerID uint64) error {
    var rec *model.SeatRecord
    err := m.store.RunInTx(ctx, func(tx Tx) error {
        existing, err := tx.SeatRecord(ctx, game.ID, playerID)
        if err != nil {
            if errors.Is(err, ErrSeatRecordNotFound) {
                return nil
            }
            return err
        }
        if existing.Status != model.PlayerWaitlistSeating {
            return nil
        }
        rec = existing
        rec.Status = model.PlayerNotPlaying
        rec.WaitlistNum = 0
        rec.WaitingFrom = nil
        rec.WaitlistTimeExp = nil
        if err := tx.UpdateSeatRecord(ctx, rec); err != nil {
            return err
        }
        waiting, err := queueSize(ctx, tx, game.ID)
        if err != nil {
            return err
        }
        return tx.SetWaitlistSeating(ctx, game.ID, false, waiting)
    })
    if err != nil || rec == nil {
        return err
    }
    m.notify.PlayerStatusChanged(game, rec, model.PlayerWaitlistSeating)
    return m.RunWaitlist(ctx, game)
}

// queueSize counts IN_QUEUE and WAITLIST_SEATING rows for display.
func queueSize(ctx context.Context, tx Tx, gameID uint64) (uint32, error) {
    rows, err := tx.QueuedSeatRecords(ctx, gameID)
    if err != nil {
        return 0, err
    }
    return uint32(len(rows)), nil
}
