package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

const seatRecordColumns = `id, game_id, player_id, player_name, player_uuid,
       seat_no, status, stack, buy_in, no_of_buyins, sat_at, session_time,
       waiting_from, waitlist_num, waitlist_time_exp,
       break_time_started_at, break_time_exp_at`

// SeatRecord loads the row for (game, player) with an update lock so the
// state machine transition the caller is about to make stays exclusive.
// Returns table.ErrSeatRecordNotFound when absent.
func (t *Tx) SeatRecord(ctx context.Context, gameID, playerID uint64) (*model.SeatRecord, error) {
    const q = `SELECT ` + seatRecordColumns + `
               FROM seat_records
               WHERE game_id = ? AND player_id = ?
               FOR UPDATE`
    rec, err := scanSeatRecord(t.tx.QueryRowContext(ctx, q, gameID, playerID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrSeatRecordNotFound
    }
    return rec, err
}

// CreateSeatRecord inserts a fresh record and populates its generated ID.
func (t *Tx) CreateSeatRecord(ctx context.Context, rec *model.SeatRecord) error {
    const q = `INSERT INTO seat_records
               (game_id, player_id, player_name, player_uuid, seat_no, status,
                stack, buy_in, no_of_buyins, sat_at, session_time, waiting_from,
                waitlist_num, waitlist_time_exp, break_time_started_at, break_time_exp_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := t.tx.ExecContext(ctx, q,
        rec.GameID, rec.PlayerID, rec.PlayerName, rec.PlayerUUID,
        rec.SeatNo, string(rec.Status), rec.Stack, rec.BuyIn, rec.NoOfBuyins,
        nullTime(rec.SatAt), rec.SessionTime, nullTime(rec.WaitingFrom),
        rec.WaitlistNum, nullTime(rec.WaitlistTimeExp),
        nullTime(rec.BreakTimeStartedAt), nullTime(rec.BreakTimeExpAt),
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// UpdateSeatRecord writes back every mutable column of a record that was
// previously loaded (and therefore locked) in this transaction.
func (t *Tx) UpdateSeatRecord(ctx context.Context, rec *model.SeatRecord) error {
    const q = `UPDATE seat_records
               SET seat_no = ?, status = ?, stack = ?, buy_in = ?, no_of_buyins = ?,
                   sat_at = ?, session_time = ?, waiting_from = ?, waitlist_num = ?,
                   waitlist_time_exp = ?, break_time_started_at = ?, break_time_exp_at = ?
               WHERE id = ?`
    _, err := t.tx.ExecContext(ctx, q,
        rec.SeatNo, string(rec.Status), rec.Stack, rec.BuyIn, rec.NoOfBuyins,
        nullTime(rec.SatAt), rec.SessionTime, nullTime(rec.WaitingFrom),
        rec.WaitlistNum, nullTime(rec.WaitlistTimeExp),
        nullTime(rec.BreakTimeStartedAt), nullTime(rec.BreakTimeExpAt),
        rec.ID,
    )
    return err
}

// OccupiedSeatCount counts occupied seats (seat_no != 0) for a game.
func (t *Tx) OccupiedSeatCount(ctx context.Context, gameID uint64) (uint32, error) {
    const q = `SELECT COUNT(*) FROM seat_records WHERE game_id = ? AND seat_no <> 0`
    var n uint32
    err := t.tx.QueryRowContext(ctx, q, gameID).Scan(&n)
    return n, err
}

// SeatOccupant returns the record occupying seatNo, or nil when the seat
// is open.  The row, when present, is locked.
func (t *Tx) SeatOccupant(ctx context.Context, gameID uint64, seatNo uint32) (*model.SeatRecord, error) {
    const q = `SELECT ` + seatRecordColumns + `
               FROM seat_records
               WHERE game_id = ? AND seat_no = ?
               FOR UPDATE`
    rec, err := scanSeatRecord(t.tx.QueryRowContext(ctx, q, gameID, seatNo))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return rec, err
}

// QueuedSeatRecords loads the IN_QUEUE and WAITLIST_SEATING rows for a
// game ordered by waitlist_num ascending, with update locks.  This is the
// queue view the offer algorithm scans.
func (t *Tx) QueuedSeatRecords(ctx context.Context, gameID uint64) ([]model.SeatRecord, error) {
    const q = `SELECT ` + seatRecordColumns + `
               FROM seat_records
               WHERE game_id = ? AND status IN (?, ?)
               ORDER BY waitlist_num ASC
               FOR UPDATE`
    rows, err := t.tx.QueryContext(ctx, q, gameID,
        string(model.PlayerInQueue), string(model.PlayerWaitlistSeating))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var records []model.SeatRecord
    for rows.Next() {
        rec, err := scanSeatRecord(rows)
        if err != nil {
            return nil, err
        }
        records = append(records, *rec)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return records, nil
}

// SeatedPlayers joins the occupied seat records with player IP/GPS data
// for the proximity guard.
func (t *Tx) SeatedPlayers(ctx context.Context, gameID uint64) ([]table.SeatedPlayer, error) {
    const q = `SELECT sr.player_id, sr.player_name, sr.seat_no, sr.sat_at,
                      p.ip_address, p.location_lat, p.location_long, p.location_updated_at
               FROM seat_records sr
               JOIN players p ON p.id = sr.player_id
               WHERE sr.game_id = ? AND sr.seat_no <> 0
               ORDER BY sr.seat_no`
    rows, err := t.tx.QueryContext(ctx, q, gameID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []table.SeatedPlayer
    for rows.Next() {
        var sp table.SeatedPlayer
        var satAt, locUpdated sql.NullTime
        var ip sql.NullString
        var lat, long sql.NullFloat64
        if err := rows.Scan(&sp.PlayerID, &sp.PlayerName, &sp.SeatNo, &satAt,
            &ip, &lat, &long, &locUpdated); err != nil {
            return nil, err
        }
        if satAt.Valid {
            ts := satAt.Time.UTC()
            sp.SatAt = &ts
        }
        if ip.Valid {
            sp.IPAddress = ip.String
        }
        if lat.Valid && long.Valid {
            sp.Location = &model.Location{Lat: lat.Float64, Long: long.Float64}
        }
        if locUpdated.Valid {
            ts := locUpdated.Time.UTC()
            sp.LocationUpdatedAt = &ts
        }
        seats = append(seats, sp)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// scanSeatRecord maps one seat_records row onto the model type.
func scanSeatRecord(row rowScanner) (*model.SeatRecord, error) {
    var rec model.SeatRecord
    var status string
    var satAt, waitingFrom, waitlistExp, breakStarted, breakExp sql.NullTime
    err := row.Scan(
        &rec.ID, &rec.GameID, &rec.PlayerID, &rec.PlayerName, &rec.PlayerUUID,
        &rec.SeatNo, &status, &rec.Stack, &rec.BuyIn, &rec.NoOfBuyins,
        &satAt, &rec.SessionTime, &waitingFrom, &rec.WaitlistNum, &waitlistExp,
        &breakStarted, &breakExp,
    )
    if err != nil {
        return nil, err
    }
    rec.Status = model.PlayerStatus(status)
    rec.SatAt = timePtr(satAt)
    rec.WaitingFrom = timePtr(waitingFrom)
    rec.WaitlistTimeExp = timePtr(waitlistExp)
    rec.BreakTimeStartedAt = timePtr(breakStarted)
    rec.BreakTimeExpAt = timePtr(breakExp)
    return &rec, nil
}

func timePtr(t sql.NullTime) *time.Time {
    if !t.Valid {
        return nil
    }
    ts := t.Time.UTC()
    return &ts
}

func nullTime(t *time.Time) interface{} {
    if t == nil {
        return nil
    }
    return t.UTC()
}
