package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

const gameSelect = `SELECT id, game_code, club_code, host_uuid, status, table_status,
       max_players, waitlist_counter, waiting_list_count, seating_in_progress
FROM games`

// Game loads the game row with an update lock.  The lock serialises every
// workflow touching the same table, which is what makes the waitlist
// counter increment and the offer-in-progress flag race-free.
func (t *Tx) Game(ctx context.Context, gameID uint64) (*model.Game, error) {
    g, err := scanGame(t.tx.QueryRowContext(ctx, gameSelect+` WHERE id = ? FOR UPDATE`, gameID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrGameNotFound
    }
    return g, err
}

// NextWaitlistNum increments the game's monotonic waitlist counter under
// the row lock and returns the new value.  The counter only grows, so two
// concurrent adds can never share a rank and ranks are never reused.
func (t *Tx) NextWaitlistNum(ctx context.Context, gameID uint64) (uint32, error) {
    const upd = `UPDATE games SET waitlist_counter = waitlist_counter + 1 WHERE id = ?`
    res, err := t.tx.ExecContext(ctx, upd, gameID)
    if err != nil {
        return 0, err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return 0, table.ErrGameNotFound
    }
    const sel = `SELECT waitlist_counter FROM games WHERE id = ?`
    var num uint32
    err = t.tx.QueryRowContext(ctx, sel, gameID).Scan(&num)
    return num, err
}

// ResetWaitlistCounter rewinds the counter after a host re-order so the
// next add continues from n+1.
func (t *Tx) ResetWaitlistCounter(ctx context.Context, gameID uint64, n uint32) error {
    const q = `UPDATE games SET waitlist_counter = ? WHERE id = ?`
    _, err := t.tx.ExecContext(ctx, q, n, gameID)
    return err
}

// SetWaitlistSeating updates the offer-in-progress flag and the displayed
// queue size together.
func (t *Tx) SetWaitlistSeating(ctx context.Context, gameID uint64, inProgress bool, waitingCount uint32) error {
    const q = `UPDATE games SET seating_in_progress = ?, waiting_list_count = ? WHERE id = ?`
    _, err := t.tx.ExecContext(ctx, q, inProgress, waitingCount, gameID)
    return err
}

// SetGameStatus updates the coarse game lifecycle status.
func (t *Tx) SetGameStatus(ctx context.Context, gameID uint64, status model.GameStatus) error {
    const q = `UPDATE games SET status = ? WHERE id = ?`
    _, err := t.tx.ExecContext(ctx, q, string(status), gameID)
    return err
}

// scanGame maps one games row onto the model type.
func scanGame(row rowScanner) (*model.Game, error) {
    var g model.Game
    var status, tableStatus string
    var clubCode sql.NullString
    err := row.Scan(
        &g.ID, &g.GameCode, &clubCode, &g.HostUUID, &status, &tableStatus,
        &g.MaxPlayers, &g.WaitlistCounter, &g.WaitingListCount, &g.SeatingInProgress,
    )
    if err != nil {
        return nil, err
    }
    if clubCode.Valid {
        g.ClubCode = clubCode.String
    }
    g.Status = model.GameStatus(status)
    g.TableStatus = model.TableStatus(tableStatus)
    return &g, nil
}
