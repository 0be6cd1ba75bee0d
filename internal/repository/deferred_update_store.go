package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/poker-table-service/internal/model"
)

const deferredUpdateColumns = `id, game_id, player_id, player_name, player_uuid,
       update_kind, buyin_amount, end_reason, created_at`

// EnqueuePending inserts a deferred update.  For idempotent kinds the
// insert is suppressed (reported as false) when an entry of the same
// (game, player, kind) already exists, which guarantees at most one
// pending entry per kind.  The existence check and the insert run in the
// same transaction, so concurrent enqueues cannot both slip through.
func (t *Tx) EnqueuePending(ctx context.Context, upd *model.DeferredUpdate) (bool, error) {
    if upd.Kind.Idempotent() {
        const check = `SELECT id FROM deferred_updates
                       WHERE game_id = ? AND player_id = ? AND update_kind = ?
                       LIMIT 1 FOR UPDATE`
        var id uint64
        err := t.tx.QueryRowContext(ctx, check, upd.GameID, upd.PlayerID, string(upd.Kind)).Scan(&id)
        switch {
        case err == nil:
            return false, nil
        case !errors.Is(err, sql.ErrNoRows):
            return false, err
        }
    }
    const ins = `INSERT INTO deferred_updates
                 (game_id, player_id, player_name, player_uuid, update_kind, buyin_amount, end_reason)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := t.tx.ExecContext(ctx, ins,
        upd.GameID, upd.PlayerID, upd.PlayerName, upd.PlayerUUID,
        string(upd.Kind), upd.BuyinAmount, upd.EndReason,
    )
    if err != nil {
        return false, err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return false, err
    }
    upd.ID = uint64(id)
    return true, nil
}

// PendingUpdate returns the locked entry of the given kind for the
// player, or nil when none is queued.
func (t *Tx) PendingUpdate(ctx context.Context, gameID, playerID uint64, kind model.UpdateKind) (*model.DeferredUpdate, error) {
    const q = `SELECT ` + deferredUpdateColumns + `
               FROM deferred_updates
               WHERE game_id = ? AND player_id = ? AND update_kind = ?
               LIMIT 1 FOR UPDATE`
    upd, err := scanDeferredUpdate(t.tx.QueryRowContext(ctx, q, gameID, playerID, string(kind)))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return upd, err
}

// DeletePending removes an entry by ID and reports whether a row was
// deleted.  A false result means another drain or resolution already
// consumed the entry, so the caller must not apply its effect again.
func (t *Tx) DeletePending(ctx context.Context, id uint64) (bool, error) {
    const q = `DELETE FROM deferred_updates WHERE id = ?`
    result, err := t.tx.ExecContext(ctx, q, id)
    if err != nil {
        return false, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// scanDeferredUpdate maps one deferred_updates row onto the model type.
func scanDeferredUpdate(row rowScanner) (*model.DeferredUpdate, error) {
    var u model.DeferredUpdate
    var kind string
    var endReason sql.NullString
    err := row.Scan(
        &u.ID, &u.GameID, &u.PlayerID, &u.PlayerName, &u.PlayerUUID,
        &kind, &u.BuyinAmount, &endReason, &u.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    u.Kind = model.UpdateKind(kind)
    if endReason.Valid {
        u.EndReason = endReason.String
    }
    return &u, nil
}
