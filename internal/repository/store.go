// Package repository implements the transactional seat record store on
// MySQL.  Lookups that find no row return the sentinel errors defined
// beside the table coordinator's Store and Tx interfaces, so callers at
// every layer match on the same values.
package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

// Store is the MySQL-backed implementation of the table coordinator's
// persistence boundary.  All mutating work runs through RunInTx; reads
// inside the transaction use SELECT ... FOR UPDATE so that two concurrent
// callers cannot both succeed at a transition that should be exclusive.
type Store struct {
    db *sql.DB
}

// NewStore returns a Store bound to the provided database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for wiring (schema setup, directory).
func (s *Store) DB() *sql.DB { return s.db }

// RunInTx opens a transaction, invokes fn with a row-locking Tx view and
// commits when fn returns nil.  Any error from fn rolls the transaction
// back and is returned unchanged.
func (s *Store) RunInTx(ctx context.Context, fn func(table.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&Tx{tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// PendingUpdates lists the drainable deferred updates for a game in
// insertion order.  WAIT_RELOAD_APPROVAL entries are excluded; they are
// resolved by the host or the approval timer, never by the drain.
func (s *Store) PendingUpdates(ctx context.Context, gameID uint64) ([]model.DeferredUpdate, error) {
    const q = `SELECT id, game_id, player_id, player_name, player_uuid,
                      update_kind, buyin_amount, end_reason, created_at
               FROM deferred_updates
               WHERE game_id = ? AND update_kind <> ?
               ORDER BY id ASC`
    rows, err := s.db.QueryContext(ctx, q, gameID, string(model.UpdateWaitReloadApproval))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var updates []model.DeferredUpdate
    for rows.Next() {
        u, err := scanDeferredUpdate(rows)
        if err != nil {
            return nil, err
        }
        updates = append(updates, *u)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return updates, nil
}

// GameByID loads a game row outside a transaction, for timer callbacks
// that only hold the timer key.
func (s *Store) GameByID(ctx context.Context, gameID uint64) (*model.Game, error) {
    return scanGame(s.db.QueryRowContext(ctx, gameSelect+` WHERE id = ?`, gameID))
}

// Tx is the transaction-scoped view of the store.  Every read that feeds
// a decision takes an update lock on the rows it returns.
type Tx struct {
    tx *sql.Tx
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}
