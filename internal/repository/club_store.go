package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

// ClubMember loads the membership row the credit check re-validates
// inside the transaction; the cached snapshot is never trusted for
// approval decisions.
func (t *Tx) ClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error) {
    const q = `SELECT club_code, player_uuid, credit_limit, is_owner, is_manager, auto_buyin_approval
               FROM club_members
               WHERE club_code = ? AND player_uuid = ?`
    var m model.ClubMember
    err := t.tx.QueryRowContext(ctx, q, clubCode, playerUUID).Scan(
        &m.ClubCode, &m.PlayerUUID, &m.CreditLimit,
        &m.IsOwner, &m.IsManager, &m.AutoBuyinApproval,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrClubMemberNotFound
    }
    if err != nil {
        return nil, err
    }
    return &m, nil
}

// OutstandingBuyIn sums the player's buy-ins over ENDED games at the club,
// excluding the given game (its current buy-in is added separately by the
// caller).  This is the outstanding balance side of the credit rule.
func (t *Tx) OutstandingBuyIn(ctx context.Context, clubCode, playerUUID string, excludeGameID uint64) (int64, error) {
    const q = `SELECT COALESCE(SUM(sr.buy_in), 0)
               FROM seat_records sr
               JOIN games g ON g.id = sr.game_id
               WHERE g.club_code = ? AND sr.player_uuid = ?
                 AND g.status = ? AND g.id <> ?`
    var sum int64
    err := t.tx.QueryRowContext(ctx, q, clubCode, playerUUID,
        string(model.GameEnded), excludeGameID).Scan(&sum)
    return sum, err
}
