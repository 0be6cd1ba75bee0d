package model

import "time"

// SeatRecord is the per-game, per-player row at the heart of the seat and
// chip lifecycle.  A record is created the first time a player joins or
// waitlists a game and is never hard-deleted while the game exists; a
// player who leaves keeps the row with a reset status.
//
// Fields:
//  ID                 – primary key identifier.
//  GameID             – game this record belongs to.
//  PlayerID           – player this record belongs to.
//  PlayerName         – denormalised display name for notifications.
//  PlayerUUID         – denormalised player UUID for notifications.
//  SeatNo             – occupied seat number; 0 means not seated.
//  Status             – lifecycle status (see PlayerStatus).
//  Stack              – chips currently at the table.
//  BuyIn              – total chips bought into this game.
//  NoOfBuyins         – number of buy-ins/reloads applied.
//  SatAt              – when the player took the seat (nil when unseated).
//  SessionTime        – accumulated seated seconds across sit-downs.
//  WaitingFrom        – when the player joined the waiting list.
//  WaitlistNum        – 1-based queue rank; 0 means not queued.
//  WaitlistTimeExp    – deadline of the current seat offer (nullable).
//  BreakTimeStartedAt – when the current break began (nullable).
//  BreakTimeExpAt     – when the current break expires (nullable).
type SeatRecord struct {
    ID                 uint64       // seat_records.id
    GameID             uint64       // seat_records.game_id
    PlayerID           uint64       // seat_records.player_id
    PlayerName         string       // seat_records.player_name
    PlayerUUID         string       // seat_records.player_uuid
    SeatNo             uint32       // seat_records.seat_no
    Status             PlayerStatus // seat_records.status
    Stack              int64        // seat_records.stack
    BuyIn              int64        // seat_records.buy_in
    NoOfBuyins         uint32       // seat_records.no_of_buyins
    SatAt              *time.Time   // seat_records.sat_at (nullable)
    SessionTime        uint32       // seat_records.session_time (seconds)
    WaitingFrom        *time.Time   // seat_records.waiting_from (nullable)
    WaitlistNum        uint32       // seat_records.waitlist_num
    WaitlistTimeExp    *time.Time   // seat_records.waitlist_time_exp (nullable)
    BreakTimeStartedAt *time.Time   // seat_records.break_time_started_at (nullable)
    BreakTimeExpAt     *time.Time   // seat_records.break_time_exp_at (nullable)
}

// ReleaseSeat folds the elapsed seat time into SessionTime and clears the
// seat, waitlist and break fields.  It is used by leave, kick, break
// expiry and game end, which all end with the player unseated.
func (r *SeatRecord) ReleaseSeat(now time.Time) {
    if r.SatAt != nil {
        elapsed := now.Sub(*r.SatAt)
        if elapsed > 0 {
            r.SessionTime += uint32(elapsed / time.Second)
        }
    }
    r.SeatNo = 0
    r.SatAt = nil
    r.WaitingFrom = nil
    r.WaitlistNum = 0
    r.WaitlistTimeExp = nil
    r.BreakTimeStartedAt = nil
    r.BreakTimeExpAt = nil
}
