package model

// Game is the table-level row the core coordinates around.  The waitlist
// counter is the monotonic source of waitlist numbers for the game: it
// only ever increases, so ranks are never reused.
//
// Fields:
//  ID                 – primary key identifier.
//  GameCode           – short public code used by the API layer.
//  ClubCode           – owning club; empty for individual/friends games.
//  HostUUID           – UUID of the hosting player.
//  Status             – coarse game lifecycle (see GameStatus).
//  TableStatus        – per-hand table state (see TableStatus).
//  MaxPlayers         – number of seats at the table.
//  WaitlistCounter    – monotonic counter behind waitlist_num assignment.
//  WaitingListCount   – players currently queued, kept for display.
//  SeatingInProgress  – true while one queued player holds a seat offer.
type Game struct {
    ID                uint64      // games.id
    GameCode          string      // games.game_code
    ClubCode          string      // games.club_code
    HostUUID          string      // games.host_uuid
    Status            GameStatus  // games.status
    TableStatus       TableStatus // games.table_status
    MaxPlayers        uint32      // games.max_players
    WaitlistCounter   uint32      // games.waitlist_counter
    WaitingListCount  uint32      // games.waiting_list_count
    SeatingInProgress bool        // games.seating_in_progress
}

// GameSettings is the read-mostly configuration snapshot the core consults
// for approval, waitlist, break and proximity decisions.  It is refreshed
// through the directory cache and treated as immutable by workflows.
type GameSettings struct {
    GameCode               string  // game_settings.game_code
    BuyInMin               int64   // game_settings.buyin_min
    BuyInMax               int64   // game_settings.buyin_max
    BuyInApproval          bool    // game_settings.buyin_approval
    BuyInTimeout           uint32  // game_settings.buyin_timeout (seconds)
    BreakLength            uint32  // game_settings.break_length (seconds)
    IPCheck                bool    // game_settings.ip_check
    GPSCheck               bool    // game_settings.gps_check
    GPSAllowedDistance     float64 // game_settings.gps_allowed_distance (meters)
    IPGPSCheckInterval     uint32  // game_settings.ip_gps_check_interval (seconds)
    WaitlistSittingTimeout uint32  // game_settings.waitlist_sitting_timeout (seconds)
}
