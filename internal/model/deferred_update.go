package model

import "time"

// DeferredUpdate is a mutation recorded instead of applied because a hand
// was in progress when it was requested.  Entries are drained in insertion
// order at the next hand boundary and deleted exactly once.
//
// Fields:
//  ID          – primary key; insertion order of the queue.
//  GameID      – game the update belongs to.
//  PlayerID    – affected player (0 for game-level updates).
//  PlayerName  – denormalised display name for notifications.
//  PlayerUUID  – denormalised player UUID for notifications.
//  Kind        – which mutation to apply (see UpdateKind).
//  BuyinAmount – chip amount for reload kinds.
//  EndReason   – optional reason carried by END_GAME.
//  CreatedAt   – when the update was queued.
type DeferredUpdate struct {
    ID          uint64     // deferred_updates.id
    GameID      uint64     // deferred_updates.game_id
    PlayerID    uint64     // deferred_updates.player_id
    PlayerName  string     // deferred_updates.player_name
    PlayerUUID  string     // deferred_updates.player_uuid
    Kind        UpdateKind // deferred_updates.update_kind
    BuyinAmount int64      // deferred_updates.buyin_amount
    EndReason   string     // deferred_updates.end_reason
    CreatedAt   time.Time  // deferred_updates.created_at
}
