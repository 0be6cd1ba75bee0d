// Package queue defines message payloads exchanged over the message broker.
package queue

// TableEventsQueue is the durable queue every table event is published to.
const TableEventsQueue = "table.events"

// Event type discriminators carried in TableEvent.Type.
const (
    EventPlayerStatusChanged = "PLAYER_STATUS_CHANGED"
    EventWaitlistSeatOffered = "WAITLIST_SEAT_OFFERED"
    EventWaitlistChanged     = "WAITLIST_CHANGED"
    EventReloadApproved      = "RELOAD_APPROVED"
    EventReloadPending       = "RELOAD_PENDING"
    EventReloadDenied        = "RELOAD_DENIED"
    EventReloadTimedOut      = "RELOAD_TIMED_OUT"
)

// TableEvent is the single envelope published for every table-level
// notification. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
// Fields that do not apply to a given Type are left at their zero value and
// omitted from the JSON.
type TableEvent struct {
    EventID       string `json:"event_id"`
    Type          string `json:"type"`
    GameID        uint64 `json:"game_id"`
    GameCode      string `json:"game_code,omitempty"`
    PlayerID      uint64 `json:"player_id,omitempty"`
    PlayerName    string `json:"player_name,omitempty"`
    OldStatus     string `json:"old_status,omitempty"`
    NewStatus     string `json:"new_status,omitempty"`
    SeatNo        uint32 `json:"seat_no,omitempty"`
    Stack         int64  `json:"stack,omitempty"`
    Amount        int64  `json:"amount,omitempty"`
    ExpireSeconds uint32 `json:"expire_seconds,omitempty"`
    ExpiresAt     string `json:"expires_at,omitempty"`
    WaitingCount  uint32 `json:"waiting_count,omitempty"`
    HostUUID      string `json:"host_uuid,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
