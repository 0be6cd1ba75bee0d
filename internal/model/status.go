package model

// PlayerStatus tracks where a player is in the seat lifecycle of a single
// game.  A player moves NOT_PLAYING -> WAIT_FOR_BUYIN -> PLAYING and may
// oscillate between PLAYING and IN_BREAK.  Waitlisted players move
// IN_QUEUE -> WAITLIST_SEATING -> PLAYING, or back to NOT_PLAYING when the
// seat offer is declined or times out.  NOT_PLAYING is terminal for the
// game after a leave, a kick or a game end.
type PlayerStatus string

const (
    PlayerNotPlaying      PlayerStatus = "NOT_PLAYING"
    PlayerWaitForBuyin    PlayerStatus = "WAIT_FOR_BUYIN"
    PlayerPlaying         PlayerStatus = "PLAYING"
    PlayerInBreak         PlayerStatus = "IN_BREAK"
    PlayerInQueue         PlayerStatus = "IN_QUEUE"
    PlayerWaitlistSeating PlayerStatus = "WAITLIST_SEATING"
    PlayerLeft            PlayerStatus = "LEFT"
    PlayerKickedOut       PlayerStatus = "KICKED_OUT"
)

// Seated reports whether the status corresponds to a player occupying a
// seat at the table (including players on a break, who keep their seat
// until the break expires).
func (s PlayerStatus) Seated() bool {
    switch s {
    case PlayerPlaying, PlayerInBreak, PlayerWaitForBuyin:
        return true
    }
    return false
}

// GameStatus is the coarse lifecycle of a game.
type GameStatus string

const (
    GameConfigured GameStatus = "CONFIGURED"
    GameActive     GameStatus = "ACTIVE"
    GamePaused     GameStatus = "PAUSED"
    GameEnded      GameStatus = "ENDED"
)

// TableStatus is the state of the table within an active game.  Deferred
// updates are only applied when the table is NOT in GAME_RUNNING, i.e. at
// the boundary between two hands.
type TableStatus string

const (
    TableWaitingToBeStarted      TableStatus = "WAITING_TO_BE_STARTED"
    TableGameRunning             TableStatus = "GAME_RUNNING"
    TableHostSeatChangeInProgress TableStatus = "HOST_SEATCHANGE_IN_PROGRESS"
    TableNotEnoughPlayers        TableStatus = "NOT_ENOUGH_PLAYERS"
)

// UpdateKind identifies the mutation a deferred update carries.
type UpdateKind string

const (
    UpdateLeave              UpdateKind = "LEAVE"
    UpdateTakeBreak          UpdateKind = "TAKE_BREAK"
    UpdateReloadApproved     UpdateKind = "RELOAD_APPROVED"
    UpdateWaitReloadApproval UpdateKind = "WAIT_RELOAD_APPROVAL"
    UpdateEndGame            UpdateKind = "END_GAME"
    UpdatePauseGame          UpdateKind = "PAUSE_GAME"
)

// Idempotent reports whether at most one pending entry of this kind may
// exist per game and player.  Enqueueing a duplicate of an idempotent kind
// is a silent no-op.
func (k UpdateKind) Idempotent() bool {
    switch k {
    case UpdateLeave, UpdateTakeBreak, UpdateEndGame:
        return true
    }
    return false
}

// ApprovalStatus is the host's decision on a pending reload request.
type ApprovalStatus string

const (
    ApprovalApproved ApprovalStatus = "APPROVED"
    ApprovalDenied   ApprovalStatus = "DENIED"
)

// TimerPurpose names a scheduled wall-clock callback.  Together with the
// game and player IDs it forms the timer key; scheduling a new timer for
// an existing key replaces the previous handle.
type TimerPurpose string

const (
    TimerWaitlistSeating TimerPurpose = "WAITLIST_SEATING"
    TimerBuyinApproval   TimerPurpose = "BUYIN_APPROVAL"
    TimerBreakTime       TimerPurpose = "BREAK_TIME"
    TimerIPGPSCheck      TimerPurpose = "IP_GPS_CHECK"
)
