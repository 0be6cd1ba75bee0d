package table

import (
    "context"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// Store is the transactional persistence boundary the coordinator mutates
// through.  RunInTx opens a transaction, invokes fn and commits when fn
// returns nil; any error rolls the transaction back and is returned to the
// caller.  All reads inside fn take row locks, so two concurrent callers
// cannot both succeed at a transition that should be exclusive.
type Store interface {
    RunInTx(ctx context.Context, fn func(Tx) error) error

    // PendingUpdates lists the drainable queue entries for a game in
    // insertion order.  WAIT_RELOAD_APPROVAL entries are excluded: they
    // are resolved by the host or the approval timer, never by the drain.
    PendingUpdates(ctx context.Context, gameID uint64) ([]model.DeferredUpdate, error)

    // GameByID loads a game row outside a transaction.  Used by timer
    // callbacks, which only hold the timer key.
    GameByID(ctx context.Context, gameID uint64) (*model.Game, error)
}

// Tx is the set of row-locked operations available inside a transaction.
type Tx interface {
    // SeatRecord loads the row for (game, player) with an update lock.
    // Returns ErrSeatRecordNotFound when absent.
    SeatRecord(ctx context.Context, gameID, playerID uint64) (*model.SeatRecord, error)
    CreateSeatRecord(ctx context.Context, rec *model.SeatRecord) error
    UpdateSeatRecord(ctx context.Context, rec *model.SeatRecord) error

    // OccupiedSeatCount counts rows with seat_no != 0 for the game.
    OccupiedSeatCount(ctx context.Context, gameID uint64) (uint32, error)
    // SeatOccupant returns the record occupying seatNo, or nil.
    SeatOccupant(ctx context.Context, gameID uint64, seatNo uint32) (*model.SeatRecord, error)
    // QueuedSeatRecords loads IN_QUEUE and WAITLIST_SEATING rows ordered
    // by waitlist_num ascending, with update locks.
    QueuedSeatRecords(ctx context.Context, gameID uint64) ([]model.SeatRecord, error)
    // SeatedPlayers returns seat records joined with player IP/GPS data
    // for every occupied seat, for the proximity guard.
    SeatedPlayers(ctx context.Context, gameID uint64) ([]SeatedPlayer, error)

    // Game loads the game row with an update lock.  Returns
    // ErrGameNotFound when absent.
    Game(ctx context.Context, gameID uint64) (*model.Game, error)
    // NextWaitlistNum increments the game's monotonic waitlist counter
    // under the row lock and returns the new value.
    NextWaitlistNum(ctx context.Context, gameID uint64) (uint32, error)
    // ResetWaitlistCounter rewinds the counter after a host re-order.
    ResetWaitlistCounter(ctx context.Context, gameID uint64, n uint32) error
    // SetWaitlistSeating updates the offer-in-progress flag and the
    // displayed queue size together.
    SetWaitlistSeating(ctx context.Context, gameID uint64, inProgress bool, waitingCount uint32) error
    SetGameStatus(ctx context.Context, gameID uint64, status model.GameStatus) error

    // EnqueuePending inserts a deferred update.  For idempotent kinds it
    // reports false (and inserts nothing) when an entry of the same
    // (game, player, kind) already exists.
    EnqueuePending(ctx context.Context, upd *model.DeferredUpdate) (bool, error)
    // PendingUpdate returns the entry of the given kind, or nil.
    PendingUpdate(ctx context.Context, gameID, playerID uint64, kind model.UpdateKind) (*model.DeferredUpdate, error)
    // DeletePending removes an entry by ID and reports whether a row was
    // deleted; false means another drain already consumed it.
    DeletePending(ctx context.Context, id uint64) (bool, error)

    // ClubMember loads the membership row used by the credit check.
    // Returns ErrClubMemberNotFound when absent.
    ClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error)
    // OutstandingBuyIn sums buy_in over the player's ENDED games at the
    // club, excluding the given game.
    OutstandingBuyIn(ctx context.Context, clubCode, playerUUID string, excludeGameID uint64) (int64, error)
}

// SeatedPlayer is the slice of seat and location data the proximity guard
// inspects for every occupied seat.
type SeatedPlayer struct {
    PlayerID          uint64
    PlayerName        string
    SeatNo            uint32
    SatAt             *time.Time
    IPAddress         string
    Location          *model.Location
    LocationUpdatedAt *time.Time
}

// Directory is the read-optimised cache of configuration snapshots.  It
// may be stale by its invalidation window, so nothing correctness-critical
// (credit decisions, offer exclusivity) is decided from it alone; those
// checks re-read the store inside the transaction.
type Directory interface {
    GetGame(ctx context.Context, gameCode string) (*model.Game, error)
    GetGameSettings(ctx context.Context, gameCode string) (*model.GameSettings, error)
    GetPlayer(ctx context.Context, playerUUID string) (*model.Player, error)
    GetClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error)
}

// Scheduler schedules named wall-clock callbacks.  At most one live handle
// exists per (game, player, purpose) key; Schedule atomically supersedes
// any prior handle for the key and Cancel is a no-op for unknown keys.
type Scheduler interface {
    Schedule(gameID, playerID uint64, purpose model.TimerPurpose, deadline time.Time)
    Cancel(gameID, playerID uint64, purpose model.TimerPurpose)
}

// Notifier delivers state-change events to clients.  Delivery is
// best-effort and never transactional with the data mutation; failures are
// logged by implementations and do not surface here.
type Notifier interface {
    PlayerStatusChanged(game *model.Game, rec *model.SeatRecord, oldStatus model.PlayerStatus)
    WaitlistSeatOffered(game *model.Game, rec *model.SeatRecord, expiresAt time.Time)
    WaitlistChanged(game *model.Game, waitingCount uint32)
    ReloadApproved(game *model.Game, rec *model.SeatRecord, amount int64)
    ReloadPending(game *model.Game, playerID uint64, playerName string, amount int64, expireSeconds uint32)
    ReloadDenied(game *model.Game, playerID uint64, playerName string)
    ReloadTimedOut(game *model.Game, playerID uint64, playerName string)
}
