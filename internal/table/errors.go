// Package table implements the seat and chip lifecycle coordinator: the
// waitlist engine, the buy-in/reload approval workflow, the break/timeout
// manager, the deferred update queue and the proximity guard.  Every state
// transition runs inside a store transaction; notifications and timers are
// handled after the transaction commits.
package table

import (
    "errors"
    "fmt"
)

// Sentinel lookup failures live beside the Store/Tx interfaces so the
// repository, the directory and the handlers all agree on them without
// importing each other.

// ErrSeatRecordNotFound is returned when no seat record exists for the
// requested (game, player) pair.
var ErrSeatRecordNotFound = errors.New("seat record not found")

// ErrGameNotFound is returned when the requested game row does not exist.
var ErrGameNotFound = errors.New("game not found")

// ErrPlayerNotFound is returned when the requested player does not exist.
var ErrPlayerNotFound = errors.New("player not found")

// ErrClubMemberNotFound is returned when the player is not a member of the
// game's club.
var ErrClubMemberNotFound = errors.New("club member not found")

// InvalidStateError reports a request that is not valid from the player's
// or table's current state, such as a reload while not seated or a break
// while already on break.  It is a descriptive rejection; callers should
// not retry.
type InvalidStateError struct {
    Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

func invalidState(format string, args ...interface{}) error {
    return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// SeatTakenError reports that a seat cannot be taken because another
// player currently holds the outstanding waitlist seat offer for the game.
type SeatTakenError struct {
    SeatNo     uint32
    PlayerName string // holder of the outstanding offer
}

func (e *SeatTakenError) Error() string {
    return fmt.Sprintf("seat %d is being offered to %s from the waiting list", e.SeatNo, e.PlayerName)
}

// ProximityError reports an IP or GPS anti-collusion violation between the
// joining/reloading player and a currently seated player.
type ProximityError struct {
    Reason        string // "ip" or "gps"
    PlayerID      uint64
    OtherPlayerID uint64
    OtherName     string
}

func (e *ProximityError) Error() string {
    if e.Reason == "ip" {
        return fmt.Sprintf("player %d shares an IP address with seated player %s", e.PlayerID, e.OtherName)
    }
    return fmt.Sprintf("player %d is within the restricted GPS distance of seated player %s", e.PlayerID, e.OtherName)
}
