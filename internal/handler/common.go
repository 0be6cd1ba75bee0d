package handler // handler defines http handlers

import (
    "context"      // context carries request deadlines into the coordinator
    "errors"       // errors provides sentinel and type comparisons
    "net/http"     // HTTP status codes
    "time"         // timestamps for location updates

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/poker-table-service/internal/directory"
    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

// TableHandler bundles the coordinator and the directory for every table
// route.  All methods assume that JWT authentication has already been
// performed by middleware; they return 401 Unauthorized if the player
// identity cannot be extracted from the context.
type TableHandler struct {
    Manager *table.Manager       // Manager runs every seat and chip transition
    Dir     *directory.Directory // Dir resolves games, settings and players
}

// NewTableHandler constructs a new TableHandler and panics if any
// dependency is nil.
func NewTableHandler(manager *table.Manager, dir *directory.Directory) *TableHandler {
    if manager == nil || dir == nil {
        panic("nil dependency passed to NewTableHandler")
    }
    return &TableHandler{Manager: manager, Dir: dir}
}

// getPlayerUUID extracts the player_uuid claim from echo.Context.
func getPlayerUUID(c echo.Context) (string, error) {
    if v, ok := c.Get("player_uuid").(string); ok && v != "" {
        return v, nil
    }
    return "", errors.New("invalid player_uuid in context")
}

// game resolves the :code path parameter into a game snapshot.  The bool
// result reports whether the caller may proceed; on false a response has
// already been written.
func (h *TableHandler) game(c echo.Context) (*model.Game, bool) {
    code := c.Param("code")
    if code == "" {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game code"})
        return nil, false
    }
    g, err := h.Dir.GetGame(c.Request().Context(), code)
    if err != nil {
        if errors.Is(err, table.ErrGameNotFound) {
            _ = c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
        } else {
            _ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        return nil, false
    }
    return g, true
}

// player resolves the authenticated identity into a player snapshot.
func (h *TableHandler) player(c echo.Context) (*model.Player, bool) {
    uuid, err := getPlayerUUID(c)
    if err != nil {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return nil, false
    }
    p, err := h.Dir.GetPlayer(c.Request().Context(), uuid)
    if err != nil {
        if errors.Is(err, table.ErrPlayerNotFound) {
            _ = c.JSON(http.StatusNotFound, echo.Map{"error": "player not found"})
        } else {
            _ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        return nil, false
    }
    return p, true
}

// requireHost checks that the authenticated player hosts the game.
func requireHost(c echo.Context, game *model.Game) bool {
    uuid, err := getPlayerUUID(c)
    if err != nil || uuid != game.HostUUID {
        _ = c.JSON(http.StatusForbidden, echo.Map{"error": "host only"})
        return false
    }
    return true
}

// writeError maps coordinator errors onto HTTP responses.  Invalid state
// transitions are client errors; a contested seat offer and a proximity
// violation carry structured detail so clients can render them.
func writeError(c echo.Context, err error) error {
    var inv *table.InvalidStateError
    if errors.As(err, &inv) {
        return c.JSON(http.StatusConflict, echo.Map{"error": inv.Msg})
    }
    var taken *table.SeatTakenError
    if errors.As(err, &taken) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":   "seat reserved for waiting player",
            "seat_no": taken.SeatNo,
            "held_by": taken.PlayerName,
        })
    }
    var prox *table.ProximityError
    if errors.As(err, &prox) {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":        "proximity check failed",
            "reason":       prox.Reason,
            "other_player": prox.OtherName,
        })
    }
    switch {
    case errors.Is(err, table.ErrSeatRecordNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "player has no seat record in this game"})
    case errors.Is(err, table.ErrGameNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
    case errors.Is(err, table.ErrClubMemberNotFound):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this club"})
    }
    c.Logger().Errorf("table handler: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// recordLocation persists a client-reported IP and GPS fix before an
// action that runs the proximity guard.  Errors are logged only; a failed
// location write must not block the action itself.
func (h *TableHandler) recordLocation(ctx context.Context, c echo.Context, playerUUID string, loc *model.Location) {
    ip := c.RealIP()
    if err := h.Dir.UpdatePlayerLocation(ctx, playerUUID, ip, loc, time.Now().UTC()); err != nil {
        c.Logger().Warnf("location update for %s failed: %v", playerUUID, err)
    }
}
