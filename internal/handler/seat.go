package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// SitDown handles POST /v1/games/:code/seats/:no.  The authenticated
// player takes the given open seat.  The body may carry a GPS fix; the
// request IP is always recorded.  While a waitlist seat offer is
// outstanding, only the offer holder may sit, and any other player gets
// 409 with the holder's name.  Proximity violations return 422.
func (h *TableHandler) SitDown(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    seatNo, err := strconv.ParseUint(c.Param("no"), 10, 32)
    if err != nil || seatNo == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
    }
    var body struct {
        Location *model.Location `json:"location"`
    }
    // The body is optional; ignore bind errors from an empty payload.
    _ = c.Bind(&body)

    player, ok := h.player(c)
    if !ok {
        return nil
    }
    ctx := c.Request().Context()
    h.recordLocation(ctx, c, player.UUID, body.Location)

    // Re-read so the seat action sees the fix that was just recorded.
    player, ok = h.player(c)
    if !ok {
        return nil
    }
    if err := h.Manager.SeatPlayer(ctx, game, player, uint32(seatNo)); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"seat_no": seatNo})
}

// Leave handles POST /v1/games/:code/leave.  Mid-hand the departure is
// queued and applied at the end of the hand; otherwise the seat frees
// immediately and the waitlist engine runs.
func (h *TableHandler) Leave(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    if err := h.Manager.Leave(c.Request().Context(), game, player); err != nil {
        return writeError(c, err)
    }
    // Mid-hand the leave is deferred, so the final status is not known yet.
    return c.JSON(http.StatusOK, echo.Map{"accepted": true})
}
