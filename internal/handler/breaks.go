package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// TakeBreak handles POST /v1/games/:code/break.  A playing player sits
// out; mid-hand the break is deferred to the end of the hand.  The
// response carries the break deadline when the break started immediately.
func (h *TableHandler) TakeBreak(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    res, err := h.Manager.TakeBreak(c.Request().Context(), game, player)
    if err != nil {
        return writeError(c, err)
    }
    resp := echo.Map{"deferred": res.Deferred}
    if res.ExpiresAt != nil {
        resp["expires_at"] = res.ExpiresAt.UTC()
    }
    return c.JSON(http.StatusOK, resp)
}

// SitBack handles POST /v1/games/:code/sitback.  A player on break
// returns to play before the break expires.  The request body may carry a
// fresh GPS fix; sitting back re-runs the proximity guard.
func (h *TableHandler) SitBack(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    var body struct {
        Location *model.Location `json:"location"`
    }
    _ = c.Bind(&body)

    player, ok := h.player(c)
    if !ok {
        return nil
    }
    ctx := c.Request().Context()
    h.recordLocation(ctx, c, player.UUID, body.Location)
    if err := h.Manager.SitBack(ctx, game, player, c.RealIP(), body.Location); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": string(model.PlayerPlaying)})
}
