package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// EndGame handles POST /v1/games/:code/end.  Host only.  Mid-hand the end
// is queued behind the running hand; otherwise the game ends now.  Either
// way the directory snapshot for the game is invalidated.
func (h *TableHandler) EndGame(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    if !requireHost(c, game) {
        return nil
    }
    var body struct {
        Reason string `json:"reason"`
    }
    _ = c.Bind(&body)
    ctx := c.Request().Context()
    if err := h.Manager.EndGame(ctx, game, body.Reason); err != nil {
        return writeError(c, err)
    }
    h.Dir.InvalidateGame(ctx, game.GameCode)
    return c.JSON(http.StatusOK, echo.Map{"accepted": true})
}

// PauseGame handles POST /v1/games/:code/pause.  Host only; same deferral
// rules as EndGame.
func (h *TableHandler) PauseGame(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    if !requireHost(c, game) {
        return nil
    }
    ctx := c.Request().Context()
    if err := h.Manager.PauseGame(ctx, game); err != nil {
        return writeError(c, err)
    }
    h.Dir.InvalidateGame(ctx, game.GameCode)
    return c.JSON(http.StatusOK, echo.Map{"accepted": true})
}

// HandEnded handles POST /v1/games/:code/hand-ended.  The game engine
// calls it at the boundary between two hands; the coordinator drains the
// deferred update queue and re-runs the waitlist for any freed seats.
func (h *TableHandler) HandEnded(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    if !requireHost(c, game) {
        return nil
    }
    ctx := c.Request().Context()
    if err := h.Manager.DrainPendingUpdates(ctx, game); err != nil {
        return writeError(c, err)
    }
    h.Dir.InvalidateGame(ctx, game.GameCode)
    return c.JSON(http.StatusOK, echo.Map{"drained": true})
}
