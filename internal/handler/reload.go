package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// RequestReload handles POST /v1/games/:code/reload.  The body must carry
// a positive chip amount.  The response reports whether the reload was
// credit-approved, clamped to the buy-in cap, applied now or deferred to
// the end of the running hand, or parked awaiting a host decision.
func (h *TableHandler) RequestReload(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    var body struct {
        Amount int64 `json:"amount"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Amount <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
    }
    res, err := h.Manager.RequestReload(c.Request().Context(), game, player, body.Amount)
    if err != nil {
        return writeError(c, err)
    }
    resp := echo.Map{
        "approved": res.Approved,
        "amount":   res.AppliedAmount,
        "clamped":  res.Clamped,
        "deferred": res.Deferred,
    }
    if !res.Approved {
        resp["expire_seconds"] = res.ExpireSeconds
    }
    return c.JSON(http.StatusOK, resp)
}

// DecideReload handles POST /v1/games/:code/reload/:player_id/decision.
// Only the host may approve or deny a pending reload.  The body's
// "approved" flag carries the decision.
func (h *TableHandler) DecideReload(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    if !requireHost(c, game) {
        return nil
    }
    playerID, err := strconv.ParseUint(c.Param("player_id"), 10, 64)
    if err != nil || playerID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid player id"})
    }
    var body struct {
        Approved bool `json:"approved"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    status := model.ApprovalDenied
    if body.Approved {
        status = model.ApprovalApproved
    }
    if err := h.Manager.ApproveDenyReload(c.Request().Context(), game, playerID, status); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"decision": string(status)})
}
