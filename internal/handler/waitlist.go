package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// JoinWaitlist handles POST /v1/games/:code/waitlist.  It appends the
// authenticated player to the game's waiting list and returns 201 with
// the assigned position.  Players who are already seated or already
// queued receive 409.
func (h *TableHandler) JoinWaitlist(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    ctx := c.Request().Context()
    if err := h.Manager.AddToWaitlist(ctx, game, player); err != nil {
        return writeError(c, err)
    }
    // Kick the engine so an open seat is offered immediately.
    if err := h.Manager.RunWaitlist(ctx, game); err != nil {
        c.Logger().Errorf("waitlist run after join failed: %v", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"status": string(model.PlayerInQueue)})
}

// LeaveWaitlist handles DELETE /v1/games/:code/waitlist.  Only players in
// the plain queued state may withdraw; a player holding a live seat offer
// must decline it instead.
func (h *TableHandler) LeaveWaitlist(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    if err := h.Manager.RemoveFromWaitlist(c.Request().Context(), game, player); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": string(model.PlayerNotPlaying)})
}

// WaitingList handles GET /v1/games/:code/waitlist.  It returns the queue
// in offer order, including any player currently holding a seat offer.
func (h *TableHandler) WaitingList(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    recs, err := h.Manager.WaitingList(c.Request().Context(), game)
    if err != nil {
        return writeError(c, err)
    }
    entries := make([]echo.Map, 0, len(recs))
    for _, r := range recs {
        e := echo.Map{
            "player_id":    r.PlayerID,
            "player_name":  r.PlayerName,
            "status":       string(r.Status),
            "waitlist_num": r.WaitlistNum,
        }
        if r.WaitingFrom != nil {
            e["waiting_from"] = r.WaitingFrom.UTC()
        }
        if r.WaitlistTimeExp != nil {
            e["offer_expires_at"] = r.WaitlistTimeExp.UTC()
        }
        entries = append(entries, e)
    }
    return c.JSON(http.StatusOK, echo.Map{"waiting": entries, "count": len(entries)})
}

// DeclineSeatOffer handles POST /v1/games/:code/waitlist/decline.  The
// holder of the outstanding seat offer gives it up and leaves the queue;
// the engine immediately offers the seat to the next candidate.
func (h *TableHandler) DeclineSeatOffer(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    player, ok := h.player(c)
    if !ok {
        return nil
    }
    if err := h.Manager.DeclineWaitlistSeat(c.Request().Context(), game, player); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": string(model.PlayerNotPlaying)})
}

// ReorderWaitlist handles PUT /v1/games/:code/waitlist/order.  Hosts may
// rearrange the queue; the body must list every queued player's ID exactly
// once in the desired order.
func (h *TableHandler) ReorderWaitlist(c echo.Context) error {
    game, ok := h.game(c)
    if !ok {
        return nil
    }
    if !requireHost(c, game) {
        return nil
    }
    var body struct {
        PlayerIDs []uint64 `json:"player_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.PlayerIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "player_ids is required"})
    }
    if err := h.Manager.ApplyWaitlistOrder(c.Request().Context(), game, body.PlayerIDs); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reordered": len(body.PlayerIDs)})
}
