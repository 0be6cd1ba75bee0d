package middleware

// identity.go defines helper functions shared across middleware files.
// They read the identity claims that JWTAuth stored in the Echo context.

import "github.com/labstack/echo/v4"

// playerUUID extracts the authenticated player's UUID from context.  It
// returns "anon" when no player is authenticated, so rate-limit keys and
// logs still group unauthenticated traffic sensibly.
func playerUUID(c echo.Context) string {
    if v, ok := c.Get("player_uuid").(string); ok && v != "" {
        return v
    }
    return "anon"
}
