package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/poker-table-service/internal/config"
    "github.com/iliyamo/poker-table-service/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/poker-table-service/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring poll this to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterTable registers every table route under /v1/games/:code.  All of
// them require a valid access token; the per-player token bucket runs
// after authentication so limits key on the player's UUID.
//
// Player routes act on the caller's own seat record.  Host routes
// (waitlist reorder, reload decisions, end/pause, hand-ended) verify that
// the caller hosts the game.
func RegisterTable(e *echo.Echo, t *handler.TableHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/v1/games/:code")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.NewTokenBucket(rl, rdb))

    // Waiting list.
    g.GET("/waitlist", t.WaitingList)
    g.POST("/waitlist", t.JoinWaitlist)
    g.DELETE("/waitlist", t.LeaveWaitlist)
    g.POST("/waitlist/decline", t.DeclineSeatOffer)
    g.PUT("/waitlist/order", t.ReorderWaitlist)

    // Seats.
    g.POST("/seats/:no", t.SitDown)
    g.POST("/leave", t.Leave)

    // Chips.
    g.POST("/reload", t.RequestReload)
    g.POST("/reload/:player_id/decision", t.DecideReload)

    // Breaks.
    g.POST("/break", t.TakeBreak)
    g.POST("/sitback", t.SitBack)

    // Game lifecycle.
    g.POST("/end", t.EndGame)
    g.POST("/pause", t.PauseGame)
    g.POST("/hand-ended", t.HandEnded)
}
