package main // Entry point package

import (
    "context" // context bounds startup database work
    "log"     // Logging library
    "time"    // timeouts for startup work

    "github.com/coder/quartz"     // wall clock, swappable in tests
    "github.com/joho/godotenv"    // loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/poker-table-service/internal/config" // Internal config loader
    "github.com/iliyamo/poker-table-service/internal/database"
    "github.com/iliyamo/poker-table-service/internal/directory"
    "github.com/iliyamo/poker-table-service/internal/handler"
    "github.com/iliyamo/poker-table-service/internal/notify"
    "github.com/iliyamo/poker-table-service/internal/queue"
    "github.com/iliyamo/poker-table-service/internal/repository"
    "github.com/iliyamo/poker-table-service/internal/router" // Internal router setup
    "github.com/iliyamo/poker-table-service/internal/table"
    "github.com/iliyamo/poker-table-service/internal/timer"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer func() { _ = db.Close() }()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    if err := database.EnsureSchema(ctx, db); err != nil {
        cancel()
        log.Fatalf("ensure schema: %v", err)
    }
    cancel()

    // A nil Redis client degrades cache and rate limiting to pass-through.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; directory cache and rate limiting disabled")
    }

    cacheCfg := config.LoadDirectoryCacheConfig()
    ttl := cacheCfg.TTL
    if !cacheCfg.Enabled {
        ttl = 0
    }
    dir := directory.New(db, rdb, ttl)

    store := repository.NewStore(db)
    clock := quartz.NewReal()
    timers := timer.NewRegistry(clock)
    bus := notify.NewBus()

    manager := table.NewManager(store, dir, timers, bus, clock)
    // Timer fires route back into the coordinator once it exists.
    timers.OnFire(manager.HandleTimerFired)

    // Background consumer mirrors every table event into logs/table.log.
    go func() {
        if err := queue.StartTableEventConsumer(); err != nil {
            log.Printf("table event consumer stopped: %v", err)
        }
    }()

    e := echo.New() // Create Echo instance
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    router.RegisterRoutes(e) // Register application routes
    router.RegisterTable(e, handler.NewTableHandler(manager, dir), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
