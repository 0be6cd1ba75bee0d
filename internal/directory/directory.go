// Package directory is the read-optimised cache in front of the
// transactional store.  It serves Game, GameSettings, Player and
// ClubMember snapshots from Redis and falls back to MySQL on a miss,
// writing the row back with a TTL.  The cache may be stale within its
// TTL, so it backs fast reads only; every correctness-critical decision
// re-reads the store inside the transaction.
package directory

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/poker-table-service/internal/model"
    "github.com/iliyamo/poker-table-service/internal/table"
)

// Directory resolves entity snapshots by key.  A nil Redis client
// degrades gracefully to direct database reads.
type Directory struct {
    db  *sql.DB
    rdb *redis.Client
    ttl time.Duration
}

// New returns a Directory bound to the given database and (optional)
// Redis client.  A non-positive TTL disables caching entirely.
func New(db *sql.DB, rdb *redis.Client, ttl time.Duration) *Directory {
    return &Directory{db: db, rdb: rdb, ttl: ttl}
}

// GetGame returns the game snapshot for a public game code.
func (d *Directory) GetGame(ctx context.Context, gameCode string) (*model.Game, error) {
    key := "game:" + gameCode
    var g model.Game
    if d.cacheGet(ctx, key, &g) {
        return &g, nil
    }
    const q = `SELECT id, game_code, club_code, host_uuid, status, table_status,
                      max_players, waitlist_counter, waiting_list_count, seating_in_progress
               FROM games WHERE game_code = ?`
    var clubCode sql.NullString
    var status, tableStatus string
    err := d.db.QueryRowContext(ctx, q, gameCode).Scan(
        &g.ID, &g.GameCode, &clubCode, &g.HostUUID, &status, &tableStatus,
        &g.MaxPlayers, &g.WaitlistCounter, &g.WaitingListCount, &g.SeatingInProgress,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrGameNotFound
    }
    if err != nil {
        return nil, err
    }
    if clubCode.Valid {
        g.ClubCode = clubCode.String
    }
    g.Status = model.GameStatus(status)
    g.TableStatus = model.TableStatus(tableStatus)
    d.cacheSet(ctx, key, &g)
    return &g, nil
}

// GetGameSettings returns the configuration snapshot for a game.
func (d *Directory) GetGameSettings(ctx context.Context, gameCode string) (*model.GameSettings, error) {
    key := "gamesettings:" + gameCode
    var s model.GameSettings
    if d.cacheGet(ctx, key, &s) {
        return &s, nil
    }
    const q = `SELECT game_code, buyin_min, buyin_max, buyin_approval, buyin_timeout,
                      break_length, ip_check, gps_check, gps_allowed_distance,
                      ip_gps_check_interval, waitlist_sitting_timeout
               FROM game_settings WHERE game_code = ?`
    err := d.db.QueryRowContext(ctx, q, gameCode).Scan(
        &s.GameCode, &s.BuyInMin, &s.BuyInMax, &s.BuyInApproval, &s.BuyInTimeout,
        &s.BreakLength, &s.IPCheck, &s.GPSCheck, &s.GPSAllowedDistance,
        &s.IPGPSCheckInterval, &s.WaitlistSittingTimeout,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrGameNotFound
    }
    if err != nil {
        return nil, err
    }
    d.cacheSet(ctx, key, &s)
    return &s, nil
}

// GetPlayer returns the player snapshot for a UUID.
func (d *Directory) GetPlayer(ctx context.Context, playerUUID string) (*model.Player, error) {
    key := "player:" + playerUUID
    var p model.Player
    if d.cacheGet(ctx, key, &p) {
        return &p, nil
    }
    const q = `SELECT id, uuid, name, ip_address, location_lat, location_long, location_updated_at
               FROM players WHERE uuid = ?`
    var ip sql.NullString
    var lat, long sql.NullFloat64
    var locUpdated sql.NullTime
    err := d.db.QueryRowContext(ctx, q, playerUUID).Scan(
        &p.ID, &p.UUID, &p.Name, &ip, &lat, &long, &locUpdated,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrPlayerNotFound
    }
    if err != nil {
        return nil, err
    }
    if ip.Valid {
        p.IPAddress = ip.String
    }
    if lat.Valid && long.Valid {
        p.Location = &model.Location{Lat: lat.Float64, Long: long.Float64}
    }
    if locUpdated.Valid {
        ts := locUpdated.Time.UTC()
        p.LocationUpdatedAt = &ts
    }
    d.cacheSet(ctx, key, &p)
    return &p, nil
}

// GetClubMember returns the membership snapshot for display purposes.
// The buy-in workflow re-reads the row inside its transaction instead of
// trusting this snapshot.
func (d *Directory) GetClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error) {
    key := fmt.Sprintf("clubmember:%s:%s", clubCode, playerUUID)
    var m model.ClubMember
    if d.cacheGet(ctx, key, &m) {
        return &m, nil
    }
    const q = `SELECT club_code, player_uuid, credit_limit, is_owner, is_manager, auto_buyin_approval
               FROM club_members WHERE club_code = ? AND player_uuid = ?`
    err := d.db.QueryRowContext(ctx, q, clubCode, playerUUID).Scan(
        &m.ClubCode, &m.PlayerUUID, &m.CreditLimit,
        &m.IsOwner, &m.IsManager, &m.AutoBuyinApproval,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, table.ErrClubMemberNotFound
    }
    if err != nil {
        return nil, err
    }
    d.cacheSet(ctx, key, &m)
    return &m, nil
}

// UpdatePlayerLocation writes a player's reported IP/GPS data through to
// the store and refreshes the cached snapshot.
func (d *Directory) UpdatePlayerLocation(ctx context.Context, playerUUID, ip string, loc *model.Location, now time.Time) error {
    const q = `UPDATE players
               SET ip_address = ?, location_lat = ?, location_long = ?, location_updated_at = ?
               WHERE uuid = ?`
    var lat, long interface{}
    if loc != nil {
        lat, long = loc.Lat, loc.Long
    }
    res, err := d.db.ExecContext(ctx, q, ip, lat, long, now.UTC(), playerUUID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return table.ErrPlayerNotFound
    }
    d.Invalidate(ctx, "player:"+playerUUID)
    return nil
}

// InvalidateGame drops the cached game and settings snapshots after a
// write to the transactional store.
func (d *Directory) InvalidateGame(ctx context.Context, gameCode string) {
    d.Invalidate(ctx, "game:"+gameCode, "gamesettings:"+gameCode)
}

// Invalidate removes cache keys.  Failures are logged only; the store
// remains the source of truth regardless.
func (d *Directory) Invalidate(ctx context.Context, keys ...string) {
    if d.rdb == nil || len(keys) == 0 {
        return
    }
    if err := d.rdb.Del(ctx, keys...).Err(); err != nil {
        log.Printf("directory: invalidate %v failed: %v", keys, err)
    }
}

// cacheGet loads a JSON snapshot into dst and reports a hit.
func (d *Directory) cacheGet(ctx context.Context, key string, dst interface{}) bool {
    if d.rdb == nil || d.ttl <= 0 {
        return false
    }
    raw, err := d.rdb.Get(ctx, key).Bytes()
    if err != nil {
        if !errors.Is(err, redis.Nil) {
            log.Printf("directory: get %s failed: %v", key, err)
        }
        return false
    }
    if err := json.Unmarshal(raw, dst); err != nil {
        log.Printf("directory: decode %s failed: %v", key, err)
        return false
    }
    return true
}

// cacheSet stores a JSON snapshot with the directory TTL.
func (d *Directory) cacheSet(ctx context.Context, key string, src interface{}) {
    if d.rdb == nil || d.ttl <= 0 {
        return
    }
    raw, err := json.Marshal(src)
    if err != nil {
        return
    }
    if err := d.rdb.Set(ctx, key, raw, d.ttl).Err(); err != nil {
        log.Printf("directory: set %s failed: %v", key, err)
    }
}
