package table

import (
    "context"
    "log"
    "math"
    "sort"
    "time"

    "github.com/iliyamo/poker-table-service/internal/model"
)

// The proximity guard flags likely collusion between seated players.  Two
// independent checks exist, each optional per game settings: equal IP
// addresses and GPS positions within gps_allowed_distance meters.  Both
// checks only consider players whose location data was refreshed within
// ip_gps_check_interval seconds of now; stale data is ignored rather than
// trusted.

const earthRadiusMeters = 6371000.0

// gpsDistance returns the great-circle distance between two coordinates in
// meters using the haversine formula.
func gpsDistance(a, b model.Location) float64 {
    lat1 := a.Lat * math.Pi / 180
    lat2 := b.Lat * math.Pi / 180
    dLat := (b.Lat - a.Lat) * math.Pi / 180
    dLong := (b.Long - a.Long) * math.Pi / 180
    h := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLong/2)*math.Sin(dLong/2)
    return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// fresh reports whether a location update is recent enough to be used for
// proximity decisions.
func fresh(updatedAt *time.Time, now time.Time, intervalSecs uint32) bool {
    if updatedAt == nil {
        return false
    }
    return now.Sub(*updatedAt) <= time.Duration(intervalSecs)*time.Second
}

// violates reports whether the candidate data conflicts with one seated
// player, and which check failed ("ip" or "gps").
func violates(settings *model.GameSettings, now time.Time,
    ip string, loc *model.Location, updatedAt *time.Time,
    other *SeatedPlayer) (string, bool) {

    if settings.IPCheck && ip != "" && other.IPAddress != "" &&
        fresh(updatedAt, now, settings.IPGPSCheckInterval) &&
        fresh(other.LocationUpdatedAt, now, settings.IPGPSCheckInterval) &&
        ip == other.IPAddress {
        return "ip", true
    }
    if settings.GPSCheck && loc != nil && other.Location != nil &&
        fresh(updatedAt, now, settings.IPGPSCheckInterval) &&
        fresh(other.LocationUpdatedAt, now, settings.IPGPSCheckInterval) &&
        gpsDistance(*loc, *other.Location) <= settings.GPSAllowedDistance {
        return "gps", true
    }
    return "", false
}

// CheckProximityForPlayer gates a join, sit-back or reload: it compares
// the candidate player's IP/GPS data against every currently seated player
// and returns a ProximityError on the first violation.  The candidate's
// own seat record, if present among seats, is skipped.
func CheckProximityForPlayer(settings *model.GameSettings, now time.Time,
    playerID uint64, ip string, loc *model.Location, updatedAt *time.Time,
    seats []SeatedPlayer) error {

    if settings == nil || (!settings.IPCheck && !settings.GPSCheck) {
        return nil
    }
    for i := range seats {
        other := &seats[i]
        if other.PlayerID == playerID {
            continue
        }
        if reason, bad := violates(settings, now, ip, loc, updatedAt, other); bad {
            return &ProximityError{
                Reason:        reason,
                PlayerID:      playerID,
                OtherPlayerID: other.PlayerID,
                OtherName:     other.PlayerName,
            }
        }
    }
    return nil
}

// ProximitySweep is the batch variant used by the periodic check.  It
// groups seated players into violating clusters (connected components of
// pairwise IP/GPS conflicts), keeps the longest-seated member of each
// cluster and returns everyone else for forced removal.  Earliest SatAt
// wins; when two members sat at the same instant the lower seat number is
// kept.  The returned slice preserves seat-number order.
func ProximitySweep(settings *model.GameSettings, now time.Time, seats []SeatedPlayer) []SeatedPlayer {
    if settings == nil || (!settings.IPCheck && !settings.GPSCheck) || len(seats) < 2 {
        return nil
    }

    // Union-find over seat indexes.
    parent := make([]int, len(seats))
    for i := range parent {
        parent[i] = i
    }
    var find func(int) int
    find = func(i int) int {
        if parent[i] != i {
            parent[i] = find(parent[i])
        }
        return parent[i]
    }
    union := func(a, b int) { parent[find(a)] = find(b) }

    for i := 0; i < len(seats); i++ {
        for j := i + 1; j < len(seats); j++ {
            a, b := &seats[i], &seats[j]
            if _, bad := violates(settings, now, a.IPAddress, a.Location, a.LocationUpdatedAt, b); bad {
                union(i, j)
            }
        }
    }

    clusters := make(map[int][]int)
    for i := range seats {
        root := find(i)
        clusters[root] = append(clusters[root], i)
    }

    var remove []SeatedPlayer
    for _, members := range clusters {
        if len(members) < 2 {
            continue
        }
        keep := members[0]
        for _, m := range members[1:] {
            if seatedEarlier(&seats[m], &seats[keep]) {
                keep = m
            }
        }
        for _, m := range members {
            if m != keep {
                remove = append(remove, seats[m])
            }
        }
    }
    sort.Slice(remove, func(i, j int) bool { return remove[i].SeatNo < remove[j].SeatNo })
    return remove
}

// seatedEarlier orders two seated players by SatAt ascending with seat
// number as the tie-break.  A nil SatAt sorts last.
func seatedEarlier(a, b *SeatedPlayer) bool {
    switch {
    case a.SatAt == nil && b.SatAt == nil:
        return a.SeatNo < b.SeatNo
    case a.SatAt == nil:
        return false
    case b.SatAt == nil:
        return true
    case a.SatAt.Equal(*b.SatAt):
        return a.SeatNo < b.SeatNo
    default:
        return a.SatAt.Before(*b.SatAt)
    }
}

// RunProximitySweep loads the seated players, computes the violating
// cluster members and forces each onto a break (deferred to the next hand
// boundary when a hand is running).  When either check is enabled the
// sweep reschedules itself at the game's check interval.
func (m *Manager) RunProximitySweep(ctx context.Context, game *model.Game) error {
    settings, err := m.dir.GetGameSettings(ctx, game.GameCode)
    if err != nil {
        return err
    }
    if !settings.IPCheck && !settings.GPSCheck {
        return nil
    }

    now := m.clock.Now().UTC()
    var flagged []SeatedPlayer
    err = m.store.RunInTx(ctx, func(tx Tx) error {
        seats, err := tx.SeatedPlayers(ctx, game.ID)
        if err != nil {
            return err
        }
        flagged = ProximitySweep(settings, now, seats)
        return nil
    })
    if err != nil {
        return err
    }

    for _, p := range flagged {
        if err := m.forceBreak(ctx, game, settings, p.PlayerID); err != nil {
            // Keep sweeping the remaining violators; the next sweep
            // retries anyone left behind.
            log.Printf("proximity: forcing break for game %d player %d failed: %v", game.ID, p.PlayerID, err)
            continue
        }
    }

    interval := time.Duration(settings.IPGPSCheckInterval) * time.Second
    if interval > 0 {
        m.timers.Schedule(game.ID, 0, model.TimerIPGPSCheck, now.Add(interval))
    }
    return nil
}
