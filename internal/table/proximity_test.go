package table

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/poker-table-service/internal/model"
)

func proximitySettings() *model.GameSettings {
    return &model.GameSettings{
        IPCheck:            true,
        GPSCheck:           true,
        GPSAllowedDistance: 50,
        IPGPSCheckInterval: 300,
    }
}

func seated(id uint64, name string, seatNo uint32, ip string, loc *model.Location, at time.Time) SeatedPlayer {
    satAt := at
    updated := at
    return SeatedPlayer{
        PlayerID:          id,
        PlayerName:        name,
        SeatNo:            seatNo,
        SatAt:             &satAt,
        IPAddress:         ip,
        Location:          loc,
        LocationUpdatedAt: &updated,
    }
}

func TestGpsDistance(t *testing.T) {
    // Around one degree of latitude is ~111km.
    a := model.Location{Lat: 52.0, Long: 13.0}
    b := model.Location{Lat: 53.0, Long: 13.0}
    d := gpsDistance(a, b)
    assert.InDelta(t, 111000, d, 500)

    // Identical coordinates are zero meters apart.
    assert.Zero(t, gpsDistance(a, a))
}

func TestCheckProximityForPlayerIPMatch(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    seats := []SeatedPlayer{
        seated(1, "ann", 1, "203.0.113.9", nil, now.Add(-time.Minute)),
    }

    err := CheckProximityForPlayer(proximitySettings(), now, 2, "203.0.113.9", nil, &now, seats)
    var prox *ProximityError
    require.ErrorAs(t, err, &prox)
    assert.Equal(t, "ip", prox.Reason)
    assert.Equal(t, uint64(1), prox.OtherPlayerID)

    // A different IP passes.
    require.NoError(t, CheckProximityForPlayer(proximitySettings(), now, 2, "198.51.100.7", nil, &now, seats))
}

func TestCheckProximityForPlayerGpsMatch(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    base := model.Location{Lat: 52.5200, Long: 13.4050}
    nearby := model.Location{Lat: 52.52001, Long: 13.40501} // a couple of meters away
    farAway := model.Location{Lat: 52.6, Long: 13.4}

    seats := []SeatedPlayer{
        seated(1, "ann", 1, "", &base, now.Add(-time.Minute)),
    }

    err := CheckProximityForPlayer(proximitySettings(), now, 2, "", &nearby, &now, seats)
    var prox *ProximityError
    require.ErrorAs(t, err, &prox)
    assert.Equal(t, "gps", prox.Reason)

    require.NoError(t, CheckProximityForPlayer(proximitySettings(), now, 2, "", &farAway, &now, seats))
}

func TestCheckProximityIgnoresStaleData(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    // The seated player's fix is older than the check interval.
    seats := []SeatedPlayer{
        seated(1, "ann", 1, "203.0.113.9", nil, now.Add(-10*time.Minute)),
    }
    require.NoError(t, CheckProximityForPlayer(proximitySettings(), now, 2, "203.0.113.9", nil, &now, seats))

    // So is a stale candidate fix against fresh seated data.
    seats = []SeatedPlayer{
        seated(1, "ann", 1, "203.0.113.9", nil, now.Add(-time.Minute)),
    }
    stale := now.Add(-10 * time.Minute)
    require.NoError(t, CheckProximityForPlayer(proximitySettings(), now, 2, "203.0.113.9", nil, &stale, seats))
}

func TestCheckProximityDisabledChecks(t *testing.T) {
    now := time.Now().UTC()
    seats := []SeatedPlayer{
        seated(1, "ann", 1, "203.0.113.9", nil, now),
    }
    settings := proximitySettings()
    settings.IPCheck = false
    settings.GPSCheck = false
    require.NoError(t, CheckProximityForPlayer(settings, now, 2, "203.0.113.9", nil, &now, seats))
    require.NoError(t, CheckProximityForPlayer(nil, now, 2, "203.0.113.9", nil, &now, seats))
}

func TestCheckProximitySkipsSelf(t *testing.T) {
    now := time.Now().UTC()
    seats := []SeatedPlayer{
        seated(7, "ann", 1, "203.0.113.9", nil, now),
    }
    require.NoError(t, CheckProximityForPlayer(proximitySettings(), now, 7, "203.0.113.9", nil, &now, seats))
}

func TestProximitySweepKeepsLongestSeated(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    oldest := seated(1, "ann", 3, "203.0.113.9", nil, now.Add(-time.Minute))
    annSat := now.Add(-time.Hour)
    oldest.SatAt = &annSat
    newer := seated(2, "ben", 1, "203.0.113.9", nil, now.Add(-time.Minute))
    unrelated := seated(3, "cara", 2, "198.51.100.7", nil, now.Add(-time.Minute))

    remove := ProximitySweep(proximitySettings(), now, []SeatedPlayer{newer, oldest, unrelated})
    require.Len(t, remove, 1)
    assert.Equal(t, uint64(2), remove[0].PlayerID)
}

func TestProximitySweepTieBreaksOnSeatNumber(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    at := now.Add(-time.Hour)

    a := seated(1, "ann", 5, "203.0.113.9", nil, now.Add(-time.Minute))
    b := seated(2, "ben", 2, "203.0.113.9", nil, now.Add(-time.Minute))
    a.SatAt = &at
    b.SatAt = &at

    // Same SatAt: the lower seat number stays.
    remove := ProximitySweep(proximitySettings(), now, []SeatedPlayer{a, b})
    require.Len(t, remove, 1)
    assert.Equal(t, uint64(1), remove[0].PlayerID)
}

func TestProximitySweepClusters(t *testing.T) {
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    // Two separate clusters: seats 1-2 share an IP, seats 3-4 sit together.
    loc := model.Location{Lat: 52.5200, Long: 13.4050}
    locNear := model.Location{Lat: 52.52001, Long: 13.40501}

    seats := []SeatedPlayer{
        seated(1, "ann", 1, "203.0.113.9", nil, now.Add(-time.Minute)),
        seated(2, "ben", 2, "203.0.113.9", nil, now.Add(-time.Minute)),
        seated(3, "cara", 3, "198.51.100.7", &loc, now.Add(-time.Minute)),
        seated(4, "dan", 4, "192.0.2.44", &locNear, now.Add(-time.Minute)),
    }
    // Seat times decide who stays; location freshness stays inside the
    // check window for everyone.
    annSat := now.Add(-2 * time.Hour)
    benSat := now.Add(-time.Hour)
    caraSat := now.Add(-3 * time.Hour)
    danSat := now.Add(-time.Minute)
    seats[0].SatAt = &annSat
    seats[1].SatAt = &benSat
    seats[2].SatAt = &caraSat
    seats[3].SatAt = &danSat

    remove := ProximitySweep(proximitySettings(), now, seats)
    require.Len(t, remove, 2)
    // Seat-number order in the result.
    assert.Equal(t, uint64(2), remove[0].PlayerID)
    assert.Equal(t, uint64(4), remove[1].PlayerID)
}

func TestRunProximitySweepForcesBreaks(t *testing.T) {
    settings := testSettings()
    settings.IPCheck = true
    f := newFixture(t, testGame(), settings)
    ctx := context.Background()
    now := f.clock.Now().UTC()

    ann := f.addPlayer(1, "ann")
    ben := f.addPlayer(2, "ben")
    f.seatPlayerDirect(ann, 1, model.PlayerPlaying, 500)
    f.seatPlayerDirect(ben, 2, model.PlayerPlaying, 500)
    f.store.meta[ann.ID] = playerMeta{ip: "203.0.113.9", updatedAt: &now}
    f.store.meta[ben.ID] = playerMeta{ip: "203.0.113.9", updatedAt: &now}

    // Make ann the longer-seated of the pair.
    earlier := now.Add(-time.Hour)
    f.store.records[ann.ID].SatAt = &earlier

    require.NoError(t, f.mgr.RunProximitySweep(ctx, f.game))

    assert.Equal(t, model.PlayerPlaying, f.store.seatRecord(ann.ID).Status)
    assert.Equal(t, model.PlayerInBreak, f.store.seatRecord(ben.ID).Status)

    // The sweep reschedules itself at the check interval.
    call, ok := f.sched.lastScheduled(model.TimerIPGPSCheck)
    require.True(t, ok)
    assert.Equal(t, now.Add(300*time.Second), call.deadline)
}

func TestRunProximitySweepSurvivesFailedRemoval(t *testing.T) {
    settings := testSettings()
    settings.IPCheck = true
    f := newFixture(t, testGame(), settings)
    ctx := context.Background()
    now := f.clock.Now().UTC()

    ann := f.addPlayer(1, "ann")
    ben := f.addPlayer(2, "ben")
    cara := f.addPlayer(3, "cara")
    dan := f.addPlayer(4, "dan")
    f.seatPlayerDirect(ann, 1, model.PlayerPlaying, 500)
    f.seatPlayerDirect(ben, 2, model.PlayerPlaying, 500)
    f.seatPlayerDirect(cara, 3, model.PlayerPlaying, 500)
    f.seatPlayerDirect(dan, 4, model.PlayerPlaying, 500)
    f.store.meta[ann.ID] = playerMeta{ip: "203.0.113.9", updatedAt: &now}
    f.store.meta[ben.ID] = playerMeta{ip: "203.0.113.9", updatedAt: &now}
    f.store.meta[cara.ID] = playerMeta{ip: "198.51.100.7", updatedAt: &now}
    f.store.meta[dan.ID] = playerMeta{ip: "198.51.100.7", updatedAt: &now}

    earlier := now.Add(-time.Hour)
    f.store.records[ann.ID].SatAt = &earlier
    f.store.records[cara.ID].SatAt = &earlier

    // Removing ben fails; the sweep must still remove dan and reschedule.
    f.store.failSeatRecord[ben.ID] = assert.AnError

    require.NoError(t, f.mgr.RunProximitySweep(ctx, f.game))

    assert.Equal(t, model.PlayerPlaying, f.store.seatRecord(ann.ID).Status)
    assert.Equal(t, model.PlayerPlaying, f.store.seatRecord(cara.ID).Status)
    assert.Equal(t, model.PlayerInBreak, f.store.seatRecord(dan.ID).Status)

    call, ok := f.sched.lastScheduled(model.TimerIPGPSCheck)
    require.True(t, ok)
    assert.Equal(t, now.Add(300*time.Second), call.deadline)
}
