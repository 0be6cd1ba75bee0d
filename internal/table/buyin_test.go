package table

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/poker-table-service/internal/model"
)

func TestRequestReloadRejectsNonClubGame(t *testing.T) {
    game := testGame()
    game.ClubCode = ""
    f := newFixture(t, game, testSettings())
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 500)

    _, err := f.mgr.RequestReload(context.Background(), f.game, alice, 100)
    var inv *InvalidStateError
    require.ErrorAs(t, err, &inv)
}

func TestRequestReloadValidatesWindow(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerWaitForBuyin, 0)
    f.member(alice, model.ClubMember{AutoBuyinApproval: true})

    // Below the table minimum.
    _, err := f.mgr.RequestReload(ctx, f.game, alice, 50)
    var inv *InvalidStateError
    require.ErrorAs(t, err, &inv)

    // Non-positive amounts never reach the store.
    _, err = f.mgr.RequestReload(ctx, f.game, alice, 0)
    require.ErrorAs(t, err, &inv)
}

func TestRequestReloadClampsToCap(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 800)
    f.member(alice, model.ClubMember{AutoBuyinApproval: true})

    res, err := f.mgr.RequestReload(context.Background(), f.game, alice, 500)
    require.NoError(t, err)
    assert.True(t, res.Approved)
    assert.True(t, res.Clamped)
    assert.Equal(t, int64(200), res.AppliedAmount)

    rec := f.store.seatRecord(alice.ID)
    assert.Equal(t, int64(1000), rec.Stack)
    assert.Equal(t, int64(1000), rec.BuyIn)
    assert.Equal(t, uint32(1), rec.NoOfBuyins)
}

func TestRequestReloadCreditRule(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 100})
    f.store.outstanding[alice.UUID] = 80 // buy-ins over earlier club games

    // 100 credit minus 80 outstanding leaves 20: a 130 request waits for
    // the host instead of being applied.
    res, err := f.mgr.RequestReload(ctx, f.game, alice, 130)
    require.NoError(t, err)
    assert.False(t, res.Approved)
    assert.Equal(t, uint32(60), res.ExpireSeconds)
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)
    assert.Equal(t, 1, f.store.pendingCount())

    call, ok := f.sched.lastScheduled(model.TimerBuyinApproval)
    require.True(t, ok)
    assert.Equal(t, alice.ID, call.playerID)
    assert.Len(t, f.notify.byKind("reload_pending"), 1)
}

func TestRequestReloadWithinCreditIsApplied(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 100})
    f.store.outstanding[alice.UUID] = 80

    res, err := f.mgr.RequestReload(context.Background(), f.game, alice, 20)
    require.NoError(t, err)
    assert.True(t, res.Approved)
    assert.Equal(t, int64(20), res.AppliedAmount)
    assert.Equal(t, int64(220), f.store.seatRecord(alice.ID).Stack)
}

func TestRequestReloadUnlimitedCreditAndHostBypass(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()

    bob := f.addPlayer(11, "bob")
    f.seatPlayerDirect(bob, 1, model.PlayerPlaying, 200)
    f.member(bob, model.ClubMember{CreditLimit: -1})
    res, err := f.mgr.RequestReload(ctx, f.game, bob, 300)
    require.NoError(t, err)
    assert.True(t, res.Approved)

    host := &model.Player{ID: 12, UUID: f.game.HostUUID, Name: "host"}
    f.dir.players[host.UUID] = host
    f.seatPlayerDirect(host, 2, model.PlayerPlaying, 200)
    f.member(host, model.ClubMember{CreditLimit: 0})
    res, err = f.mgr.RequestReload(ctx, f.game, host, 300)
    require.NoError(t, err)
    assert.True(t, res.Approved)
}

func TestRequestReloadDeferredWhileHandRuns(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.member(alice, model.ClubMember{AutoBuyinApproval: true})
    f.setTableStatus(model.TableGameRunning)

    res, err := f.mgr.RequestReload(context.Background(), f.game, alice, 100)
    require.NoError(t, err)
    assert.True(t, res.Approved)
    assert.True(t, res.Deferred)
    assert.Zero(t, res.AppliedAmount)
    // The stack does not move until the hand boundary.
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)
    assert.Equal(t, 1, f.store.pendingCount())
}

func TestApproveReloadAppliesParkedAmount(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 0})

    _, err := f.mgr.RequestReload(ctx, f.game, alice, 150)
    require.NoError(t, err)
    require.Equal(t, 1, f.store.pendingCount())

    require.NoError(t, f.mgr.ApproveDenyReload(ctx, f.game, alice.ID, model.ApprovalApproved))
    rec := f.store.seatRecord(alice.ID)
    assert.Equal(t, int64(350), rec.Stack)
    assert.Zero(t, f.store.pendingCount())
    assert.Len(t, f.notify.byKind("reload_approved"), 1)
    assert.NotEmpty(t, f.sched.cancelled)
}

func TestDenyReloadLeavesStackUntouched(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 0})

    _, err := f.mgr.RequestReload(ctx, f.game, alice, 150)
    require.NoError(t, err)

    require.NoError(t, f.mgr.ApproveDenyReload(ctx, f.game, alice.ID, model.ApprovalDenied))
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)
    assert.Zero(t, f.store.pendingCount())
    assert.Len(t, f.notify.byKind("reload_denied"), 1)

    // Resolving twice finds nothing.
    err = f.mgr.ApproveDenyReload(ctx, f.game, alice.ID, model.ApprovalApproved)
    var inv *InvalidStateError
    require.ErrorAs(t, err, &inv)
}

func TestApproveReloadMidHandDefers(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 0})

    _, err := f.mgr.RequestReload(ctx, f.game, alice, 150)
    require.NoError(t, err)

    f.setTableStatus(model.TableGameRunning)
    require.NoError(t, f.mgr.ApproveDenyReload(ctx, f.game, alice.ID, model.ApprovalApproved))
    // The WAIT entry became a RELOAD_APPROVED entry; the stack waits.
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)
    require.Equal(t, 1, f.store.pendingCount())
    assert.Equal(t, model.UpdateReloadApproved, f.store.pending[0].Kind)
}

func TestReloadApprovalTimeout(t *testing.T) {
    f := newFixture(t, testGame(), testSettings())
    ctx := context.Background()
    alice := f.addPlayer(10, "alice")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.store.records[alice.ID].BuyIn = 0
    f.member(alice, model.ClubMember{CreditLimit: 0})

    _, err := f.mgr.RequestReload(ctx, f.game, alice, 150)
    require.NoError(t, err)

    f.mgr.HandleTimerFired(f.game.ID, alice.ID, model.TimerBuyinApproval)
    assert.Zero(t, f.store.pendingCount())
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)
    assert.Len(t, f.notify.byKind("reload_timeout"), 1)

    // A fire after resolution is a silent no-op.
    f.mgr.HandleTimerFired(f.game.ID, alice.ID, model.TimerBuyinApproval)
    assert.Len(t, f.notify.byKind("reload_timeout"), 1)
}

func TestRequestReloadRunsProximityGuard(t *testing.T) {
    settings := testSettings()
    settings.IPCheck = true
    f := newFixture(t, testGame(), settings)
    ctx := context.Background()
    now := f.clock.Now().UTC()

    alice := f.addPlayer(10, "alice")
    bob := f.addPlayer(11, "bob")
    f.seatPlayerDirect(alice, 1, model.PlayerPlaying, 200)
    f.seatPlayerDirect(bob, 2, model.PlayerPlaying, 500)
    f.member(alice, model.ClubMember{AutoBuyinApproval: true})
    f.store.meta[bob.ID] = playerMeta{ip: "203.0.113.9", updatedAt: &now}

    // Requesting from the same address as another seated player is
    // blocked before any approval logic runs.
    alice.IPAddress = "203.0.113.9"
    alice.LocationUpdatedAt = &now
    _, err := f.mgr.RequestReload(ctx, f.game, alice, 100)
    var prox *ProximityError
    require.ErrorAs(t, err, &prox)
    assert.Equal(t, "ip", prox.Reason)
    assert.Equal(t, int64(200), f.store.seatRecord(alice.ID).Stack)

    // A distinct address reloads normally.
    alice.IPAddress = "198.51.100.7"
    res, err := f.mgr.RequestReload(ctx, f.game, alice, 100)
    require.NoError(t, err)
    assert.True(t, res.Approved)
    assert.Equal(t, int64(300), f.store.seatRecord(alice.ID).Stack)
}
