package table

// memstore_test.go provides the in-memory Store/Tx, Directory, Scheduler
// and Notifier fakes the coordinator tests run against.  The fake store
// holds a single game; RunInTx snapshots the state and restores it when
// fn returns an error, mirroring a rolled-back transaction.

import (
    "context"
    "sort"
    "sync"
    "testing"
    "time"

    "github.com/coder/quartz"

    "github.com/iliyamo/poker-table-service/internal/model"
)

type playerMeta struct {
    ip        string
    loc       *model.Location
    updatedAt *time.Time
}

type memStore struct {
    mu sync.Mutex

    game        model.Game
    records     map[uint64]*model.SeatRecord // keyed by player ID
    meta           map[uint64]playerMeta        // IP/GPS data joined into SeatedPlayers
    pending        []model.DeferredUpdate
    members        map[string]*model.ClubMember // keyed by player UUID
    outstanding    map[string]int64             // past buy-ins per player UUID
    failSeatRecord map[uint64]error             // injected SeatRecord failures

    nextRecID  uint64
    nextPendID uint64
}

func newMemStore(game model.Game) *memStore {
    return &memStore{
        game:           game,
        records:        map[uint64]*model.SeatRecord{},
        meta:           map[uint64]playerMeta{},
        members:        map[string]*model.ClubMember{},
        outstanding:    map[string]int64{},
        failSeatRecord: map[uint64]error{},
    }
}

type memSnapshot struct {
    game       model.Game
    records    map[uint64]*model.SeatRecord
    pending    []model.DeferredUpdate
    nextRecID  uint64
    nextPendID uint64
}

func (s *memStore) snapshot() memSnapshot {
    snap := memSnapshot{
        game:       s.game,
        records:    make(map[uint64]*model.SeatRecord, len(s.records)),
        pending:    append([]model.DeferredUpdate(nil), s.pending...),
        nextRecID:  s.nextRecID,
        nextPendID: s.nextPendID,
    }
    for id, r := range s.records {
        cp := *r
        snap.records[id] = &cp
    }
    return snap
}

func (s *memStore) restore(snap memSnapshot) {
    s.game = snap.game
    s.records = snap.records
    s.pending = snap.pending
    s.nextRecID = snap.nextRecID
    s.nextPendID = snap.nextPendID
}

func (s *memStore) RunInTx(ctx context.Context, fn func(Tx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    snap := s.snapshot()
    if err := fn(&memTx{s: s}); err != nil {
        s.restore(snap)
        return err
    }
    return nil
}

func (s *memStore) PendingUpdates(ctx context.Context, gameID uint64) ([]model.DeferredUpdate, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.DeferredUpdate
    for _, u := range s.pending {
        if u.GameID == gameID && u.Kind != model.UpdateWaitReloadApproval {
            out = append(out, u)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *memStore) GameByID(ctx context.Context, gameID uint64) (*model.Game, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.game.ID != gameID {
        return nil, ErrGameNotFound
    }
    g := s.game
    return &g, nil
}

// seatRecord returns a copy of the stored record for test assertions.
func (s *memStore) seatRecord(playerID uint64) model.SeatRecord {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.records[playerID]
    if !ok {
        return model.SeatRecord{}
    }
    return *r
}

func (s *memStore) pendingCount() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.pending)
}

type memTx struct {
    s *memStore
}

func (t *memTx) SeatRecord(ctx context.Context, gameID, playerID uint64) (*model.SeatRecord, error) {
    if err := t.s.failSeatRecord[playerID]; err != nil {
        return nil, err
    }
    r, ok := t.s.records[playerID]
    if !ok || r.GameID != gameID {
        return nil, ErrSeatRecordNotFound
    }
    cp := *r
    return &cp, nil
}

func (t *memTx) CreateSeatRecord(ctx context.Context, rec *model.SeatRecord) error {
    t.s.nextRecID++
    rec.ID = t.s.nextRecID
    cp := *rec
    t.s.records[rec.PlayerID] = &cp
    return nil
}

func (t *memTx) UpdateSeatRecord(ctx context.Context, rec *model.SeatRecord) error {
    cp := *rec
    t.s.records[rec.PlayerID] = &cp
    return nil
}

func (t *memTx) OccupiedSeatCount(ctx context.Context, gameID uint64) (uint32, error) {
    var n uint32
    for _, r := range t.s.records {
        if r.SeatNo != 0 {
            n++
        }
    }
    return n, nil
}

func (t *memTx) SeatOccupant(ctx context.Context, gameID uint64, seatNo uint32) (*model.SeatRecord, error) {
    for _, r := range t.s.records {
        if r.SeatNo == seatNo {
            cp := *r
            return &cp, nil
        }
    }
    return nil, nil
}

func (t *memTx) QueuedSeatRecords(ctx context.Context, gameID uint64) ([]model.SeatRecord, error) {
    var rows []model.SeatRecord
    for _, r := range t.s.records {
        if r.Status == model.PlayerInQueue || r.Status == model.PlayerWaitlistSeating {
            rows = append(rows, *r)
        }
    }
    sort.Slice(rows, func(i, j int) bool { return rows[i].WaitlistNum < rows[j].WaitlistNum })
    return rows, nil
}

func (t *memTx) SeatedPlayers(ctx context.Context, gameID uint64) ([]SeatedPlayer, error) {
    var out []SeatedPlayer
    for _, r := range t.s.records {
        if r.SeatNo == 0 {
            continue
        }
        m := t.s.meta[r.PlayerID]
        out = append(out, SeatedPlayer{
            PlayerID:          r.PlayerID,
            PlayerName:        r.PlayerName,
            SeatNo:            r.SeatNo,
            SatAt:             r.SatAt,
            IPAddress:         m.ip,
            Location:          m.loc,
            LocationUpdatedAt: m.updatedAt,
        })
    }
    sort.Slice(out, func(i, j int) bool { return out[i].SeatNo < out[j].SeatNo })
    return out, nil
}

func (t *memTx) Game(ctx context.Context, gameID uint64) (*model.Game, error) {
    if t.s.game.ID != gameID {
        return nil, ErrGameNotFound
    }
    g := t.s.game
    return &g, nil
}

func (t *memTx) NextWaitlistNum(ctx context.Context, gameID uint64) (uint32, error) {
    t.s.game.WaitlistCounter++
    return t.s.game.WaitlistCounter, nil
}

func (t *memTx) ResetWaitlistCounter(ctx context.Context, gameID uint64, n uint32) error {
    t.s.game.WaitlistCounter = n
    return nil
}

func (t *memTx) SetWaitlistSeating(ctx context.Context, gameID uint64, inProgress bool, waitingCount uint32) error {
    t.s.game.SeatingInProgress = inProgress
    t.s.game.WaitingListCount = waitingCount
    return nil
}

func (t *memTx) SetGameStatus(ctx context.Context, gameID uint64, status model.GameStatus) error {
    t.s.game.Status = status
    return nil
}

func (t *memTx) EnqueuePending(ctx context.Context, upd *model.DeferredUpdate) (bool, error) {
    if upd.Kind.Idempotent() {
        for _, u := range t.s.pending {
            if u.GameID == upd.GameID && u.PlayerID == upd.PlayerID && u.Kind == upd.Kind {
                return false, nil
            }
        }
    }
    t.s.nextPendID++
    upd.ID = t.s.nextPendID
    t.s.pending = append(t.s.pending, *upd)
    return true, nil
}

func (t *memTx) PendingUpdate(ctx context.Context, gameID, playerID uint64, kind model.UpdateKind) (*model.DeferredUpdate, error) {
    for _, u := range t.s.pending {
        if u.GameID == gameID && u.PlayerID == playerID && u.Kind == kind {
            cp := u
            return &cp, nil
        }
    }
    return nil, nil
}

func (t *memTx) DeletePending(ctx context.Context, id uint64) (bool, error) {
    for i, u := range t.s.pending {
        if u.ID == id {
            t.s.pending = append(t.s.pending[:i], t.s.pending[i+1:]...)
            return true, nil
        }
    }
    return false, nil
}

func (t *memTx) ClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error) {
    m, ok := t.s.members[playerUUID]
    if !ok {
        return nil, ErrClubMemberNotFound
    }
    cp := *m
    return &cp, nil
}

func (t *memTx) OutstandingBuyIn(ctx context.Context, clubCode, playerUUID string, excludeGameID uint64) (int64, error) {
    return t.s.outstanding[playerUUID], nil
}

// memDirectory serves settings and snapshots straight from the fake store.
type memDirectory struct {
    s        *memStore
    settings model.GameSettings
    players  map[string]*model.Player
}

func (d *memDirectory) GetGame(ctx context.Context, gameCode string) (*model.Game, error) {
    g := d.s.game
    return &g, nil
}

func (d *memDirectory) GetGameSettings(ctx context.Context, gameCode string) (*model.GameSettings, error) {
    s := d.settings
    return &s, nil
}

func (d *memDirectory) GetPlayer(ctx context.Context, playerUUID string) (*model.Player, error) {
    p, ok := d.players[playerUUID]
    if !ok {
        return nil, ErrPlayerNotFound
    }
    cp := *p
    return &cp, nil
}

func (d *memDirectory) GetClubMember(ctx context.Context, clubCode, playerUUID string) (*model.ClubMember, error) {
    m, ok := d.s.members[playerUUID]
    if !ok {
        return nil, ErrClubMemberNotFound
    }
    cp := *m
    return &cp, nil
}

type timerCall struct {
    gameID   uint64
    playerID uint64
    purpose  model.TimerPurpose
    deadline time.Time
}

// fakeScheduler records schedule/cancel calls for assertions.
type fakeScheduler struct {
    mu        sync.Mutex
    scheduled []timerCall
    cancelled []timerCall
}

func (f *fakeScheduler) Schedule(gameID, playerID uint64, purpose model.TimerPurpose, deadline time.Time) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.scheduled = append(f.scheduled, timerCall{gameID, playerID, purpose, deadline})
}

func (f *fakeScheduler) Cancel(gameID, playerID uint64, purpose model.TimerPurpose) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.cancelled = append(f.cancelled, timerCall{gameID: gameID, playerID: playerID, purpose: purpose})
}

func (f *fakeScheduler) lastScheduled(purpose model.TimerPurpose) (timerCall, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := len(f.scheduled) - 1; i >= 0; i-- {
        if f.scheduled[i].purpose == purpose {
            return f.scheduled[i], true
        }
    }
    return timerCall{}, false
}

type notification struct {
    kind     string
    playerID uint64
    status   model.PlayerStatus
    amount   int64
    waiting  uint32
}

// fakeNotifier records every event in order.
type fakeNotifier struct {
    mu     sync.Mutex
    events []notification
}

func (f *fakeNotifier) add(n notification) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events = append(f.events, n)
}

func (f *fakeNotifier) PlayerStatusChanged(game *model.Game, rec *model.SeatRecord, oldStatus model.PlayerStatus) {
    f.add(notification{kind: "status", playerID: rec.PlayerID, status: rec.Status})
}

func (f *fakeNotifier) WaitlistSeatOffered(game *model.Game, rec *model.SeatRecord, expiresAt time.Time) {
    f.add(notification{kind: "offer", playerID: rec.PlayerID})
}

func (f *fakeNotifier) WaitlistChanged(game *model.Game, waitingCount uint32) {
    f.add(notification{kind: "waitlist", waiting: waitingCount})
}

func (f *fakeNotifier) ReloadApproved(game *model.Game, rec *model.SeatRecord, amount int64) {
    f.add(notification{kind: "reload_approved", playerID: rec.PlayerID, amount: amount})
}

func (f *fakeNotifier) ReloadPending(game *model.Game, playerID uint64, playerName string, amount int64, expireSeconds uint32) {
    f.add(notification{kind: "reload_pending", playerID: playerID, amount: amount})
}

func (f *fakeNotifier) ReloadDenied(game *model.Game, playerID uint64, playerName string) {
    f.add(notification{kind: "reload_denied", playerID: playerID})
}

func (f *fakeNotifier) ReloadTimedOut(game *model.Game, playerID uint64, playerName string) {
    f.add(notification{kind: "reload_timeout", playerID: playerID})
}

func (f *fakeNotifier) byKind(kind string) []notification {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []notification
    for _, n := range f.events {
        if n.kind == kind {
            out = append(out, n)
        }
    }
    return out
}

// fixture wires a Manager against the fakes with a mocked clock.
type fixture struct {
    store  *memStore
    dir    *memDirectory
    sched  *fakeScheduler
    notify *fakeNotifier
    clock  *quartz.Mock
    mgr    *Manager
    game   *model.Game
}

func newFixture(t *testing.T, game model.Game, settings model.GameSettings) *fixture {
    t.Helper()
    store := newMemStore(game)
    dir := &memDirectory{s: store, settings: settings, players: map[string]*model.Player{}}
    sched := &fakeScheduler{}
    notify := &fakeNotifier{}
    clock := quartz.NewMock(t)
    g := game
    return &fixture{
        store:  store,
        dir:    dir,
        sched:  sched,
        notify: notify,
        clock:  clock,
        mgr:    NewManager(store, dir, sched, notify, clock),
        game:   &g,
    }
}

func testGame() model.Game {
    return model.Game{
        ID:          1,
        GameCode:    "CG-1001",
        ClubCode:    "club-7",
        HostUUID:    "host-uuid",
        Status:      model.GameActive,
        TableStatus: model.TableWaitingToBeStarted,
        MaxPlayers:  3,
    }
}

func testSettings() model.GameSettings {
    return model.GameSettings{
        GameCode:               "CG-1001",
        BuyInMin:               100,
        BuyInMax:               1000,
        BuyInApproval:          true,
        BuyInTimeout:           60,
        BreakLength:            120,
        GPSAllowedDistance:     50,
        IPGPSCheckInterval:     300,
        WaitlistSittingTimeout: 90,
    }
}

// addPlayer registers a player in the directory and returns the snapshot.
func (f *fixture) addPlayer(id uint64, name string) *model.Player {
    p := &model.Player{ID: id, UUID: name + "-uuid", Name: name}
    f.dir.players[p.UUID] = p
    return p
}

// seatPlayerDirect installs a seated record, bypassing the workflows.
func (f *fixture) seatPlayerDirect(p *model.Player, seatNo uint32, status model.PlayerStatus, stack int64) {
    now := f.clock.Now().UTC()
    f.store.mu.Lock()
    defer f.store.mu.Unlock()
    f.store.nextRecID++
    f.store.records[p.ID] = &model.SeatRecord{
        ID:         f.store.nextRecID,
        GameID:     f.store.game.ID,
        PlayerID:   p.ID,
        PlayerName: p.Name,
        PlayerUUID: p.UUID,
        SeatNo:     seatNo,
        Status:     status,
        Stack:      stack,
        BuyIn:      stack,
        SatAt:      &now,
    }
}

// setTableStatus flips the hand-in-progress flag used by the deferral
// decisions.
func (f *fixture) setTableStatus(s model.TableStatus) {
    f.store.mu.Lock()
    f.store.game.TableStatus = s
    f.store.mu.Unlock()
    f.game.TableStatus = s
}

func (f *fixture) member(p *model.Player, m model.ClubMember) {
    m.ClubCode = f.game.ClubCode
    m.PlayerUUID = p.UUID
    f.store.mu.Lock()
    f.store.members[p.UUID] = &m
    f.store.mu.Unlock()
}
