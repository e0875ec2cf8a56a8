package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

var quiet = zerolog.New(io.Discard)

// memStore is an in-memory backend for every repository contract. WithinTx
// snapshots the maps and restores them when fn fails, unless noRollback is set.
type memStore struct {
	mu      sync.Mutex
	seq     int
	teams   map[uuid.UUID]model.Team
	seasons map[uuid.UUID]model.Season
	players map[uuid.UUID]model.Player
	games   map[uuid.UUID]model.Game
	results map[uuid.UUID]model.Result

	noRollback  bool
	failInsert  error
	failDelete  error
	createCalls int
	upsertCalls int

	// afterTeamResults runs once, right after the next Results.ListByTeam read.
	afterTeamResults func()
}

func newMemStore() *memStore {
	return &memStore{
		teams:   map[uuid.UUID]model.Team{},
		seasons: map[uuid.UUID]model.Season{},
		players: map[uuid.UUID]model.Player{},
		games:   map[uuid.UUID]model.Game{},
		results: map[uuid.UUID]model.Result{},
	}
}

func (m *memStore) stores() service.Stores {
	return service.Stores{
		Tx:      memTx{m},
		Teams:   memTeams{m},
		Seasons: memSeasons{m},
		Players: memPlayers{m},
		Games:   memGames{m},
		Results: memResults{m},
	}
}

func (m *memStore) stamp() time.Time {
	m.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Millisecond)
}

func id(in uuid.UUID) uuid.UUID {
	if in == uuid.Nil {
		return uuid.New()
	}
	return in
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memTx struct{ m *memStore }

func (t memTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	t.m.mu.Lock()
	teams, seasons, players := cloneMap(t.m.teams), cloneMap(t.m.seasons), cloneMap(t.m.players)
	games, results := cloneMap(t.m.games), cloneMap(t.m.results)
	t.m.mu.Unlock()

	err := fn(ctx)
	if err != nil && !t.m.noRollback {
		t.m.mu.Lock()
		t.m.teams, t.m.seasons, t.m.players = teams, seasons, players
		t.m.games, t.m.results = games, results
		t.m.mu.Unlock()
	}
	return err
}

type memTeams struct{ m *memStore }

func (r memTeams) Create(_ context.Context, t model.Team) (model.Team, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = id(t.ID)
	t.CreatedAt = r.m.stamp()
	r.m.teams[t.ID] = t
	return t, nil
}

func (r memTeams) GetByID(_ context.Context, teamID uuid.UUID) (model.Team, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[teamID]
	if !ok {
		return model.Team{}, repository.ErrNotFound
	}
	return t, nil
}

func (r memTeams) ListByOwner(_ context.Context, ownerID string, p repository.Page) (repository.PageResult[model.Team], error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []model.Team
	for _, t := range r.m.teams {
		if t.OwnerID == ownerID {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	res := repository.PageResult[model.Team]{Total: len(all)}
	for i := p.Offset; i < len(all) && i < p.Offset+p.Limit; i++ {
		res.Items = append(res.Items, all[i])
	}
	return res, nil
}

type memSeasons struct{ m *memStore }

func (r memSeasons) Create(_ context.Context, s model.Season) (model.Season, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.teams[s.TeamID]; !ok {
		return model.Season{}, repository.ErrConflict
	}
	s.ID = id(s.ID)
	s.CreatedAt = r.m.stamp()
	r.m.seasons[s.ID] = s
	return s, nil
}

func (r memSeasons) GetByID(_ context.Context, seasonID uuid.UUID) (model.Season, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.seasons[seasonID]
	if !ok {
		return model.Season{}, repository.ErrNotFound
	}
	return s, nil
}

func (r memSeasons) ListByTeam(_ context.Context, teamID uuid.UUID) ([]model.Season, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Season
	for _, s := range r.m.seasons {
		if s.TeamID == teamID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memSeasons) Latest(ctx context.Context, teamID uuid.UUID) (model.Season, error) {
	list, _ := r.ListByTeam(ctx, teamID)
	if len(list) == 0 {
		return model.Season{}, repository.ErrNotFound
	}
	return list[0], nil
}

type memPlayers struct{ m *memStore }

func (r memPlayers) findLocked(teamID uuid.UUID, name string) (model.Player, bool) {
	var best model.Player
	found := false
	for _, p := range r.m.players {
		if p.TeamID == teamID && strings.EqualFold(p.Name, name) {
			if !found || p.CreatedAt.Before(best.CreatedAt) {
				best, found = p, true
			}
		}
	}
	return best, found
}

func (r memPlayers) Create(_ context.Context, p model.Player) (model.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, taken := r.findLocked(p.TeamID, p.Name); taken {
		return model.Player{}, repository.ErrAlreadyExists
	}
	r.m.createCalls++
	p.ID = id(p.ID)
	p.CreatedAt = r.m.stamp()
	r.m.players[p.ID] = p
	return p, nil
}

func (r memPlayers) CreateIfAbsent(_ context.Context, p model.Player) (model.Player, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.upsertCalls++
	if existing, ok := r.findLocked(p.TeamID, p.Name); ok {
		return existing, false, nil
	}
	r.m.createCalls++
	p.ID = id(p.ID)
	p.CreatedAt = r.m.stamp()
	r.m.players[p.ID] = p
	return p, true, nil
}

func (r memPlayers) GetByID(_ context.Context, playerID uuid.UUID) (model.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.players[playerID]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	return p, nil
}

func (r memPlayers) FindByName(_ context.Context, teamID uuid.UUID, name string) (model.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.findLocked(teamID, name)
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	return p, nil
}

func (r memPlayers) ListByTeam(_ context.Context, teamID uuid.UUID) ([]model.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Player
	for _, p := range r.m.players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r memPlayers) Rename(_ context.Context, playerID uuid.UUID, name string) (model.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.players[playerID]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	if other, taken := r.findLocked(p.TeamID, name); taken && other.ID != playerID {
		return model.Player{}, repository.ErrAlreadyExists
	}
	p.Name = name
	r.m.players[playerID] = p
	return p, nil
}

func (r memPlayers) Delete(_ context.Context, playerID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failDelete != nil {
		return r.m.failDelete
	}
	if _, ok := r.m.players[playerID]; !ok {
		return repository.ErrNotFound
	}
	for _, res := range r.m.results {
		if res.PlayerID == playerID {
			return repository.ErrConflict
		}
	}
	delete(r.m.players, playerID)
	return nil
}

type memGames struct{ m *memStore }

func (r memGames) Create(_ context.Context, g model.Game) (model.Game, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.seasons[g.SeasonID]; !ok {
		return model.Game{}, repository.ErrConflict
	}
	g.ID = id(g.ID)
	g.CreatedAt = r.m.stamp()
	r.m.games[g.ID] = g
	return g, nil
}

func (r memGames) GetByID(_ context.Context, gameID uuid.UUID) (model.Game, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.games[gameID]
	if !ok {
		return model.Game{}, repository.ErrNotFound
	}
	return g, nil
}

func (r memGames) GetWithResults(_ context.Context, gameID uuid.UUID) (model.GameWithResults, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.games[gameID]
	if !ok {
		return model.GameWithResults{}, repository.ErrNotFound
	}
	out := model.GameWithResults{Game: g, SeasonName: r.m.seasons[g.SeasonID].Name, Results: []model.ResultWithPlayer{}}
	for _, res := range r.m.results {
		if res.GameID == gameID {
			out.Results = append(out.Results, model.ResultWithPlayer{Result: res, PlayerName: r.m.players[res.PlayerID].Name})
		}
	}
	sort.Slice(out.Results, func(i, j int) bool { return out.Results[i].CreatedAt.Before(out.Results[j].CreatedAt) })
	return out, nil
}

func (r memGames) ListByTeam(_ context.Context, teamID uuid.UUID, f repository.GameFilter, p repository.Page) (repository.PageResult[model.Game], error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []model.Game
	for _, g := range r.m.games {
		if g.TeamID == teamID && (f.SeasonID == nil || g.SeasonID == *f.SeasonID) {
			all = append(all, g)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GameDate.After(all[j].GameDate) })
	res := repository.PageResult[model.Game]{Total: len(all)}
	for i := p.Offset; i < len(all) && i < p.Offset+p.Limit; i++ {
		res.Items = append(res.Items, all[i])
	}
	return res, nil
}

func (r memGames) Delete(_ context.Context, gameID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.games[gameID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.games, gameID)
	for rid, res := range r.m.results {
		if res.GameID == gameID {
			delete(r.m.results, rid)
		}
	}
	return nil
}

type memResults struct{ m *memStore }

func (r memResults) InsertBatch(_ context.Context, batch []model.Result) ([]model.Result, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failInsert != nil {
		return nil, r.m.failInsert
	}
	seen := map[[2]uuid.UUID]bool{}
	for _, res := range r.m.results {
		seen[[2]uuid.UUID{res.GameID, res.PlayerID}] = true
	}
	for _, res := range batch {
		k := [2]uuid.UUID{res.GameID, res.PlayerID}
		if seen[k] {
			return nil, repository.ErrAlreadyExists
		}
		seen[k] = true
	}
	out := make([]model.Result, len(batch))
	for i, res := range batch {
		res.ID = id(res.ID)
		res.CreatedAt = r.m.stamp()
		r.m.results[res.ID] = res
		out[i] = res
	}
	return out, nil
}

func (r memResults) GetByID(_ context.Context, resultID uuid.UUID) (model.Result, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	res, ok := r.m.results[resultID]
	if !ok {
		return model.Result{}, repository.ErrNotFound
	}
	return res, nil
}

func (r memResults) filter(keep func(model.Result) bool) []model.Result {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Result
	for _, res := range r.m.results {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memResults) ListByGame(_ context.Context, gameID uuid.UUID) ([]model.Result, error) {
	return r.filter(func(res model.Result) bool { return res.GameID == gameID }), nil
}

func (r memResults) ListByPlayer(_ context.Context, playerID uuid.UUID) ([]model.Result, error) {
	return r.filter(func(res model.Result) bool { return res.PlayerID == playerID }), nil
}

func (r memResults) ListByTeam(_ context.Context, teamID uuid.UUID, f repository.ResultFilter) ([]model.Result, error) {
	r.m.mu.Lock()
	games := cloneMap(r.m.games)
	hook := r.m.afterTeamResults
	r.m.afterTeamResults = nil
	r.m.mu.Unlock()
	out := r.filter(func(res model.Result) bool {
		g, ok := games[res.GameID]
		if !ok || g.TeamID != teamID {
			return false
		}
		if f.SeasonID != nil && g.SeasonID != *f.SeasonID {
			return false
		}
		return f.GameID == nil || g.ID == *f.GameID
	})
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r memResults) UpdateStats(_ context.Context, resultID uuid.UUID, st model.StatRecord) (model.Result, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	res, ok := r.m.results[resultID]
	if !ok {
		return model.Result{}, repository.ErrNotFound
	}
	res.Stats = st
	r.m.results[resultID] = res
	return res, nil
}

func (r memResults) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, rid := range ids {
		if _, ok := r.m.results[rid]; ok {
			delete(r.m.results, rid)
			n++
		}
	}
	return n, nil
}

func (r memResults) ReassignPlayer(_ context.Context, ids []uuid.UUID, playerID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, rid := range ids {
		res, ok := r.m.results[rid]
		if !ok {
			return repository.ErrConflict
		}
		res.PlayerID = playerID
		r.m.results[rid] = res
	}
	return nil
}

// fakeExtractor returns a canned output.
type fakeExtractor struct {
	out   extractor.Output
	err   error
	calls int
}

func (f *fakeExtractor) Extract(context.Context, vision.Image) (extractor.Output, error) {
	f.calls++
	return f.out, f.err
}

// harness wires every service over one memStore.
type harness struct {
	store     *memStore
	sheets    *cache.MemoryStatsCache
	roster    service.RosterService
	resolver  service.PlayerResolver
	ingest    service.IngestionService
	submit    service.SubmissionService
	stats     service.StatsService
	extractor *fakeExtractor
	team      model.Team
	season    model.Season
}

const owner = "coach-1"

func newHarness(opts service.IngestionOptions) *harness {
	m := newMemStore()
	st := m.stores()
	locker := cache.NewLocalLocker()
	sheets := cache.NewMemoryStatsCache(time.Minute)
	resolver := service.NewPlayerResolver(st, locker, sheets, quiet)
	ingest := service.NewIngestionService(st, resolver, locker, sheets, opts, quiet)
	ext := &fakeExtractor{}
	h := &harness{
		store:     m,
		sheets:    sheets,
		roster:    service.NewRosterService(st, sheets, quiet),
		resolver:  resolver,
		ingest:    ingest,
		submit:    service.NewSubmissionService(ext, st, ingest, quiet),
		stats:     service.NewStatsService(st, stats.NewEngine(stats.DefaultOptions()), sheets, quiet),
		extractor: ext,
	}
	ctx := context.Background()
	var err error
	if h.team, err = h.roster.CreateTeam(ctx, owner, "Sluggers"); err != nil {
		panic(err)
	}
	if h.season, err = h.roster.CreateSeason(ctx, owner, h.team.ID, "Spring 2024"); err != nil {
		panic(err)
	}
	return h
}

func (h *harness) ingestLines(lines ...model.PlayerStatInput) (service.IngestResult, error) {
	return h.ingest.Ingest(context.Background(), service.IngestRequest{
		TeamID:   h.team.ID,
		SeasonID: h.season.ID,
		GameDate: time.Date(2024, 4, 6, 0, 0, 0, 0, time.UTC),
		Source:   model.SourceManual,
		Stats:    lines,
	})
}

func line(token string, s model.StatRecord) model.PlayerStatInput {
	return model.PlayerStatInput{Token: token, Stats: s}
}

var errBoom = errors.New("boom")
