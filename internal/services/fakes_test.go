package services

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/data/cache"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

var errStoreDown = errors.New("store down")

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// flakyCache wraps a real SQLite cache and can be told to fail writes.
type flakyCache struct {
	cache.Store
	failPut atomic.Bool
}

func (c *flakyCache) Put(ctx context.Context, key string, value []byte) error {
	if c.failPut.Load() {
		return errStoreDown
	}
	return c.Store.Put(ctx, key, value)
}

func newTestCache(t *testing.T) *flakyCache {
	t.Helper()
	s, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &flakyCache{Store: s}
}

type memStates struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]types.GamificationState
	fail    atomic.Bool
	upserts atomic.Int32
	// gate, when set, blocks each Upsert until a value is received.
	gate chan struct{}
}

func newMemStates() *memStates {
	return &memStates{rows: map[uuid.UUID]types.GamificationState{}}
}

func (m *memStates) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.GamificationState, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	row.Badges = nil
	return &row, nil
}

func (m *memStates) Upsert(_ dbctx.Context, row *types.GamificationState) error {
	if m.gate != nil {
		<-m.gate
	}
	m.upserts.Add(1)
	if m.fail.Load() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[row.UserID]
	next := *row
	next.Badges, next.Rewards = nil, nil
	if ok {
		next.XP = max(cur.XP, next.XP)
		next.Level = max(cur.Level, next.Level)
		next.ActionsCompleted = max(cur.ActionsCompleted, next.ActionsCompleted)
		next.ChallengesCompleted = max(cur.ChallengesCompleted, next.ChallengesCompleted)
		next.StreakRewardedDate = max(cur.StreakRewardedDate, next.StreakRewardedDate)
		if cur.LastActivityDate > next.LastActivityDate {
			next.Streak, next.LastActivityDate = cur.Streak, cur.LastActivityDate
		}
	}
	m.rows[row.UserID] = next
	return nil
}

func (m *memStates) get(userID uuid.UUID) (types.GamificationState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	return row, ok
}

type memBadges struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]types.Badge
}

func newMemBadges() *memBadges { return &memBadges{rows: map[uuid.UUID][]types.Badge{}} }

func (m *memBadges) ListByUserID(_ dbctx.Context, userID uuid.UUID) ([]types.Badge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Badge(nil), m.rows[userID]...), nil
}

func (m *memBadges) InsertMissing(_ dbctx.Context, rows []types.Badge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range rows {
		dup := false
		for _, have := range m.rows[b.UserID] {
			if have.Name == b.Name {
				dup = true
				break
			}
		}
		if !dup {
			m.rows[b.UserID] = append(m.rows[b.UserID], b)
		}
	}
	return nil
}

type memRewards struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]struct{}
}

func newMemRewards() *memRewards { return &memRewards{rows: map[uuid.UUID]map[string]struct{}{}} }

func (m *memRewards) ListKeysByUserID(_ dbctx.Context, userID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for k := range m.rows[userID] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRewards) InsertMissing(_ dbctx.Context, rows []types.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		if m.rows[r.UserID] == nil {
			m.rows[r.UserID] = map[string]struct{}{}
		}
		m.rows[r.UserID][r.Key] = struct{}{}
	}
	return nil
}

func (m *memRewards) has(userID uuid.UUID, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[userID][key]
	return ok
}

type memStreaks struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]types.StreakRecord
	failRead atomic.Bool
	// interloper, when set, is written just before the next Advance so the
	// caller loses the compare-and-set.
	interloper *types.StreakRecord
}

func newMemStreaks() *memStreaks { return &memStreaks{rows: map[uuid.UUID]types.StreakRecord{}} }

func (m *memStreaks) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.StreakRecord, error) {
	if m.failRead.Load() {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStreaks) Advance(_ dbctx.Context, prev *types.StreakRecord, next types.StreakRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interloper != nil {
		m.rows[m.interloper.UserID] = *m.interloper
		m.interloper = nil
	}
	cur, ok := m.rows[next.UserID]
	switch {
	case prev == nil && ok:
		return false, nil
	case prev != nil && (!ok || cur.LastActivityDate != prev.LastActivityDate):
		return false, nil
	}
	m.rows[next.UserID] = next
	return true, nil
}

type memProfiles struct {
	mu   sync.Mutex
	rows map[uuid.UUID]types.FinancialProfile
	fail atomic.Bool
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: map[uuid.UUID]types.FinancialProfile{}}
}

func (m *memProfiles) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.FinancialProfile, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProfiles) Upsert(_ dbctx.Context, row *types.FinancialProfile) (bool, error) {
	if m.fail.Load() {
		return false, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[row.UserID]
	if ok {
		row.ID = cur.ID
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	m.rows[row.UserID] = *row
	return !ok, nil
}

func (m *memProfiles) ListUserIDs(_ dbctx.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id := range m.rows {
		if id.String() > afterID.String() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memGoals struct {
	mu   sync.Mutex
	rows []*types.Goal
}

func (m *memGoals) Create(_ dbctx.Context, row *types.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memGoals) ListByUserID(_ dbctx.Context, userID uuid.UUID) ([]*types.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.Goal{}
	for _, g := range m.rows {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memGoals) GetByID(_ dbctx.Context, userID, goalID uuid.UUID) (*types.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.rows {
		if g.UserID == userID && g.ID == goalID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memGoals) CountByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	goals, _ := m.ListByUserID(dbc, userID)
	return int64(len(goals)), nil
}

func (m *memGoals) AddFunds(_ dbctx.Context, userID, goalID uuid.UUID, amount float64) (*types.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.rows {
		if g.UserID == userID && g.ID == goalID {
			g.CurrentAmount += amount
			cp := *g
			return &cp, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

type memPlans struct {
	mu   sync.Mutex
	rows map[uuid.UUID]types.FinancialPlan
}

func newMemPlans() *memPlans { return &memPlans{rows: map[uuid.UUID]types.FinancialPlan{}} }

func (m *memPlans) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.FinancialPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memPlans) Upsert(_ dbctx.Context, row *types.FinancialPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.UserID] = *row
	return nil
}

// memCatalog backs the lesson, quiz and challenge repos.
type memCatalog struct {
	fail       atomic.Bool
	lessons    []*types.Lesson
	quiz       []*types.QuizQuestion
	challenges []*types.Challenge
}

func (m *memCatalog) List(dbctx.Context) ([]*types.Lesson, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	return m.lessons, nil
}

func (m *memCatalog) GetByID(_ dbctx.Context, id string) (*types.Lesson, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	for _, l := range m.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

func (m *memCatalog) UpsertMany(_ dbctx.Context, rows []*types.Lesson) error {
	m.lessons = rows
	return nil
}

type memQuiz struct{ *memCatalog }

func (m memQuiz) ListByLesson(_ dbctx.Context, lessonID string) ([]*types.QuizQuestion, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	var out []*types.QuizQuestion
	for _, q := range m.quiz {
		if q.LessonID == lessonID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m memQuiz) UpsertMany(_ dbctx.Context, rows []*types.QuizQuestion) error {
	m.quiz = rows
	return nil
}

type memChallenges struct{ *memCatalog }

func (m memChallenges) ListByType(_ dbctx.Context, t types.ChallengeType) ([]*types.Challenge, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	var out []*types.Challenge
	for _, c := range m.challenges {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memChallenges) GetByID(_ dbctx.Context, id string) (*types.Challenge, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	for _, c := range m.challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m memChallenges) UpsertMany(_ dbctx.Context, rows []*types.Challenge) error {
	m.challenges = rows
	return nil
}

type memChallengeProgress struct {
	mu   sync.Mutex
	rows map[string]types.ChallengeProgress
	// conflicts makes the next n Advance calls report a lost race.
	conflicts int
}

func newMemChallengeProgress() *memChallengeProgress {
	return &memChallengeProgress{rows: map[string]types.ChallengeProgress{}}
}

func progressKey(userID uuid.UUID, id string) string { return userID.String() + "/" + id }

func (m *memChallengeProgress) Get(_ dbctx.Context, userID uuid.UUID, challengeID string) (*types.ChallengeProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[progressKey(userID, challengeID)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memChallengeProgress) ListByUserID(_ dbctx.Context, userID uuid.UUID) ([]*types.ChallengeProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.ChallengeProgress
	for _, p := range m.rows {
		if p.UserID == userID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memChallengeProgress) Advance(_ dbctx.Context, prev *types.ChallengeProgress, next types.ChallengeProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return pkgerrors.ErrConflict
	}
	k := progressKey(next.UserID, next.ChallengeID)
	cur, ok := m.rows[k]
	switch {
	case prev == nil && ok:
		return pkgerrors.ErrConflict
	case prev != nil && (!ok || cur.Completed || cur.Progress != prev.Progress):
		return pkgerrors.ErrConflict
	}
	m.rows[k] = next
	return nil
}

type memLessonProgress struct {
	mu   sync.Mutex
	rows map[string]*types.LessonProgress
}

func newMemLessonProgress() *memLessonProgress {
	return &memLessonProgress{rows: map[string]*types.LessonProgress{}}
}

func (m *memLessonProgress) ListByUserID(_ dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.LessonProgress
	for _, p := range m.rows {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLessonProgress) Get(_ dbctx.Context, userID uuid.UUID, lessonID string) (*types.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[progressKey(userID, lessonID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memLessonProgress) RecordAttempt(_ dbctx.Context, userID uuid.UUID, lessonID string, score int, passed bool) (*types.LessonProgress, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey(userID, lessonID)
	p, ok := m.rows[k]
	if !ok {
		p = &types.LessonProgress{ID: uuid.New(), UserID: userID, LessonID: lessonID}
		m.rows[k] = p
	}
	p.Attempts++
	p.Score = max(p.Score, score)
	first := false
	if passed && !p.Completed {
		now := time.Now().UTC()
		p.Completed, p.CompletedAt = true, &now
		first = true
	}
	cp := *p
	return &cp, first, nil
}

type memAdvice struct {
	mu   sync.Mutex
	rows []*types.Advice
	fail atomic.Bool
}

func (m *memAdvice) Create(_ dbctx.Context, row *types.Advice) error {
	if m.fail.Load() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = uuid.New()
	row.CreatedAt = time.Now()
	m.rows = append(m.rows, row)
	return nil
}

func (m *memAdvice) Latest(_ dbctx.Context, userID uuid.UUID, limit int) ([]*types.Advice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Advice
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

type memChats struct {
	mu   sync.Mutex
	rows []*types.ChatMessage
	fail atomic.Bool
}

func (m *memChats) Create(_ dbctx.Context, row *types.ChatMessage) error {
	if m.fail.Load() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = uuid.New()
	cp := *row
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memChats) ListByUserID(_ dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if m.fail.Load() {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.ChatMessage{}
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memChats) DeleteByUserID(_ dbctx.Context, userID uuid.UUID) (int64, error) {
	if m.fail.Load() {
		return 0, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uuid.UUID]*types.User{}} }

func (m *memUsers) Create(_ dbctx.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ dbctx.Context, id uuid.UUID) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ dbctx.Context, email string) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	u, err := m.GetByEmail(dbc, email)
	return u != nil, err
}

// fixture wires every service against in-memory stores and a real cache.
type fixture struct {
	cache      *flakyCache
	states     *memStates
	badges     *memBadges
	rewards    *memRewards
	streaks    *memStreaks
	profiles   *memProfiles
	goals      *memGoals
	plans      *memPlans
	catalogDB  *memCatalog
	challengeP *memChallengeProgress
	lessonP    *memLessonProgress
	advice     *memAdvice
	chats      *memChats

	sessions  SessionManager
	finance   FinanceService
	catalog   CatalogService
	challenge ChallengeService
	education EducationService
	gamify    GamificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger(t)
	f := &fixture{
		cache:      newTestCache(t),
		states:     newMemStates(),
		badges:     newMemBadges(),
		rewards:    newMemRewards(),
		streaks:    newMemStreaks(),
		profiles:   newMemProfiles(),
		goals:      &memGoals{},
		plans:      newMemPlans(),
		catalogDB:  &memCatalog{},
		challengeP: newMemChallengeProgress(),
		lessonP:    newMemLessonProgress(),
		advice:     &memAdvice{},
		chats:      &memChats{},
	}
	stores := GamificationStores{States: f.states, Badges: f.badges, Rewards: f.rewards, Streaks: f.streaks, Cache: f.cache}
	f.sessions = NewSessionManager(log, stores, FlushPolicy{Retries: 1, Backoff: time.Millisecond, Timeout: time.Second}, time.Minute)
	t.Cleanup(f.sessions.CloseAll)

	f.finance = NewFinanceService(log, f.profiles, f.goals, f.plans, f.cache, f.sessions)
	f.catalog = NewCatalogService(nil, log, f.catalogDB, memQuiz{f.catalogDB}, memChallenges{f.catalogDB})
	f.challenge = NewChallengeService(log, f.catalog, f.challengeP, f.sessions)
	f.education = NewEducationService(log, f.catalog, f.lessonP, f.sessions)
	f.gamify = NewGamificationService(log, f.sessions, f.finance)
	return f
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (f *fixture) sessionsSnapshot(t *testing.T, userID uuid.UUID) types.GamificationState {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("sessions.Get: %v", err)
	}
	return sess.Snapshot()
}
