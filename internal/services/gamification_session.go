package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/wealthquest-backend/internal/data/cache"
	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/httpx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

var ErrSessionClosed = errors.New("gamification session closed")

// Mutation transforms a private copy of the state. Returning an error
// discards the copy.
type Mutation func(s types.GamificationState) (types.GamificationState, error)

// GamificationStores are the collaborators a session reads and writes.
type GamificationStores struct {
	States  repos.StateRepo
	Badges  repos.BadgeRepo
	Rewards repos.RewardRepo
	Streaks repos.StreakRepo
	Cache   cache.Store
}

// FlushPolicy bounds the asynchronous remote writes.
type FlushPolicy struct {
	Retries int
	Backoff time.Duration
	Timeout time.Duration
}

func (p FlushPolicy) withDefaults() FlushPolicy {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	return p
}

type opResult struct {
	state types.GamificationState
	err   error
}

type op struct {
	fn    Mutation
	reply chan opResult
}

// GamificationSession owns one user's gamification state. Mutations run on a
// single goroutine in the order they were enqueued; each one is written to the
// local cache before it becomes visible, and the durable store is updated
// asynchronously with the latest snapshot.
type GamificationSession struct {
	userID uuid.UUID
	log    *logger.Logger
	stores GamificationStores
	policy FlushPolicy
	now    func() time.Time

	ops  chan op
	stop chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	state  types.GamificationState
	source fetch.Source
	loadEr *fetch.FetchError

	flushMu     sync.Mutex
	pending     *types.GamificationState
	flushing    bool
	flushWG     sync.WaitGroup
	flushCtx    context.Context
	flushCancel context.CancelFunc

	// streakMu serializes daily checks so only a foreign instance can win
	// the streak compare-and-set against us.
	streakMu sync.Mutex

	lastUsed  atomic.Int64
	closeOnce sync.Once
}

func newGamificationSession(userID uuid.UUID, log *logger.Logger, stores GamificationStores, policy FlushPolicy, now func() time.Time) *GamificationSession {
	if now == nil {
		now = time.Now
	}
	flushCtx, flushCancel := context.WithCancel(context.Background())
	s := &GamificationSession{
		userID:      userID,
		log:         log.With("service", "GamificationSession", "user_id", userID),
		stores:      stores,
		policy:      policy.withDefaults(),
		now:         now,
		ops:         make(chan op),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		state:       types.NewState(userID),
		source:      fetch.SourceCache,
		flushCtx:    flushCtx,
		flushCancel: flushCancel,
	}
	s.touch()
	go s.loop()
	return s
}

func (s *GamificationSession) UserID() uuid.UUID { return s.userID }

// Load reads the cached copy, reconciles it with the durable store and caches
// the merged result. A durable-store failure keeps the cached copy.
func (s *GamificationSession) Load(ctx context.Context) error {
	local := types.NewState(s.userID)
	if _, err := cache.GetJSON(ctx, s.stores.Cache, cache.GamificationKey(s.userID), &local); err != nil {
		s.log.Warn("Cached gamification state unreadable", "error", err)
		local = types.NewState(s.userID)
	}
	local.UserID = s.userID

	var (
		row    *types.GamificationState
		badges  []types.Badge
		rewards []string
		streak  *types.StreakRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.New(gctx)
	g.Go(func() error {
		var err error
		row, err = s.stores.States.GetByUserID(dbc, s.userID)
		return err
	})
	g.Go(func() error {
		var err error
		badges, err = s.stores.Badges.ListByUserID(dbc, s.userID)
		return err
	})
	g.Go(func() error {
		var err error
		rewards, err = s.stores.Rewards.ListKeysByUserID(dbc, s.userID)
		return err
	})
	g.Go(func() error {
		var err error
		streak, err = s.stores.Streaks.GetByUserID(dbc, s.userID)
		return err
	})

	merged := local
	source := fetch.SourceRemote
	var loadErr *fetch.FetchError
	needsRemote := false

	if err := g.Wait(); err != nil {
		s.log.Warn("Durable gamification read failed, using cached state", "error", err)
		source = fetch.SourceCache
		loadErr = fetch.NewError("durable store", "load gamification state", err)
	} else {
		remote := types.NewState(s.userID)
		if row != nil {
			remote = *row
		}
		remote.Badges = badges
		remote.Rewards = rewards
		if streak != nil && (streak.LastActivityDate > remote.LastActivityDate ||
			(streak.LastActivityDate == remote.LastActivityDate && streak.StreakDays > remote.Streak)) {
			remote.Streak = streak.StreakDays
			remote.LastActivityDate = streak.LastActivityDate
		}
		merged = gamemod.Merge(local, remote)
		needsRemote = row == nil && !gamemod.Equivalent(merged, types.NewState(s.userID)) ||
			row != nil && !gamemod.Equivalent(merged, remote)
	}

	if err := cache.PutJSON(ctx, s.stores.Cache, cache.GamificationKey(s.userID), merged); err != nil {
		s.log.Warn("Caching merged gamification state failed", "error", err)
	}

	s.mu.Lock()
	s.state = merged
	s.source = source
	s.loadEr = loadErr
	s.mu.Unlock()

	if needsRemote {
		s.scheduleFlush(merged)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *GamificationSession) Snapshot() types.GamificationState {
	s.touch()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// SnapshotResult is Snapshot tagged with where the state was loaded from.
func (s *GamificationSession) SnapshotResult() fetch.Result[types.GamificationState] {
	st := s.Snapshot()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fetch.Result[types.GamificationState]{Value: st, Source: s.source, Err: s.loadEr}
}

// Apply enqueues fn and waits for it. ctx bounds the enqueue and the wait; a
// mutation that was accepted runs to completion even if ctx ends first.
func (s *GamificationSession) Apply(ctx context.Context, fn Mutation) (types.GamificationState, error) {
	s.touch()
	req := op{fn: fn, reply: make(chan opResult, 1)}
	select {
	case s.ops <- req:
	case <-s.done:
		return types.GamificationState{}, ErrSessionClosed
	case <-ctx.Done():
		return types.GamificationState{}, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.state, r.err
	case <-ctx.Done():
		return types.GamificationState{}, ctx.Err()
	}
}

// AwardXP adds xp; level and badge checks run as part of every mutation.
func (s *GamificationSession) AwardXP(ctx context.Context, amount int64) (types.GamificationState, *gamemod.LevelUp, error) {
	var ev *gamemod.LevelUp
	st, err := s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
		st, ev = gamemod.AwardXP(st, amount)
		return st, nil
	})
	return st, ev, err
}

// GrantReward applies g at most once per user. applied is false when the key
// was granted before, in which case nothing is written.
func (s *GamificationSession) GrantReward(ctx context.Context, g gamemod.Grant) (types.GamificationState, *gamemod.LevelUp, bool, error) {
	if cur := s.Snapshot(); cur.HasReward(g.Key) {
		return cur, nil, false, nil
	}
	var (
		ev      *gamemod.LevelUp
		applied bool
	)
	st, err := s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
		st, ev, applied = gamemod.ApplyGrant(st, g)
		return st, nil
	})
	if err != nil {
		return st, nil, false, err
	}
	return st, ev, applied, nil
}

func (s *GamificationSession) UnlockBadge(ctx context.Context, name, description string) (types.GamificationState, bool, error) {
	var added bool
	st, err := s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
		st, added = gamemod.UnlockBadge(st, name, description, s.now())
		return st, nil
	})
	return st, added, err
}

// SetScore stores a freshly computed score. score receives the current streak.
func (s *GamificationSession) SetScore(ctx context.Context, score func(streak int) int) (types.GamificationState, error) {
	return s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
		if score != nil {
			st.Score = score(st.Streak)
		}
		return st, nil
	})
}

// CheckDailyStreak advances the durable streak record for today and applies
// the result. Read and write failures fail closed: no streak, no XP, no state
// change. Losing the compare-and-set to another instance yields a same-day
// outcome without bonus. A record already at today whose bonus never reached
// the state (a failed cache write) pays it on the next check. score, when set,
// recomputes the score with the new streak inside the same mutation.
func (s *GamificationSession) CheckDailyStreak(ctx context.Context, today time.Time, score func(streak int) int) (gamemod.StreakOutcome, types.GamificationState, *gamemod.LevelUp, error) {
	s.streakMu.Lock()
	defer s.streakMu.Unlock()

	dbc := dbctx.New(ctx)
	rec, err := s.stores.Streaks.GetByUserID(dbc, s.userID)
	if err != nil {
		s.log.Warn("Streak read failed", "error", err)
		return gamemod.StreakOutcome{}, s.Snapshot(), nil, nil
	}

	day := gamemod.Day(today)
	out := gamemod.NextStreak(rec, today)
	if !out.IsNewDay {
		return s.settleStreak(ctx, out, day, score)
	}

	next := types.StreakRecord{UserID: s.userID, StreakDays: out.Streak, LastActivityDate: day}
	won, err := s.stores.Streaks.Advance(dbc, rec, next)
	if err != nil {
		s.log.Warn("Streak advance failed", "error", err)
		return gamemod.StreakOutcome{}, s.Snapshot(), nil, nil
	}
	if !won {
		current, err := s.stores.Streaks.GetByUserID(dbc, s.userID)
		if err != nil || current == nil {
			return gamemod.StreakOutcome{}, s.Snapshot(), nil, nil
		}
		// The winner pays the bonus; mark the day so a later check here does not.
		st, err := s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
			if current.LastActivityDate < st.LastActivityDate {
				return st, nil
			}
			if current.LastActivityDate > st.LastActivityDate || current.StreakDays > st.Streak {
				st.Streak = current.StreakDays
			}
			st.LastActivityDate = current.LastActivityDate
			st.StreakRewardedDate = max(st.StreakRewardedDate, current.LastActivityDate)
			return st, nil
		})
		if err != nil {
			return gamemod.StreakOutcome{}, s.Snapshot(), nil, err
		}
		return gamemod.StreakOutcome{Streak: current.StreakDays}, st, nil, nil
	}
	return s.settleStreak(ctx, out, day, score)
}

// settleStreak applies the durable streak for day to the state, paying its
// milestone bonus unless the state already recorded it.
func (s *GamificationSession) settleStreak(ctx context.Context, out gamemod.StreakOutcome, day string, score func(streak int) int) (gamemod.StreakOutcome, types.GamificationState, *gamemod.LevelUp, error) {
	if cur := s.Snapshot(); !out.IsNewDay && cur.LastActivityDate >= day && cur.StreakRewardedDate >= day {
		out.BonusXP = 0
		return out, cur, nil, nil
	}
	var (
		ev    *gamemod.LevelUp
		bonus int64
	)
	st, err := s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
		st, ev, bonus = gamemod.ApplyStreakBonus(st, out.Streak, day)
		if score != nil {
			st.Score = score(st.Streak)
		}
		return st, nil
	})
	if err != nil {
		return gamemod.StreakOutcome{}, s.Snapshot(), nil, err
	}
	out.BonusXP = bonus
	return out, st, ev, nil
}

func (s *GamificationSession) loop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.ops:
			st, err := s.run(req.fn)
			req.reply <- opResult{state: st, err: err}
		case <-s.stop:
			return
		}
	}
}

func (s *GamificationSession) run(fn Mutation) (types.GamificationState, error) {
	s.mu.RLock()
	cur := s.state.Clone()
	s.mu.RUnlock()

	next, err := fn(cur.Clone())
	if err != nil {
		return cur, err
	}
	next.UserID = s.userID
	now := s.now()
	next, unlocked := gamemod.EvaluateBadges(next, now)
	next.UpdatedAt = now.UTC()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.PutJSON(ctx, s.stores.Cache, cache.GamificationKey(s.userID), next); err != nil {
		s.log.Error("Cache write failed, mutation rolled back", "error", err)
		observability.Current().IncRollback()
		return cur, apierr.Unavailable("state_unavailable", fmt.Errorf("save gamification state: %w", err))
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if len(unlocked) > 0 {
		s.log.Info("Badges unlocked", "badges", unlocked)
	}
	s.scheduleFlush(next)
	return next.Clone(), nil
}

// scheduleFlush records st as the snapshot to persist. Snapshots queued while
// a write is in flight collapse into the newest one.
func (s *GamificationSession) scheduleFlush(st types.GamificationState) {
	snap := st.Clone()
	s.flushMu.Lock()
	s.pending = &snap
	if s.flushing {
		s.flushMu.Unlock()
		return
	}
	s.flushing = true
	s.flushWG.Add(1)
	s.flushMu.Unlock()
	go s.flushLoop()
}

func (s *GamificationSession) flushLoop() {
	defer s.flushWG.Done()
	for {
		s.flushMu.Lock()
		snap := s.pending
		s.pending = nil
		if snap == nil {
			s.flushing = false
			s.flushMu.Unlock()
			return
		}
		s.flushMu.Unlock()
		s.writeRemote(*snap)
	}
}

func (s *GamificationSession) hasPending() bool {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.pending != nil
}

// writeRemote persists st, retrying with jittered backoff. Failures are
// logged and dropped. A newer snapshot supersedes a failing one.
func (s *GamificationSession) writeRemote(st types.GamificationState) {
	for attempt := 0; attempt <= s.policy.Retries; attempt++ {
		ctx, cancel := context.WithTimeout(s.flushCtx, s.policy.Timeout)
		err := s.persist(ctx, st)
		cancel()
		if err == nil {
			observability.Current().ObserveFlush("ok")
			return
		}
		if attempt == s.policy.Retries || s.flushCtx.Err() != nil {
			s.log.Error("Remote gamification write failed", "attempts", attempt+1, "error", err)
			observability.Current().ObserveFlush("failed")
			return
		}
		if s.hasPending() {
			s.log.Warn("Remote gamification write superseded", "error", err)
			observability.Current().ObserveFlush("superseded")
			return
		}
		observability.Current().ObserveFlush("retry")
		sleepFor := httpx.JitterSleep(httpx.Backoff(attempt, s.policy.Backoff, 30*time.Second))
		s.log.Warn("Remote gamification write retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		if err := httpx.Sleep(s.flushCtx, sleepFor); err != nil {
			return
		}
	}
}

func (s *GamificationSession) persist(ctx context.Context, st types.GamificationState) error {
	dbc := dbctx.New(ctx)
	if err := s.stores.States.Upsert(dbc, &st); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	if len(st.Badges) > 0 {
		rows := make([]types.Badge, len(st.Badges))
		copy(rows, st.Badges)
		for i := range rows {
			rows[i].UserID = s.userID
		}
		if err := s.stores.Badges.InsertMissing(dbc, rows); err != nil {
			return fmt.Errorf("insert badges: %w", err)
		}
	}
	if len(st.Rewards) > 0 {
		now := s.now().UTC()
		rows := make([]types.Reward, 0, len(st.Rewards))
		for _, key := range st.Rewards {
			rows = append(rows, types.Reward{UserID: s.userID, Key: key, GrantedAt: now})
		}
		if err := s.stores.Rewards.InsertMissing(dbc, rows); err != nil {
			return fmt.Errorf("insert rewards: %w", err)
		}
	}
	return nil
}

func (s *GamificationSession) touch() {
	s.lastUsed.Store(s.now().UnixNano())
}

// IdleSince reports when the session was last used.
func (s *GamificationSession) IdleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Close stops the mutation loop and waits for the pending remote write, up to
// the flush timeout.
func (s *GamificationSession) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		waited := make(chan struct{})
		go func() {
			s.flushWG.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-time.After(s.policy.Timeout):
			s.log.Warn("Gamification flush did not finish before close")
		}
		s.flushCancel()
	})
}
