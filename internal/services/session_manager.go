package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/observability"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type SessionManager interface {
	// Get returns the user's session, loading it on first use.
	Get(ctx context.Context, userID uuid.UUID) (*GamificationSession, error)
	// EvictIdle closes sessions unused since now-ttl and returns how many.
	EvictIdle(now time.Time) int
	// CloseAll flushes and closes every session.
	CloseAll()
}

type sessionManager struct {
	log     *logger.Logger
	baseLog *logger.Logger
	stores  GamificationStores
	policy  FlushPolicy
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*GamificationSession
}

func NewSessionManager(log *logger.Logger, stores GamificationStores, policy FlushPolicy, idleTTL time.Duration) SessionManager {
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &sessionManager{
		log:      log.With("service", "SessionManager"),
		baseLog:  log,
		stores:   stores,
		policy:   policy,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: map[uuid.UUID]*GamificationSession{},
	}
}

func (m *sessionManager) Get(ctx context.Context, userID uuid.UUID) (*GamificationSession, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", pkgerrors.ErrUnauthorized)
	}

	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		s.touch()
		return s, nil
	}
	m.mu.Unlock()

	fresh := newGamificationSession(userID, m.baseLog, m.stores, m.policy, m.now)
	if err := fresh.Load(ctx); err != nil {
		fresh.Close()
		return nil, err
	}

	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		// Another request loaded the same user first; ours only merged and
		// cached, so closing it just flushes an idempotent snapshot.
		fresh.Close()
		return s, nil
	}
	m.sessions[userID] = fresh
	observability.Current().SetSessions(len(m.sessions))
	m.mu.Unlock()
	return fresh, nil
}

func (m *sessionManager) EvictIdle(now time.Time) int {
	cutoff := now.Add(-m.idleTTL)
	var idle []*GamificationSession

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	observability.Current().SetSessions(len(m.sessions))
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.log.Info("Evicted idle gamification sessions", "count", len(idle))
	}
	return len(idle)
}

func (m *sessionManager) CloseAll() {
	m.mu.Lock()
	all := make([]*GamificationSession, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	observability.Current().SetSessions(0)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func(s *GamificationSession) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}

// withSession runs fn on sess and, when eviction closed sess before fn's
// mutation was queued, once more on a freshly loaded session.
func withSession(ctx context.Context, sessions SessionManager, userID uuid.UUID, sess *GamificationSession, fn func(*GamificationSession) error) error {
	err := fn(sess)
	if !errors.Is(err, ErrSessionClosed) {
		return err
	}
	fresh, gerr := sessions.Get(ctx, userID)
	if gerr != nil {
		return gerr
	}
	return fn(fresh)
}
