package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/data/cache"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Catalog      services.CatalogService
	Sessions     services.SessionManager
	Finance      services.FinanceService
	Gamification services.GamificationService
	Challenges   services.ChallengeService
	Education    services.EducationService
	Mentor       services.MentorService

	// Scheduler is nil when disabled.
	Scheduler *services.Scheduler
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg config.Config, r Repos, store cache.Store) (Services, error) {
	log.Info("Wiring services...")

	sessions := services.NewSessionManager(log, services.GamificationStores{
		States:  r.State,
		Badges:  r.Badge,
		Rewards: r.Reward,
		Streaks: r.Streak,
		Cache:   store,
	}, services.FlushPolicy{
		Retries: cfg.Scheduler.FlushRetries,
		Backoff: cfg.Scheduler.FlushBackoff.Duration,
		Timeout: cfg.Scheduler.FlushTimeout.Duration,
	}, cfg.Scheduler.SessionIdleTTL.Duration)

	catalog := services.NewCatalogService(db, log, r.Lesson, r.Quiz, r.Challenge)
	finance := services.NewFinanceService(log, r.Profile, r.Goal, r.Plan, store, sessions)
	gen, provider := wireMentorGenerator(log, cfg.Mentor)

	out := Services{
		Auth:         services.NewAuthService(log, r.User, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL.Duration),
		Catalog:      catalog,
		Sessions:     sessions,
		Finance:      finance,
		Gamification: services.NewGamificationService(log, sessions, finance),
		Challenges:   services.NewChallengeService(log, catalog, r.ChallengeProgress, sessions),
		Education:    services.NewEducationService(log, catalog, r.LessonProgress, sessions),
		Mentor:       services.NewMentorService(log, gen, provider, r.Advice, r.ChatMessage, finance, sessions),
	}

	if cfg.Scheduler.Enabled {
		sched, err := services.NewScheduler(log, services.SchedulerConfig{
			EvictEvery:  cfg.Scheduler.EvictEvery,
			PlanRefresh: cfg.Scheduler.PlanRefreshCron,
		}, sessions, finance)
		if err != nil {
			sessions.CloseAll()
			return Services{}, fmt.Errorf("init scheduler: %w", err)
		}
		out.Scheduler = sched
	}
	return out, nil
}
