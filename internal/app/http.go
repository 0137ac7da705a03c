package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/http"
	httpH "github.com/yungbote/wealthquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wealthquest-backend/internal/http/middleware"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Finance      *httpH.FinanceHandler
	Gamification *httpH.GamificationHandler
	Challenge    *httpH.ChallengeHandler
	Lesson       *httpH.LessonHandler
	Mentor       *httpH.MentorHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(dbPinger(db)),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.Auth),
		Finance:      httpH.NewFinanceHandler(services.Finance),
		Gamification: httpH.NewGamificationHandler(services.Gamification),
		Challenge:    httpH.NewChallengeHandler(services.Challenges),
		Lesson:       httpH.NewLessonHandler(services.Education),
		Mentor:       httpH.NewMentorHandler(services.Mentor),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg config.Config, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        observability.Current(),

		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		AuthMiddleware:      middleware.Auth,
		UserHandler:         handlers.User,
		FinanceHandler:      handlers.Finance,
		GamificationHandler: handlers.Gamification,
		ChallengeHandler:    handlers.Challenge,
		LessonHandler:       handlers.Lesson,
		MentorHandler:       handlers.Mentor,
	})
}

func dbPinger(db *gorm.DB) httpH.Pinger {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
