package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/wealthquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wealthquest-backend/internal/http/middleware"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	FinanceHandler      *httpH.FinanceHandler
	GamificationHandler *httpH.GamificationHandler
	ChallengeHandler    *httpH.ChallengeHandler
	LessonHandler       *httpH.LessonHandler
	MentorHandler       *httpH.MentorHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthcheck"))
	r.Use(httpMW.RequestLogger(cfg.Log, "/healthcheck"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Finance
		if cfg.FinanceHandler != nil {
			protected.GET("/profile", cfg.FinanceHandler.GetProfile)
			protected.PUT("/profile", cfg.FinanceHandler.SaveProfile)
			protected.GET("/goals", cfg.FinanceHandler.ListGoals)
			protected.POST("/goals", cfg.FinanceHandler.CreateGoal)
			protected.POST("/goals/:id/funds", cfg.FinanceHandler.AddFunds)
			protected.GET("/plan", cfg.FinanceHandler.GetPlan)
			protected.POST("/plan/generate", cfg.FinanceHandler.GeneratePlan)
		}

		// Gamification
		if cfg.GamificationHandler != nil {
			protected.GET("/gamification", cfg.GamificationHandler.Get)
			protected.POST("/gamification/streak/check", cfg.GamificationHandler.CheckStreak)
		}

		// Challenges
		if cfg.ChallengeHandler != nil {
			protected.GET("/challenges", cfg.ChallengeHandler.List)
			protected.POST("/challenges/:id/progress", cfg.ChallengeHandler.UpdateProgress)
		}

		// Lessons
		if cfg.LessonHandler != nil {
			protected.GET("/lessons", cfg.LessonHandler.List)
			protected.GET("/lessons/:id/quiz", cfg.LessonHandler.Quiz)
			protected.POST("/lessons/:id/complete", cfg.LessonHandler.Complete)
		}

		// Mentor
		if cfg.MentorHandler != nil {
			protected.POST("/mentor/advice", cfg.MentorHandler.GenerateAdvice)
			protected.GET("/mentor/advice/latest", cfg.MentorHandler.LatestAdvice)
			protected.POST("/mentor/chat", cfg.MentorHandler.Chat)
			protected.GET("/mentor/chat", cfg.MentorHandler.ChatHistory)
			protected.DELETE("/mentor/chat", cfg.MentorHandler.ClearChat)
		}
	}

	return r
}
