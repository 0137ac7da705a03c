package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/data/cache"
	"github.com/yungbote/wealthquest-backend/internal/data/db"
	"github.com/yungbote/wealthquest-backend/internal/http"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/envutil"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

// Version is stamped into traces.
var Version = "dev"

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	DB       *gorm.DB
	Cache    cache.Store
	Router   *gin.Engine
	Repos    Repos
	Services Services

	server       *http.Server
	store        *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(cfg config.Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel, Version)
	observability.Init(log)
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	theDB := store.DB()

	local, err := cache.Open(cfg.Cache, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, local)
	if err != nil {
		_ = local.Close()
		_ = store.Close()
		return nil, err
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := serviceset.Catalog.Seed(seedCtx); err != nil {
		log.Warn("Catalog seed failed, embedded catalog will serve reads", "error", err)
	}
	cancel()

	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Cache:        local,
		Router:       server.Engine,
		Repos:        reposet,
		Services:     serviceset,
		server:       server,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

// OpenStore connects to the durable store and applies migrations.
func OpenStore(cfg config.Config, log *logger.Logger) (*db.Service, error) {
	store, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return store, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if m := observability.Current(); m != nil {
		m.StartServer(ctx, a.Log, envutil.String("METRICS_ADDR", ":9090"))
		m.StartDBPoolCollector(ctx, a.Log, a.DB)
		if a.Cfg.Cache.Driver == "redis" {
			m.StartRedisCollector(ctx, a.Log, &redis.Options{
				Addr:     a.Cfg.Cache.RedisAddr,
				Password: a.Cfg.Cache.RedisPassword,
				DB:       a.Cfg.Cache.RedisDB,
			})
		}
	}
	if a.Services.Scheduler != nil {
		a.Services.Scheduler.Start()
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if addr == "" {
		addr = a.Cfg.Server.Addr
	}
	a.Log.Info("Serving HTTP", "addr", addr)
	return a.server.Run(addr)
}

// Close stops serving, then flushes sessions before releasing the stores.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown incomplete", "error", err)
		}
	}
	if a.Services.Scheduler != nil {
		a.Services.Scheduler.Stop()
	}
	if a.Services.Sessions != nil {
		a.Services.Sessions.CloseAll()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Warn("Cache close failed", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
