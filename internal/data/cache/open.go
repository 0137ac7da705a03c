package cache

import (
	"fmt"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

// Open builds the configured backend.
func Open(cfg config.CacheConfig, log *logger.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("Local cache ready", "driver", "sqlite", "path", cfg.Path)
		return s, nil
	case "redis":
		s, err := OpenRedis(RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		log.Info("Local cache ready", "driver", "redis", "addr", cfg.RedisAddr)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
