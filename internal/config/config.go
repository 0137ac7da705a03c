package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yungbote/wealthquest-backend/internal/platform/envutil"
)

// Config holds every runtime setting. Values come from defaults, then the
// TOML file, then environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
	Database  DatabaseConfig  `toml:"database"`
	Cache     CacheConfig     `toml:"cache"`
	Auth      AuthConfig      `toml:"auth"`
	Mentor    MentorConfig    `toml:"mentor"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Otel      OtelConfig      `toml:"otel"`
}

type ServerConfig struct {
	Addr    string `toml:"addr"`
	GinMode string `toml:"gin_mode"`
	// AllowedOrigins for CORS; empty uses the local dev origins.
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

type DatabaseConfig struct {
	Driver     string `toml:"driver"` // postgres or sqlite
	DSN        string `toml:"dsn,omitempty"`
	Host       string `toml:"host"`
	Port       string `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password,omitempty"`
	Name       string `toml:"name"`
	SQLitePath string `toml:"sqlite_path"`
}

type CacheConfig struct {
	Driver        string `toml:"driver"` // sqlite or redis
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db"`
}

type AuthConfig struct {
	JWTSecret      string   `toml:"jwt_secret,omitempty"`
	AccessTokenTTL Duration `toml:"access_token_ttl"`
}

type MentorConfig struct {
	Provider      string   `toml:"provider"` // openai, gemini or disabled
	OpenAIAPIKey  string   `toml:"openai_api_key,omitempty"`
	OpenAIBaseURL string   `toml:"openai_base_url"`
	OpenAIModel   string   `toml:"openai_model"`
	GeminiAPIKey  string   `toml:"gemini_api_key,omitempty"`
	GeminiBaseURL string   `toml:"gemini_base_url"`
	GeminiModel   string   `toml:"gemini_model"`
	Timeout       Duration `toml:"timeout"`
	MaxRetries    int      `toml:"max_retries"`
}

type SchedulerConfig struct {
	Enabled         bool     `toml:"enabled"`
	PlanRefreshCron string   `toml:"plan_refresh_cron"`
	EvictEvery      string   `toml:"evict_every"`
	SessionIdleTTL  Duration `toml:"session_idle_ttl"`
	// Remote write retry policy for gamification sessions.
	FlushRetries  int      `toml:"flush_retries"`
	FlushBackoff  Duration `toml:"flush_backoff"`
	FlushTimeout  Duration `toml:"flush_timeout"`
}

type OtelConfig struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	ServiceName string  `toml:"service_name"`
	Environment string  `toml:"environment"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Duration decodes TOML strings like "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", GinMode: "debug"},
		Log:    LogConfig{Mode: "development"},
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "wealthquest",
			SQLitePath: filepath.Join(DataDir(), "wealthquest.db"),
		},
		Cache: CacheConfig{
			Driver:    "sqlite",
			Path:      filepath.Join(DataDir(), "cache.db"),
			RedisAddr: "localhost:6379",
		},
		Auth: AuthConfig{
			JWTSecret:      "defaultsecret",
			AccessTokenTTL: Duration{time.Hour},
		},
		Mentor: MentorConfig{
			Provider:      "openai",
			OpenAIBaseURL: "https://api.openai.com",
			OpenAIModel:   "gpt-4o-mini",
			GeminiBaseURL: "https://generativelanguage.googleapis.com",
			GeminiModel:   "gemini-1.5-flash",
			Timeout:       Duration{30 * time.Second},
			MaxRetries:    2,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			PlanRefreshCron: "0 3 1 * *",
			EvictEvery:      "@every 1m",
			SessionIdleTTL:  Duration{15 * time.Minute},
			FlushRetries:    5,
			FlushBackoff:    Duration{500 * time.Millisecond},
			FlushTimeout:    Duration{10 * time.Second},
		},
		Otel: OtelConfig{
			ServiceName: "wealthquest-backend",
			Environment: "dev",
			SampleRatio: 1,
		},
	}
}

// DataDir is the XDG data directory for local state.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "wealthquest")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share", "wealthquest")
}

// Load reads path (or $WEALTHQUEST_CONFIG) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("WEALTHQUEST_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = envutil.String("ADDR", cfg.Server.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Server.GinMode = envutil.String("GIN_MODE", cfg.Server.GinMode)
	if origins := envutil.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	cfg.Log.Mode = envutil.String("LOG_MODE", cfg.Log.Mode)

	db := &cfg.Database
	db.Driver = envutil.String("DB_DRIVER", db.Driver)
	db.DSN = envutil.String("DATABASE_URL", db.DSN)
	db.Host = envutil.String("POSTGRES_HOST", db.Host)
	db.Port = envutil.String("POSTGRES_PORT", db.Port)
	db.User = envutil.String("POSTGRES_USER", db.User)
	db.Password = envutil.String("POSTGRES_PASSWORD", db.Password)
	db.Name = envutil.String("POSTGRES_NAME", db.Name)
	db.SQLitePath = envutil.String("SQLITE_PATH", db.SQLitePath)

	c := &cfg.Cache
	c.Driver = envutil.String("CACHE_DRIVER", c.Driver)
	c.Path = envutil.String("CACHE_PATH", c.Path)
	c.RedisAddr = envutil.String("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envutil.String("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envutil.Int("REDIS_DB", c.RedisDB)

	cfg.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL.Duration = envutil.Duration("ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL.Duration)

	m := &cfg.Mentor
	m.Provider = envutil.String("MENTOR_PROVIDER", m.Provider)
	m.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", m.OpenAIAPIKey)
	m.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", m.OpenAIBaseURL)
	m.OpenAIModel = envutil.String("OPENAI_MODEL", m.OpenAIModel)
	m.GeminiAPIKey = envutil.String("GEMINI_API_KEY", m.GeminiAPIKey)
	m.GeminiBaseURL = envutil.String("GEMINI_BASE_URL", m.GeminiBaseURL)
	m.GeminiModel = envutil.String("GEMINI_MODEL", m.GeminiModel)
	m.Timeout.Duration = envutil.Duration("MENTOR_TIMEOUT", m.Timeout.Duration)
	m.MaxRetries = envutil.Int("MENTOR_MAX_RETRIES", m.MaxRetries)

	s := &cfg.Scheduler
	s.Enabled = envutil.Bool("SCHEDULER_ENABLED", s.Enabled)
	s.PlanRefreshCron = envutil.String("PLAN_REFRESH_CRON", s.PlanRefreshCron)
	s.SessionIdleTTL.Duration = envutil.Duration("SESSION_IDLE_TTL", s.SessionIdleTTL.Duration)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("APP_ENV", o.Environment)
	o.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", o.SampleRatio)
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("cache.driver: unsupported %q", c.Cache.Driver)
	}
	switch c.Mentor.Provider {
	case "openai", "gemini", "disabled":
	default:
		return fmt.Errorf("mentor.provider: unsupported %q", c.Mentor.Provider)
	}
	if c.Auth.AccessTokenTTL.Duration <= 0 {
		return errors.New("auth.access_token_ttl must be positive")
	}
	return nil
}

// PostgresDSN returns the explicit DSN or one assembled from the parts.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
