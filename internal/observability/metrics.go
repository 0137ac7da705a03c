package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	mentorRequests *CounterVec
	mentorLatency  *HistogramVec

	stateFlushes  *CounterVec
	stateRollback *Counter
	fallbacks     *CounterVec
	xpAwarded     *CounterVec
	sessions      *Gauge

	dbPool    *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("wq_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"wq_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("wq_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("wq_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("wq_api_requests_error_total", "API requests answered with a 5xx status."),

		mentorRequests: NewCounterVec("wq_mentor_requests_total", "AI mentor requests by provider/op/status.", []string{"provider", "op", "status"}),
		mentorLatency: NewHistogramVec(
			"wq_mentor_request_duration_seconds",
			"AI mentor request latency in seconds.",
			[]string{"provider", "op"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		),

		stateFlushes:  NewCounterVec("wq_gamification_flush_total", "Remote gamification writes by outcome.", []string{"outcome"}),
		stateRollback: NewCounter("wq_gamification_rollback_total", "Mutations rolled back after a cache write failure."),
		fallbacks:     NewCounterVec("wq_fallback_total", "Responses served from a fallback by collaborator.", []string{"collaborator"}),
		xpAwarded:     NewCounterVec("wq_xp_awarded_total", "XP awarded by source.", []string{"source"}),
		sessions:      NewGauge("wq_gamification_sessions", "Open gamification sessions."),

		dbPool:    NewGaugeVec("wq_db_pool", "Database connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("wq_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("wq_redis_ping_seconds", "Last Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.mentorRequests, m.mentorLatency,
		m.stateFlushes, m.stateRollback, m.fallbacks, m.xpAwarded, m.sessions,
		m.dbPool, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveMentorRequest(provider, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = "unknown"
	}
	m.mentorRequests.Inc(provider, op, status)
	if dur > 0 {
		m.mentorLatency.Observe(dur.Seconds(), provider, op)
	}
}

// ObserveFlush records a remote gamification write outcome: ok, retry,
// failed or superseded.
func (m *Metrics) ObserveFlush(outcome string) {
	if m == nil {
		return
	}
	m.stateFlushes.Inc(outcome)
}

func (m *Metrics) IncRollback() {
	if m == nil {
		return
	}
	m.stateRollback.Inc()
}

func (m *Metrics) IncFallback(collaborator string) {
	if m == nil {
		return
	}
	collaborator = strings.TrimSpace(collaborator)
	if collaborator == "" {
		collaborator = "unknown"
	}
	m.fallbacks.Inc(collaborator)
}

func (m *Metrics) AddXP(source string, xp int64) {
	if m == nil || xp <= 0 {
		return
	}
	m.xpAwarded.Add(float64(xp), source)
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// StartDBPoolCollector samples the sql.DB pool behind gorm until ctx ends.
func (m *Metrics) StartDBPoolCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: database pool unavailable", "error", err)
		}
		return
	}
	go every(ctx, scrapeInterval(), func() {
		st := sqlDB.Stats()
		m.dbPool.Set(float64(st.OpenConnections), "open_connections")
		m.dbPool.Set(float64(st.InUse), "in_use")
		m.dbPool.Set(float64(st.Idle), "idle")
		m.dbPool.Set(float64(st.WaitCount), "wait_count")
		m.dbPool.Set(st.WaitDuration.Seconds(), "wait_duration_seconds")
		m.dbPool.Set(float64(st.MaxOpenConnections), "max_open_connections")
	})
}

// StartRedisCollector pings the shared cache and records reachability.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	rdb := redis.NewClient(opts)
	go func() {
		<-ctx.Done()
		_ = rdb.Close()
	}()
	go every(ctx, scrapeInterval(), func() {
		start := time.Now()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			m.redisUp.Set(0)
			if log != nil && ctx.Err() == nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

// every runs fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
