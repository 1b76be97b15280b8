// cmd/chartserverd — Chart interaction server.
// Hosts per-session interaction engines (crosshair, drawing tools,
// gesture classification) over WebSocket, with drawings persisted in
// SQLite or Redis and shared across sessions.
//
// Config (env vars):
//
//	CHART_LISTEN_ADDR   — WebSocket listen address   (default ":8780")
//	CHART_METRICS_ADDR  — metrics/health address     (default ":9790")
//	CHART_REPO_BACKEND  — "sqlite", "redis", "memory" (default "sqlite")
//	CHART_SQLITE_PATH   — sqlite file                (default "data/drawings.db")
//	REDIS_ADDR          — redis address              (default "localhost:6379")
//	CHART_ID            — chart scope for drawings   (default "default")
//	CHART_TOTP_SECRET   — enables the auth handshake when set
//	CHART_TUNING_PATH   — optional YAML tuning file
//	CHART_JANITOR_SPEC  — cron spec for store upkeep (default "15 4 * * *")
//	CHART_SIM_CANDLES   — simulated candle count     (default 240)
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"chartkit/config"
	"chartkit/internal/feed"
	"chartkit/internal/gateway"
	"chartkit/internal/gesture"
	"chartkit/internal/interaction"
	"chartkit/internal/logger"
	"chartkit/internal/metrics"
	"chartkit/internal/model"
	"chartkit/internal/repo/memory"
	redisrepo "chartkit/internal/repo/redis"
	sqliterepo "chartkit/internal/repo/sqlite"
	"chartkit/internal/velocity"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	_ = godotenv.Load()
	logger.Init("chartserverd", slog.LevelInfo)

	cfg := config.Load()
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Fatalf("[chartserverd] tuning: %v", err)
	}

	prom := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Drawing repository ----
	var (
		repo      model.DrawingRepository
		redisCli  *goredis.Client
		sqliteCli *sqliterepo.Repo
	)
	switch cfg.RepoBackend {
	case "sqlite":
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		sqliteCli, err = sqliterepo.New(sqliterepo.Config{DBPath: cfg.SQLitePath, ChartID: cfg.ChartID})
		if err != nil {
			log.Fatalf("[chartserverd] sqlite repo: %v", err)
		}
		repo = sqliteCli
		log.Printf("[chartserverd] drawings persisted to %s", cfg.SQLitePath)

	case "redis":
		redisCli = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisCli.Ping(ctx).Err(); err != nil {
			log.Fatalf("[chartserverd] redis ping: %v", err)
		}
		rr, err := redisrepo.New(redisCli, redisrepo.Config{ChartID: cfg.ChartID})
		if err != nil {
			log.Fatalf("[chartserverd] redis repo: %v", err)
		}
		rr.Breaker().OnStateChange = func(from, to redisrepo.BreakerState) {
			prom.RedisBreakerState.Set(float64(to))
			if to == redisrepo.BreakerOpen {
				prom.RedisBreakerTrips.Inc()
			}
			log.Printf("[chartserverd] redis breaker %s -> %s", from, to)
		}
		repo = rr
		log.Printf("[chartserverd] drawings shared via redis at %s", cfg.RedisAddr)

	case "memory":
		repo = memory.New()
		log.Printf("[chartserverd] drawings held in memory only")

	default:
		log.Fatalf("[chartserverd] unknown repo backend %q", cfg.RepoBackend)
	}
	defer repo.Close()

	// ---- Liveness checks ----
	if sqliteCli != nil || redisCli != nil {
		var db *sql.DB
		if sqliteCli != nil {
			db = sqliteCli.DB()
		}
		health.StartLivenessChecker(ctx, redisCli, db, 15*time.Second)
	}

	// ---- Store janitor ----
	var janitor *cron.Cron
	if sqliteCli != nil {
		janitor = cron.New()
		if _, err := janitor.AddFunc(cfg.JanitorSpec, func() {
			if err := sqliteCli.Maintain(); err != nil {
				log.Printf("[chartserverd] janitor: %v", err)
			} else {
				log.Printf("[chartserverd] drawing store compacted")
			}
		}); err != nil {
			log.Fatalf("[chartserverd] janitor spec %q: %v", cfg.JanitorSpec, err)
		}
		janitor.Start()
	}

	// ---- Chart data ----
	candles := config.GetEnvInt("CHART_SIM_CANDLES", 240)
	data := feed.Series(candles, time.Now(), feed.SimConfig{})

	// ---- WebSocket hub ----
	hub := gateway.NewHub(repo, data, gateway.HubConfig{
		TOTPSecret:     cfg.TOTPSecret,
		Variant:        interaction.VariantDesktop,
		DebounceWindow: tuning.DebounceWindow.Std(),
		EdgeZone:       tuning.EdgeZonePx,
		EdgePanSpeed:   tuning.EdgePanSpeed,
		Velocity: velocity.Params{
			Alpha:             tuning.VelocityAlpha,
			MinSampleInterval: tuning.MinSampleInterval.Std(),
		},
		Gesture: gesture.Params{
			HoldDelay: tuning.LongPressDelay.Std(),
			DeadZone:  tuning.DeadZonePx,
		},
	})
	hub.Metrics = prom

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		log.Printf("[chartserverd] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[chartserverd] listen: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[chartserverd] shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	hub.Close()
	if janitor != nil {
		janitor.Stop()
	}
	metricsSrv.Stop(shutdownCtx)
	cancel()
	log.Println("[chartserverd] bye")
}
