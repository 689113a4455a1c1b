// jobmate-dashboard-service
//
// Backend-for-frontend of the job dashboard. Reads the jobs API and serves:
//   - /              market summary (companies, modalities, skills, trend)
//   - /jobs          paged listing with search and remote-only filter
//   - /jobs/{id}     job details
//   - /jobs/live     WebSocket live search (debounced, stale-safe)
//
// A cron job snapshots the summary into PostgreSQL so the dashboard can
// still render when the jobs API is down, and publishes
// EVENT_SUMMARY_REFRESHED to Redis. gRPC health follows the last refresh.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/dashboard-service/internal/aggregate"
	"jobmate/dashboard-service/internal/config"
	"jobmate/dashboard-service/internal/dashboard"
	"jobmate/dashboard-service/internal/db"
	"jobmate/dashboard-service/internal/gateway"
	"jobmate/dashboard-service/internal/grpcserver"
	"jobmate/dashboard-service/internal/logger"
	"jobmate/dashboard-service/internal/query"
	"jobmate/dashboard-service/internal/snapshot"
	"jobmate/dashboard-service/internal/theme"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[dashboard-service] Config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	l := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (optional) ────────────────────────────────────────────────────
	rdb, err := db.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		l.Fatal().Err(err).Msg("[dashboard-service] Redis")
	}
	if rdb != nil {
		defer rdb.Close()
		l.Info().Msg("[dashboard-service] Redis connected ✓")
	} else {
		l.Info().Msg("[dashboard-service] REDIS_URL not set, using in-memory theme store and no cache")
	}

	// ── PostgreSQL (optional) ───────────────────────────────────────────────
	pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		l.Fatal().Err(err).Msg("[dashboard-service] PostgreSQL")
	}
	var snapshots snapshot.Store = snapshot.NewMemoryStore()
	if pool != nil {
		defer pool.Close()
		pg, err := snapshot.NewPostgresStore(ctx, pool)
		if err != nil {
			l.Fatal().Err(err).Msg("[dashboard-service] PostgreSQL")
		}
		snapshots = pg
		l.Info().Msg("[dashboard-service] PostgreSQL connected ✓")
	} else {
		l.Info().Msg("[dashboard-service] DATABASE_URL not set, summary snapshots kept in memory")
	}

	// ── Jobs API gateway ────────────────────────────────────────────────────
	api := gateway.NewClient(cfg.APIBaseURL, gateway.NewRateLimitedClient(cfg.GatewayRPS, cfg.GatewayTimeout))
	themeStore := theme.Store(theme.NewMemoryStore())
	if rdb != nil {
		api.WithCache(gateway.NewRedisCache(rdb), cfg.CacheTTL)
		themeStore = theme.NewRedisStore(rdb)
	}
	l.Info().Str("base_url", cfg.APIBaseURL).Msg("[dashboard-service] Jobs API configured")

	// ── gRPC health ─────────────────────────────────────────────────────────
	grpcSrv := grpcserver.New()
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		l.Fatal().Err(err).Msg("[dashboard-service] gRPC listen")
	}
	go func() {
		l.Info().Str("port", cfg.GRPCPort).Msg("[dashboard-service] gRPC health listening")
		if err := grpcSrv.Serve(lis); err != nil {
			l.Error().Err(err).Msg("[dashboard-service] gRPC server error")
		}
	}()

	// ── Summary snapshots ───────────────────────────────────────────────────
	sq := query.DefaultSummary()
	sq.Days = cfg.SummaryDays
	sched := snapshot.NewScheduler(api, snapshots, sq, cfg.SummaryIntervalHours).WithHealth(grpcSrv)
	if rdb != nil {
		sched.WithPublisher(snapshot.NewRedisPublisher(rdb))
	}
	if err := sched.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("[dashboard-service] Scheduler")
	}

	// ── HTTP server ─────────────────────────────────────────────────────────
	gin.SetMode(gin.ReleaseMode)
	h := dashboard.NewHandler(api, snapshots, theme.NewProvider(themeStore), dashboard.Options{
		Version:        version,
		SummaryDays:    cfg.SummaryDays,
		Debounce:       cfg.Debounce,
		Aggregate:      aggregate.DefaultOptions(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           dashboard.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: /jobs/live connections are long-lived
	}

	go func() {
		l.Info().Msgf("[dashboard-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("[dashboard-service] HTTP server error")
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("[dashboard-service] Shutting down…")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("[dashboard-service] Shutdown error")
	}
	grpcSrv.Stop()
	l.Info().Msg("[dashboard-service] Stopped.")
}
