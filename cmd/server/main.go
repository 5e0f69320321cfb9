package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"waitlist/internal/platform/config"
	"waitlist/internal/platform/httpserver"
	"waitlist/internal/platform/logger"
	"waitlist/internal/platform/metrics"
	"waitlist/internal/platform/middleware"
	"waitlist/internal/platform/redis"
	rlmetrics "waitlist/internal/ratelimit/metrics"
	rlservice "waitlist/internal/ratelimit/service"
	rlstore "waitlist/internal/ratelimit/store"
	"waitlist/internal/signup/events"
	"waitlist/internal/signup/handler"
	signupmetrics "waitlist/internal/signup/metrics"
	"waitlist/internal/signup/notify"
	"waitlist/internal/signup/service"
	"waitlist/internal/signup/store"
	"waitlist/pkg/platform/httputil"
)

const (
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
	counterEvictPeriod = time.Minute
	notifyInboxSize    = 256
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Signup store: Postgres when configured, in-memory otherwise.
	var signupStore store.Store
	if cfg.DatabaseURL != "" {
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		signupStore = store.NewPostgres(db)
		log.Info("using postgres signup store")
	} else {
		signupStore = store.NewMemory()
		log.Warn("DATABASE_URL not set, signups are stored in memory only")
	}

	// Rate limit counters: shared Redis counters when configured so limits
	// hold across instances, per-process counters otherwise.
	var counters rlstore.CounterStore
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		counters = rlstore.NewRedis(redisClient.Client)
		log.Info("using redis rate limit counters")
	} else {
		memCounters := rlstore.NewMemory(counterEvictPeriod)
		defer memCounters.Close()
		counters = memCounters
		log.Warn("REDIS_URL not set, rate limits are per-process")
	}

	limiter, err := rlservice.New(counters,
		rlservice.Policy{MaxAttempts: cfg.Rates.IdentityMax, Window: cfg.Rates.IdentityWindow},
		rlservice.Policy{MaxAttempts: cfg.Rates.EmailMax, Window: cfg.Rates.EmailWindow},
		rlservice.WithLogger(log),
		rlservice.WithMetrics(rlmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}

	// Confirmation delivery: SMTP relay when configured, log-only otherwise.
	signupMetrics := signupmetrics.New()
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(cfg.SMTP)
		log.Info("using smtp notifier", "host", cfg.SMTP.Host)
	}
	worker := notify.NewWorker(notifier, log, signupMetrics, notifyInboxSize)

	publisher, err := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer publisher.Close()

	svc, err := service.New(signupStore, limiter,
		service.WithWorker(worker),
		service.WithPublisher(publisher),
		service.WithLogger(log),
		service.WithMetrics(signupMetrics),
	)
	if err != nil {
		return fmt.Errorf("build signup service: %w", err)
	}

	if cfg.AdminToken == "" {
		log.Warn("WAITLIST_ADMIN_TOKEN not set, admin routes are locked")
	}

	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Timeout(requestTimeout),
		middleware.ContentTypeJSON,
		middleware.Latency(metrics.New()),
	)

	h := handler.New(svc, log)
	h.Register(router)
	h.RegisterAdmin(router, cfg.AdminToken)
	router.Get("/healthz", healthz(svc))
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("notify worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting waitlist server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func healthz(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
