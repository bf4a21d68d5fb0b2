package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/grpcx"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/redact"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/config"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage/memory"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage/postgres"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/sweeper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck(os.Args[2:]))
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var checks []runtime.ReadyCheck

	var store storage.Store
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memory.New()
		seedDemo(mem)
		store = mem
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("db migration failed", "err", err)
			panic(err)
		}
		store = pg
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}

	var notifier notify.Dispatcher = notify.NewLogDispatcher(logger)
	if cfg.KafkaBrokers != "" {
		kd, err := notify.NewKafkaDispatcher(notify.KafkaConfig{
			Brokers:          cfg.KafkaBrokers,
			FailureThreshold: cfg.BreakerThreshold,
		}, logger)
		if err != nil {
			logger.Error("kafka dispatcher init failed; logging events instead", "err", err)
		} else {
			defer func() { _ = kd.Close() }()
			notifier = kd
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
	}

	// Events leave through a bounded queue so a stalled broker never holds a
	// booking request. Close runs before the Kafka writer closes.
	events := notify.NewAsync(notifier, logger, notify.AsyncConfig{Timeout: cfg.NotifyTimeout()})
	defer events.Close()

	coord := booking.New(booking.Deps{
		Store:         store,
		Notifier:      events,
		Logger:        logger,
		Metrics:       metrics.New(prometheus.DefaultRegisterer),
		Redactor:      redact.New(cfg.ConfirmationSecret),
		BufferMin:     cfg.BufferMinutes,
		SlotStep:      cfg.SlotStep(),
		CommitTimeout: cfg.CommitTimeout(),
		NotifyTimeout: cfg.NotifyTimeout(),
	})

	limiter := httpx.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerMinute/4+1).Middleware()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "")
		limiter = rl.Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: rl.ReadyCheck})
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", httpx.SalonIDHeader, httpx.RequestIDHeader},
		ExposedHeaders: []string{httpx.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	r.Get("/healthz", runtime.HealthzHandler)
	r.Get("/readyz", runtime.ReadyzHandler(checks...))
	r.Handle("/metrics", promhttp.Handler())
	handlers.NewBookingHandler(coord, logger).Mount(r, limiter)

	httpHandler := httpx.Chain(r,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger, time.Second),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, health := grpcx.NewServer()
	go grpcx.WatchReadiness(ctx, health, healthService, 5*time.Second, logger, checks...)
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			return
		}
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		if err := sweeper.New(coord, logger, sweeper.Config{Spec: cfg.CompletionSweepSpec}).Run(ctx); err != nil {
			logger.Error("completion sweeper not started", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()
	logger.Info("servers stopped")
}

// seedDemo gives the in-memory store one salon to book against.
func seedDemo(s *memory.Store) {
	s.PutSalon(demoSalon)
	for _, svc := range demoServices {
		s.PutService(svc)
	}
	for _, st := range demoStaff {
		s.PutStaff(st)
	}
}
