// Command server runs the registration and authentication service.
//
// Backends are selected from the environment: PostgreSQL and Redis when
// DATABASE_URL and REDIS_URL are set, in-memory stores otherwise, so a
// development checkout runs with no external services at all.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	authhandler "recoveryregister/internal/auth/handler"
	authservice "recoveryregister/internal/auth/service"
	"recoveryregister/internal/identity/classifier"
	identitystore "recoveryregister/internal/identity/store"
	"recoveryregister/internal/platform/audit"
	"recoveryregister/internal/platform/config"
	"recoveryregister/internal/platform/httpserver"
	"recoveryregister/internal/platform/logger"
	"recoveryregister/internal/platform/metrics"
	"recoveryregister/internal/platform/middleware"
	platformredis "recoveryregister/internal/platform/redis"
	registrationhandler "recoveryregister/internal/registration/handler"
	registrationservice "recoveryregister/internal/registration/service"
	registrationstore "recoveryregister/internal/registration/store"
	schedulehandler "recoveryregister/internal/schedule/handler"
	scheduleservice "recoveryregister/internal/schedule/service"
	schedulestore "recoveryregister/internal/schedule/store"
	"recoveryregister/internal/session"
	sessionstore "recoveryregister/internal/session/store"
	"recoveryregister/internal/storage"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Identity, schedule and registration storage.
	var (
		identities    authservice.IdentityStore
		events        schedulestore.Store
		registrations registrationstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := storage.RunMigrations(ctx, db); err != nil {
			return err
		}
		identities = identitystore.NewPostgres(db)
		events = schedulestore.NewPostgres(db)
		registrations = registrationstore.NewPostgres(db)
		log.Info("storage ready", "backend", "postgres")
	} else {
		identities = identitystore.NewInMemory()
		events = schedulestore.NewInMemory()
		registrations = registrationstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Session storage.
	var sessions sessionstore.Store
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		log.Info("session store ready", "backend", "redis")
	} else {
		sessions = sessionstore.NewInMemory()
		log.Warn("REDIS_URL not set, using in-memory sessions")
	}

	// Audit trail.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		publisher = kafka
		log.Info("audit publisher ready", "backend", "kafka", "topic", cfg.AuditTopic)
	} else {
		publisher = audit.NewMemoryPublisher()
		log.Warn("KAFKA_BROKERS not set, audit events stay in process")
	}
	defer publisher.Close()

	manager := session.NewManager(sessions, cfg.Session.TTL, log, session.WithMetrics(m))

	policy := classifier.Policy{
		PasswordMinLen:      cfg.Auth.PasswordMinLen,
		AdminPasswordMinLen: cfg.Auth.PasswordMinLenAdmin,
		PseudonymMinLen:     cfg.Auth.PseudonymMinLen,
	}
	auth := authservice.New(identities, manager, policy, cfg.Auth.BcryptCost,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(m),
	)
	schedule := scheduleservice.New(events, log)
	registration := registrationservice.New(registrations, schedule, log,
		registrationservice.WithAuditPublisher(publisher),
		registrationservice.WithMetrics(m),
	)

	if cfg.Auth.BootstrapAdminUsername != "" {
		if err := auth.BootstrapAdmin(ctx, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword); err != nil {
			return err
		}
	}

	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.ClientMetadata,
		middleware.Logger(log),
		middleware.Timeout(requestTimeout),
		middleware.ContentTypeJSON,
		middleware.LatencyMiddleware(m),
	)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authhandler.New(auth, manager, cfg, log).Register(router)
	schedulehandler.New(schedule, manager, cfg.Session.CookieName, log).Register(router)
	registrationhandler.New(registration, manager, cfg.Session.CookieName, log).Register(router)

	srv := httpserver.New(cfg.Addr, router, requestTimeout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return manager.RunSweeper(gctx, sweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
