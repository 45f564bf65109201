// Command server runs the login protection service. It wires stores,
// services, and the HTTP router; business logic lives in the internal
// service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aleksandr505/Confa/internal/audit"
	auditkafka "github.com/Aleksandr505/Confa/internal/audit/kafka"
	authhandler "github.com/Aleksandr505/Confa/internal/auth/handler"
	authmetrics "github.com/Aleksandr505/Confa/internal/auth/metrics"
	authservice "github.com/Aleksandr505/Confa/internal/auth/service"
	"github.com/Aleksandr505/Confa/internal/auth/token"
	httpapi "github.com/Aleksandr505/Confa/internal/http"
	banhandler "github.com/Aleksandr505/Confa/internal/ipban/handler"
	ipbanmetrics "github.com/Aleksandr505/Confa/internal/ipban/metrics"
	ipbanservice "github.com/Aleksandr505/Confa/internal/ipban/service"
	banstore "github.com/Aleksandr505/Confa/internal/ipban/store/ban"
	counterstore "github.com/Aleksandr505/Confa/internal/ipban/store/counter"
	"github.com/Aleksandr505/Confa/internal/platform/config"
	"github.com/Aleksandr505/Confa/internal/platform/httpserver"
	"github.com/Aleksandr505/Confa/internal/platform/logger"
	platformpostgres "github.com/Aleksandr505/Confa/internal/platform/postgres"
	platformredis "github.com/Aleksandr505/Confa/internal/platform/redis"
	"github.com/Aleksandr505/Confa/internal/ratelimit/bucket"
	ratelimitmetrics "github.com/Aleksandr505/Confa/internal/ratelimit/metrics"
	userstore "github.com/Aleksandr505/Confa/internal/user/store"
)

const shutdownTimeout = 10 * time.Second

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres backs ban history and accounts; without a DSN the service
	// falls back to in-memory stores for local runs.
	db, err := platformpostgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}

	var (
		bans  ipbanservice.BanStore
		users interface {
			authservice.VerifierUserStore
			authservice.UserStore
		}
	)
	if db != nil {
		defer db.Close()
		bans = banstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		bans = banstore.NewMemory()
		users = userstore.NewMemory()
		log.Warn("no postgres dsn configured, using in-memory stores")
	}

	var counters ipbanservice.CounterStore
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		counters = counterstore.NewRedis(redisClient.Client)
		log.Info("using redis failure counters")
	} else {
		counters = counterstore.NewMemory()
		log.Warn("no redis url configured, using in-memory failure counters")
	}

	var auditPublisher audit.Publisher
	kafkaPublisher, err := auditkafka.NewPublisher(ctx, cfg.Kafka)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
		log.Info("publishing security audit events", "topic", cfg.Kafka.AuditTopic)
	}

	banService, err := ipbanservice.New(counters, bans,
		ipbanservice.WithLogger(log),
		ipbanservice.WithConfig(cfg.IPBan),
		ipbanservice.WithMetrics(ipbanmetrics.New()),
		ipbanservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build ipban service", "error", err)
		os.Exit(1)
	}

	codec := token.NewCodec(cfg.JWT)
	limiter := bucket.New(cfg.Limiter.Capacity, cfg.Limiter.RefillWindow,
		bucket.WithMetrics(ratelimitmetrics.New()))

	authSvc, err := authservice.New(
		codec,
		limiter,
		banService,
		authservice.NewStoreVerifier(users),
		users,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build auth service", "error", err)
		os.Exit(1)
	}

	health := map[string]httpapi.HealthChecker{}
	if redisClient != nil {
		health["redis"] = redisClient
	}
	if db != nil {
		health["postgres"] = dbHealth{db: db}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:      authhandler.New(authSvc, log, cfg.JWT.RefreshExpiration),
		Bans:      banhandler.New(banService, log),
		Validator: httpapi.CodecValidator{Codec: codec},
		Logger:    log,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		limiter.Run(ctx, cfg.Limiter.SweepInterval, cfg.Limiter.MaxIdle)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
