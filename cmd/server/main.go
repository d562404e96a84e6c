// main wires the transfer coordinator to its stores, the ledger gateway, the
// biometric oracle, and the audit pipeline. Business logic lives in internal
// packages; this file only assembles them and manages the process lifecycle.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"petledger/internal/auth/jwt"
	"petledger/internal/biometric"
	"petledger/internal/ledger"
	"petledger/internal/notify"
	"petledger/internal/platform/config"
	"petledger/internal/platform/httpserver"
	"petledger/internal/platform/logger"
	"petledger/internal/platform/metrics"
	platformredis "petledger/internal/platform/redis"
	"petledger/internal/transfer"
	transferhandler "petledger/internal/transfer/handler"
	transferservice "petledger/internal/transfer/service"
	httptransport "petledger/internal/transport/http"
	audit "petledger/pkg/platform/audit"
	auditkafka "petledger/pkg/platform/audit/kafka"
	auditmemory "petledger/pkg/platform/audit/store/memory"
	auditpostgres "petledger/pkg/platform/audit/store/postgres"
	auditworker "petledger/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var store transfer.Store
	var broadcaster notify.Broadcaster
	if redisClient != nil {
		store = transfer.NewRedisStore(redisClient.Client, cfg.TransferTTL)
		broadcaster = notify.NewRedisBroadcaster(redisClient.Client, log)
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, using in-memory transfer store")
		store = transfer.NewInMemoryStore()
		broadcaster = notify.NewInMemoryBroadcaster()
	}

	ledgerClient, err := ledger.NewClient(cfg.Ledger)
	if err != nil {
		log.Error("ledger client init failed", "error", err)
		os.Exit(1)
	}
	oracle := biometric.NewClient(cfg.Oracle)

	var auditStore audit.Store
	if cfg.PostgresURL != "" {
		db, dbErr := sql.Open("postgres", cfg.PostgresURL)
		if dbErr != nil {
			log.Error("audit database open failed", "error", dbErr)
			os.Exit(1)
		}
		defer db.Close()
		if pingErr := db.PingContext(rootCtx); pingErr != nil {
			log.Error("audit database unreachable", "error", pingErr)
			os.Exit(1)
		}
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("AUDIT_DATABASE_URL not set, audit trail is in-memory")
		auditStore = auditmemory.New()
	}

	var sink auditworker.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, kErr := auditkafka.New(rootCtx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if kErr != nil {
			log.Error("kafka sink init failed", "error", kErr)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	publisher := audit.NewPublisher(1024, log)
	worker := auditworker.New(auditStore, sink, publisher.Inbox(), log)

	coordinator := transferservice.NewCoordinator(store, ledgerClient, oracle, broadcaster, publisher, log,
		transferservice.WithConfirmationTimeout(cfg.ConfirmationTimeout),
	)

	jwtService := jwt.NewService(cfg.JWTSigningKey, "petledger", "petledger-api")
	validator := jwt.NewMiddlewareAdapter(jwtService)

	handler := transferhandler.New(coordinator, broadcaster, validator, log, metrics.New())
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	group, ctx := errgroup.WithContext(rootCtx)
	group.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.Info("starting petledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
