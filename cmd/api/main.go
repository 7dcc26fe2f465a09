package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"staffdesk.org/internal/auth"
	"staffdesk.org/internal/broker"
	"staffdesk.org/internal/config"
	"staffdesk.org/internal/directory"
	"staffdesk.org/internal/httpapi"
	"staffdesk.org/internal/leave"
	"staffdesk.org/internal/notify"
	"staffdesk.org/internal/obs"
	"staffdesk.org/internal/rbac"
	"staffdesk.org/internal/session"
	"staffdesk.org/internal/ws"
)

var version = "0.3.1"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store: Redis when configured, in-process otherwise.
	var sessions session.Store
	var redisStore *session.Redis
	if cfg.Redis.Addr != "" {
		redisStore, err = session.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		sessions = redisStore
	} else {
		log.Printf("no REDIS_ADDR, using in-memory session store")
		sessions = session.NewMemory()
	}

	// Postgres backs the permission resolver, the notification records, the
	// account directory and the leave records. Without a DSN every one of
	// them falls back to its in-memory development stand-in.
	var db *sql.DB
	deps := httpapi.Deps{
		Sessions:          sessions,
		Registry:          ws.NewRegistry(),
		Mailer:            httpapi.LogMailer{},
		SessionTTL:        cfg.Auth.SessionTTL,
		ResetTTL:          cfg.Auth.ResetTTL,
		DependencyTimeout: cfg.DependencyTimeout,
	}
	var notifications notify.Store
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		deps.Resolver = rbac.NewPostgres(db)
		deps.Directory = directory.NewPostgres(db)
		notifications = notify.NewPostgres(db)
		deps.Leaves = leaveReviewer{store: leave.NewPostgres(db)}
	} else {
		log.Printf("no PG_DSN, using in-memory stores")
		dir := directory.NewMemory()
		seedDevAccount(dir)
		deps.Resolver = devResolver{}
		deps.Directory = dir
		notifications = notify.NewMemory()
		deps.Leaves = leaveReviewer{store: leave.NewMemory()}
	}
	deps.Notifications = notifications
	deps.ReadyProbe = httpapi.ReadyProbe{DB: db}
	if redisStore != nil {
		deps.ReadyProbe.Session = redisStore
	}

	// Broker: Kafka when configured, in-process otherwise. The consumer runs
	// beside the server and feeds the notification pipeline.
	var producer broker.Producer
	var consumer broker.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		kp := broker.NewKafkaProducer(cfg.Kafka.Brokers)
		defer kp.Close()
		kc := broker.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kc.Close()
		producer = broker.WithTopic(kp, cfg.Kafka.Topic)
		consumer = kc
	} else {
		log.Printf("no KAFKA_BROKERS, using in-process broker")
		bus := broker.NewMemory()
		producer = bus
		consumer = bus.Consumer(cfg.Kafka.Topic)
	}
	deps.Producer = producer

	dispatcher := notify.NewDispatcher(deps.Registry)
	pipeline := notify.NewPipeline(notifications, dispatcher,
		notify.WithStoreTimeout(cfg.DependencyTimeout))

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(ctx, pipeline.Handle)
	}()

	api := httpapi.New(deps, version)
	handler := httpapi.MaxBodyBytes(api.Handler(), cfg.HTTP.MaxBodyBytes)
	handler = httpapi.RateLimit(handler, cfg.HTTP.RateLimitBurst, cfg.HTTP.RateLimitPerSec)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting staffdesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	select {
	case err := <-consumerDone:
		if err != nil {
			log.Printf("consumer: %v", err)
		}
	case <-shutdownCtx.Done():
		log.Printf("consumer did not stop in time")
	}

	if redisStore != nil {
		_ = redisStore.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func seedDevAccount(dir *directory.Memory) {
	password := os.Getenv("STAFFDESK_DEV_PASSWORD")
	if password == "" {
		password = "changeme123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("seed dev account: %v", err)
	}
	dir.Add("dev-admin", "admin@staffdesk.local", hash)
	log.Printf("seeded dev account admin@staffdesk.local")
}
