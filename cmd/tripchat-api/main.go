// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripchat/internal/config"
	httptransport "tripchat/internal/http"
	"tripchat/internal/infra"
	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/modules/gazetteer"
	"tripchat/internal/modules/slots"
	"tripchat/internal/modules/trip"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		lg.Fatal("postgres init", "error", err)
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, infra.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lg.Fatal("redis init", "error", err)
	}
	defer redisClient.Close()

	var events booking.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := infra.NewProducer(infra.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		events = producer
	} else {
		lg.Info("kafka brokers not configured; booking events disabled")
	}

	bookingSvc := booking.NewService(booking.NewStore(dbPool), events, lg.With("module", "booking"))
	tripSvc := trip.NewService(trip.NewStore(dbPool))

	var sessions dialog.SessionStore = dialog.NewStore(dbPool)
	if cfg.Session.Backend == config.SessionBackendRedis {
		sessions = dialog.NewRedisStore(redisClient, cfg.Session.TTL)
	}
	var locker dialog.Locker = dialog.NewRedisLocker(redisClient, cfg.Session.LockTTL)
	if cfg.Session.LocalLock {
		locker = dialog.NewLocalLocker()
	}

	dialogSvc := dialog.NewService(dialog.Deps{
		Sessions: sessions,
		Bookings: bookingSvc,
		Trips:    tripSvc,
		Locker:   locker,
		Parser:   slots.NewParser(gazetteer.Default(), time.Now),
		Log:      lg.With("module", "dialog"),
	})

	srv := httptransport.NewServer(httptransport.ServerDeps{
		Dialog:     dialogSvc,
		Bookings:   bookingSvc,
		Trips:      tripSvc,
		Log:        lg.With("module", "http"),
		AdminToken: cfg.Admin.Token,
	})
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	lg.Info("http server listening", "addr", cfg.HTTP.Addr, "session_backend", cfg.Session.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("http server", "error", err)
	}
}
