package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rentalhub/rental-orders/internal/booking"
	"github.com/rentalhub/rental-orders/internal/config"
	"github.com/rentalhub/rental-orders/internal/httpx"
	kafkax "github.com/rentalhub/rental-orders/internal/kafka"
	"github.com/rentalhub/rental-orders/internal/postgres"
	"github.com/rentalhub/rental-orders/internal/redisx"
	"github.com/rentalhub/rental-orders/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: created & rejected (two topics)
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicBookingCreated, 1024)
	pCreated.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicBookingRejected, 1024)
	pRejected.Start(ctx)

	// Repo & handler
	repo := &booking.Repo{DB: db}
	router := httpx.NewRouter()
	bh := &httpx.BookingsHandler{
		Store:      repo,
		Created:    pCreated,
		Rejected:   pRejected,
		Redis:      rdb,
		Service:    cfg.ServiceName,
		WindowDays: cfg.WindowDays,
		DraftTTL:   cfg.DraftTTL,
	}
	bh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // close inbox -> flush & close writer
	pRejected.Close()
	cancel() // stop producer loops
	pCreated.WaitClosed()
	pRejected.WaitClosed()
}
