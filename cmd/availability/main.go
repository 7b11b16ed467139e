package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rentalhub/rental-orders/internal/availability"
	"github.com/rentalhub/rental-orders/internal/booking"
	"github.com/rentalhub/rental-orders/internal/config"
	kafkax "github.com/rentalhub/rental-orders/internal/kafka"
	"github.com/rentalhub/rental-orders/internal/postgres"
	"github.com/rentalhub/rental-orders/internal/redisx"
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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &availability.Service{
		Repo:        &booking.Repo{DB: db},
		Cache:       redisx.Store{C: rdb},
		WindowDays:  cfg.WindowDays,
		ServiceName: cfg.ServiceName + "-availability",
	}

	// warm the cache before the first event arrives
	if err := svc.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial window refresh failed")
	}

	group := getenv("AVAILABILITY_GROUP", "availability-svc")
	workers := mustAtoi(os.Getenv("AVAILABILITY_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, booking.TopicBookingCreated, workers)

	go func() {
		log.Info().
			Str("group", group).
			Str("topic", booking.TopicBookingCreated).
			Int("workers", workers).
			Msg("availability consumer started")
		if err := cons.Start(ctx, svc.HandleBookingCreated); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
