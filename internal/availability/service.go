package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/rentalhub/rental-orders/internal/booking"
	kafkax "github.com/rentalhub/rental-orders/internal/kafka"
	"github.com/rentalhub/rental-orders/internal/redisx"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// LedgerSource is what the refresher needs from the repository.
type LedgerSource interface {
	Catalog(ctx context.Context) ([]booking.CatalogEntry, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
}

// Cache is the slice of Redis the refresher uses (see redisx.Store).
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Service keeps the forward-looking availability window cached so the
// API can serve window reads without rescanning the ledger. It is
// driven by booking.created events.
type Service struct {
	Repo        LedgerSource
	Cache       Cache
	WindowDays  int
	ServiceName string
}

// HandleBookingCreated is wired as the consumer handler.
func (s *Service) HandleBookingCreated(ctx context.Context, m kafkago.Message) error {
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != booking.EventBookingCreated {
		return nil // ignore
	}

	// dedup by event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := s.Cache.Exists(ctx, dkey)
	if exists {
		return nil
	}
	_ = s.Cache.Set(ctx, dkey, "1", redisx.TTLDedup)

	p, err := kafkax.UnwrapPayload[booking.BookingCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		return err
	}
	logger.Info().
		Str("booking_id", p.BookingID).
		Str("range", p.StartDate.String()+".."+p.EndDate.String()).
		Msg("availability window refreshed")
	return nil
}

// Refresh recomputes the whole window from the ledger and stores it.
// Single-date cache entries are left to expire on their own TTL.
func (s *Service) Refresh(ctx context.Context) error {
	catalog, err := s.Repo.Catalog(ctx)
	if err != nil {
		return err
	}
	bookings, err := s.Repo.ListBookings(ctx)
	if err != nil {
		return err
	}

	engine := booking.NewEngine(catalog, bookings)
	window := booking.WindowByDate(engine, booking.Today(), s.WindowDays)
	b, err := json.Marshal(window)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, redisx.KeyAvailabilityWindow, string(b), redisx.TTLWindow)
}
