package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/rentalhub/rental-orders/internal/booking"
	kafkax "github.com/rentalhub/rental-orders/internal/kafka"
	"github.com/rentalhub/rental-orders/internal/redisx"
)

// BookingStore is what the handlers need from the repository.
type BookingStore interface {
	Catalog(ctx context.Context) ([]booking.CatalogEntry, error)
	ListProducts(ctx context.Context) ([]booking.Product, error)
	ListOrderers(ctx context.Context) ([]booking.Orderer, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
	GetBooking(ctx context.Context, id string) (booking.Booking, error)
	CreateBookingTx(ctx context.Context, in booking.BookingInput) (bookingID, ordererID string, ok bool, details []booking.RejectedDetail, err error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type BookingsHandler struct {
	Store    BookingStore
	Created  Publisher // booking.created
	Rejected Publisher // booking.rejected
	// Redis is optional; availability reads fall back to the store when
	// no cache is wired (drafts do require it).
	Redis      *redis.Client
	Service    string
	WindowDays int
	DraftTTL   time.Duration
}

type CreateBookingReq struct {
	OrdererName string         `json:"orderer_name"`
	Phone       string         `json:"phone"`
	StartDate   booking.Date   `json:"start_date"`
	EndDate     booking.Date   `json:"end_date"`
	Lines       []booking.Line `json:"lines"`
	SessionID   string         `json:"session_id,omitempty"`
}

type CreateBookingResp struct {
	BookingID string `json:"booking_id"`
	OrdererID string `json:"orderer_id"`
}

type RejectedResp struct {
	Error   string                   `json:"error"`
	Details []booking.RejectedDetail `json:"details"`
}

func (h *BookingsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/rows", h.listProductRows)
	r.Get("/orderers", h.listOrderers)
	r.Get("/bookings", h.listBookings)
	r.Post("/bookings", h.createBooking)
	r.Get("/bookings/{id}/available-products", h.bookingAvailableProducts)
	r.Get("/availability", h.availabilityForDate)
	r.Get("/availability/window", h.availabilityWindow)
	r.Put("/drafts/{session}", h.putDraft)
	r.Get("/drafts/{session}", h.getDraft)
	r.Delete("/drafts/{session}", h.deleteDraft)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *BookingsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	catalog, err := h.Store.Catalog(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// listProductRows exposes the physical inventory rows behind the pooled
// catalog, duplicates included.
func (h *BookingsHandler) listProductRows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Store.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *BookingsHandler) listOrderers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orderers, err := h.Store.ListOrderers(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, orderers)
}

func (h *BookingsHandler) listBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bookings, err := h.Store.ListBookings(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// A booking submitted without lines takes the staged draft for the
	// session, bridging the two steps of the form.
	if len(req.Lines) == 0 && req.SessionID != "" && h.Redis != nil {
		if d, err := h.loadDraft(ctx, req.SessionID); err == nil {
			req.Lines = d.Lines
			if req.StartDate.IsZero() {
				req.StartDate = d.StartDate
			}
			if req.EndDate.IsZero() {
				req.EndDate = d.EndDate
			}
		}
	}

	if req.OrdererName == "" || req.Phone == "" || len(req.Lines) == 0 ||
		req.StartDate.IsZero() || req.EndDate.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	in := booking.BookingInput{
		OrdererName: req.OrdererName,
		Phone:       req.Phone,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Lines:       req.Lines,
	}
	bookingID, ordererID, ok, details, err := h.Store.CreateBookingTx(ctx, in)
	if errors.Is(err, booking.ErrInvalidRange) || errors.Is(err, booking.ErrInvalidQty) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	trace := r.Header.Get("X-Request-Id")
	if !ok {
		h.publish(h.Rejected, booking.EventBookingRejected, uuid.NewString(), trace,
			booking.BookingRejectedPayload{
				OrdererName: req.OrdererName,
				StartDate:   req.StartDate,
				EndDate:     req.EndDate,
				Reason:      "OUT_OF_STOCK",
				Details:     details,
			})
		writeJSON(w, http.StatusConflict, RejectedResp{Error: "insufficient availability", Details: details})
		return
	}

	h.publish(h.Created, booking.EventBookingCreated, bookingID, trace,
		booking.BookingCreatedPayload{
			BookingID: bookingID,
			OrdererID: ordererID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Lines:     req.Lines,
		})

	// draft is spent once the booking exists
	if req.SessionID != "" && h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyDraft, req.SessionID)).Err()
	}

	writeJSON(w, http.StatusCreated, CreateBookingResp{BookingID: bookingID, OrdererID: ordererID})
}

// bookingAvailableProducts reports catalog stock minus only this
// booking's own reservations, per product the booking references.
func (h *BookingsHandler) bookingAvailableProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Store.GetBooking(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	catalog, err := h.Store.Catalog(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	avail := booking.NewEngine(catalog, nil).ForBooking(b)
	writeJSON(w, http.StatusOK, avail)
}

func (h *BookingsHandler) availabilityForDate(w http.ResponseWriter, r *http.Request) {
	d := booking.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := booking.ParseDate(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		d = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyAvailabilityDate, d.String())
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	engine, err := h.loadEngine(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	avail := engine.ForDate(d)
	b, _ := json.Marshal(avail)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLAvailability).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *BookingsHandler) availabilityWindow(w http.ResponseWriter, r *http.Request) {
	days := h.WindowDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid days"})
			return
		}
		if n < days {
			days = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// The refresher keeps the full window warm; partial windows are
	// computed on demand.
	if days == h.WindowDays && h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyAvailabilityWindow).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	engine, err := h.loadEngine(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	window := booking.WindowByDate(engine, booking.Today(), days)
	b, _ := json.Marshal(window)
	if days == h.WindowDays && h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyAvailabilityWindow, b, redisx.TTLWindow).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *BookingsHandler) putDraft(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if session == "" || h.Redis == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	var d booking.DraftOrder
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d.SessionID = session
	d.UpdatedAt = time.Now().UTC()
	d = d.Normalized()

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b := kafkax.MustMarshal(d)
	if err := h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyDraft, session), b, h.DraftTTL).Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *BookingsHandler) getDraft(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if session == "" || h.Redis == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	d, err := h.loadDraft(ctx, session)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no draft"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *BookingsHandler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if session == "" || h.Redis == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyDraft, session)).Err()
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingsHandler) loadDraft(ctx context.Context, session string) (booking.DraftOrder, error) {
	s, err := h.Redis.Get(ctx, fmt.Sprintf(redisx.KeyDraft, session)).Result()
	if err != nil {
		return booking.DraftOrder{}, err
	}
	var d booking.DraftOrder
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return booking.DraftOrder{}, err
	}
	return d, nil
}

func (h *BookingsHandler) loadEngine(ctx context.Context) (*booking.Engine, error) {
	catalog, err := h.Store.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := h.Store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	return booking.NewEngine(catalog, bookings), nil
}

func (h *BookingsHandler) publish(p Publisher, eventType, correlationID, trace string, payload any) {
	if p == nil {
		return
	}
	ev := booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(booking.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
