package booking

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrInvalidRange = errors.New("booking start date after end date")
	ErrInvalidQty   = errors.New("booking line quantity must be positive")
	ErrNotFound     = errors.New("booking not found")
)

type Repo struct{ DB *pgxpool.Pool }

type BookingInput struct {
	OrdererName string `json:"orderer_name"`
	Phone       string `json:"phone"`
	StartDate   Date   `json:"start_date"`
	EndDate     Date   `json:"end_date"`
	Lines       []Line `json:"lines"`
}

// Catalog returns the pooled view: one entry per distinct product name
// with stock summed across same-named rows (duplicate rows represent
// one logical catalog entry).
func (r *Repo) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.DB.Query(ctx, `SELECT name, SUM(stock)::int FROM products GROUP BY name ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var c CatalogEntry
		if err := rows.Scan(&c.Name, &c.TotalStock); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, stock, created_at, updated_at
                                FROM products ORDER BY name, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListOrderers(ctx context.Context) ([]Orderer, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, phone, created_at FROM orderers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Orderer
	for rows.Next() {
		var o Orderer
		if err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListBookings returns all bookings newest-start-first with their lines.
func (r *Repo) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, orderer_id, start_date, end_date, created_at
                                FROM bookings ORDER BY start_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	var ids []string
	for rows.Next() {
		var b Booking
		var start, end time.Time
		if err := rows.Scan(&b.ID, &b.OrdererID, &start, &end, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.StartDate, b.EndDate = DateFromTime(start), DateFromTime(end)
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (Booking, error) {
	var b Booking
	var start, end time.Time
	err := r.DB.QueryRow(ctx, `SELECT id, orderer_id, start_date, end_date, created_at
                             FROM bookings WHERE id=$1`, id).
		Scan(&b.ID, &b.OrdererID, &start, &end, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	if err != nil {
		return Booking{}, err
	}
	b.StartDate, b.EndDate = DateFromTime(start), DateFromTime(end)

	lines, err := r.linesFor(ctx, []string{b.ID})
	if err != nil {
		return Booking{}, err
	}
	b.Lines = lines[b.ID]
	return b, nil
}

func (r *Repo) linesFor(ctx context.Context, bookingIDs []string) (map[string][]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT bi.booking_id, p.name, bi.qty
		FROM booking_items bi
		JOIN products p ON p.id = bi.product_id
		WHERE bi.booking_id = ANY($1::uuid[])
		ORDER BY bi.id`, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Line, len(bookingIDs))
	for rows.Next() {
		var id string
		var ln Line
		if err := rows.Scan(&id, &ln.ProductName, &ln.Qty); err != nil {
			return nil, err
		}
		out[id] = append(out[id], ln)
	}
	return out, rows.Err()
}

// CreateBookingTx creates the orderer (when the name+phone pair is new),
// the booking and its lines in one transaction, guarded by a
// check-and-reserve step: the affected product rows are locked
// (FOR UPDATE), availability over the requested range is recomputed from
// the overlapping bookings, and the whole booking is rejected with
// per-product detail if any line exceeds the remaining stock on any day
// of the range. Nothing is written on rejection and the returned ids are
// empty: the orderer insert, if any, rolls back with the rest.
func (r *Repo) CreateBookingTx(ctx context.Context, in BookingInput) (bookingID, ordererID string, ok bool, details []RejectedDetail, err error) {
	if in.EndDate.Before(in.StartDate) {
		return "", "", false, nil, ErrInvalidRange
	}
	for _, ln := range in.Lines {
		if ln.Qty <= 0 {
			return "", "", false, nil, ErrInvalidQty
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", "", false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ordererID, err = findOrCreateOrderer(ctx, tx, in.OrdererName, in.Phone)
	if err != nil {
		return "", "", false, nil, err
	}

	// Requested quantity per pooled name, first-seen order.
	requested := make(map[string]int, len(in.Lines))
	names := make([]string, 0, len(in.Lines))
	for _, ln := range in.Lines {
		if _, seen := requested[ln.ProductName]; !seen {
			names = append(names, ln.ProductName)
		}
		requested[ln.ProductName] += ln.Qty
	}

	// Lock every row of each requested pool and sum its stock. The line
	// links to one specific row; the first row of the pool is used, as
	// in the catalog import order.
	catalog := make([]CatalogEntry, 0, len(names))
	firstRow := make(map[string]string, len(names))
	known := names[:0]
	for _, name := range names {
		rowIDs, stock, err := lockPool(ctx, tx, name)
		if err != nil {
			return "", "", false, nil, err
		}
		if len(rowIDs) == 0 {
			logger.Warn().Str("product", name).Msg("booking line references unknown product, skipped")
			continue
		}
		catalog = append(catalog, CatalogEntry{Name: name, TotalStock: stock})
		firstRow[name] = rowIDs[0]
		known = append(known, name)
	}
	names = known

	overlapping, err := overlappingBookings(ctx, tx, in.StartDate, in.EndDate)
	if err != nil {
		return "", "", false, nil, err
	}

	days := int(in.EndDate.Time().Sub(in.StartDate.Time()).Hours()/24) + 1
	peak := NewEngine(catalog, overlapping).PeakReserved(DateWindow(in.StartDate, days))

	var rejects []RejectedDetail
	for _, c := range catalog {
		available := c.TotalStock - peak[c.Name]
		if requested[c.Name] > available {
			rejects = append(rejects, RejectedDetail{
				ProductName: c.Name, Required: requested[c.Name], Available: available,
			})
		}
	}
	if len(rejects) > 0 {
		// rollback via defer; a first-time orderer row is rolled back
		// with it, so no ids are returned
		return "", "", false, rejects, nil
	}

	bookingID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO bookings(id, orderer_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)
	`, bookingID, ordererID, in.StartDate.Time(), in.EndDate.Time())
	if err != nil {
		return "", "", false, nil, err
	}

	for _, name := range names {
		if _, err = tx.Exec(ctx, `
			INSERT INTO booking_items(booking_id, product_id, qty)
			VALUES ($1, $2, $3)`,
			bookingID, firstRow[name], requested[name],
		); err != nil {
			return "", "", false, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", false, nil, err
	}
	return bookingID, ordererID, true, nil, nil
}

func findOrCreateOrderer(ctx context.Context, tx pgx.Tx, name, phone string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM orderers WHERE name=$1 AND phone=$2
	                         ORDER BY created_at LIMIT 1`, name, phone).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err := tx.Exec(ctx, `INSERT INTO orderers(id, name, phone) VALUES ($1,$2,$3)`, id, name, phone); err != nil {
		return "", err
	}
	return id, nil
}

func lockPool(ctx context.Context, tx pgx.Tx, name string) (rowIDs []string, totalStock int, err error) {
	rows, err := tx.Query(ctx, `SELECT id, stock FROM products WHERE name=$1
	                            ORDER BY created_at FOR UPDATE`, name)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, 0, err
		}
		rowIDs = append(rowIDs, id)
		totalStock += stock
	}
	return rowIDs, totalStock, rows.Err()
}

func overlappingBookings(ctx context.Context, tx pgx.Tx, start, end Date) ([]Booking, error) {
	rows, err := tx.Query(ctx, `
		SELECT b.id, b.start_date, b.end_date, p.name, bi.qty
		FROM bookings b
		JOIN booking_items bi ON bi.booking_id = b.id
		JOIN products p ON p.id = bi.product_id
		WHERE b.start_date <= $2 AND b.end_date >= $1`, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[string]*Booking{}
	var order []string
	for rows.Next() {
		var id string
		var s, e time.Time
		var ln Line
		if err := rows.Scan(&id, &s, &e, &ln.ProductName, &ln.Qty); err != nil {
			return nil, err
		}
		b, exists := byID[id]
		if !exists {
			b = &Booking{ID: id, StartDate: DateFromTime(s), EndDate: DateFromTime(e)}
			byID[id] = b
			order = append(order, id)
		}
		b.Lines = append(b.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
