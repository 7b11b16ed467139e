package booking

import "time"

type Orderer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is one physical inventory row. Rows may share a name; the
// catalog pools stock across same-named rows (see Repo.Catalog).
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogEntry is the pooled view of all products sharing a name.
type CatalogEntry struct {
	Name       string `json:"name"`
	TotalStock int    `json:"total_stock"`
}

// Line reserves qty units of a product pool for a booking's date range.
type Line struct {
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
}

type Booking struct {
	ID        string    `json:"id"`
	OrdererID string    `json:"orderer_id"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
}

// Covers reports whether d falls inside the booking's inclusive range.
// A range with start after end covers nothing.
func (b Booking) Covers(d Date) bool {
	if b.EndDate.Before(b.StartDate) {
		return false
	}
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}
