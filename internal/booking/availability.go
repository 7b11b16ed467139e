package booking

// Engine answers "how many units of each product are free on date d?"
// over a fixed snapshot of the catalog and the booking ledger. It is a
// pure read-side computation: no state is mutated, so concurrent calls
// need no coordination.
type Engine struct {
	catalog  []CatalogEntry
	stock    map[string]int
	bookings []Booking
}

type ProductAvailability struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
}

func NewEngine(catalog []CatalogEntry, bookings []Booking) *Engine {
	stock := make(map[string]int, len(catalog))
	for _, c := range catalog {
		stock[c.Name] = c.TotalStock
	}
	return &Engine{catalog: catalog, stock: stock, bookings: bookings}
}

// ForDate returns remaining stock per product name on d. Products whose
// remaining stock is zero or negative are omitted, not reported as zero:
// a fully booked product simply does not appear as available. Lines
// referencing names absent from the catalog contribute nothing.
func (e *Engine) ForDate(d Date) map[string]int {
	reserved := e.reservedOn(d)
	out := make(map[string]int, len(e.catalog))
	for _, c := range e.catalog {
		if rem := c.TotalStock - reserved[c.Name]; rem > 0 {
			out[c.Name] = rem
		}
	}
	return out
}

// ForWindow applies ForDate independently per date.
func (e *Engine) ForWindow(dates []Date) map[Date]map[string]int {
	out := make(map[Date]map[string]int, len(dates))
	for _, d := range dates {
		out[d] = e.ForDate(d)
	}
	return out
}

// ForBooking reports catalog stock minus only b's own reserved
// quantities, for the products b references. This is not global
// availability: other bookings' reservations are ignored. Order of the
// result follows the first appearance of each name in b's lines.
func (e *Engine) ForBooking(b Booking) []ProductAvailability {
	own := make(map[string]int, len(b.Lines))
	names := make([]string, 0, len(b.Lines))
	for _, ln := range b.Lines {
		if _, known := e.stock[ln.ProductName]; !known {
			continue
		}
		if _, seen := own[ln.ProductName]; !seen {
			names = append(names, ln.ProductName)
		}
		own[ln.ProductName] += ln.Qty
	}
	out := make([]ProductAvailability, 0, len(names))
	for _, name := range names {
		if rem := e.stock[name] - own[name]; rem > 0 {
			out = append(out, ProductAvailability{Name: name, Remaining: rem})
		}
	}
	return out
}

// PeakReserved returns, per product name, the highest reserved quantity
// reached on any of the given dates. The booking guard uses it to check
// a requested range against the ledger in one pass.
func (e *Engine) PeakReserved(dates []Date) map[string]int {
	peak := make(map[string]int, len(e.catalog))
	for _, d := range dates {
		reserved := e.reservedOn(d)
		for name, qty := range reserved {
			if qty > peak[name] {
				peak[name] = qty
			}
		}
	}
	return peak
}

func (e *Engine) reservedOn(d Date) map[string]int {
	reserved := make(map[string]int, len(e.catalog))
	for _, b := range e.bookings {
		if !b.Covers(d) {
			continue
		}
		for _, ln := range b.Lines {
			if _, known := e.stock[ln.ProductName]; !known {
				continue
			}
			reserved[ln.ProductName] += ln.Qty
		}
	}
	return reserved
}

// WindowByDate renders a ForWindow result keyed by ISO date strings,
// the shape cached in Redis and served by the availability endpoints.
func WindowByDate(e *Engine, from Date, days int) map[string]map[string]int {
	window := e.ForWindow(DateWindow(from, days))
	out := make(map[string]map[string]int, len(window))
	for d, avail := range window {
		out[d.String()] = avail
	}
	return out
}
