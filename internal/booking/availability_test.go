package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Name: "Tent", TotalStock: 10},
		{Name: "Table", TotalStock: 5},
	}
}

func TestForDateNoBookings(t *testing.T) {
	e := NewEngine(testCatalog(), nil)

	for _, d := range []Date{
		NewDate(2026, time.January, 1),
		NewDate(2026, time.June, 15),
		NewDate(2027, time.December, 31),
	} {
		got := e.ForDate(d)
		assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got, "date %s", d)
	}
}

func TestForDateRangeBoundaries(t *testing.T) {
	d := NewDate(2026, time.March, 10)
	sameDay := Booking{
		StartDate: d, EndDate: d,
		Lines: []Line{{ProductName: "Tent", Qty: 4}},
	}
	endsDayBefore := Booking{
		StartDate: NewDate(2026, time.March, 1), EndDate: NewDate(2026, time.March, 9),
		Lines: []Line{{ProductName: "Table", Qty: 2}},
	}
	e := NewEngine(testCatalog(), []Booking{sameDay, endsDayBefore})

	got := e.ForDate(d)
	assert.Equal(t, 6, got["Tent"], "single-day booking covers its own day")
	assert.Equal(t, 5, got["Table"], "booking ending the day before must not count")
}

func TestForDateOmitsDepleted(t *testing.T) {
	tentOut := Booking{
		StartDate: NewDate(2026, time.January, 1),
		EndDate:   NewDate(2026, time.January, 3),
		Lines:     []Line{{ProductName: "Tent", Qty: 10}},
	}
	e := NewEngine(testCatalog(), []Booking{tentOut})

	got := e.ForDate(NewDate(2026, time.January, 2))
	assert.Equal(t, map[string]int{"Table": 5}, got, "fully booked product is omitted, not zero")

	got = e.ForDate(NewDate(2026, time.January, 4))
	assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got)
}

func TestForDateOverbookedOmitted(t *testing.T) {
	// Two overlapping bookings jointly exceed the Table stock: 5-3-3 < 0.
	// The result omits the product rather than reporting a negative.
	a := Booking{
		StartDate: NewDate(2026, time.January, 4),
		EndDate:   NewDate(2026, time.January, 6),
		Lines:     []Line{{ProductName: "Table", Qty: 3}},
	}
	b := Booking{
		StartDate: NewDate(2026, time.January, 5),
		EndDate:   NewDate(2026, time.January, 8),
		Lines:     []Line{{ProductName: "Table", Qty: 3}},
	}
	e := NewEngine(testCatalog(), []Booking{a, b})

	got := e.ForDate(NewDate(2026, time.January, 5))
	_, present := got["Table"]
	assert.False(t, present)
	assert.Equal(t, 10, got["Tent"])
}

func TestForDateUnknownProductIgnored(t *testing.T) {
	b := Booking{
		StartDate: NewDate(2026, time.February, 1),
		EndDate:   NewDate(2026, time.February, 2),
		Lines:     []Line{{ProductName: "Unicorn", Qty: 99}},
	}
	e := NewEngine(testCatalog(), []Booking{b})

	got := e.ForDate(NewDate(2026, time.February, 1))
	assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got)
	_, present := got["Unicorn"]
	assert.False(t, present)
}

func TestForDateInvalidRangeContributesNothing(t *testing.T) {
	inverted := Booking{
		StartDate: NewDate(2026, time.May, 10),
		EndDate:   NewDate(2026, time.May, 1),
		Lines:     []Line{{ProductName: "Tent", Qty: 10}},
	}
	e := NewEngine(testCatalog(), []Booking{inverted})

	for _, d := range []Date{
		NewDate(2026, time.May, 1),
		NewDate(2026, time.May, 5),
		NewDate(2026, time.May, 10),
	} {
		assert.Equal(t, 10, e.ForDate(d)["Tent"], "date %s", d)
	}
}

func TestForDateIdempotent(t *testing.T) {
	b := Booking{
		StartDate: NewDate(2026, time.January, 1),
		EndDate:   NewDate(2026, time.January, 3),
		Lines:     []Line{{ProductName: "Tent", Qty: 4}},
	}
	e := NewEngine(testCatalog(), []Booking{b})

	d := NewDate(2026, time.January, 2)
	assert.Equal(t, e.ForDate(d), e.ForDate(d))
}

func TestForWindow(t *testing.T) {
	b := Booking{
		StartDate: NewDate(2026, time.January, 2),
		EndDate:   NewDate(2026, time.January, 3),
		Lines:     []Line{{ProductName: "Table", Qty: 5}},
	}
	e := NewEngine(testCatalog(), []Booking{b})

	dates := DateWindow(NewDate(2026, time.January, 1), 4)
	got := e.ForWindow(dates)
	require.Len(t, got, 4)
	assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got[dates[0]])
	assert.Equal(t, map[string]int{"Tent": 10}, got[dates[1]])
	assert.Equal(t, map[string]int{"Tent": 10}, got[dates[2]])
	assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got[dates[3]])
}

func TestForBooking(t *testing.T) {
	// Only the booking's own reservations count, regardless of the ledger.
	other := Booking{
		StartDate: NewDate(2026, time.January, 1),
		EndDate:   NewDate(2026, time.January, 9),
		Lines:     []Line{{ProductName: "Tent", Qty: 9}},
	}
	own := Booking{
		StartDate: NewDate(2026, time.January, 2),
		EndDate:   NewDate(2026, time.January, 4),
		Lines:     []Line{{ProductName: "Tent", Qty: 2}},
	}
	e := NewEngine(testCatalog(), []Booking{other, own})

	got := e.ForBooking(own)
	assert.Equal(t, []ProductAvailability{{Name: "Tent", Remaining: 8}}, got)
}

func TestForBookingOmitsDepletedAndUnknown(t *testing.T) {
	b := Booking{
		Lines: []Line{
			{ProductName: "Table", Qty: 3},
			{ProductName: "Table", Qty: 2}, // duplicate lines pool per name
			{ProductName: "Unicorn", Qty: 1},
			{ProductName: "Tent", Qty: 1},
		},
	}
	e := NewEngine(testCatalog(), nil)

	got := e.ForBooking(b)
	assert.Equal(t, []ProductAvailability{{Name: "Tent", Remaining: 9}}, got)
}

func TestPeakReserved(t *testing.T) {
	// Two bookings overlap the window but not each other: the peak per
	// date is 3, not the naive overlap sum of 6.
	a := Booking{
		StartDate: NewDate(2026, time.January, 1),
		EndDate:   NewDate(2026, time.January, 2),
		Lines:     []Line{{ProductName: "Table", Qty: 3}},
	}
	b := Booking{
		StartDate: NewDate(2026, time.January, 4),
		EndDate:   NewDate(2026, time.January, 5),
		Lines:     []Line{{ProductName: "Table", Qty: 3}},
	}
	e := NewEngine(testCatalog(), []Booking{a, b})

	peak := e.PeakReserved(DateWindow(NewDate(2026, time.January, 1), 5))
	assert.Equal(t, 3, peak["Table"])
	assert.Equal(t, 0, peak["Tent"])
}

func TestWindowByDate(t *testing.T) {
	e := NewEngine(testCatalog(), nil)
	from := NewDate(2026, time.January, 1)

	got := WindowByDate(e, from, 3)
	require.Len(t, got, 3)
	assert.Contains(t, got, "2026-01-01")
	assert.Contains(t, got, "2026-01-03")
	assert.Equal(t, map[string]int{"Tent": 10, "Table": 5}, got["2026-01-02"])
}
