package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.August, 30), d)
	assert.Equal(t, "2026-08-30", d.String())

	_, err = ParseDate("30/08/2026")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type doc struct {
		When Date `json:"when"`
	}

	b, err := json.Marshal(doc{When: NewDate(2026, time.January, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2026-01-05"}`, string(b))

	var out doc
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2026-01-05"}`), &out))
	assert.Equal(t, NewDate(2026, time.January, 5), out.When)

	assert.Error(t, json.Unmarshal([]byte(`{"when":"not-a-date"}`), &out))
}

func TestDateWindow(t *testing.T) {
	from := NewDate(2026, time.December, 30)
	got := DateWindow(from, 4)
	require.Len(t, got, 4)
	assert.Equal(t, from, got[0])
	assert.Equal(t, NewDate(2027, time.January, 2), got[3], "window crosses the year boundary")

	assert.Nil(t, DateWindow(from, 0))
	assert.Nil(t, DateWindow(from, -3))
}

func TestBookingCovers(t *testing.T) {
	b := Booking{
		StartDate: NewDate(2026, time.April, 10),
		EndDate:   NewDate(2026, time.April, 12),
	}

	assert.False(t, b.Covers(NewDate(2026, time.April, 9)))
	assert.True(t, b.Covers(NewDate(2026, time.April, 10)))
	assert.True(t, b.Covers(NewDate(2026, time.April, 11)))
	assert.True(t, b.Covers(NewDate(2026, time.April, 12)))
	assert.False(t, b.Covers(NewDate(2026, time.April, 13)))

	inverted := Booking{StartDate: b.EndDate, EndDate: b.StartDate}
	assert.False(t, inverted.Covers(NewDate(2026, time.April, 11)))
}
