package booking

import "time"

// DraftOrder is the per-session scratchpad bridging the two steps of the
// booking form: the client stages product selections, then submits the
// booking in a later request. Drafts live in Redis under the session id
// with a TTL; an expired draft simply disappears.
type DraftOrder struct {
	SessionID string    `json:"session_id"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalized merges duplicate product names and drops lines with a
// non-positive quantity. First-seen name order is preserved.
func (d DraftOrder) Normalized() DraftOrder {
	qty := make(map[string]int, len(d.Lines))
	names := make([]string, 0, len(d.Lines))
	for _, ln := range d.Lines {
		if ln.Qty <= 0 {
			continue
		}
		if _, seen := qty[ln.ProductName]; !seen {
			names = append(names, ln.ProductName)
		}
		qty[ln.ProductName] += ln.Qty
	}
	lines := make([]Line, 0, len(names))
	for _, name := range names {
		lines = append(lines, Line{ProductName: name, Qty: qty[name]})
	}
	d.Lines = lines
	return d
}
