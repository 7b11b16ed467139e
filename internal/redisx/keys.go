package redisx

import "time"

const (
	// Draft order scratchpad per session: draft:{session_id} -> DraftOrder JSON
	KeyDraft = "draft:%s"

	// Single-date availability cache: avail:date:{YYYY-MM-DD} -> {name: remaining}
	KeyAvailabilityDate = "avail:date:%s"

	// Whole-window availability cache: one JSON blob keyed by ISO date
	KeyAvailabilityWindow = "avail:window"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLAvailability = 5 * time.Minute
	TTLWindow       = 15 * time.Minute
	TTLDedup        = 48 * time.Hour
)
