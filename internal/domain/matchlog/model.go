package matchlog

import "time"

// Tags for operational log rows. Distinct from the audit trail: these
// feed reporting, not forensics.
const (
	TagMatchStart = "match_start"
)

// Entry is one operational log row.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Message   string
}

// MatchStart is the latest recorded start of one match.
type MatchStart struct {
	MatchNumber int
	StartedAt   time.Time
}
