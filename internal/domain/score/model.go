package score

import "fmt"

// Entry is one persisted round score, keyed by (team number, round).
type Entry struct {
	TeamNumber int
	Round      int
	Score      int
	Comments   string
}

// Slug returns the upsert key used by the scores table.
func (e Entry) Slug() string {
	return fmt.Sprintf("%d-%d", e.TeamNumber, e.Round)
}

// ValidRound reports whether round is one of the played rounds.
func ValidRound(round, rounds int) bool {
	return round >= 1 && round <= rounds
}

// ValidScore reports whether score is the not-played marker or within
// the scoring rules' range.
func ValidScore(score, max int) bool {
	if score == -1 {
		return true
	}
	return score >= 0 && score <= max
}
