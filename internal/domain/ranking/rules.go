package ranking

import (
	"math"
	"sort"
	"strconv"

	"github.com/ibsc/brickscore/internal/domain/team"
)

// NotPlaced is the rank sentinel for teams with no played rounds.
// Displays render it as "NP".
const NotPlaced = math.MaxInt32

// Rank orders teams descending by (high score, second highest, third
// highest) with ascending team number as the final tie-break, then
// assigns 1-based ranks in place. Teams with every round unplayed get
// NotPlaced and sort after all ranked teams regardless of number.
//
// The tie-break makes the order total, so ranking is deterministic and
// idempotent over an unchanged team set.
func Rank(teams []team.Team) {
	sort.Slice(teams, func(i, j int) bool {
		return Less(teams[i], teams[j])
	})

	next := 1
	for i := range teams {
		if !teams[i].Played() {
			teams[i].Rank = NotPlaced
			continue
		}
		teams[i].Rank = next
		next++
	}
}

// Less reports whether a places ahead of b.
func Less(a, b team.Team) bool {
	// Unplayed teams sink below every played team; a played score of 0
	// still beats "not played".
	if a.Played() != b.Played() {
		return a.Played()
	}
	if a.HighScore != b.HighScore {
		return a.HighScore > b.HighScore
	}
	if a.SecondHighest != b.SecondHighest {
		return a.SecondHighest > b.SecondHighest
	}
	if a.ThirdHighest != b.ThirdHighest {
		return a.ThirdHighest > b.ThirdHighest
	}
	return a.Number < b.Number
}

// Display renders a rank for operator-facing output.
func Display(rank int) string {
	if rank == NotPlaced {
		return "NP"
	}
	return strconv.Itoa(rank)
}
