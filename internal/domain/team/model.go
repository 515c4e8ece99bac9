package team

import "fmt"

// Rounds is the number of scored rounds an event runs.
const Rounds = 3

// NotPlayed marks a round slot with no recorded score.
const NotPlayed = -1

// MaxScore is the highest score the scoring rules can produce.
const MaxScore = 999

// Team is one competing team at the event. Number is the immutable
// identity; Name and Pit can change after creation. Scores always holds
// exactly Rounds entries, with NotPlayed filling unplayed slots.
type Team struct {
	Number int
	Name   string
	// Pit is the assigned staging slot; 0 means not assigned.
	Pit    int
	Scores [Rounds]int

	// Derived from Scores, refreshed by Recompute.
	HighScore      int
	SecondHighest  int
	ThirdHighest   int
	HighScoreIndex int

	// Rank is assigned by the ranking rules, never self-derived.
	Rank int
}

// New returns a team with all rounds unplayed.
func New(number int, name string, pit int) Team {
	t := Team{
		Number: number,
		Name:   name,
		Pit:    pit,
		Scores: [Rounds]int{NotPlayed, NotPlayed, NotPlayed},
	}
	t.Recompute()
	return t
}

func (t Team) Validate() error {
	if t.Number <= 0 {
		return fmt.Errorf("team number must be positive")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Pit < 0 {
		return fmt.Errorf("pit must be zero or positive")
	}

	return nil
}

// SetScore records a round score and refreshes the derived fields.
// Round is 1-based; the caller validates range.
func (t *Team) SetScore(round, score int) {
	t.Scores[round-1] = score
	t.Recompute()
}

// Recompute refreshes HighScore, SecondHighest, ThirdHighest and
// HighScoreIndex from Scores. Ties on the high score resolve to the
// lowest round index.
func (t *Team) Recompute() {
	sorted := t.Scores
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] > sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	t.HighScore = sorted[0]
	t.SecondHighest = sorted[1]
	t.ThirdHighest = sorted[2]

	t.HighScoreIndex = NotPlayed
	for i, s := range t.Scores {
		if s == t.HighScore {
			t.HighScoreIndex = i
			break
		}
	}
}

// Played reports whether the team has recorded at least one round.
func (t Team) Played() bool {
	for _, s := range t.Scores {
		if s != NotPlayed {
			return true
		}
	}
	return false
}

// ScoresEntered counts rounds with a recorded score.
func (t Team) ScoresEntered() int {
	n := 0
	for _, s := range t.Scores {
		if s >= 0 {
			n++
		}
	}
	return n
}
