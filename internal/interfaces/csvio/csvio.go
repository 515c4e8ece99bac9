// Package csvio reads and writes the team roster CSV format used to
// move rosters between events.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/usecase"
)

const (
	headerTeamName   = "Team Name"
	headerTeamNumber = "Team Number"
	headerPit        = "Pit #"
)

var roundHeaders = [team.Rounds]string{"Round 1 Score", "Round 2 Score", "Round 3 Score"}

var validate = validator.New()

// row is the validated shape of one import line.
type row struct {
	Name   string `validate:"required"`
	Number int    `validate:"required,gt=0"`
}

// Import parses a roster CSV. The file must carry "Team Name" and
// "Team Number" columns; when all three round-score columns are also
// present the imported teams carry scores and the returned imports are
// flagged WithScores. Score cells that are empty, non-numeric, or not
// positive are imported as unplayed.
func Import(r io.Reader) ([]usecase.TeamImport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	nameIdx, ok := cols[headerTeamName]
	if !ok {
		return nil, fmt.Errorf("csv is missing the %q column", headerTeamName)
	}
	numberIdx, ok := cols[headerTeamNumber]
	if !ok {
		return nil, fmt.Errorf("csv is missing the %q column", headerTeamNumber)
	}

	withScores := true
	var roundIdx [team.Rounds]int
	for i, h := range roundHeaders {
		idx, ok := cols[h]
		if !ok {
			withScores = false
			break
		}
		roundIdx[i] = idx
	}

	pitIdx, hasPit := cols[headerPit]

	var imports []usecase.TeamImport
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		number, err := strconv.Atoi(strings.TrimSpace(record[numberIdx]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: team number %q is not a number", line, record[numberIdx])
		}

		imp := usecase.TeamImport{
			Name:       strings.TrimSpace(record[nameIdx]),
			Number:     number,
			WithScores: withScores,
		}
		if hasPit {
			if pit, err := strconv.Atoi(strings.TrimSpace(record[pitIdx])); err == nil && pit > 0 {
				imp.Pit = pit
			}
		}
		if withScores {
			for i := range roundIdx {
				imp.Scores[i] = parseScore(record[roundIdx[i]])
			}
		} else {
			imp.Scores = [team.Rounds]int{team.NotPlayed, team.NotPlayed, team.NotPlayed}
		}

		if err := validate.Struct(row{Name: imp.Name, Number: imp.Number}); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		imports = append(imports, imp)
	}

	return imports, nil
}

// parseScore treats anything that is not a positive integer as an
// unplayed round. Zero is a legal match score but the exchange format
// does not distinguish it from blank, so it round-trips as unplayed.
func parseScore(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil || n <= 0 {
		return team.NotPlayed
	}
	return n
}

// Export writes the full roster with scores, ordered by pit assignment.
// A team without a pit sorts by its team number instead, interleaved
// among the pit slots.
func Export(w io.Writer, teams []team.Team) error {
	slot := func(t team.Team) int {
		if t.Pit != 0 {
			return t.Pit
		}
		return t.Number
	}

	sorted := make([]team.Team, len(teams))
	copy(sorted, teams)
	sort.Slice(sorted, func(i, j int) bool {
		if slot(sorted[i]) != slot(sorted[j]) {
			return slot(sorted[i]) < slot(sorted[j])
		}
		return sorted[i].Number < sorted[j].Number
	})

	writer := csv.NewWriter(w)
	header := []string{headerPit, headerTeamName, headerTeamNumber}
	header = append(header, roundHeaders[:]...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range sorted {
		record := []string{strconv.Itoa(t.Pit), t.Name, strconv.Itoa(t.Number)}
		for _, s := range t.Scores {
			record = append(record, strconv.Itoa(s))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row for team %d: %w", t.Number, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
