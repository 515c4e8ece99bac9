package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibsc/brickscore/internal/domain/team"
)

func TestImportRosterOnly(t *testing.T) {
	in := strings.NewReader(
		"Team Name,Team Number,Pit #\n" +
			"Brick Layers,7,3\n" +
			"Stud Finders,12,\n")

	imports, err := Import(in)
	require.NoError(t, err)
	require.Len(t, imports, 2)

	assert.Equal(t, "Brick Layers", imports[0].Name)
	assert.Equal(t, 7, imports[0].Number)
	assert.Equal(t, 3, imports[0].Pit)
	assert.False(t, imports[0].WithScores)
	assert.Equal(t, [team.Rounds]int{team.NotPlayed, team.NotPlayed, team.NotPlayed}, imports[0].Scores)

	// Blank pit cell imports as unassigned.
	assert.Zero(t, imports[1].Pit)
}

func TestImportWithScores(t *testing.T) {
	in := strings.NewReader(
		"Team Name,Team Number,Round 1 Score,Round 2 Score,Round 3 Score\n" +
			"Brick Layers,7,120,,abc\n")

	imports, err := Import(in)
	require.NoError(t, err)
	require.Len(t, imports, 1)

	assert.True(t, imports[0].WithScores)
	// Empty and non-numeric score cells import as unplayed rounds.
	assert.Equal(t, [team.Rounds]int{120, team.NotPlayed, team.NotPlayed}, imports[0].Scores)
}

func TestImportPartialRoundColumnsMeansRosterOnly(t *testing.T) {
	in := strings.NewReader(
		"Team Name,Team Number,Round 1 Score\n" +
			"Brick Layers,7,120\n")

	imports, err := Import(in)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.False(t, imports[0].WithScores)
}

func TestImportRejectsMissingColumns(t *testing.T) {
	_, err := Import(strings.NewReader("Team Number\n7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Team Name")

	_, err = Import(strings.NewReader("Team Name\nBrick Layers\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Team Number")
}

func TestImportRejectsBadRowsWithLineNumber(t *testing.T) {
	in := strings.NewReader(
		"Team Name,Team Number\n" +
			"Brick Layers,7\n" +
			",12\n")

	_, err := Import(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	in = strings.NewReader(
		"Team Name,Team Number\n" +
			"Brick Layers,seven\n")
	_, err = Import(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExportOrdersByPitSlot(t *testing.T) {
	teams := []team.Team{
		team.New(12, "Stud Finders", 2),
		team.New(30, "Late Entry", 1),
		team.New(7, "Brick Layers", 1),
	}
	teams[0].SetScore(1, 120)

	var out strings.Builder
	require.NoError(t, Export(&out, teams))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "Pit #,Team Name,Team Number,Round 1 Score,Round 2 Score,Round 3 Score", lines[0])
	assert.Equal(t, "1,Brick Layers,7,-1,-1,-1", lines[1])
	assert.Equal(t, "1,Late Entry,30,-1,-1,-1", lines[2])
	assert.Equal(t, "2,Stud Finders,12,120,-1,-1", lines[3])
}

func TestExportInterleavesUnassignedTeamsByNumber(t *testing.T) {
	// An unassigned team sorts by its number among the pit slots rather
	// than clustering at the top.
	teams := []team.Team{
		team.New(5, "No Pit Yet", 0),
		team.New(9, "Back Row", 7),
		team.New(1, "Front Row", 3),
	}

	var out strings.Builder
	require.NoError(t, Export(&out, teams))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "3,Front Row,1,-1,-1,-1", lines[1])
	assert.Equal(t, "0,No Pit Yet,5,-1,-1,-1", lines[2])
	assert.Equal(t, "7,Back Row,9,-1,-1,-1", lines[3])
}

func TestExportRoundTripsThroughImport(t *testing.T) {
	teams := []team.Team{team.New(7, "Brick Layers", 1)}
	teams[0].SetScore(2, 85)

	var out strings.Builder
	require.NoError(t, Export(&out, teams))

	imports, err := Import(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Len(t, imports, 1)

	assert.True(t, imports[0].WithScores)
	assert.Equal(t, [team.Rounds]int{team.NotPlayed, 85, team.NotPlayed}, imports[0].Scores)
}
