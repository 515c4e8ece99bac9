package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibsc/brickscore/internal/domain/matchlog"
)

type fakeStartSource struct {
	starts []matchlog.MatchStart
	err    error
}

func (f *fakeStartSource) MatchStartTimes(context.Context) ([]matchlog.MatchStart, error) {
	return f.starts, f.err
}

func TestCycleRowsFirstMatchHasNoCycle(t *testing.T) {
	base := time.Date(2026, 6, 6, 9, 0, 0, 0, time.UTC)
	source := &fakeStartSource{starts: []matchlog.MatchStart{
		{MatchNumber: 1, StartedAt: base},
		{MatchNumber: 2, StartedAt: base.Add(7*time.Minute + 30*time.Second)},
		{MatchNumber: 3, StartedAt: base.Add(14 * time.Minute)},
	}}

	rows, err := NewCycleReportService(source).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Zero(t, rows[0].Cycle)
	assert.Equal(t, 7*time.Minute+30*time.Second, rows[1].Cycle)
	assert.Equal(t, 6*time.Minute+30*time.Second, rows[2].Cycle)
}

func TestCycleRowsPropagatesSourceError(t *testing.T) {
	source := &fakeStartSource{err: fmt.Errorf("log table gone")}

	_, err := NewCycleReportService(source).Rows(context.Background())
	assert.Error(t, err)
}

func TestRenderFormatsReport(t *testing.T) {
	base := time.Date(2026, 6, 6, 13, 5, 0, 0, time.UTC)
	source := &fakeStartSource{starts: []matchlog.MatchStart{
		{MatchNumber: 1, StartedAt: base},
		{MatchNumber: 2, StartedAt: base.Add(6*time.Minute + 5*time.Second)},
	}}

	out, err := NewCycleReportService(source).Render(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "Cycle Time Report")
	assert.Contains(t, out, "1:05 PM")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "6m05s")
}

func TestRenderEmptyLogStillProducesHeader(t *testing.T) {
	out, err := NewCycleReportService(&fakeStartSource{}).Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Match")
	assert.Contains(t, out, "Cycle Time")
}
