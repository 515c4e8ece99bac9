package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/ibsc/brickscore/internal/domain/matchlog"
)

// MatchStartSource exposes the stored match-start query; satisfied by
// the sqlite store.
type MatchStartSource interface {
	MatchStartTimes(ctx context.Context) ([]matchlog.MatchStart, error)
}

// CycleRow is one line of the cycle-time report: when a match started
// and how long after the previous match start.
type CycleRow struct {
	MatchNumber int       `json:"match"`
	StartedAt   time.Time `json:"started_at"`
	// Cycle is zero for the first match, which has no predecessor.
	Cycle time.Duration `json:"cycle_seconds"`
}

// CycleReportService derives cycle times between consecutive match
// starts from the operational log.
type CycleReportService struct {
	source MatchStartSource
}

func NewCycleReportService(source MatchStartSource) *CycleReportService {
	return &CycleReportService{source: source}
}

func (s *CycleReportService) Rows(ctx context.Context) ([]CycleRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CycleReportService.Rows")
	defer span.End()

	starts, err := s.source.MatchStartTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("read match starts: %w", err)
	}

	rows := make([]CycleRow, 0, len(starts))
	var prev time.Time
	for i, start := range starts {
		row := CycleRow{MatchNumber: start.MatchNumber, StartedAt: start.StartedAt}
		if i > 0 {
			row.Cycle = start.StartedAt.Sub(prev)
		}
		rows = append(rows, row)
		prev = start.StartedAt
	}

	return rows, nil
}

// Render produces the plaintext report operators paste into run sheets.
func (s *CycleReportService) Render(ctx context.Context) (string, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return "", err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	rule := "============================================================\n"
	buf.WriteString("Cycle Time Report\n")
	buf.WriteString(rule)
	fmt.Fprintf(buf, "%-10s%-20s%-20s\n", "Match", "Start Time", "Cycle Time")
	buf.WriteString("------------------------------------------------------------\n")

	for i, row := range rows {
		cycle := "N/A"
		if i > 0 {
			secs := int(row.Cycle.Seconds())
			cycle = fmt.Sprintf("%dm%02ds", secs/60, secs%60)
		}
		fmt.Fprintf(buf, "%-10d%-20s%-20s\n", row.MatchNumber, formatClock(row.StartedAt), cycle)
	}

	buf.WriteString(rule)

	return buf.String(), nil
}

// formatClock renders "3:04 PM" without a leading zero on the hour.
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}
