package audit

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
)

// Tag identifies the kind of state change an audit entry records.
type Tag string

const (
	TagDBCreated        Tag = "db_created"
	TagDBOpened         Tag = "db_opened"
	TagDBClosed         Tag = "db_closed"
	TagTeamAdd          Tag = "team_add"
	TagTeamUpdate       Tag = "team_update"
	TagTeamDelete       Tag = "team_delete"
	TagScoreUpdate      Tag = "score_update"
	TagScoreDelete      Tag = "score_delete"
	TagScoresheetUpdate Tag = "scoresheet_update"
)

// Payload is one tagged audit event variant. Each variant carries the
// typed before/after fields for its change kind.
type Payload interface {
	Tag() Tag
}

// Entry is one append-only audit row. Entries are never mutated or
// deleted; the live tables are reconstructible by replaying them.
type Entry struct {
	Timestamp time.Time
	Payload   Payload
}

type StoreCreated struct {
	AppVersion  string `json:"app_version"`
	PackVersion string `json:"pack_version,omitempty"`
}

func (StoreCreated) Tag() Tag { return TagDBCreated }

type StoreOpened struct {
	AppVersion  string `json:"app_version"`
	PackVersion string `json:"pack_version,omitempty"`
}

func (StoreOpened) Tag() Tag { return TagDBOpened }

type StoreClosed struct{}

func (StoreClosed) Tag() Tag { return TagDBClosed }

type TeamAdded struct {
	TeamNumber int    `json:"teamnumber"`
	Name       string `json:"name"`
}

func (TeamAdded) Tag() Tag { return TagTeamAdd }

type TeamUpdated struct {
	TeamNumber int    `json:"teamnumber"`
	OldName    string `json:"old_name"`
	NewName    string `json:"new_name"`
	OldPit     int    `json:"old_pit"`
	NewPit     int    `json:"new_pit"`
}

func (TeamUpdated) Tag() Tag { return TagTeamUpdate }

type TeamDeleted struct {
	TeamNumber int `json:"teamnumber"`
}

func (TeamDeleted) Tag() Tag { return TagTeamDelete }

// ScoreUpdated records a score upsert. OldScore is nil when no score
// existed for the round before the write.
type ScoreUpdated struct {
	TeamNumber int    `json:"teamnumber"`
	Round      int    `json:"round"`
	OldScore   *int   `json:"old_score"`
	NewScore   int    `json:"new_score"`
	Comments   string `json:"comments,omitempty"`
}

func (ScoreUpdated) Tag() Tag { return TagScoreUpdate }

// ScoreDeleted records one score row removed by a team delete cascade.
type ScoreDeleted struct {
	TeamNumber int  `json:"teamnumber"`
	Round      int  `json:"round"`
	OldScore   int  `json:"old_score"`
	NewScore   *int `json:"new_score"`
}

func (ScoreDeleted) Tag() Tag { return TagScoreDelete }

// ScoresheetDeleted records one scoresheet row removed by a team delete
// cascade. It shares the score_delete tag with ScoreDeleted, matching
// the stored trail shape consumers already parse.
type ScoresheetDeleted struct {
	TeamNumber    int     `json:"teamnumber"`
	Round         int     `json:"round"`
	OldScoresheet string  `json:"old_scoresheet"`
	NewScoresheet *string `json:"new_scoresheet"`
}

func (ScoresheetDeleted) Tag() Tag { return TagScoreDelete }

type ScoresheetUpdated struct {
	TeamNumber    int     `json:"teamnumber"`
	Round         int     `json:"round"`
	OldScoresheet *string `json:"old_scoresheet"`
	NewScoresheet string  `json:"new_scoresheet"`
}

func (ScoresheetUpdated) Tag() Tag { return TagScoresheetUpdate }

// EncodePayload serializes a payload for the audit data column. The
// stored object carries the payload fields plus the timestamp and tag
// repeated inline, so offline processing can work from the data column
// alone.
func EncodePayload(at time.Time, p Payload) (string, error) {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal audit payload %q: %w", p.Tag(), err)
	}

	meta, err := sonic.Marshal(map[string]any{
		"timestamp": unixSeconds(at),
		"tag":       p.Tag(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal audit envelope %q: %w", p.Tag(), err)
	}

	// Splice the envelope fields into the payload object.
	if string(raw) == "{}" {
		return string(meta), nil
	}
	return string(raw[:len(raw)-1]) + "," + string(meta[1:]), nil
}

func unixSeconds(at time.Time) float64 {
	return float64(at.UnixNano()) / float64(time.Second)
}
