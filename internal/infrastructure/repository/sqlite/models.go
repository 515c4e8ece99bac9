package sqlite

type teamTableModel struct {
	TeamNumber int    `db:"teamnumber"`
	Name       string `db:"name"`
	Pit        int    `db:"pit"`
}

type scoreTableModel struct {
	Slug       string `db:"slug"`
	TeamNumber int    `db:"teamnumber"`
	Round      int    `db:"round"`
	Score      int    `db:"score"`
	Comments   string `db:"comments"`
}

type scoresheetTableModel struct {
	Slug       string `db:"slug"`
	TeamNumber int    `db:"teamnumber"`
	Round      int    `db:"round"`
	Scoresheet string `db:"scoresheet"`
}

type matchStartModel struct {
	Message string  `db:"message"`
	Latest  float64 `db:"latest_timestamp"`
}
