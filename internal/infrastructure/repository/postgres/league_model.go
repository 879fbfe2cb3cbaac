package postgres

import "database/sql"

// leagueTableModel is both the insert row and the select row.
type leagueTableModel struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	CountryName string         `db:"country_name"`
	CountryCode string         `db:"country_code"`
	CountryLogo string         `db:"country_logo"`
	Logo        sql.NullString `db:"logo"`
	Priority    bool           `db:"priority"`
	TierRank    int            `db:"tier_rank"`
}
