package postgres

import "database/sql"

type highlightInsertModel struct {
	ID           int64          `db:"id"`
	MatchID      sql.NullInt64  `db:"match_id"`
	Title        string         `db:"title"`
	Type         string         `db:"highlight_type"`
	URL          sql.NullString `db:"url"`
	EmbedURL     sql.NullString `db:"embed_url"`
	ThumbnailURL sql.NullString `db:"thumbnail_url"`
	Source       string         `db:"source"`
	Views        int64          `db:"views"`
	Raw          sql.NullString `db:"raw"`
}
