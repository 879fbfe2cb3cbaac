package highlight

// Highlight is a video clip, optionally tied to a stored match.
type Highlight struct {
	ID           int64 `validate:"gt=0"`
	MatchID      *int64
	Title        string
	Type         string
	URL          string
	EmbedURL     string
	ThumbnailURL string
	Source       string
	Views        int64 `validate:"gte=0"`
	Raw          []byte
}
