package league

// Country describes where a league is played.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Logo string `json:"logo"`
}

// League is a competition seen in the provider catalogue or on a match.
type League struct {
	ID       int64  `validate:"gt=0"`
	Name     string `validate:"required"`
	Country  Country
	Logo     string
	Priority bool
	TierRank int `validate:"gte=0"`
}
