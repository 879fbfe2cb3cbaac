package statistic

// Metric is one named figure, e.g. {"Shots on target", "5"}.
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Statistic holds one team's metrics for one match.
type Statistic struct {
	MatchID int64 `validate:"gt=0"`
	TeamID  int64 `validate:"gt=0"`
	Metrics []Metric
	Raw     []byte
}
