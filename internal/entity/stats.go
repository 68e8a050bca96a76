package entity

// Stats are the aggregate game results recorded since the deployment
// started.
type Stats struct {
	GamesPlayed int64 `json:"games_played"`
	XWins       int64 `json:"x_wins"`
	OWins       int64 `json:"o_wins"`
	Draws       int64 `json:"draws"`
}
