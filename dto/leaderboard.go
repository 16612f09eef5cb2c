package dto

import "time"

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	Handle         string    `json:"handle"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	StartedAt      time.Time `json:"started_at"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
