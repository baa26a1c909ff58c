package entities

import "time"

// PlayerStatistics represents aggregated results for one player name
type PlayerStatistics struct {
	PlayerName  string
	GamesPlayed int
	Wins        int
	Losses      int
	LastUpdated time.Time
}

// WinRate calculates the player's win rate as a percentage
func (s *PlayerStatistics) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100.0
}
