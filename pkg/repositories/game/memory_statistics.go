package game

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// GetPlayerStatistics computes statistics for one player from stored results
func (r *MemoryRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.statisticsFor(playerName), nil
}

// GetAllPlayerStatistics computes statistics for every player seen
func (r *MemoryRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statsList := make([]*entities.PlayerStatistics, 0, len(r.playerResults))
	for key := range r.playerResults {
		statsList = append(statsList, r.statisticsFor(key))
	}

	sort.Slice(statsList, func(i, j int) bool {
		if statsList[i].Wins != statsList[j].Wins {
			return statsList[i].Wins > statsList[j].Wins
		}
		return statsList[i].PlayerName < statsList[j].PlayerName
	})
	return statsList, nil
}

// statisticsFor expects the read lock to be held
func (r *MemoryRepository) statisticsFor(playerName string) *entities.PlayerStatistics {
	stats := &entities.PlayerStatistics{
		PlayerName:  strings.TrimSpace(playerName),
		LastUpdated: time.Now(),
	}

	for _, result := range r.playerResults[playerKey(playerName)] {
		for _, pr := range result.PlayerResults {
			if playerKey(pr.PlayerName) != playerKey(playerName) {
				continue
			}

			// Report the name as it was last written
			stats.PlayerName = pr.PlayerName
			stats.GamesPlayed++
			if pr.Result != nil && pr.Result.IsWin() {
				stats.Wins++
			} else {
				stats.Losses++
			}
		}
	}

	return stats
}
