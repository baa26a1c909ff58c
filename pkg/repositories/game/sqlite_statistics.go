package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

const statisticsSelect = `
	SELECT MAX(pr.player_name),
	       COUNT(*),
	       SUM(CASE WHEN pr.result = 'WIN' THEN 1 ELSE 0 END)
	FROM player_results pr`

// GetPlayerStatistics aggregates one player's results
func (r *SQLiteRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	playerName = strings.TrimSpace(playerName)
	query := statisticsSelect + `
	WHERE pr.player_name = ? COLLATE NOCASE`

	var (
		name   *string
		played int
		wins   *int
	)
	if err := r.db.QueryRowContext(ctx, query, playerName).Scan(&name, &played, &wins); err != nil {
		return nil, fmt.Errorf("failed to get player statistics: %w", err)
	}

	stats := &entities.PlayerStatistics{
		PlayerName:  playerName,
		GamesPlayed: played,
		LastUpdated: now(),
	}
	if name != nil {
		stats.PlayerName = *name
	}
	if wins != nil {
		stats.Wins = *wins
	}
	stats.Losses = stats.GamesPlayed - stats.Wins
	return stats, nil
}

// GetAllPlayerStatistics aggregates every player's results, most wins first
func (r *SQLiteRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	query := statisticsSelect + `
	GROUP BY LOWER(pr.player_name)
	ORDER BY 3 DESC, 1 ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query player statistics: %w", err)
	}
	defer rows.Close()

	statsList := []*entities.PlayerStatistics{}
	for rows.Next() {
		stats := &entities.PlayerStatistics{LastUpdated: now()}
		if err := rows.Scan(&stats.PlayerName, &stats.GamesPlayed, &stats.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan player statistics: %w", err)
		}
		stats.Losses = stats.GamesPlayed - stats.Wins
		statsList = append(statsList, stats)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player statistics: %w", err)
	}

	return statsList, nil
}
