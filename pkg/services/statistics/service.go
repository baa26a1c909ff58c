package statistics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/repositories/game"
	"github.com/google/uuid"
)

// Service provides methods for recording finished games and ranking players
type Service struct {
	repository game.Repository
}

// NewService creates a new statistics service
func NewService(repository game.Repository) *Service {
	return &Service{
		repository: repository,
	}
}

// PlayerRank represents a player's statistics with ranking information
type PlayerRank struct {
	*entities.PlayerStatistics
	Rank        int     `json:"rank"`
	WinRate     float64 `json:"win_rate"`
	IsTopWinner bool    `json:"is_top_winner"`
	IsTopPlayer bool    `json:"is_top_player"`
}

// Leaderboard represents a paginated leaderboard of player statistics.
// A win is reaching $0 first.
type Leaderboard struct {
	Players        []*PlayerRank `json:"players"`
	TotalPlayers   int           `json:"total_players"`
	CurrentPage    int           `json:"current_page"`
	TotalPages     int           `json:"total_pages"`
	PlayersPerPage int           `json:"players_per_page"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// GetLeaderboard retrieves a paginated leaderboard ordered by wins, then
// win rate, then name
func (s *Service) GetLeaderboard(ctx context.Context, page, playersPerPage int) (*Leaderboard, error) {
	// Default values
	if page < 1 {
		page = 1
	}
	if playersPerPage < 1 {
		playersPerPage = 10
	}

	allStats, err := s.repository.GetAllPlayerStatistics(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "failed to load player statistics", err)
	}

	playerRanks := make([]*PlayerRank, 0, len(allStats))
	for _, stats := range allStats {
		// Skip players with no games
		if stats.GamesPlayed == 0 {
			continue
		}

		playerRanks = append(playerRanks, &PlayerRank{
			PlayerStatistics: stats,
			WinRate:          stats.WinRate(),
		})
	}

	sort.SliceStable(playerRanks, func(i, j int) bool {
		a, b := playerRanks[i], playerRanks[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.PlayerName < b.PlayerName
	})

	// Mark top winners and players
	if len(playerRanks) > 0 {
		playerRanks[0].IsTopWinner = true

		mostGamesIdx := 0
		for i := 1; i < len(playerRanks); i++ {
			if playerRanks[i].GamesPlayed > playerRanks[mostGamesIdx].GamesPlayed {
				mostGamesIdx = i
			}
		}
		playerRanks[mostGamesIdx].IsTopPlayer = true
	}

	for i := range playerRanks {
		playerRanks[i].Rank = i + 1
	}

	// Calculate pagination
	totalPlayers := len(playerRanks)
	totalPages := (totalPlayers + playersPerPage - 1) / playersPerPage
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	start := (page - 1) * playersPerPage
	end := start + playersPerPage
	if end > totalPlayers {
		end = totalPlayers
	}

	var currentPagePlayers []*PlayerRank
	if start < totalPlayers {
		currentPagePlayers = playerRanks[start:end]
	} else {
		currentPagePlayers = []*PlayerRank{}
	}

	return &Leaderboard{
		Players:        currentPagePlayers,
		TotalPlayers:   totalPlayers,
		CurrentPage:    page,
		TotalPages:     totalPages,
		PlayersPerPage: playersPerPage,
		LastUpdated:    time.Now(),
	}, nil
}

// PlayerSummary is one player's statistics plus their latest games
type PlayerSummary struct {
	Statistics  *entities.PlayerStatistics
	RecentGames []*entities.GameResult
}

// GetPlayerSummary returns a player's statistics and up to limit of their
// most recent games
func (s *Service) GetPlayerSummary(ctx context.Context, playerName string, limit int) (*PlayerSummary, error) {
	stats, err := s.repository.GetPlayerStatistics(ctx, playerName)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "failed to load player statistics", err)
	}

	games, err := s.repository.GetPlayerResults(ctx, playerName)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "failed to load player results", err)
	}
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}

	return &PlayerSummary{Statistics: stats, RecentGames: games}, nil
}

// RecordGame stores the result of a finished game. Games without a winner
// are not recorded.
func (s *Service) RecordGame(ctx context.Context, mode entities.GameMode, gameCode string, startedAt time.Time, state entities.GameState, spins int) (*entities.GameResult, error) {
	if !state.HasWinner() {
		return nil, types.NewGameError(types.ErrInvalidState, "game has no winner yet")
	}

	result := game.ResultFromState(uuid.NewString(), mode, gameCode, state, spins)
	result.StartedAt = startedAt
	result.CompletedAt = time.Now()

	if err := s.repository.SaveGameResult(ctx, result); err != nil {
		return nil, types.WrapError(types.ErrInternalError, fmt.Sprintf("failed to save game %s", result.ID), err)
	}
	return result, nil
}
