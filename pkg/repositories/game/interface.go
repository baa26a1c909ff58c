package game

import (
	"context"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// Repository defines storage operations for finished games
type Repository interface {
	// Game results
	SaveGameResult(ctx context.Context, result *entities.GameResult) error
	GetPlayerResults(ctx context.Context, playerName string) ([]*entities.GameResult, error)
	GetRecentResults(ctx context.Context, limit int) ([]*entities.GameResult, error)

	// Statistics, aggregated by player name
	GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error)
	GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error)

	// Close closes any resources used by the repository
	Close() error
}

// ResultFromState builds the history record for a finished game. Every
// player's result is LOSE except the winner, who reached zero first.
func ResultFromState(id string, mode entities.GameMode, gameCode string, state entities.GameState, spins int) *entities.GameResult {
	result := &entities.GameResult{
		ID:            id,
		Mode:          mode,
		GameCode:      gameCode,
		Spins:         spins,
		FinalPot:      state.Pot,
		PlayerResults: make([]*entities.PlayerResult, 0, len(state.Players)),
	}

	winner, hasWinner := state.Winner()
	if hasWinner {
		result.WinnerName = winner.Name
	}

	for _, p := range state.Players {
		outcome := entities.StringResultLose
		if hasWinner && p.ID == winner.ID {
			outcome = entities.StringResultWin
		}
		result.PlayerResults = append(result.PlayerResults, &entities.PlayerResult{
			PlayerName:   p.Name,
			IsAI:         p.IsAI,
			FinalBalance: p.Balance,
			Result:       outcome,
		})
	}
	return result
}
