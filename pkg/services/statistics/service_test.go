package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the game.Repository interface
type MockRepository struct {
	mock.Mock
}

// SaveGameResult implements Repository
func (m *MockRepository) SaveGameResult(ctx context.Context, result *entities.GameResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// GetPlayerResults implements Repository
func (m *MockRepository) GetPlayerResults(ctx context.Context, playerName string) ([]*entities.GameResult, error) {
	args := m.Called(ctx, playerName)
	return args.Get(0).([]*entities.GameResult), args.Error(1)
}

// GetRecentResults implements Repository
func (m *MockRepository) GetRecentResults(ctx context.Context, limit int) ([]*entities.GameResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entities.GameResult), args.Error(1)
}

// GetPlayerStatistics implements Repository
func (m *MockRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	args := m.Called(ctx, playerName)
	return args.Get(0).(*entities.PlayerStatistics), args.Error(1)
}

// GetAllPlayerStatistics implements Repository
func (m *MockRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.PlayerStatistics), args.Error(1)
}

// Close implements Repository
func (m *MockRepository) Close() error {
	return nil
}

func TestGetLeaderboard(t *testing.T) {
	mockRepo := new(MockRepository)

	testStats := []*entities.PlayerStatistics{
		{PlayerName: "Risky Rick", GamesPlayed: 10, Wins: 5, Losses: 5, LastUpdated: time.Now()},
		{PlayerName: "Alice", GamesPlayed: 6, Wins: 5, Losses: 1, LastUpdated: time.Now()},
		{PlayerName: "Bob", GamesPlayed: 20, Wins: 2, Losses: 18, LastUpdated: time.Now()},
		{PlayerName: "Idle", GamesPlayed: 0},
	}
	mockRepo.On("GetAllPlayerStatistics", mock.Anything).Return(testStats, nil)

	service := NewService(mockRepo)
	leaderboard, err := service.GetLeaderboard(context.Background(), 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, leaderboard.TotalPlayers)
	assert.Equal(t, 1, leaderboard.CurrentPage)
	assert.Equal(t, 1, leaderboard.TotalPages)
	assert.Equal(t, 10, leaderboard.PlayersPerPage)

	// Equal wins are broken by win rate
	require.Len(t, leaderboard.Players, 3)
	assert.Equal(t, "Alice", leaderboard.Players[0].PlayerName)
	assert.Equal(t, "Risky Rick", leaderboard.Players[1].PlayerName)
	assert.Equal(t, "Bob", leaderboard.Players[2].PlayerName)

	assert.Equal(t, 1, leaderboard.Players[0].Rank)
	assert.Equal(t, 3, leaderboard.Players[2].Rank)
	assert.InDelta(t, 50.0, leaderboard.Players[1].WinRate, 0.001)

	assert.True(t, leaderboard.Players[0].IsTopWinner)
	assert.False(t, leaderboard.Players[1].IsTopWinner)
	assert.True(t, leaderboard.Players[2].IsTopPlayer)

	mockRepo.AssertExpectations(t)
}

func TestGetLeaderboardPaging(t *testing.T) {
	mockRepo := new(MockRepository)

	testStats := make([]*entities.PlayerStatistics, 0, 5)
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		testStats = append(testStats, &entities.PlayerStatistics{PlayerName: name, GamesPlayed: 10, Wins: 10 - i})
	}
	mockRepo.On("GetAllPlayerStatistics", mock.Anything).Return(testStats, nil)

	service := NewService(mockRepo)

	page, err := service.GetLeaderboard(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Players, 2)
	assert.Equal(t, "C", page.Players[0].PlayerName)
	assert.Equal(t, 3, page.Players[0].Rank)

	// Past the end clamps to the last page
	last, err := service.GetLeaderboard(context.Background(), 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, last.CurrentPage)
	require.Len(t, last.Players, 1)
	assert.Equal(t, "E", last.Players[0].PlayerName)

	// Defaults
	defaults, err := service.GetLeaderboard(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.CurrentPage)
	assert.Equal(t, 10, defaults.PlayersPerPage)
}

func TestGetLeaderboardRepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("GetAllPlayerStatistics", mock.Anything).Return([]*entities.PlayerStatistics(nil), errors.New("db down"))

	_, err := NewService(mockRepo).GetLeaderboard(context.Background(), 1, 10)

	assert.True(t, types.IsGameError(err, types.ErrInternalError))
}

func TestGetPlayerSummary(t *testing.T) {
	mockRepo := new(MockRepository)
	stats := &entities.PlayerStatistics{PlayerName: "Alice", GamesPlayed: 3, Wins: 1, Losses: 2}
	games := []*entities.GameResult{{ID: "g3"}, {ID: "g2"}, {ID: "g1"}}
	mockRepo.On("GetPlayerStatistics", mock.Anything, "Alice").Return(stats, nil)
	mockRepo.On("GetPlayerResults", mock.Anything, "Alice").Return(games, nil)

	summary, err := NewService(mockRepo).GetPlayerSummary(context.Background(), "Alice", 2)

	require.NoError(t, err)
	assert.Equal(t, stats, summary.Statistics)
	require.Len(t, summary.RecentGames, 2)
	assert.Equal(t, "g3", summary.RecentGames[0].ID)
	mockRepo.AssertExpectations(t)
}

func TestRecordGame(t *testing.T) {
	mockRepo := new(MockRepository)
	winnerID := 2
	state := entities.GameState{
		Players: []entities.Player{
			{ID: 1, Name: "You", Balance: 700},
			{ID: 2, Name: "Balanced Ben", Balance: 0, IsAI: true},
		},
		Pot:      1300,
		WinnerID: &winnerID,
	}
	startedAt := time.Now().Add(-time.Minute)

	mockRepo.On("SaveGameResult", mock.Anything, mock.MatchedBy(func(r *entities.GameResult) bool {
		return r.WinnerName == "Balanced Ben" && r.Mode == entities.ModeLocal && r.Spins == 14 && r.ID != ""
	})).Return(nil)

	result, err := NewService(mockRepo).RecordGame(context.Background(), entities.ModeLocal, "", startedAt, state, 14)

	require.NoError(t, err)
	assert.Equal(t, startedAt, result.StartedAt)
	assert.False(t, result.CompletedAt.Before(startedAt))
	mockRepo.AssertExpectations(t)
}

func TestRecordGameWithoutWinner(t *testing.T) {
	mockRepo := new(MockRepository)

	_, err := NewService(mockRepo).RecordGame(context.Background(), entities.ModeLocal, "", time.Now(), entities.GameState{}, 3)

	assert.True(t, types.IsGameError(err, types.ErrInvalidState))
	mockRepo.AssertNotCalled(t, "SaveGameResult", mock.Anything, mock.Anything)
}

func TestRecordGameSaveError(t *testing.T) {
	mockRepo := new(MockRepository)
	winnerID := 1
	state := entities.GameState{
		Players:  []entities.Player{{ID: 1, Name: "You"}},
		WinnerID: &winnerID,
	}
	mockRepo.On("SaveGameResult", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := NewService(mockRepo).RecordGame(context.Background(), entities.ModeOnline, "abc", time.Now(), state, 1)

	assert.True(t, types.IsGameError(err, types.ErrInternalError))
}
