package game

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// MemoryRepository implements Repository interface with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// All results in completion order
	results []*entities.GameResult
	// Map of lower-cased player name to game results
	playerResults map[string][]*entities.GameResult
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		results:       make([]*entities.GameResult, 0),
		playerResults: make(map[string][]*entities.GameResult),
	}
}

func playerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SaveGameResult stores a game result and indexes it by player
func (r *MemoryRepository) SaveGameResult(ctx context.Context, result *entities.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, result)
	for _, pr := range result.PlayerResults {
		key := playerKey(pr.PlayerName)
		r.playerResults[key] = append(r.playerResults[key], result)
	}

	return nil
}

// GetPlayerResults retrieves game results for a player, newest first
func (r *MemoryRepository) GetPlayerResults(ctx context.Context, playerName string) ([]*entities.GameResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := append([]*entities.GameResult(nil), r.playerResults[playerKey(playerName)]...)
	sortNewestFirst(results)
	return results, nil
}

// GetRecentResults retrieves the most recent game results, newest first
func (r *MemoryRepository) GetRecentResults(ctx context.Context, limit int) ([]*entities.GameResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := append([]*entities.GameResult(nil), r.results...)
	sortNewestFirst(results)

	// If we have more results than the limit, return only the most recent ones
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close is a no-op for memory repository since there are no resources to close
func (r *MemoryRepository) Close() error {
	return nil
}

func sortNewestFirst(results []*entities.GameResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
}
