package roulette

import (
	"testing"

	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/stretchr/testify/assert"
)

func roster(balances ...int64) []entities.Player {
	players := make([]entities.Player, len(balances))
	for i, b := range balances {
		players[i] = entities.Player{ID: i + 1, Balance: b}
	}
	return players
}

func TestNextPlayerIndex(t *testing.T) {
	tests := []struct {
		name    string
		players []entities.Player
		current int
		want    int
	}{
		{"advances", roster(10, 10, 10), 0, 1},
		{"wraps", roster(10, 10, 10), 2, 0},
		{"skips zero balances", roster(10, 0, 0, 10), 0, 3},
		{"wraps past zero balances", roster(10, 0, 10, 0), 2, 0},
		{"nobody else eligible", roster(10, 0, 0), 0, 0},
		{"all zero", roster(0, 0), 1, 1},
		{"empty roster", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPlayerIndex(tt.players, tt.current))
		})
	}
}

func TestNextPlayerIndexNeverPicksZeroWhenOthersRemain(t *testing.T) {
	players := roster(0, 5, 0, 7, 0)
	for current := range players {
		next := NextPlayerIndex(players, current)
		assert.Greater(t, players[next].Balance, int64(0), "from %d", current)
	}
}

func TestActivePlayers(t *testing.T) {
	assert.Equal(t, 2, ActivePlayers(roster(0, 5, 0, 7)))
	assert.Equal(t, 0, ActivePlayers(nil))
}
