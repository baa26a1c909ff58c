package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// Roster limits shared by local setup and online lobbies
const (
	MaxNameLength = 15
	MinPlayers    = 2
	MaxPlayers    = 10
)

// NewPlayer creates a human player with the starting balance
func NewPlayer(id int, name string) entities.Player {
	return entities.Player{
		ID:      id,
		Name:    name,
		Balance: entities.StartingBalance,
	}
}

// NewAIPlayer creates a computer player with the starting balance
func NewAIPlayer(id int, name string, personality entities.Personality) entities.Player {
	p := NewPlayer(id, name)
	p.IsAI = true
	p.Personality = personality
	return p
}

// DefaultRoster is the single-device lineup: one human against three
// computer players, one of each personality
func DefaultRoster() []entities.Player {
	return []entities.Player{
		NewPlayer(1, "You"),
		NewAIPlayer(2, "Risky Rick", entities.PersonalityRiskLover),
		NewAIPlayer(3, "Clumsy Chloe", entities.PersonalityAccidentProne),
		NewAIPlayer(4, "Balanced Ben", entities.PersonalityBalanced),
	}
}

// NormalizeName trims a display name and checks its length
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.NewGameError(types.ErrInvalidArgument, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", types.NewGameError(types.ErrInvalidArgument,
			fmt.Sprintf("name cannot be longer than %d characters", MaxNameLength))
	}
	return name, nil
}

// RosterFromNames builds a hot-seat roster of human players numbered from 1
func RosterFromNames(names []string) ([]entities.Player, error) {
	if len(names) < MinPlayers {
		return nil, types.NewGameError(types.ErrNotEnoughPlayers,
			fmt.Sprintf("need at least %d players", MinPlayers))
	}
	if len(names) > MaxPlayers {
		return nil, types.NewGameError(types.ErrTooManyPlayers,
			fmt.Sprintf("at most %d players can play", MaxPlayers))
	}

	players := make([]entities.Player, 0, len(names))
	for i, raw := range names {
		name, err := NormalizeName(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := FindByName(players, name); ok {
			return nil, types.NewGameError(types.ErrNameTaken, fmt.Sprintf("%s is already playing", name))
		}
		players = append(players, NewPlayer(i+1, name))
	}
	return players, nil
}

// NextID is one more than the largest id in the roster, or 1 when empty
func NextID(players []entities.Player) int {
	next := 1
	for _, p := range players {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// FindByName looks a player up by display name, ignoring case
func FindByName(players []entities.Player, name string) (entities.Player, bool) {
	name = strings.TrimSpace(name)
	for _, p := range players {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return entities.Player{}, false
}

// FindByID looks a player up by id
func FindByID(players []entities.Player, id int) (entities.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Player{}, false
}
