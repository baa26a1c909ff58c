package game

import (
	"strings"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// ESGameResult represents a game result document in Elasticsearch
type ESGameResult struct {
	GameID      string           `json:"game_id"`
	Mode        string           `json:"mode"`
	GameCode    string           `json:"game_code,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	WinnerName  string           `json:"winner_name"`
	Spins       int              `json:"spins"`
	FinalPot    int64            `json:"final_pot"`
	Players     []ESPlayerResult `json:"players"`
}

// ESPlayerResult represents a player result in Elasticsearch
type ESPlayerResult struct {
	PlayerName   string `json:"player_name"`
	PlayerKey    string `json:"player_key"` // lower-cased name for lookups
	IsAI         bool   `json:"is_ai"`
	FinalBalance int64  `json:"final_balance"`
	Result       string `json:"result"` // "WIN", "LOSE"
}

// toESGameResult converts a game result into its indexed form
func toESGameResult(result *entities.GameResult) *ESGameResult {
	doc := &ESGameResult{
		GameID:      result.ID,
		Mode:        string(result.Mode),
		GameCode:    result.GameCode,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		WinnerName:  result.WinnerName,
		Spins:       result.Spins,
		FinalPot:    result.FinalPot,
		Players:     make([]ESPlayerResult, 0, len(result.PlayerResults)),
	}
	for _, pr := range result.PlayerResults {
		doc.Players = append(doc.Players, ESPlayerResult{
			PlayerName:   pr.PlayerName,
			PlayerKey:    strings.ToLower(strings.TrimSpace(pr.PlayerName)),
			IsAI:         pr.IsAI,
			FinalBalance: pr.FinalBalance,
			Result:       resultString(pr.Result),
		})
	}
	return doc
}

// GameResult converts the indexed document back into a game result
func (d *ESGameResult) GameResult() *entities.GameResult {
	result := &entities.GameResult{
		ID:            d.GameID,
		Mode:          entities.GameMode(d.Mode),
		GameCode:      d.GameCode,
		StartedAt:     d.StartedAt,
		CompletedAt:   d.CompletedAt,
		WinnerName:    d.WinnerName,
		Spins:         d.Spins,
		FinalPot:      d.FinalPot,
		PlayerResults: make([]*entities.PlayerResult, 0, len(d.Players)),
	}
	for _, p := range d.Players {
		result.PlayerResults = append(result.PlayerResults, &entities.PlayerResult{
			PlayerName:   p.PlayerName,
			IsAI:         p.IsAI,
			FinalBalance: p.FinalBalance,
			Result:       entities.StringResult(p.Result),
		})
	}
	return result
}

// gameIndexMapping is used for every monthly games index
const gameIndexMapping = `{
	"mappings": {
		"properties": {
			"game_id": { "type": "keyword" },
			"mode": { "type": "keyword" },
			"game_code": { "type": "keyword" },
			"started_at": { "type": "date" },
			"completed_at": { "type": "date" },
			"winner_name": { "type": "keyword" },
			"spins": { "type": "integer" },
			"final_pot": { "type": "long" },
			"players": {
				"type": "nested",
				"properties": {
					"player_name": { "type": "keyword" },
					"player_key": { "type": "keyword" },
					"is_ai": { "type": "boolean" },
					"final_balance": { "type": "long" },
					"result": { "type": "keyword" }
				}
			}
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 1,
		"refresh_interval": "1s"
	}
}`
