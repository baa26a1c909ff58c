package roulette

import "github.com/fadedpez/reverseroulette/pkg/entities"

// NextPlayerIndex searches forward cyclically from current+1 for a player
// with a positive balance. When nobody else is eligible it returns current
// unchanged, which callers treat as "the game should already be over".
func NextPlayerIndex(players []entities.Player, current int) int {
	n := len(players)
	if n == 0 {
		return current
	}
	for step := 1; step < n; step++ {
		idx := ((current+step)%n + n) % n
		if players[idx].Balance > 0 {
			return idx
		}
	}
	return current
}

// ActivePlayers counts players still in rotation
func ActivePlayers(players []entities.Player) int {
	count := 0
	for _, p := range players {
		if p.Balance > 0 {
			count++
		}
	}
	return count
}
