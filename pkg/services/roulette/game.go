package roulette

import (
	"fmt"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// Log lines shared by the local and online engines
const (
	WelcomeMessage = "Welcome to Reverse Roulette! The first to $0 wins."
	RestartMessage = "New game started. Objective: Lose all your money!"
)

// PendingSpin remembers the bet a spin is resolving
type PendingSpin struct {
	PlayerID int
	Bet      entities.Bet
	Stake    int64
}

// NewGameState creates a fresh state for a roster: zero pot, empty log,
// first player to act.
func NewGameState(players []entities.Player) entities.GameState {
	return entities.GameState{
		Players:            append([]entities.Player(nil), players...),
		Pot:                entities.PotStartingAmount,
		CurrentPlayerIndex: 0,
		Log:                []entities.GameEvent{},
	}
}

// ResetState restores starting balances and clears pot, log, winner and
// spin state, keeping the roster and its order.
func ResetState(s entities.GameState) entities.GameState {
	players := make([]entities.Player, len(s.Players))
	for i, p := range s.Players {
		p.Balance = entities.StartingBalance
		players[i] = p
	}
	return NewGameState(players)
}

// ValidateBet checks a bet intent for the given player against the state
func ValidateBet(s entities.GameState, playerID int, bet entities.Bet, stake int64) error {
	if s.HasWinner() {
		return types.NewGameError(types.ErrGameAlreadyEnded, "the game is over")
	}
	if s.IsSpinning {
		return types.NewGameError(types.ErrSpinInProgress, "wait for the wheel to stop")
	}
	current, ok := s.CurrentPlayer()
	if !ok {
		return types.NewGameError(types.ErrInvalidState, "no current player")
	}
	if current.ID != playerID {
		return types.NewGameError(types.ErrNotPlayerTurn, fmt.Sprintf("it is %s's turn", current.Name))
	}
	if err := bet.Validate(); err != nil {
		return types.WrapError(types.ErrInvalidBet, "invalid bet", err)
	}
	if stake <= 0 {
		return types.NewGameError(types.ErrInvalidBet, "stake must be positive")
	}
	if stake > current.Balance {
		return types.NewGameError(types.ErrInvalidBet, fmt.Sprintf("stake $%d exceeds balance $%d", stake, current.Balance))
	}
	if max := bet.MaxStake(); stake > max {
		return types.NewGameError(types.ErrInvalidBet, fmt.Sprintf("stake $%d exceeds the $%d limit", stake, max))
	}
	return nil
}

// StartSpin moves the state from awaiting-turn to spin-in-progress for the
// current player and announces the bet. The input state is not modified.
func StartSpin(s entities.GameState, playerID int, bet entities.Bet, stake int64) (entities.GameState, PendingSpin, error) {
	if err := ValidateBet(s, playerID, bet, stake); err != nil {
		return s, PendingSpin{}, err
	}

	next := s.Clone()
	player := next.Players[next.CurrentPlayerIndex]
	next.IsSpinning = true
	next.WinningNumber = nil
	next.AddLog(fmt.Sprintf("%s bets $%d on %s.", player.Name, stake, bet))

	return next, PendingSpin{PlayerID: playerID, Bet: bet, Stake: stake}, nil
}

// ResolveSpin applies a drawn number to a spin in progress. It appends the
// outcome announcement, a pot-transfer line when the bettor wins, and a
// winner line when the bettor reaches zero; otherwise the turn advances.
func ResolveSpin(s entities.GameState, spin PendingSpin, n int) (entities.GameState, Outcome, error) {
	if !s.IsSpinning {
		return s, Outcome{}, types.NewGameError(types.ErrInvalidState, "no spin in progress")
	}
	idx := s.PlayerIndex(spin.PlayerID)
	if idx < 0 {
		return s, Outcome{}, types.NewGameError(types.ErrInvalidState, fmt.Sprintf("player %d not in roster", spin.PlayerID))
	}

	next := s.Clone()
	player := next.Players[idx]
	out := Evaluate(spin.Bet, spin.Stake, n, next.Pot, player.Balance)

	number := n
	next.WinningNumber = &number
	next.IsSpinning = false

	if out.Win {
		next.AddLog(fmt.Sprintf("The ball lands on %s!", DescribeNumber(n)))
		next.AddLog(fmt.Sprintf("Oh no! %s %s", player.Name, out.Description))
	} else {
		next.AddLog(fmt.Sprintf("The ball lands on %s! Success! %s %s", DescribeNumber(n), player.Name, out.Description))
	}

	next.Players[idx].Balance = out.Balance
	next.Pot = out.Pot

	if out.Eliminated {
		winnerID := player.ID
		next.WinnerID = &winnerID
		next.AddLog(fmt.Sprintf("%s has hit zero! They are the WINNER!", player.Name))
	} else {
		next.CurrentPlayerIndex = NextPlayerIndex(next.Players, next.CurrentPlayerIndex)
	}

	return next, out, nil
}
