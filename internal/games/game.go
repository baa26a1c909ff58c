package games

import (
	"context"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// Engine is the game-play surface shared by the local and online engines.
// The session manager drives whichever one is active through it.
type Engine interface {
	// State returns a snapshot of the current game state
	State() entities.GameState

	// PlaceBet submits a bet for the player this engine acts for
	PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error

	// Restart resets balances, pot and log, keeping the roster
	Restart(ctx context.Context) error

	// Stop cancels every pending timer and poll. No state changes after it returns.
	Stop()
}

// Listener is told about every published state snapshot
type Listener func(entities.GameState)

// Recorder stores finished games
type Recorder interface {
	RecordGame(ctx context.Context, mode entities.GameMode, gameCode string, startedAt time.Time, state entities.GameState, spins int) (*entities.GameResult, error)
}

// OnlineEngine is an Engine bound to a shared game document
type OnlineEngine interface {
	Engine

	// Code returns the game code other players join with
	Code() string

	// PlayerID returns this device's player id, or -1 before a guest is admitted
	PlayerID() int

	// Status returns the shared document's status
	Status() entities.Status

	// Start begins polling the shared document
	Start()
}

// HostEngine is the OnlineEngine of the device that created the game
type HostEngine interface {
	OnlineEngine

	// StartGame moves the lobby to playing
	StartGame(ctx context.Context) error
}

// Factory builds the engines a session runs on. lost is called once if an
// online engine gives up on the shared document.
type Factory interface {
	NewLocal(players []entities.Player, listener Listener) (Engine, error)
	CreateOnline(ctx context.Context, hostName string, listener Listener, lost func(error)) (HostEngine, error)
	JoinOnline(ctx context.Context, code, playerName string, listener Listener, lost func(error)) (OnlineEngine, error)
}
