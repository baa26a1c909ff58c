package entities

import "time"

// Result represents the outcome of a player's participation in a game
type Result interface {
	// String returns the string representation of the result
	String() string

	// IsWin returns true if this result represents a win
	IsWin() bool
}

// StringResult is a simple string-based implementation of Result
type StringResult string

// String returns the string representation of the result
func (r StringResult) String() string {
	return string(r)
}

// IsWin returns true if this result represents a win
func (r StringResult) IsWin() bool {
	return r == StringResultWin
}

// Common result constants
const (
	StringResultWin  StringResult = "WIN"
	StringResultLose StringResult = "LOSE"
)

// GameMode tells local games from online ones in the history
type GameMode string

const (
	ModeLocal  GameMode = "local"
	ModeOnline GameMode = "online"
)

// GameResult represents a finished game
type GameResult struct {
	ID            string
	Mode          GameMode
	GameCode      string // blob id for online games
	StartedAt     time.Time
	CompletedAt   time.Time
	WinnerName    string
	Spins         int
	FinalPot      int64
	PlayerResults []*PlayerResult
}

// PlayerResult is one roster entry's outcome
type PlayerResult struct {
	PlayerName   string
	IsAI         bool
	FinalBalance int64
	Result       Result
}
