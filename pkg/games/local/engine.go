package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/reverseroulette/internal/games"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/scheduler"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
)

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Wheel     roulette.Wheel
	Source    roulette.Source // AI randomness
	SpinDelay time.Duration   // delay before a spin's outcome is revealed
	AIDelay   time.Duration   // delay before a computer player bets
	Logger    *logging.Logger
	Recorder  games.Recorder
	Listener  games.Listener
}

// Engine runs a single-device game: every player shares one process and
// computer players act on their own.
type Engine struct {
	opts   Options
	logger *logging.Logger

	mu        sync.Mutex
	state     entities.GameState
	pending   *roulette.PendingSpin
	spins     int
	startedAt time.Time
	started   bool
	stopped   bool

	spinTimer scheduler.Timer
	aiTimer   scheduler.Timer
}

// Ensure Engine implements the games.Engine interface
var _ games.Engine = (*Engine)(nil)

// NewEngine creates an engine for the given roster. The first player acts
// first. Call Start to let computer players begin.
func NewEngine(players []entities.Player, opts Options) (*Engine, error) {
	if len(players) == 0 {
		return nil, types.NewGameError(types.ErrNotEnoughPlayers, "a game needs at least one player")
	}
	if opts.Wheel == nil {
		opts.Wheel = roulette.NewRandomWheel(opts.Source)
	}
	if opts.Source == nil {
		opts.Source = roulette.DefaultSource
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}

	state := roulette.NewGameState(players)
	state.AddLog(roulette.WelcomeMessage)

	return &Engine{
		opts:      opts,
		logger:    opts.Logger.Named("local"),
		state:     state,
		startedAt: time.Now(),
	}, nil
}

// Start hands the first turn to its player. If that player is a computer
// player its bet is scheduled.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	finished := e.scheduleAILocked()
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.publish(snapshot, finished)
}

// State returns a snapshot of the current game state
func (e *Engine) State() entities.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Spins returns how many spins have resolved since the last (re)start
func (e *Engine) Spins() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spins
}

// PlaceBet places a bet for the current player, who must be human
func (e *Engine) PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "the game has been stopped")
	}
	current, ok := e.state.CurrentPlayer()
	if ok && current.IsAI && !e.state.HasWinner() && !e.state.IsSpinning {
		e.mu.Unlock()
		return types.NewGameError(types.ErrNotPlayerTurn, fmt.Sprintf("it is %s's turn", current.Name))
	}

	finished, err := e.submitLocked(current.ID, bet, stake)
	snapshot := e.state.Clone()
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publish(snapshot, finished)
	return nil
}

// Restart resets the game for the same roster
func (e *Engine) Restart(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "the game has been stopped")
	}
	e.spinTimer.Cancel()
	e.aiTimer.Cancel()

	e.state = roulette.ResetState(e.state)
	e.state.AddLog(roulette.RestartMessage)
	e.pending = nil
	e.spins = 0
	e.startedAt = time.Now()
	e.started = true

	finished := e.scheduleAILocked()
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.logger.Info("Game restarted with %d players", len(snapshot.Players))
	e.publish(snapshot, finished)
	return nil
}

// Stop cancels the pending spin reveal and computer turn
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	e.stopped = true
	e.spinTimer.Cancel()
	e.aiTimer.Cancel()
	e.logger.Debug("Engine stopped")
}

// submitLocked starts a spin. When the spin delay is zero the spin resolves
// before it returns. It reports whether the game finished.
func (e *Engine) submitLocked(playerID int, bet entities.Bet, stake int64) (bool, error) {
	next, spin, err := roulette.StartSpin(e.state, playerID, bet, stake)
	if err != nil {
		return false, err
	}
	e.state = next
	e.pending = &spin

	if e.opts.SpinDelay <= 0 {
		return e.resolveLocked(), nil
	}
	e.spinTimer.Schedule(e.opts.SpinDelay, e.resolve)
	return false, nil
}

func (e *Engine) resolve() {
	e.mu.Lock()
	if e.stopped || e.pending == nil {
		e.mu.Unlock()
		return
	}
	finished := e.resolveLocked()
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.publish(snapshot, finished)
}

// resolveLocked draws the outcome for the pending spin and hands the turn on
func (e *Engine) resolveLocked() bool {
	spin := *e.pending
	e.pending = nil

	n := e.opts.Wheel.Spin()
	next, out, err := roulette.ResolveSpin(e.state, spin, n)
	if err != nil {
		e.logger.Error("Failed to resolve spin: %v", err)
		return false
	}
	e.state = next
	e.spins++
	metrics.Spins.WithLabelValues(string(entities.ModeLocal), metrics.SpinResult(out.Win)).Inc()

	if e.state.HasWinner() {
		metrics.GamesFinished.WithLabelValues(string(entities.ModeLocal)).Inc()
		return true
	}
	return e.scheduleAILocked()
}

// scheduleAILocked queues the current computer player's bet, if it is one
func (e *Engine) scheduleAILocked() bool {
	if e.stopped || e.state.HasWinner() || e.state.IsSpinning {
		return false
	}
	current, ok := e.state.CurrentPlayer()
	if !ok || !current.IsAI {
		return false
	}

	if e.opts.AIDelay <= 0 {
		return e.playAILocked(current.ID)
	}
	e.aiTimer.Schedule(e.opts.AIDelay, func() { e.playAI(current.ID) })
	return false
}

func (e *Engine) playAI(playerID int) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	finished := e.playAILocked(playerID)
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.publish(snapshot, finished)
}

func (e *Engine) playAILocked(playerID int) bool {
	current, ok := e.state.CurrentPlayer()
	if !ok || current.ID != playerID || e.state.IsSpinning || e.state.HasWinner() {
		return false
	}

	bet, stake := roulette.DecideBet(current, e.opts.Source)
	finished, err := e.submitLocked(playerID, bet, stake)
	if err != nil {
		e.logger.Warn("Computer player %s could not bet: %v", current.Name, err)
		return false
	}
	return finished
}

// publish notifies the listener and records a finished game. It runs
// without the lock held.
func (e *Engine) publish(snapshot entities.GameState, finished bool) {
	if finished {
		if winner, ok := snapshot.Winner(); ok {
			e.logger.Info("%s reached zero and wins", winner.Name)
		}
		if e.opts.Recorder != nil {
			e.mu.Lock()
			spins, startedAt := e.spins, e.startedAt
			e.mu.Unlock()

			if _, err := e.opts.Recorder.RecordGame(context.Background(), entities.ModeLocal, "", startedAt, snapshot, spins); err != nil {
				e.logger.LogError(err)
			}
		}
	}
	if e.opts.Listener != nil {
		e.opts.Listener(snapshot)
	}
}
