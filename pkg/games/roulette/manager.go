package roulette

import (
	"context"
	"sync"

	"github.com/fadedpez/reverseroulette/internal/games"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/common"
)

// Screen is where the session currently is
type Screen string

const (
	ScreenTitle  Screen = "title"
	ScreenLocal  Screen = "local"
	ScreenPaused Screen = "paused"
	ScreenLobby  Screen = "lobby"
	ScreenOnline Screen = "online"
)

// Notice is a blocking message the player has to dismiss
type Notice struct {
	Code    types.ErrorCode
	Message string
}

// View is everything the presentation layer needs to draw the session
type View struct {
	Screen Screen
	State  entities.GameState
	// Online sessions only
	Code     string
	PlayerID int
	IsHost   bool
	Notice   *Notice
}

// CanBet reports whether the betting controls should be enabled
func (v View) CanBet() bool {
	switch v.Screen {
	case ScreenLocal:
		return v.State.IsHumanTurn()
	case ScreenOnline:
		current, ok := v.State.CurrentPlayer()
		return ok && current.ID == v.PlayerID && !v.State.IsSpinning && !v.State.HasWinner()
	}
	return false
}

// Manager turns player intents into engine calls and tracks which screen
// the session is on. At most one engine is active at a time.
type Manager struct {
	factory  games.Factory
	logger   *logging.Logger
	onChange func(View)

	mu     sync.Mutex
	screen Screen
	engine games.Engine
	online games.OnlineEngine
	host   games.HostEngine
	notice *Notice
	// session increments whenever an engine is replaced, so callbacks from
	// a retired engine are ignored
	session int
}

// NewManager creates a new roulette session manager
func NewManager(factory games.Factory, logger *logging.Logger, onChange func(View)) *Manager {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Manager{
		factory:  factory,
		logger:   logger.Named("session"),
		onChange: onChange,
		screen:   ScreenTitle,
	}
}

// View returns the current session snapshot
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Manager) viewLocked() View {
	v := View{Screen: m.screen}
	if m.notice != nil {
		n := *m.notice
		v.Notice = &n
	}
	if m.engine != nil {
		v.State = m.engine.State()
	}
	if m.online != nil {
		v.Code = m.online.Code()
		v.PlayerID = m.online.PlayerID()
		v.IsHost = m.host != nil
	}
	return v
}

// StartLocal starts a single-device game. With no names the default lineup
// is used; otherwise every named player is a human sharing the device.
func (m *Manager) StartLocal(names ...string) error {
	players := common.DefaultRoster()
	if len(names) > 0 {
		var err error
		if players, err = common.RosterFromNames(names); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.screen != ScreenTitle {
		m.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "quit the current game first")
	}
	session := m.nextSessionLocked()
	m.mu.Unlock()

	engine, err := m.factory.NewLocal(players, m.listener(session))
	if err != nil {
		return m.fail(err)
	}

	m.mu.Lock()
	m.engine = engine
	m.screen = ScreenLocal
	m.mu.Unlock()

	m.logger.Info("Started local game with %d players", len(players))
	m.changed()
	return nil
}

// Pause hides a local game behind the pause screen. Timers keep running and
// the game state is untouched.
func (m *Manager) Pause() error {
	m.mu.Lock()
	if m.screen != ScreenLocal {
		m.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "only a local game can be paused")
	}
	m.screen = ScreenPaused
	m.mu.Unlock()

	m.changed()
	return nil
}

// Resume returns from the pause screen
func (m *Manager) Resume() error {
	m.mu.Lock()
	if m.screen != ScreenPaused {
		m.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "the game is not paused")
	}
	m.screen = ScreenLocal
	m.mu.Unlock()

	m.changed()
	return nil
}

// CreateOnline publishes a new lobby hosted by this device
func (m *Manager) CreateOnline(ctx context.Context, hostName string) error {
	m.mu.Lock()
	if m.screen != ScreenTitle {
		m.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "quit the current game first")
	}
	session := m.nextSessionLocked()
	m.mu.Unlock()

	host, err := m.factory.CreateOnline(ctx, hostName, m.listener(session), m.lost(session))
	if err != nil {
		return m.fail(err)
	}

	m.mu.Lock()
	m.engine, m.online, m.host = host, host, host
	m.screen = ScreenLobby
	m.mu.Unlock()

	m.logger.Info("Hosting online game %s", host.Code())
	m.changed()
	return nil
}

// JoinOnline asks to join the lobby with the given code
func (m *Manager) JoinOnline(ctx context.Context, code, playerName string) error {
	m.mu.Lock()
	if m.screen != ScreenTitle {
		m.mu.Unlock()
		return types.NewGameError(types.ErrInvalidState, "quit the current game first")
	}
	session := m.nextSessionLocked()
	m.mu.Unlock()

	guest, err := m.factory.JoinOnline(ctx, code, playerName, m.listener(session), m.lost(session))
	if err != nil {
		return m.fail(err)
	}

	m.mu.Lock()
	m.engine, m.online, m.host = guest, guest, nil
	m.screen = ScreenLobby
	m.mu.Unlock()

	m.logger.Info("Joining online game %s", code)
	m.changed()
	return nil
}

// StartOnline moves the hosted lobby to playing
func (m *Manager) StartOnline(ctx context.Context) error {
	m.mu.Lock()
	host, screen := m.host, m.screen
	online := m.online
	m.mu.Unlock()

	if screen != ScreenLobby || online == nil {
		return types.NewGameError(types.ErrInvalidState, "there is no lobby to start")
	}
	if host == nil {
		return types.NewGameError(types.ErrNotHost, "only the host can start the game")
	}
	if err := host.StartGame(ctx); err != nil {
		return m.fail(err)
	}

	m.refresh()
	return nil
}

// PlaceBet bets for the player this device acts for
func (m *Manager) PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error {
	m.mu.Lock()
	engine, screen := m.engine, m.screen
	m.mu.Unlock()

	if engine == nil || (screen != ScreenLocal && screen != ScreenOnline) {
		return types.NewGameError(types.ErrInvalidState, "there is no game to bet on")
	}
	if err := engine.PlaceBet(ctx, bet, stake); err != nil {
		return m.fail(err)
	}
	return nil
}

// Restart starts the current game over with the same players
func (m *Manager) Restart(ctx context.Context) error {
	m.mu.Lock()
	engine, screen := m.engine, m.screen
	m.mu.Unlock()

	if engine == nil || screen == ScreenLobby {
		return types.NewGameError(types.ErrInvalidState, "there is no game to restart")
	}
	if err := engine.Restart(ctx); err != nil {
		return m.fail(err)
	}
	return nil
}

// Quit stops the active engine and returns to the title screen. It always
// succeeds.
func (m *Manager) Quit() {
	m.mu.Lock()
	engine := m.clearLocked()
	m.screen = ScreenTitle
	m.mu.Unlock()

	if engine != nil {
		engine.Stop()
		m.logger.Info("Returned to title")
	}
	m.changed()
}

// Dismiss clears the current notice
func (m *Manager) Dismiss() {
	m.mu.Lock()
	m.notice = nil
	m.mu.Unlock()
	m.changed()
}

func (m *Manager) nextSessionLocked() int {
	m.session++
	return m.session
}

// clearLocked forgets the active engine and returns it for stopping
func (m *Manager) clearLocked() games.Engine {
	engine := m.engine
	m.engine, m.online, m.host = nil, nil, nil
	m.session++
	return engine
}

// fail turns err into a notice unless it is a refused intent, which the
// player only sees as an inert control
func (m *Manager) fail(err error) error {
	if types.IsIntentError(err) {
		return err
	}
	m.logger.LogError(err)

	m.mu.Lock()
	m.notice = &Notice{Code: types.CodeOf(err), Message: noticeMessage(err)}
	m.mu.Unlock()

	m.changed()
	return err
}

func noticeMessage(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return gameErr.Message
	}
	return err.Error()
}

func (m *Manager) listener(session int) games.Listener {
	return func(entities.GameState) {
		m.mu.Lock()
		current := m.session == session
		m.mu.Unlock()
		if current {
			m.refresh()
		}
	}
}

// lost handles an online engine giving up: the session returns to the title
// screen with a notice
func (m *Manager) lost(session int) func(error) {
	return func(err error) {
		m.mu.Lock()
		if m.session != session {
			m.mu.Unlock()
			return
		}
		engine := m.clearLocked()
		m.screen = ScreenTitle
		m.notice = &Notice{Code: types.ErrConnectionLost, Message: "Connection to the game was lost."}
		m.mu.Unlock()

		if engine != nil {
			engine.Stop()
		}
		m.logger.Warn("Online session ended: %v", err)
		m.changed()
	}
}

// refresh moves the lobby to the playing screen once the shared document
// has started, then publishes the view
func (m *Manager) refresh() {
	m.mu.Lock()
	if m.screen == ScreenLobby && m.online != nil && m.online.Status() != entities.StatusLobby {
		m.screen = ScreenOnline
	}
	m.mu.Unlock()
	m.changed()
}

func (m *Manager) changed() {
	if m.onChange != nil {
		m.onChange(m.View())
	}
}
