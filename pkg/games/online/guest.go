package online

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fadedpez/reverseroulette/internal/games"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/common"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
	"github.com/google/uuid"
)

// Guest follows a game hosted elsewhere. It never writes roster, pot or log;
// it only queues Join and Bet actions for the host to merge.
type Guest struct {
	opts   Options
	remote remote
	logger *logging.Logger
	code   string
	name   string
	poller *poller

	// opMu serializes polls and submissions
	opMu sync.Mutex

	mu       sync.Mutex
	doc      entities.OnlineGameState
	playerID int
	// betVersion is the document version a bet was queued against; the
	// guest waits for a newer version before it may bet again
	betVersion *int64
	stopped    bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Ensure Guest implements the games.OnlineEngine interface
var _ games.OnlineEngine = (*Guest)(nil)

// JoinGame queues a Join action on the game with the given code. Joining a
// started game, a full lobby or a taken name is refused here rather than
// left for the host to drop. The guest learns its id from a later poll.
func JoinGame(ctx context.Context, code, playerName string, opts Options) (*Guest, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	name, err := common.NormalizeName(playerName)
	if err != nil {
		return nil, err
	}

	r := remote{store: opts.Store, role: metrics.RoleGuest}
	doc, err := r.fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := checkJoin(doc, name); err != nil {
		return nil, err
	}

	action, err := entities.NewJoinAction(uuid.NewString(), name)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "failed to build join action", err)
	}
	doc.GuestActions = append(doc.GuestActions, action)
	if err := r.put(ctx, code, doc); err != nil {
		return nil, err
	}

	g := &Guest{
		opts:     opts,
		remote:   r,
		logger:   opts.Logger.Named("guest").With("game", code, "player", name),
		code:     code,
		name:     name,
		doc:      doc,
		playerID: entities.UnassignedPlayerID,
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.poller = newPoller(metrics.RoleGuest, opts.PollInterval, opts.MaxPollFailures, g.logger, g.poll, g.connectionLost)

	g.logger.Info("Asked to join game %s", code)
	return g, nil
}

func checkJoin(doc entities.OnlineGameState, name string) error {
	if doc.Status != entities.StatusLobby {
		return types.NewGameError(types.ErrGameInProgress, "that game has already started")
	}
	if _, taken := common.FindByName(doc.Players, name); taken {
		return types.NewGameError(types.ErrNameTaken, fmt.Sprintf("the name %q is already taken", name))
	}
	for _, a := range doc.GuestActions {
		if p, err := a.Join(); err == nil && strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return types.NewGameError(types.ErrNameTaken, fmt.Sprintf("the name %q is already taken", name))
		}
	}
	if len(doc.Players) >= entities.MaxOnlinePlayers {
		return types.NewGameError(types.ErrTooManyPlayers, "that game is full")
	}
	return nil
}

// Code returns the game code
func (g *Guest) Code() string {
	return g.code
}

// Name returns the display name the guest joined with
func (g *Guest) Name() string {
	return g.name
}

// PlayerID returns the id the host assigned, or entities.UnassignedPlayerID
// until the guest has seen itself in the roster
func (g *Guest) PlayerID() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerID
}

// Joined reports whether the host has merged the guest's Join
func (g *Guest) Joined() bool {
	return g.PlayerID() != entities.UnassignedPlayerID
}

// Start begins polling the shared document
func (g *Guest) Start() {
	g.poller.start(g.ctx)
}

// State returns the game as last observed. IsSpinning is set while a bet the
// guest queued has not yet been published by the host.
func (g *Guest) State() entities.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.doc.State()
	s.IsSpinning = g.betVersion != nil
	return s
}

// Document returns a copy of the last observed document
func (g *Guest) Document() entities.OnlineGameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Clone()
}

// Status returns the status of the last observed document
func (g *Guest) Status() entities.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Status
}

// Poll reads the shared document once. The scheduled poller calls the same
// path.
func (g *Guest) Poll(ctx context.Context) error {
	return g.poller.runOnce(ctx)
}

func (g *Guest) poll(ctx context.Context) error {
	changed, err := g.pollLocked(ctx)
	if changed {
		g.notify()
	}
	return err
}

func (g *Guest) pollLocked(ctx context.Context) (bool, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if g.isStopped() {
		return false, nil
	}
	doc, err := g.remote.fetch(ctx, g.code)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	changed := doc.Version != g.doc.Version || len(doc.GameLog) != len(g.doc.GameLog) ||
		len(doc.Players) != len(g.doc.Players) || doc.Status != g.doc.Status
	g.doc = doc

	if g.playerID == entities.UnassignedPlayerID {
		if p, ok := common.FindByName(doc.Players, g.name); ok {
			g.playerID = p.ID
			g.logger.Info("Joined as player %d", p.ID)
			changed = true
		}
	}
	if g.betVersion != nil && doc.Version > *g.betVersion {
		g.betVersion = nil
		changed = true
	}
	return changed, nil
}

// PlaceBet queues a Bet action for the guest. The bet is checked against
// the last observed document first so obvious mistakes are refused locally.
func (g *Guest) PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error {
	err := g.placeBet(ctx, bet, stake)
	if err == nil {
		g.notify()
	}
	return err
}

func (g *Guest) placeBet(ctx context.Context, bet entities.Bet, stake int64) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if g.isStopped() {
		return types.NewGameError(types.ErrInvalidState, "the session has ended")
	}

	g.mu.Lock()
	playerID := g.playerID
	doc := g.doc.Clone()
	waiting := g.betVersion != nil
	g.mu.Unlock()

	if playerID == entities.UnassignedPlayerID {
		return types.NewGameError(types.ErrNotJoined, "the host has not added you yet")
	}
	switch doc.Status {
	case entities.StatusLobby:
		return types.NewGameError(types.ErrInvalidState, "the game has not started")
	case entities.StatusFinished:
		return types.NewGameError(types.ErrGameAlreadyEnded, "the game is over")
	}
	if waiting {
		return types.NewGameError(types.ErrSpinInProgress, "wait for the wheel to stop")
	}
	if err := roulette.ValidateBet(doc.State(), playerID, bet, stake); err != nil {
		return err
	}

	action, err := entities.NewBetAction(uuid.NewString(), playerID, bet, stake)
	if err != nil {
		return types.WrapError(types.ErrInternalError, "failed to build bet action", err)
	}
	latest, err := g.remote.appendAction(ctx, g.code, action)
	if err != nil {
		return err
	}

	g.mu.Lock()
	version := latest.Version
	g.betVersion = &version
	g.mu.Unlock()

	g.logger.Debug("Queued bet %s: $%d on %s", action.ActionID, stake, bet)
	return nil
}

// Restart is reserved for the host
func (g *Guest) Restart(ctx context.Context) error {
	return types.NewGameError(types.ErrNotHost, "only the host can restart the game")
}

// Stop ends the session and stops polling
func (g *Guest) Stop() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.stopped = true
	g.mu.Unlock()

	g.cancel()
	g.poller.stop()

	g.opMu.Lock()
	g.opMu.Unlock()
	g.logger.Debug("Guest stopped")
}

func (g *Guest) isStopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

func (g *Guest) connectionLost(err error) {
	g.Stop()
	g.logger.Error("Connection lost: %v", err)
	if g.opts.OnConnectionLost != nil {
		g.opts.OnConnectionLost(err)
	}
}

func (g *Guest) notify() {
	if g.opts.Listener != nil {
		g.opts.Listener(g.State())
	}
}
