package online

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
	"github.com/fadedpez/reverseroulette/pkg/games/common"
	"github.com/fadedpez/reverseroulette/pkg/scheduler"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
)

// HostPlayerID is the id the host always plays under
const HostPlayerID = 1

// Host owns the shared document. It merges queued guest actions, resolves
// every spin and is the only writer of roster, pot and log.
type Host struct {
	opts   Options
	remote remote
	logger *logging.Logger
	code   string
	poller *poller

	// opMu serializes polls, publishes, spin resolution and intents
	opMu        sync.Mutex
	processed   map[string]bool
	readVersion int64
	// published is the last version this host wrote
	published int64
	dirty     bool
	startedAt time.Time

	mu      sync.Mutex
	doc     entities.OnlineGameState
	pending *roulette.PendingSpin
	spins   int
	stopped bool

	ctx       context.Context
	cancel    context.CancelFunc
	spinTimer scheduler.Timer
}

// Ensure Host implements the games.HostEngine interface
var _ games.HostEngine = (*Host)(nil)

// CreateGame publishes a new lobby with the host as its only player. The
// game code is the document's id in the blob store.
func CreateGame(ctx context.Context, hostName string, opts Options) (*Host, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	name, err := common.NormalizeName(hostName)
	if err != nil {
		return nil, err
	}

	state := roulette.NewGameState([]entities.Player{common.NewPlayer(HostPlayerID, name)})
	state.AddLog(roulette.WelcomeMessage)
	doc := entities.OnlineGameState{
		HostID: HostPlayerID,
		Status: entities.StatusLobby,
	}
	doc.ApplyState(state)

	r := remote{store: opts.Store, role: metrics.RoleHost}
	code, err := r.create(ctx, doc)
	if err != nil {
		return nil, err
	}

	h := &Host{
		opts:      opts,
		remote:    r,
		logger:    opts.Logger.Named("host").With("game", code),
		code:      code,
		processed: make(map[string]bool),
		published: doc.Version,
		doc:       doc,
		startedAt: time.Now(),
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.poller = newPoller(metrics.RoleHost, opts.PollInterval, opts.MaxPollFailures, h.logger, h.poll, h.connectionLost)

	h.logger.Info("Created online game %s for %s", code, name)
	return h, nil
}

// Code returns the game code guests join with
func (h *Host) Code() string {
	return h.code
}

// PlayerID returns the host's own player id
func (h *Host) PlayerID() int {
	return HostPlayerID
}

// Start begins polling for guest actions
func (h *Host) Start() {
	h.poller.start(h.ctx)
}

// State returns a snapshot of the game. IsSpinning is set while the host is
// resolving a bet.
func (h *Host) State() entities.GameState {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.doc.State()
	s.IsSpinning = h.pending != nil
	return s
}

// Document returns a copy of the host's canonical document
func (h *Host) Document() entities.OnlineGameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doc.Clone()
}

// Status returns the document's status
func (h *Host) Status() entities.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doc.Status
}

// Spins returns how many spins have resolved since the game (re)started
func (h *Host) Spins() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spins
}

// Poll reads the shared document once and merges any queued actions. The
// scheduled poller calls the same path.
func (h *Host) Poll(ctx context.Context) error {
	return h.poller.runOnce(ctx)
}

// StartGame moves the lobby to playing. Only the host may do this, and only
// with at least two players.
func (h *Host) StartGame(ctx context.Context) error {
	err := h.startGame(ctx)
	if err == nil {
		h.notify()
	}
	return err
}

func (h *Host) startGame(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	doc, err := h.current()
	if err != nil {
		return err
	}
	if doc.Status != entities.StatusLobby {
		return types.NewGameError(types.ErrGameInProgress, "the game has already started")
	}
	if len(doc.Players) < entities.MinOnlinePlayers {
		return types.NewGameError(types.ErrNotEnoughPlayers,
			fmt.Sprintf("need at least %d players to start", entities.MinOnlinePlayers))
	}

	next := doc.Clone()
	next.Status = entities.StatusPlaying
	state := next.State()
	state.AddLog(roulette.RestartMessage)
	next.ApplyState(state)

	if err := h.publish(ctx, next); err != nil {
		return err
	}
	h.startedAt = time.Now()
	h.logger.Info("Game started with %d players", len(next.Players))
	return nil
}

// PlaceBet places the host's own bet
func (h *Host) PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error {
	finished, err := h.placeBet(ctx, bet, stake)
	if err == nil {
		h.afterChange(finished)
	}
	return err
}

func (h *Host) placeBet(ctx context.Context, bet entities.Bet, stake int64) (bool, error) {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	doc, err := h.current()
	if err != nil {
		return false, err
	}
	switch doc.Status {
	case entities.StatusLobby:
		return false, types.NewGameError(types.ErrInvalidState, "the game has not started")
	case entities.StatusFinished:
		return false, types.NewGameError(types.ErrGameAlreadyEnded, "the game is over")
	}
	if h.spinning() {
		return false, types.NewGameError(types.ErrSpinInProgress, "wait for the wheel to stop")
	}

	next, spin, err := roulette.StartSpin(doc.State(), HostPlayerID, bet, stake)
	if err != nil {
		return false, err
	}
	return h.beginSpinLocked(ctx, next, spin), nil
}

// Restart resets balances, pot and log for the same roster and publishes
// the fresh game
func (h *Host) Restart(ctx context.Context) error {
	err := h.restart(ctx)
	if err == nil {
		h.notify()
	}
	return err
}

func (h *Host) restart(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	doc, err := h.current()
	if err != nil {
		return err
	}
	if doc.Status == entities.StatusLobby {
		return types.NewGameError(types.ErrInvalidState, "the game has not started")
	}

	state := roulette.ResetState(doc.State())
	state.AddLog(roulette.RestartMessage)
	next := doc.Clone()
	next.ApplyState(state)
	next.Status = entities.StatusPlaying
	next.GuestActions = nil

	h.spinTimer.Cancel()
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	if err := h.publishFresh(ctx, next); err != nil {
		h.mu.Lock()
		h.pending = pending
		h.mu.Unlock()
		if pending != nil {
			h.scheduleResolve()
		}
		return err
	}

	h.startedAt = time.Now()
	h.mu.Lock()
	h.spins = 0
	h.mu.Unlock()
	h.logger.Info("Game restarted")
	return nil
}

// Stop ends the session: polling stops and a pending spin is dropped. It
// waits for an operation already in flight, so nothing changes after it
// returns.
func (h *Host) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.cancel()
	h.poller.stop()
	h.spinTimer.Cancel()

	h.opMu.Lock()
	h.spinTimer.Cancel()
	h.opMu.Unlock()
	h.logger.Debug("Host stopped")
}

func (h *Host) connectionLost(err error) {
	h.Stop()
	h.logger.Error("Connection lost: %v", err)
	if h.opts.OnConnectionLost != nil {
		h.opts.OnConnectionLost(err)
	}
}

// current returns the canonical document, or an error once stopped
func (h *Host) current() (entities.OnlineGameState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return entities.OnlineGameState{}, types.NewGameError(types.ErrInvalidState, "the session has ended")
	}
	return h.doc.Clone(), nil
}

func (h *Host) spinning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

func (h *Host) setDoc(doc entities.OnlineGameState) {
	h.mu.Lock()
	h.doc = doc
	h.mu.Unlock()
}

// poll is one host tick. Expects nothing locked.
func (h *Host) poll(ctx context.Context) error {
	finished, changed, err := h.pollLocked(ctx)
	if changed {
		h.afterChange(finished)
	}
	return err
}

func (h *Host) pollLocked(ctx context.Context) (finished, changed bool, err error) {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	doc, err := h.current()
	if err != nil {
		return false, false, nil
	}
	// Nothing is merged while a spin is in flight
	if h.spinning() {
		return false, false, nil
	}

	remoteDoc, err := h.remote.fetch(ctx, h.code)
	if err != nil {
		return false, false, err
	}
	h.readVersion = remoteDoc.Version

	if h.dirty {
		if err := h.publish(ctx, doc); err != nil {
			h.logger.Warn("Republish failed: %v", err)
			return false, false, nil
		}
		changed = true
		doc, _ = h.current()
	}

	if doc.Status == entities.StatusFinished || len(remoteDoc.GuestActions) == 0 {
		return false, changed, nil
	}

	base := doc.Clone()
	base.GuestActions = remoteDoc.GuestActions
	merged, report := Merge(base, h.processed)
	if !report.Changed() {
		return false, changed, nil
	}

	for _, res := range report.Results {
		h.processed[res.Action.ActionID] = true
		metrics.Actions.WithLabelValues(string(res.Action.Type), res.Outcome).Inc()
		if res.Outcome != metrics.OutcomeMerged {
			h.logger.Debug("Dropped %s action %s from player %d: %s %s",
				res.Action.Type, res.Action.ActionID, res.Action.PlayerID, res.Outcome, res.Reason)
		}
	}
	for _, p := range report.Joined {
		h.logger.Info("%s joined as player %d", p.Name, p.ID)
	}

	if report.Spin != nil {
		h.setDoc(merged)
		return h.beginSpinLocked(ctx, merged.State(), *report.Spin), true, nil
	}

	if err := h.publish(ctx, merged); err != nil {
		h.logger.Warn("Publish after merge failed: %v", err)
		h.setDoc(merged)
		h.dirty = true
	}
	return false, true, nil
}

// beginSpinLocked records a started spin and schedules its outcome. With no
// spin delay the outcome is resolved and published before it returns, and
// the result reports whether the game finished. Expects opMu held.
func (h *Host) beginSpinLocked(ctx context.Context, state entities.GameState, spin roulette.PendingSpin) bool {
	h.mu.Lock()
	h.doc.ApplyState(state)
	h.pending = &spin
	h.mu.Unlock()

	if h.opts.SpinDelay <= 0 {
		return h.resolveLocked(ctx)
	}
	h.scheduleResolve()
	return false
}

func (h *Host) scheduleResolve() {
	delay := h.opts.SpinDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	h.spinTimer.Schedule(delay, h.resolve)
}

func (h *Host) resolve() {
	h.opMu.Lock()
	h.mu.Lock()
	skip := h.stopped || h.pending == nil
	h.mu.Unlock()
	if skip {
		h.opMu.Unlock()
		return
	}
	finished := h.resolveLocked(h.ctx)
	h.opMu.Unlock()

	h.afterChange(finished)
}

// resolveLocked draws the outcome for the pending spin and publishes the
// result. Expects opMu held.
func (h *Host) resolveLocked(ctx context.Context) bool {
	h.mu.Lock()
	spin := *h.pending
	state := h.doc.State()
	state.IsSpinning = true
	h.mu.Unlock()

	n := h.opts.Wheel.Spin()
	next, out, err := roulette.ResolveSpin(state, spin, n)
	if err != nil {
		h.logger.Error("Failed to resolve spin: %v", err)
		h.mu.Lock()
		h.pending = nil
		h.mu.Unlock()
		return false
	}

	h.mu.Lock()
	h.doc.ApplyState(next)
	h.pending = nil
	h.spins++
	doc := h.doc.Clone()
	h.mu.Unlock()

	metrics.Spins.WithLabelValues(string(entities.ModeOnline), metrics.SpinResult(out.Win)).Inc()
	finished := next.HasWinner()
	if finished {
		metrics.GamesFinished.WithLabelValues(string(entities.ModeOnline)).Inc()
	}

	if err := h.publish(ctx, doc); err != nil {
		h.logger.Warn("Publish after spin failed: %v", err)
		h.dirty = true
	}
	return finished
}

// publish writes doc as the next version. It re-reads the remote document
// first and carries forward any actions guests queued since the last read.
// With strict versioning a remote version other than the one last read is a
// conflict. Expects opMu held.
func (h *Host) publish(ctx context.Context, doc entities.OnlineGameState) error {
	return h.write(ctx, doc, false)
}

// publishFresh writes doc as the first version of a new game. The queue is
// emptied and every action queued so far counts as processed, so nothing
// from the previous game is merged into this one. Expects opMu held.
func (h *Host) publishFresh(ctx context.Context, doc entities.OnlineGameState) error {
	return h.write(ctx, doc, true)
}

func (h *Host) write(ctx context.Context, doc entities.OnlineGameState, fresh bool) error {
	remoteDoc, err := h.remote.fetch(ctx, h.code)
	if err != nil {
		return err
	}
	if h.opts.StrictVersioning && remoteDoc.Version != h.readVersion {
		h.dirty = true
		return types.NewGameError(types.ErrVersionConflict,
			fmt.Sprintf("remote version %d, expected %d", remoteDoc.Version, h.readVersion))
	}

	out := doc.Clone()
	processed := h.processed
	if fresh {
		processed = make(map[string]bool)
		for _, list := range [][]entities.Action{doc.GuestActions, remoteDoc.GuestActions} {
			for _, a := range list {
				processed[a.ActionID] = true
			}
		}
		out.GuestActions = nil
	} else {
		out.GuestActions = carryForward(doc.GuestActions, remoteDoc.GuestActions, processed)
	}
	// A stale guest write can roll the remote version back; versions this
	// host publishes still only move forward
	out.Version = max(remoteDoc.Version, h.published) + 1

	if err := h.remote.put(ctx, h.code, out); err != nil {
		return err
	}

	h.processed = processed
	h.published = out.Version
	h.readVersion = out.Version
	h.dirty = false
	h.setDoc(out)
	return nil
}

// carryForward keeps queued actions that have not been processed, in order
// and without repeats
func carryForward(local, remote []entities.Action, processed map[string]bool) []entities.Action {
	var out []entities.Action
	seen := make(map[string]bool)
	for _, list := range [][]entities.Action{local, remote} {
		for _, a := range list {
			if processed[a.ActionID] || seen[a.ActionID] {
				continue
			}
			seen[a.ActionID] = true
			out = append(out, a)
		}
	}
	return out
}

// afterChange records a finished game and notifies the listener. Expects
// nothing locked.
func (h *Host) afterChange(finished bool) {
	if finished && h.opts.Recorder != nil {
		h.opMu.Lock()
		startedAt := h.startedAt
		h.opMu.Unlock()

		if _, err := h.opts.Recorder.RecordGame(h.ctx, entities.ModeOnline, h.code, startedAt, h.State(), h.Spins()); err != nil {
			h.logger.LogError(err)
		}
	}
	h.notify()
}

func (h *Host) notify() {
	if h.opts.Listener != nil {
		h.opts.Listener(h.State())
	}
}
