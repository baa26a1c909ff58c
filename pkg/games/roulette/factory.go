package roulette

import (
	"context"
	"time"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/games"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/local"
	"github.com/fadedpez/reverseroulette/pkg/games/online"
	rules "github.com/fadedpez/reverseroulette/pkg/services/roulette"
	"github.com/fadedpez/reverseroulette/pkg/storage"
)

// Factory creates roulette engines and managers
type Factory struct {
	store    storage.BlobStore
	recorder games.Recorder
	logger   *logging.Logger

	wheel            rules.Wheel
	source           rules.Source
	pollInterval     time.Duration
	spinDelay        time.Duration
	aiDelay          time.Duration
	maxPollFailures  int
	strictVersioning bool
}

// Ensure Factory implements the games.Factory interface
var _ games.Factory = (*Factory)(nil)

// FactoryOption customizes a Factory
type FactoryOption func(*Factory)

// WithWheel makes every engine the factory creates spin w
func WithWheel(w rules.Wheel) FactoryOption {
	return func(f *Factory) {
		f.wheel = w
	}
}

// WithSource sets the random source local AI players decide with
func WithSource(src rules.Source) FactoryOption {
	return func(f *Factory) {
		f.source = src
	}
}

// NewFactory creates a new roulette factory. recorder may be nil when game
// history is not kept.
func NewFactory(cfg *config.Config, store storage.BlobStore, recorder games.Recorder, logger *logging.Logger, opts ...FactoryOption) *Factory {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if store == nil {
		panic("blob store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default
	}
	f := &Factory{
		store:            store,
		recorder:         recorder,
		logger:           logger,
		pollInterval:     cfg.PollInterval,
		spinDelay:        cfg.SpinDelay,
		aiDelay:          cfg.AIDelay,
		maxPollFailures:  cfg.MaxPollFailures,
		strictVersioning: cfg.StrictVersioning,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewLocal creates and starts a single-device game
func (f *Factory) NewLocal(players []entities.Player, listener games.Listener) (games.Engine, error) {
	engine, err := local.NewEngine(players, local.Options{
		Wheel:     f.wheel,
		Source:    f.source,
		SpinDelay: f.spinDelay,
		AIDelay:   f.aiDelay,
		Logger:    f.logger,
		Recorder:  f.recorder,
		Listener:  listener,
	})
	if err != nil {
		return nil, err
	}
	engine.Start()
	return engine, nil
}

// CreateOnline publishes a new lobby and starts hosting it
func (f *Factory) CreateOnline(ctx context.Context, hostName string, listener games.Listener, lost func(error)) (games.HostEngine, error) {
	host, err := online.CreateGame(ctx, hostName, f.onlineOptions(listener, lost))
	if err != nil {
		return nil, err
	}
	host.Start()
	return host, nil
}

// JoinOnline asks to join an existing lobby and starts following it
func (f *Factory) JoinOnline(ctx context.Context, code, playerName string, listener games.Listener, lost func(error)) (games.OnlineEngine, error) {
	opts := f.onlineOptions(listener, lost)
	opts.Recorder = nil
	guest, err := online.JoinGame(ctx, code, playerName, opts)
	if err != nil {
		return nil, err
	}
	guest.Start()
	return guest, nil
}

func (f *Factory) onlineOptions(listener games.Listener, lost func(error)) online.Options {
	return online.Options{
		Store:            f.store,
		Wheel:            f.wheel,
		PollInterval:     f.pollInterval,
		SpinDelay:        f.spinDelay,
		MaxPollFailures:  f.maxPollFailures,
		StrictVersioning: f.strictVersioning,
		Logger:           f.logger,
		Recorder:         f.recorder,
		Listener:         listener,
		OnConnectionLost: lost,
	}
}

// CreateManager creates a session manager driven by this factory
func (f *Factory) CreateManager(onChange func(View)) *Manager {
	return NewManager(f, f.logger, onChange)
}
