package online

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/reverseroulette/internal/games"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
	"github.com/fadedpez/reverseroulette/pkg/storage"
)

// DefaultPollInterval is how often both roles read the shared document
const DefaultPollInterval = 2 * time.Second

// Options configures a Host or a Guest. Zero values fall back to defaults.
type Options struct {
	Store            storage.BlobStore
	Wheel            roulette.Wheel // host only
	PollInterval     time.Duration
	SpinDelay        time.Duration // host only
	MaxPollFailures  int
	StrictVersioning bool // host only
	Logger           *logging.Logger
	Recorder         games.Recorder // host only
	Listener         games.Listener
	// OnConnectionLost is called once, after the session has stopped itself
	OnConnectionLost func(error)
}

func (o Options) withDefaults() (Options, error) {
	if o.Store == nil {
		return o, types.NewGameError(types.ErrInvalidArgument, "a blob store is required")
	}
	if o.Wheel == nil {
		o.Wheel = roulette.NewRandomWheel(nil)
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPollFailures < 1 {
		o.MaxPollFailures = DefaultMaxPollFailures
	}
	if o.Logger == nil {
		o.Logger = logging.Default
	}
	return o, nil
}

// remote reads and writes the shared document through a blob store
type remote struct {
	store storage.BlobStore
	role  string
}

func (r remote) create(ctx context.Context, doc entities.OnlineGameState) (string, error) {
	data, err := doc.Marshal()
	if err != nil {
		return "", types.WrapError(types.ErrInternalError, "failed to encode game document", err)
	}
	code, err := r.store.Create(ctx, data)
	metrics.Publishes.WithLabelValues(r.role, metrics.Result(err)).Inc()
	if err != nil {
		return "", types.WrapError(types.ErrRemoteUnavailable, "could not create the online game", err)
	}
	return code, nil
}

func (r remote) fetch(ctx context.Context, code string) (entities.OnlineGameState, error) {
	data, err := r.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return entities.OnlineGameState{}, types.WrapError(types.ErrRemoteUnavailable, fmt.Sprintf("game %s not found", code), err)
		}
		return entities.OnlineGameState{}, types.WrapError(types.ErrRemoteUnavailable, "could not read the game", err)
	}
	doc, err := entities.UnmarshalOnlineGameState(data)
	if err != nil {
		return entities.OnlineGameState{}, types.WrapError(types.ErrRemoteUnavailable, "the game document is unreadable", err)
	}
	return doc, nil
}

func (r remote) put(ctx context.Context, code string, doc entities.OnlineGameState) error {
	data, err := doc.Marshal()
	if err != nil {
		return types.WrapError(types.ErrInternalError, "failed to encode game document", err)
	}
	err = r.store.Put(ctx, code, data)
	metrics.Publishes.WithLabelValues(r.role, metrics.Result(err)).Inc()
	if err != nil {
		return types.WrapError(types.ErrRemoteUnavailable, "could not update the game", err)
	}
	return nil
}

// appendAction queues a guest action with a read-modify-write of the
// document. The version is left alone; only host publishes bump it.
func (r remote) appendAction(ctx context.Context, code string, action entities.Action) (entities.OnlineGameState, error) {
	doc, err := r.fetch(ctx, code)
	if err != nil {
		return doc, err
	}
	doc.GuestActions = append(doc.GuestActions, action)
	if err := r.put(ctx, code, doc); err != nil {
		return doc, err
	}
	return doc, nil
}
