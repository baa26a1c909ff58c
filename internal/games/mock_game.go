package games

import (
	"context"
	"time"

	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/stretchr/testify/mock"
)

// MockEngine implements Engine for testing
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) State() entities.GameState {
	args := m.Called()
	return args.Get(0).(entities.GameState)
}

func (m *MockEngine) PlaceBet(ctx context.Context, bet entities.Bet, stake int64) error {
	args := m.Called(ctx, bet, stake)
	return args.Error(0)
}

func (m *MockEngine) Restart(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEngine) Stop() {
	m.Called()
}

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordGame(ctx context.Context, mode entities.GameMode, gameCode string, startedAt time.Time, state entities.GameState, spins int) (*entities.GameResult, error) {
	args := m.Called(ctx, mode, gameCode, startedAt, state, spins)
	result, _ := args.Get(0).(*entities.GameResult)
	return result, args.Error(1)
}

// MockOnlineEngine implements OnlineEngine for testing
type MockOnlineEngine struct {
	MockEngine
}

func (m *MockOnlineEngine) Code() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOnlineEngine) PlayerID() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockOnlineEngine) Status() entities.Status {
	args := m.Called()
	return args.Get(0).(entities.Status)
}

func (m *MockOnlineEngine) Start() {
	m.Called()
}

// MockHostEngine implements HostEngine for testing
type MockHostEngine struct {
	MockOnlineEngine
}

func (m *MockHostEngine) StartGame(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockFactory implements Factory for testing
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) NewLocal(players []entities.Player, listener Listener) (Engine, error) {
	args := m.Called(players, listener)
	engine, _ := args.Get(0).(Engine)
	return engine, args.Error(1)
}

func (m *MockFactory) CreateOnline(ctx context.Context, hostName string, listener Listener, lost func(error)) (HostEngine, error) {
	args := m.Called(ctx, hostName, listener, lost)
	engine, _ := args.Get(0).(HostEngine)
	return engine, args.Error(1)
}

func (m *MockFactory) JoinOnline(ctx context.Context, code, playerName string, listener Listener, lost func(error)) (OnlineEngine, error) {
	args := m.Called(ctx, code, playerName, listener, lost)
	engine, _ := args.Get(0).(OnlineEngine)
	return engine, args.Error(1)
}
