package online

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/common"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
	mock_storage "github.com/fadedpez/reverseroulette/pkg/storage/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type HostTestSuite struct {
	suite.Suite
	ctx   context.Context
	ctrl  *gomock.Controller
	store *mock_storage.MockBlobStore
	host  *Host
	lost  atomic.Int32

	mu   sync.Mutex
	puts []entities.OnlineGameState
}

func TestHostSuite(t *testing.T) {
	suite.Run(t, new(HostTestSuite))
}

func (s *HostTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.store = mock_storage.NewMockBlobStore(s.ctrl)
	s.lost.Store(0)
	s.puts = nil
}

func (s *HostTestSuite) TearDownTest() {
	if s.host != nil {
		s.host.Stop()
	}
}

func (s *HostTestSuite) encode(doc entities.OnlineGameState) []byte {
	data, err := doc.Marshal()
	s.Require().NoError(err)
	return data
}

// newHost creates Alice's lobby with the given options
func (s *HostTestSuite) newHost(opts Options) *Host {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) (string, error) {
		doc, err := entities.UnmarshalOnlineGameState(data)
		s.Require().NoError(err)
		s.Equal(entities.StatusLobby, doc.Status)
		s.Equal(HostPlayerID, doc.HostID)
		s.Require().Len(doc.Players, 1)
		s.Equal("Alice", doc.Players[0].Name)
		s.Equal(roulette.WelcomeMessage, doc.GameLog[0].Text)
		return "code1", nil
	})

	opts.Store = s.store
	opts.Logger = logging.NewNop()
	opts.OnConnectionLost = func(err error) {
		s.True(types.IsGameError(err, types.ErrConnectionLost))
		s.lost.Add(1)
	}
	if opts.Wheel == nil {
		opts.Wheel = roulette.NewFixedWheel(0)
	}

	host, err := CreateGame(s.ctx, " Alice ", opts)
	s.Require().NoError(err)
	s.Equal("code1", host.Code())
	s.host = host
	return host
}

// expectGets serves docs in order for successive reads
func (s *HostTestSuite) expectGets(docs ...entities.OnlineGameState) {
	calls := make([]any, 0, len(docs))
	for _, doc := range docs {
		data := s.encode(doc)
		calls = append(calls, s.store.EXPECT().Get(gomock.Any(), "code1").Return(data, nil))
	}
	gomock.InOrder(calls...)
}

// capturePuts records every published document
func (s *HostTestSuite) capturePuts(times int) {
	s.store.EXPECT().Put(gomock.Any(), "code1", gomock.Any()).Times(times).DoAndReturn(func(_ context.Context, _ string, data []byte) error {
		doc, err := entities.UnmarshalOnlineGameState(data)
		s.Require().NoError(err)
		s.mu.Lock()
		s.puts = append(s.puts, doc)
		s.mu.Unlock()
		return nil
	})
}

func (s *HostTestSuite) lastPut() entities.OnlineGameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.puts)
	return s.puts[len(s.puts)-1]
}

// playing puts the host into a started two-player game at the given version
func (s *HostTestSuite) playing(host *Host, version int64) entities.OnlineGameState {
	doc := host.Document()
	doc.Players = append(doc.Players, common.NewPlayer(2, "Bob"))
	doc.Status = entities.StatusPlaying
	doc.Version = version
	host.setDoc(doc)
	host.readVersion = version
	host.published = version
	return doc
}

func (s *HostTestSuite) TestCreateGameValidatesName() {
	_, err := CreateGame(s.ctx, "   ", Options{Store: s.store})
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	_, err = CreateGame(s.ctx, "Alice", Options{})
	s.True(types.IsGameError(err, types.ErrInvalidArgument))
}

func (s *HostTestSuite) TestCreateGameRemoteFailure() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return("", errors.New("503"))

	_, err := CreateGame(s.ctx, "Alice", Options{Store: s.store, Logger: logging.NewNop()})
	s.True(types.IsGameError(err, types.ErrRemoteUnavailable))
}

func (s *HostTestSuite) TestJoinMergedAndPublished() {
	host := s.newHost(Options{})
	remoteDoc := host.Document()
	remoteDoc.Version = 3
	remoteDoc.GuestActions = []entities.Action{joinAction(s.T(), "a1", "Bob")}

	s.expectGets(remoteDoc, remoteDoc)
	s.capturePuts(1)

	s.Require().NoError(host.Poll(s.ctx))

	put := s.lastPut()
	s.Equal(int64(4), put.Version)
	s.Empty(put.GuestActions)
	s.Require().Len(put.Players, 2)
	s.Equal("Bob", put.Players[1].Name)
	s.Equal(2, put.Players[1].ID)
	s.Equal(int64(4), host.Document().Version)
}

func (s *HostTestSuite) TestUnchangedDocumentIsNotRepublished() {
	host := s.newHost(Options{})
	remoteDoc := host.Document()
	remoteDoc.Version = 7

	s.expectGets(remoteDoc, remoteDoc)
	s.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(host.Poll(s.ctx))
	s.Require().NoError(host.Poll(s.ctx))
	s.Equal(host.Document().Players, remoteDoc.Players)
}

func (s *HostTestSuite) TestDuplicateActionProcessedOnce() {
	host := s.newHost(Options{})
	remoteDoc := host.Document()
	remoteDoc.GuestActions = []entities.Action{
		joinAction(s.T(), "a1", "Bob"),
		joinAction(s.T(), "a1", "Bob"),
	}

	s.expectGets(remoteDoc, remoteDoc)
	s.capturePuts(1)

	s.Require().NoError(host.Poll(s.ctx))

	s.Len(s.lastPut().Players, 2)
}

func (s *HostTestSuite) TestReplayedActionIgnoredInLaterPass() {
	host := s.newHost(Options{})
	remoteDoc := host.Document()
	remoteDoc.GuestActions = []entities.Action{joinAction(s.T(), "a1", "Bob")}

	// The same join shows up again, as if a stale write restored it
	replay := remoteDoc
	replay.Version = 1
	s.expectGets(remoteDoc, remoteDoc, replay, replay)
	s.capturePuts(2)

	s.Require().NoError(host.Poll(s.ctx))
	s.Require().NoError(host.Poll(s.ctx))

	put := s.lastPut()
	s.Len(put.Players, 2)
	s.Empty(put.GuestActions)
	s.Equal(int64(2), put.Version)
}

func (s *HostTestSuite) TestStaleBetDropped() {
	host := s.newHost(Options{})
	doc := s.playing(host, 5)
	doc.GuestActions = []entities.Action{betAction(s.T(), "b1", 2, entities.SingleNumber(7), 50)}

	s.expectGets(doc, doc)
	s.capturePuts(1)

	s.Require().NoError(host.Poll(s.ctx))

	put := s.lastPut()
	s.Empty(put.GuestActions)
	s.Equal(doc.Players, put.Players)
	s.Equal(doc.Pot, put.Pot)
	s.Equal(doc.GameLog, put.GameLog)
	s.Equal(int64(6), put.Version)
}

func (s *HostTestSuite) TestGuestBetResolvedAndPublished() {
	host := s.newHost(Options{Wheel: roulette.NewFixedWheel(0)})
	doc := s.playing(host, 2)
	doc.CurrentPlayerIndex = 1
	host.setDoc(doc)
	doc.GuestActions = []entities.Action{betAction(s.T(), "b1", 2, entities.RedBlack(entities.ColorRed), 500)}

	s.expectGets(doc, doc)
	s.capturePuts(1)

	var seen []entities.GameState
	host.opts.Listener = func(st entities.GameState) { seen = append(seen, st) }

	s.Require().NoError(host.Poll(s.ctx))

	put := s.lastPut()
	s.Equal(int64(3), put.Version)
	s.Equal(int64(500), put.Players[1].Balance)
	s.Equal(int64(500), put.Pot)
	s.Equal(0, put.CurrentPlayerIndex)
	s.Require().NotNil(put.WinningNumber)
	s.Equal(0, *put.WinningNumber)
	s.Empty(put.GuestActions)
	s.Equal(1, host.Spins())
	s.Require().Len(seen, 1)
	s.False(seen[0].IsSpinning)
}

func (s *HostTestSuite) TestActionsQueuedDuringSpinAreCarriedForward() {
	host := s.newHost(Options{Wheel: roulette.NewFixedWheel(0), SpinDelay: time.Hour})
	doc := s.playing(host, 2)
	doc.CurrentPlayerIndex = 1
	host.setDoc(doc)

	bet := betAction(s.T(), "b1", 2, entities.SingleNumber(7), 100)
	late := betAction(s.T(), "b2", 1, entities.SingleNumber(7), 100)
	polled := doc
	polled.GuestActions = []entities.Action{bet}
	readBack := doc
	readBack.GuestActions = []entities.Action{bet, late}

	s.expectGets(polled, readBack)
	s.capturePuts(1)

	s.Require().NoError(host.Poll(s.ctx))
	s.True(host.State().IsSpinning)

	// Polls while spinning do not touch the store
	s.Require().NoError(host.Poll(s.ctx))

	host.resolve()

	put := s.lastPut()
	s.Equal([]entities.Action{late}, put.GuestActions)
	s.False(host.State().IsSpinning)
}

func (s *HostTestSuite) TestStrictVersioningRefusesConflicts() {
	host := s.newHost(Options{StrictVersioning: true})
	remoteDoc := host.Document()
	remoteDoc.GuestActions = []entities.Action{joinAction(s.T(), "a1", "Bob")}
	moved := remoteDoc
	moved.Version = 9

	s.expectGets(remoteDoc, moved)
	s.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(host.Poll(s.ctx))

	// The join is kept locally and republished once versions agree
	s.Len(host.Document().Players, 2)
	s.True(host.dirty)
}

func (s *HostTestSuite) TestStartGame() {
	host := s.newHost(Options{})

	err := host.StartGame(s.ctx)
	s.True(types.IsGameError(err, types.ErrNotEnoughPlayers))

	doc := host.Document()
	doc.Players = append(doc.Players, common.NewPlayer(2, "Bob"))
	host.setDoc(doc)

	s.expectGets(doc)
	s.capturePuts(1)

	s.Require().NoError(host.StartGame(s.ctx))

	put := s.lastPut()
	s.Equal(entities.StatusPlaying, put.Status)
	s.Equal(int64(1), put.Version)
	s.Equal(roulette.RestartMessage, put.GameLog[len(put.GameLog)-1].Text)

	err = host.StartGame(s.ctx)
	s.True(types.IsGameError(err, types.ErrGameInProgress))
}

func (s *HostTestSuite) TestStartGamePublishFailure() {
	host := s.newHost(Options{})
	doc := host.Document()
	doc.Players = append(doc.Players, common.NewPlayer(2, "Bob"))
	host.setDoc(doc)

	s.store.EXPECT().Get(gomock.Any(), "code1").Return(nil, errors.New("timeout"))

	err := host.StartGame(s.ctx)
	s.True(types.IsGameError(err, types.ErrRemoteUnavailable))
	s.Equal(entities.StatusLobby, host.Document().Status)
}

func (s *HostTestSuite) TestHostBetWinsTheGame() {
	host := s.newHost(Options{Wheel: roulette.NewFixedWheel(2)})
	doc := s.playing(host, 1)
	doc.Players[0].Balance = 50
	host.setDoc(doc)

	s.expectGets(doc)
	s.capturePuts(1)

	s.Require().NoError(host.PlaceBet(s.ctx, entities.RedBlack(entities.ColorRed), 50))

	put := s.lastPut()
	s.Equal(entities.StatusFinished, put.Status)
	s.Equal(int64(0), put.Players[0].Balance)
	winner, ok := host.State().Winner()
	s.Require().True(ok)
	s.Equal("Alice", winner.Name)

	err := host.PlaceBet(s.ctx, entities.RedBlack(entities.ColorRed), 10)
	s.True(types.IsGameError(err, types.ErrGameAlreadyEnded))

	// A finished game merges nothing
	finished := put
	finished.GuestActions = []entities.Action{betAction(s.T(), "b9", 2, entities.SingleNumber(1), 10)}
	s.expectGets(finished)
	s.Require().NoError(host.Poll(s.ctx))
}

func (s *HostTestSuite) TestHostBetRules() {
	host := s.newHost(Options{SpinDelay: time.Hour})

	err := host.PlaceBet(s.ctx, entities.SingleNumber(7), 10)
	s.True(types.IsGameError(err, types.ErrInvalidState))

	s.playing(host, 1)
	s.Require().NoError(host.PlaceBet(s.ctx, entities.SingleNumber(7), 10))
	s.True(host.State().IsSpinning)

	err = host.PlaceBet(s.ctx, entities.SingleNumber(7), 10)
	s.True(types.IsGameError(err, types.ErrSpinInProgress))
}

func (s *HostTestSuite) TestRestart() {
	host := s.newHost(Options{})
	doc := s.playing(host, 4)
	doc.Players[0].Balance = 0
	doc.Players[1].Balance = 1700
	doc.Pot = 300
	doc.Status = entities.StatusFinished
	host.setDoc(doc)

	s.expectGets(doc)
	s.capturePuts(1)

	s.Require().NoError(host.Restart(s.ctx))

	put := s.lastPut()
	s.Equal(entities.StatusPlaying, put.Status)
	s.Equal(int64(0), put.Pot)
	s.Equal(0, put.CurrentPlayerIndex)
	for _, p := range put.Players {
		s.Equal(entities.StartingBalance, p.Balance)
	}
	s.Require().Len(put.GameLog, 1)
	s.Equal(roulette.RestartMessage, put.GameLog[0].Text)
	s.Equal(int64(5), put.Version)
}

func (s *HostTestSuite) TestRestartDropsQueuedActions() {
	host := s.newHost(Options{Wheel: roulette.NewFixedWheel(0)})
	doc := s.playing(host, 4)
	doc.CurrentPlayerIndex = 1
	host.setDoc(doc)

	// Bob's bet from the old game is still queued, and a stale write keeps
	// bringing it back
	old := doc
	old.GuestActions = []entities.Action{betAction(s.T(), "b1", 2, entities.SingleNumber(7), 100)}
	s.expectGets(old, old, old, old)
	s.capturePuts(3)

	s.Require().NoError(host.Restart(s.ctx))

	restarted := s.lastPut()
	s.Empty(restarted.GuestActions)
	s.Equal(int64(5), restarted.Version)
	s.Equal(0, restarted.CurrentPlayerIndex)

	// Alice loses, so the seat passes to Bob
	s.Require().NoError(host.PlaceBet(s.ctx, entities.RedBlack(entities.ColorRed), 100))
	afterBet := s.lastPut()
	s.Empty(afterBet.GuestActions)
	s.Equal(int64(6), afterBet.Version)
	s.Equal(1, afterBet.CurrentPlayerIndex)

	// The old bet is dropped instead of being played for Bob
	s.Require().NoError(host.Poll(s.ctx))
	put := s.lastPut()
	s.Empty(put.GuestActions)
	s.Equal(int64(7), put.Version)
	s.Equal(entities.StartingBalance, put.Players[1].Balance)
	s.Equal(int64(900), put.Players[0].Balance)
	s.Equal(int64(100), put.Pot)
	s.Equal(1, put.CurrentPlayerIndex)
	s.Equal(1, host.Spins())
}

func (s *HostTestSuite) TestVersionsKeepIncreasingAfterStaleWrite() {
	host := s.newHost(Options{})
	lobby := host.Document()

	bob := lobby
	bob.GuestActions = []entities.Action{joinAction(s.T(), "a1", "Bob")}
	// A guest that read the lobby before Bob's join was published writes it
	// back with its own join, rolling the version back
	stale := lobby
	stale.GuestActions = []entities.Action{joinAction(s.T(), "a2", "Carol")}

	s.expectGets(bob, bob, stale, stale)
	s.capturePuts(2)

	s.Require().NoError(host.Poll(s.ctx))
	s.Require().NoError(host.Poll(s.ctx))

	s.Require().Len(s.puts, 2)
	s.Equal(int64(1), s.puts[0].Version)
	s.Greater(s.puts[1].Version, s.puts[0].Version)
	s.Require().Len(s.puts[1].Players, 3)
	s.Equal("Carol", s.puts[1].Players[2].Name)
	s.Equal(3, s.puts[1].Players[2].ID)
	s.Empty(s.puts[1].GuestActions)
}

func (s *HostTestSuite) TestConnectionLostAfterConsecutiveFailures() {
	host := s.newHost(Options{})
	s.store.EXPECT().Get(gomock.Any(), "code1").Return(nil, errors.New("offline")).Times(DefaultMaxPollFailures)

	for i := 0; i < DefaultMaxPollFailures-1; i++ {
		s.Error(host.Poll(s.ctx))
		s.Zero(s.lost.Load())
	}
	s.Error(host.Poll(s.ctx))

	s.Equal(int32(1), s.lost.Load())
	err := host.PlaceBet(s.ctx, entities.SingleNumber(7), 10)
	s.True(types.IsGameError(err, types.ErrInvalidState))
}

func (s *HostTestSuite) TestSuccessfulPollResetsFailures() {
	host := s.newHost(Options{})
	remoteDoc := host.Document()
	fail := s.store.EXPECT().Get(gomock.Any(), "code1").Return(nil, errors.New("offline")).Times(DefaultMaxPollFailures - 1)
	ok := s.store.EXPECT().Get(gomock.Any(), "code1").Return(s.encode(remoteDoc), nil).After(fail)
	s.store.EXPECT().Get(gomock.Any(), "code1").Return(nil, errors.New("offline")).Times(DefaultMaxPollFailures - 1).After(ok)

	for i := 0; i < 2*DefaultMaxPollFailures-1; i++ {
		host.Poll(s.ctx)
	}

	s.Zero(s.lost.Load())
	s.Equal(DefaultMaxPollFailures-1, host.poller.consecutiveFailures())
}

func (s *HostTestSuite) TestScheduledPolling() {
	host := s.newHost(Options{PollInterval: 5 * time.Millisecond, MaxPollFailures: 2})
	s.store.EXPECT().Get(gomock.Any(), "code1").Return(nil, errors.New("offline")).MinTimes(2).MaxTimes(2)

	host.Start()

	s.Eventually(func() bool { return s.lost.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Equal(int32(1), s.lost.Load())
}
