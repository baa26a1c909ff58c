package roulette

import (
	"testing"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/stretchr/testify/suite"
)

type GameStateSuite struct {
	suite.Suite
	state entities.GameState
}

func (s *GameStateSuite) SetupTest() {
	s.state = NewGameState([]entities.Player{
		{ID: 0, Name: "You", Balance: entities.StartingBalance},
		{ID: 1, Name: "Risky Rick", Balance: entities.StartingBalance, IsAI: true, Personality: entities.PersonalityRiskLover},
	})
}

func TestGameStateSuite(t *testing.T) {
	suite.Run(t, new(GameStateSuite))
}

func (s *GameStateSuite) spin(playerID int, bet entities.Bet, stake int64, n int) Outcome {
	next, pending, err := StartSpin(s.state, playerID, bet, stake)
	s.Require().NoError(err)
	s.True(next.IsSpinning)

	resolved, out, err := ResolveSpin(next, pending, n)
	s.Require().NoError(err)
	s.state = resolved
	return out
}

func (s *GameStateSuite) TestNewGameState() {
	s.Equal(int64(0), s.state.Pot)
	s.Equal(0, s.state.CurrentPlayerIndex)
	s.Empty(s.state.Log)
	s.False(s.state.HasWinner())
	s.Nil(s.state.WinningNumber)
}

func (s *GameStateSuite) TestWinTakesPotThenLossFeedsIt() {
	s.state.Pot = 1000

	out := s.spin(0, entities.SingleNumber(7), 100, 7)
	s.True(out.Win)
	s.Equal(int64(2000), s.state.Players[0].Balance)
	s.Equal(int64(0), s.state.Pot)
	s.Equal(1, s.state.CurrentPlayerIndex)
	s.Require().Len(s.state.Log, 3)
	s.Equal("You bets $100 on Single Number (7).", s.state.Log[0].Text)
	s.Equal("The ball lands on 7 (Red)!", s.state.Log[1].Text)
	s.Contains(s.state.Log[2].Text, "wins the spin")
	s.Require().NotNil(s.state.WinningNumber)
	s.Equal(7, *s.state.WinningNumber)

	// Rick misses, then it is You again
	s.spin(1, entities.SingleNumber(1), 100, 2)
	s.Equal(0, s.state.CurrentPlayerIndex)

	out = s.spin(0, entities.SingleNumber(7), 100, 8)
	s.False(out.Win)
	s.Equal(int64(1900), s.state.Players[0].Balance)
	s.Equal(int64(200), s.state.Pot)
}

func (s *GameStateSuite) TestLossToZeroEndsTheGame() {
	s.state.Players[0].Balance = 50
	s.state.Pot = 300

	out := s.spin(0, entities.RedBlack(entities.ColorRed), 50, 2)
	s.True(out.Eliminated)
	s.Equal(int64(0), s.state.Players[0].Balance)
	s.Equal(int64(350), s.state.Pot)
	s.Require().True(s.state.HasWinner())
	s.Equal(0, *s.state.WinnerID)
	s.Equal(0, s.state.CurrentPlayerIndex)
	s.Require().Len(s.state.Log, 3)
	s.Equal("You has hit zero! They are the WINNER!", s.state.Log[2].Text)

	_, _, err := StartSpin(s.state, 1, entities.SingleNumber(1), 10)
	s.True(types.IsGameError(err, types.ErrGameAlreadyEnded))
}

func (s *GameStateSuite) TestLogIDsIncrease() {
	s.spin(0, entities.SingleNumber(7), 100, 8)
	s.spin(1, entities.SingleNumber(7), 100, 8)
	for i, e := range s.state.Log {
		s.Equal(i, e.ID)
	}
}

func (s *GameStateSuite) TestStartSpinRejections() {
	tests := []struct {
		name     string
		playerID int
		bet      entities.Bet
		stake    int64
		code     types.ErrorCode
	}{
		{"out of turn", 1, entities.SingleNumber(7), 10, types.ErrNotPlayerTurn},
		{"zero stake", 0, entities.SingleNumber(7), 0, types.ErrInvalidBet},
		{"negative stake", 0, entities.SingleNumber(7), -5, types.ErrInvalidBet},
		{"over ceiling", 0, entities.SingleNumber(7), 101, types.ErrInvalidBet},
		{"bad number", 0, entities.SingleNumber(37), 10, types.ErrInvalidBet},
		{"bad dozen", 0, entities.DozenBet("4th"), 10, types.ErrInvalidBet},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			next, _, err := StartSpin(s.state, tt.playerID, tt.bet, tt.stake)
			s.True(types.IsGameError(err, tt.code), "got %v", err)
			s.Equal(s.state, next)
			s.Empty(s.state.Log)
		})
	}
}

func (s *GameStateSuite) TestStakeAboveBalance() {
	s.state.Players[0].Balance = 30
	_, _, err := StartSpin(s.state, 0, entities.RedBlack(entities.ColorBlack), 31)
	s.True(types.IsGameError(err, types.ErrInvalidBet))
}

func (s *GameStateSuite) TestNoSecondSpinWhileSpinning() {
	next, _, err := StartSpin(s.state, 0, entities.SingleNumber(7), 10)
	s.Require().NoError(err)

	_, _, err = StartSpin(next, 0, entities.SingleNumber(7), 10)
	s.True(types.IsGameError(err, types.ErrSpinInProgress))
}

func (s *GameStateSuite) TestResolveWithoutSpin() {
	_, _, err := ResolveSpin(s.state, PendingSpin{PlayerID: 0, Bet: entities.SingleNumber(1), Stake: 1}, 1)
	s.True(types.IsGameError(err, types.ErrInvalidState))
}

func (s *GameStateSuite) TestStartSpinDoesNotMutateInput() {
	before := s.state.Clone()
	_, _, err := StartSpin(s.state, 0, entities.SingleNumber(7), 10)
	s.Require().NoError(err)
	s.Equal(before, s.state)
}

func (s *GameStateSuite) TestResetState() {
	s.spin(0, entities.SingleNumber(7), 100, 8)
	s.state.Players[1].Balance = 0
	winner := 1
	s.state.WinnerID = &winner

	reset := ResetState(s.state)
	s.Equal(int64(0), reset.Pot)
	s.Empty(reset.Log)
	s.False(reset.HasWinner())
	s.Equal(0, reset.CurrentPlayerIndex)
	for i, p := range reset.Players {
		s.Equal(entities.StartingBalance, p.Balance)
		s.Equal(s.state.Players[i].Name, p.Name)
	}
}
