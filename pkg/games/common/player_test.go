package common

import (
	"strings"
	"testing"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/stretchr/testify/suite"
)

type PlayerTestSuite struct {
	suite.Suite
}

func TestPlayerSuite(t *testing.T) {
	suite.Run(t, new(PlayerTestSuite))
}

func (s *PlayerTestSuite) TestDefaultRoster() {
	roster := DefaultRoster()

	s.Require().Len(roster, 4)
	s.Equal("You", roster[0].Name)
	s.False(roster[0].IsAI, "first seat should be human")
	s.Equal(entities.PersonalityRiskLover, roster[1].Personality)
	s.Equal(entities.PersonalityAccidentProne, roster[2].Personality)
	s.Equal(entities.PersonalityBalanced, roster[3].Personality)
	for i, p := range roster {
		s.Equal(i+1, p.ID)
		s.Equal(entities.StartingBalance, p.Balance)
	}
}

func (s *PlayerTestSuite) TestNormalizeName() {
	name, err := NormalizeName("  Bob  ")
	s.NoError(err)
	s.Equal("Bob", name)

	_, err = NormalizeName("   ")
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	_, err = NormalizeName(strings.Repeat("x", MaxNameLength+1))
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	name, err = NormalizeName(strings.Repeat("é", MaxNameLength))
	s.NoError(err, "length is counted in characters")
	s.Equal(strings.Repeat("é", MaxNameLength), name)
}

func (s *PlayerTestSuite) TestRosterFromNames() {
	roster, err := RosterFromNames([]string{"Ann", " Bea "})
	s.Require().NoError(err)
	s.Equal([]entities.Player{NewPlayer(1, "Ann"), NewPlayer(2, "Bea")}, roster)

	_, err = RosterFromNames([]string{"Solo"})
	s.True(types.IsGameError(err, types.ErrNotEnoughPlayers))

	_, err = RosterFromNames(make([]string, MaxPlayers+1))
	s.True(types.IsGameError(err, types.ErrTooManyPlayers))

	_, err = RosterFromNames([]string{"Ann", "ann"})
	s.True(types.IsGameError(err, types.ErrNameTaken))

	_, err = RosterFromNames([]string{"Ann", ""})
	s.True(types.IsGameError(err, types.ErrInvalidArgument))
}

func (s *PlayerTestSuite) TestNextID() {
	s.Equal(1, NextID(nil))
	s.Equal(5, NextID(DefaultRoster()))
	s.Equal(8, NextID([]entities.Player{{ID: 7}, {ID: 2}}))
}

func (s *PlayerTestSuite) TestFind() {
	roster := DefaultRoster()

	p, ok := FindByName(roster, "risky rick")
	s.True(ok)
	s.Equal(2, p.ID)

	_, ok = FindByName(roster, "Nobody")
	s.False(ok)

	p, ok = FindByID(roster, 4)
	s.True(ok)
	s.Equal("Balanced Ben", p.Name)

	_, ok = FindByID(roster, 99)
	s.False(ok)
}
