package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetWireFormat(t *testing.T) {
	testCases := []struct {
		name string
		bet  Bet
		json string
	}{
		{name: "single", bet: SingleNumber(7), json: `{"type":"SINGLE_NUMBER","value":7}`},
		{name: "zero", bet: SingleNumber(0), json: `{"type":"SINGLE_NUMBER","value":0}`},
		{name: "dozen", bet: DozenBet(DozenSecond), json: `{"type":"DOZEN","value":"2nd"}`},
		{name: "colour", bet: RedBlack(ColorBlack), json: `{"type":"RED_BLACK","value":"black"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.bet)
			require.NoError(t, err)
			assert.JSONEq(t, tc.json, string(data))

			var decoded Bet
			require.NoError(t, json.Unmarshal([]byte(tc.json), &decoded))
			assert.Equal(t, tc.bet, decoded)
		})
	}
}

func TestBetUnmarshalRejectsUnknownType(t *testing.T) {
	var b Bet
	assert.Error(t, json.Unmarshal([]byte(`{"type":"CORNER","value":4}`), &b))
	assert.Error(t, json.Unmarshal([]byte(`{"type":"SINGLE_NUMBER","value":"seven"}`), &b))
}

func TestBetValidate(t *testing.T) {
	assert.NoError(t, SingleNumber(0).Validate())
	assert.NoError(t, SingleNumber(36).Validate())
	assert.Error(t, SingleNumber(37).Validate())
	assert.Error(t, SingleNumber(-1).Validate())
	assert.NoError(t, DozenBet(DozenThird).Validate())
	assert.Error(t, DozenBet("4th").Validate())
	assert.NoError(t, RedBlack(ColorRed).Validate())
	assert.Error(t, RedBlack(ColorGreen).Validate())
	assert.Error(t, Bet{Type: "SPLIT"}.Validate())
}

func TestBetString(t *testing.T) {
	assert.Equal(t, "Single Number (7)", SingleNumber(7).String())
	assert.Equal(t, "1st Dozen", DozenBet(DozenFirst).String())
	assert.Equal(t, "RED", RedBlack(ColorRed).String())
}

func TestBetCeilings(t *testing.T) {
	assert.Equal(t, int64(100), SingleNumber(1).MaxStake())
	assert.Equal(t, int64(250), DozenBet(DozenFirst).MaxStake())
	assert.Equal(t, int64(500), RedBlack(ColorRed).MaxStake())
	assert.Equal(t, int64(0), Bet{Type: "SPLIT"}.MaxStake())
}

func TestGameStateLogIDs(t *testing.T) {
	var s GameState
	s.AddLog("first")
	s.AddLog("second")

	assert.Equal(t, []GameEvent{{ID: 0, Text: "first"}, {ID: 1, Text: "second"}}, s.Log)
	assert.Equal(t, 2, s.NextEventID())
}

func TestGameStateCloneDoesNotAlias(t *testing.T) {
	n := 5
	s := GameState{Players: []Player{{ID: 1, Balance: 10}}, WinningNumber: &n}
	c := s.Clone()
	c.Players[0].Balance = 0
	*c.WinningNumber = 9

	assert.Equal(t, int64(10), s.Players[0].Balance)
	assert.Equal(t, 5, *s.WinningNumber)
}

func TestActionPayloads(t *testing.T) {
	join, err := NewJoinAction("a1", "Bob")
	require.NoError(t, err)
	assert.Equal(t, UnassignedPlayerID, join.PlayerID)
	jp, err := join.Join()
	require.NoError(t, err)
	assert.Equal(t, "Bob", jp.Name)
	_, err = join.Bet()
	assert.Error(t, err)

	bet, err := NewBetAction("a2", 3, DozenBet(DozenFirst), 250)
	require.NoError(t, err)
	bp, err := bet.Bet()
	require.NoError(t, err)
	assert.Equal(t, DozenBet(DozenFirst), bp.Bet)
	assert.Equal(t, int64(250), bp.Amount)
}

func TestOnlineDocumentRoundTrip(t *testing.T) {
	doc := OnlineGameState{HostID: 1, Status: StatusLobby, Version: 3}

	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"guestActions":[]`)
	assert.Contains(t, string(data), `"winningNumber":null`)

	decoded, err := UnmarshalOnlineGameState(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), decoded.Version)
	assert.Equal(t, StatusLobby, decoded.Status)

	_, err = UnmarshalOnlineGameState([]byte(`{"status":"paused"}`))
	assert.Error(t, err)
}

func TestOnlineDocumentDerivesWinner(t *testing.T) {
	doc := OnlineGameState{
		Status:  StatusFinished,
		Players: []Player{{ID: 1, Balance: 900}, {ID: 2, Balance: 0}},
	}

	winner, ok := doc.State().Winner()
	require.True(t, ok)
	assert.Equal(t, 2, winner.ID)

	doc.Status = StatusPlaying
	assert.False(t, doc.State().HasWinner())
}
