package entities

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle tag of a shared game document
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// MaxOnlinePlayers caps the lobby size
const MaxOnlinePlayers = 10

// MinOnlinePlayers is the roster size needed before the host may start
const MinOnlinePlayers = 2

// ActionType discriminates guest actions
type ActionType string

const (
	ActionJoin ActionType = "JOIN"
	ActionBet  ActionType = "BET"
)

// Action is a guest-originated intent waiting in the document's queue for
// the host to merge
type Action struct {
	ActionID string          `json:"actionId"`
	PlayerID int             `json:"playerId"`
	Type     ActionType      `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

// JoinPayload carries the joining player's chosen name
type JoinPayload struct {
	Name string `json:"name"`
}

// BetPayload carries a bet and its stake
type BetPayload struct {
	Bet    Bet   `json:"bet"`
	Amount int64 `json:"amount"`
}

// NewJoinAction builds a Join action. The player id is the unassigned
// sentinel because the host has not allocated one yet.
func NewJoinAction(actionID, name string) (Action, error) {
	payload, err := json.Marshal(JoinPayload{Name: name})
	if err != nil {
		return Action{}, err
	}
	return Action{ActionID: actionID, PlayerID: UnassignedPlayerID, Type: ActionJoin, Payload: payload}, nil
}

// NewBetAction builds a Bet action for a known player
func NewBetAction(actionID string, playerID int, bet Bet, amount int64) (Action, error) {
	payload, err := json.Marshal(BetPayload{Bet: bet, Amount: amount})
	if err != nil {
		return Action{}, err
	}
	return Action{ActionID: actionID, PlayerID: playerID, Type: ActionBet, Payload: payload}, nil
}

// Join decodes a Join payload
func (a Action) Join() (JoinPayload, error) {
	var p JoinPayload
	if a.Type != ActionJoin {
		return p, fmt.Errorf("action %s is %s, not %s", a.ActionID, a.Type, ActionJoin)
	}
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}

// Bet decodes a Bet payload
func (a Action) Bet() (BetPayload, error) {
	var p BetPayload
	if a.Type != ActionBet {
		return p, fmt.Errorf("action %s is %s, not %s", a.ActionID, a.Type, ActionBet)
	}
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}

// OnlineGameState is the shared document stored in the blob store
type OnlineGameState struct {
	HostID             int         `json:"hostId"`
	Status             Status      `json:"status"`
	Players            []Player    `json:"players"`
	Pot                int64       `json:"pot"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	GameLog            []GameEvent `json:"gameLog"`
	WinningNumber      *int        `json:"winningNumber"`
	GuestActions       []Action    `json:"guestActions"`
	Version            int64       `json:"version"`
}

// State projects the document onto a GameState. The winner is derived: a
// finished document's winner is the player who reached zero.
func (d OnlineGameState) State() GameState {
	s := GameState{
		Players:            append([]Player(nil), d.Players...),
		Pot:                d.Pot,
		CurrentPlayerIndex: d.CurrentPlayerIndex,
		Log:                append([]GameEvent(nil), d.GameLog...),
	}
	if d.WinningNumber != nil {
		n := *d.WinningNumber
		s.WinningNumber = &n
	}
	if d.Status == StatusFinished {
		for _, p := range d.Players {
			if p.Balance <= 0 {
				id := p.ID
				s.WinnerID = &id
				break
			}
		}
	}
	return s
}

// ApplyState copies a GameState's shared fields into the document
func (d *OnlineGameState) ApplyState(s GameState) {
	d.Players = append([]Player(nil), s.Players...)
	d.Pot = s.Pot
	d.CurrentPlayerIndex = s.CurrentPlayerIndex
	d.GameLog = append([]GameEvent(nil), s.Log...)
	d.WinningNumber = nil
	if s.WinningNumber != nil {
		n := *s.WinningNumber
		d.WinningNumber = &n
	}
	if s.HasWinner() {
		d.Status = StatusFinished
	}
}

// Clone returns a deep copy of the document
func (d OnlineGameState) Clone() OnlineGameState {
	out := d
	out.Players = append([]Player(nil), d.Players...)
	out.GameLog = append([]GameEvent(nil), d.GameLog...)
	out.GuestActions = append([]Action(nil), d.GuestActions...)
	if d.WinningNumber != nil {
		n := *d.WinningNumber
		out.WinningNumber = &n
	}
	return out
}

// Marshal encodes the document for the blob store. Nil slices are written as
// empty arrays so every reader sees the same schema.
func (d OnlineGameState) Marshal() ([]byte, error) {
	if d.Players == nil {
		d.Players = []Player{}
	}
	if d.GameLog == nil {
		d.GameLog = []GameEvent{}
	}
	if d.GuestActions == nil {
		d.GuestActions = []Action{}
	}
	return json.Marshal(d)
}

// UnmarshalOnlineGameState decodes a document read from the blob store
func UnmarshalOnlineGameState(data []byte) (OnlineGameState, error) {
	var d OnlineGameState
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("invalid game document: %w", err)
	}
	switch d.Status {
	case StatusLobby, StatusPlaying, StatusFinished:
	default:
		return d, fmt.Errorf("invalid game document: unknown status %q", d.Status)
	}
	return d, nil
}
