package entities

// GameEvent is one append-only log entry. IDs increase within a game and are
// never reused until the game is reset.
type GameEvent struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// GameState is the authoritative record of a game, local or shared
type GameState struct {
	Players            []Player    `json:"players"`
	Pot                int64       `json:"pot"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	Log                []GameEvent `json:"gameLog"`
	WinnerID           *int        `json:"winnerId,omitempty"`
	IsSpinning         bool        `json:"isSpinning"`
	WinningNumber      *int        `json:"winningNumber"`
}

// Clone returns a deep copy so transitions never alias the caller's slices
func (s GameState) Clone() GameState {
	out := s
	out.Players = append([]Player(nil), s.Players...)
	out.Log = append([]GameEvent(nil), s.Log...)
	if s.WinnerID != nil {
		id := *s.WinnerID
		out.WinnerID = &id
	}
	if s.WinningNumber != nil {
		n := *s.WinningNumber
		out.WinningNumber = &n
	}
	return out
}

// CurrentPlayer returns the player whose turn it is
func (s GameState) CurrentPlayer() (Player, bool) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// Winner returns the winning player once one is set
func (s GameState) Winner() (Player, bool) {
	if s.WinnerID == nil {
		return Player{}, false
	}
	idx := s.PlayerIndex(*s.WinnerID)
	if idx < 0 {
		return Player{}, false
	}
	return s.Players[idx], true
}

// HasWinner reports whether the game has reached its terminal state
func (s GameState) HasWinner() bool {
	return s.WinnerID != nil
}

// PlayerIndex returns the roster index of the player with the given id, or -1
func (s GameState) PlayerIndex(id int) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// NextEventID returns the id the next log entry should use
func (s GameState) NextEventID() int {
	if len(s.Log) == 0 {
		return 0
	}
	return s.Log[len(s.Log)-1].ID + 1
}

// AddLog appends a log entry to the receiver
func (s *GameState) AddLog(text string) {
	s.Log = append(s.Log, GameEvent{ID: s.NextEventID(), Text: text})
}

// IsHumanTurn reports whether the betting interface should be enabled for
// the current player
func (s GameState) IsHumanTurn() bool {
	p, ok := s.CurrentPlayer()
	return ok && !p.IsAI && !s.IsSpinning && !s.HasWinner()
}
