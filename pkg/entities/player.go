package entities

// Personality tags a computer-controlled player's betting style
type Personality string

const (
	PersonalityRiskLover     Personality = "Risk Lover"
	PersonalityAccidentProne Personality = "Accident Prone"
	PersonalityBalanced      Personality = "Balanced"
)

// Personalities lists every personality in a stable order
var Personalities = []Personality{PersonalityRiskLover, PersonalityAccidentProne, PersonalityBalanced}

const (
	StartingBalance    int64 = 1000
	PotStartingAmount  int64 = 0
	UnassignedPlayerID       = -1
)

// Player is a roster entry
type Player struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Balance     int64       `json:"balance"`
	IsAI        bool        `json:"isAI"`
	Personality Personality `json:"personality,omitempty"`
}

// IsEliminated reports whether the player has reached zero
func (p Player) IsEliminated() bool {
	return p.Balance <= 0
}
