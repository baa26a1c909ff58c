package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BetType identifies one of the three bet variants
type BetType string

const (
	BetSingleNumber BetType = "SINGLE_NUMBER"
	BetDozen        BetType = "DOZEN"
	BetRedBlack     BetType = "RED_BLACK"
)

// Dozen is one of the three fixed thirds of the table
type Dozen string

const (
	DozenFirst  Dozen = "1st"
	DozenSecond Dozen = "2nd"
	DozenThird  Dozen = "3rd"
)

// Dozens lists the dozen values in table order
var Dozens = []Dozen{DozenFirst, DozenSecond, DozenThird}

// Range returns the inclusive number range covered by the dozen
func (d Dozen) Range() (low, high int, ok bool) {
	switch d {
	case DozenFirst:
		return 1, 12, true
	case DozenSecond:
		return 13, 24, true
	case DozenThird:
		return 25, 36, true
	}
	return 0, 0, false
}

// Color is the colour class of a pocket
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

// BetColors lists the colours a Red/Black bet may choose
var BetColors = []Color{ColorRed, ColorBlack}

// Wheel bounds for a single-zero wheel
const (
	MinNumber = 0
	MaxNumber = 36
	Pockets   = MaxNumber - MinNumber + 1
)

// BetConfig describes a bet variant's limits and display data
type BetConfig struct {
	Name        string
	Description string
	MaxBet      int64
	// WinChance is used for display and AI flavour only, never for payouts
	WinChance float64
}

// BetConfigs is the fixed table of bet variants
var BetConfigs = map[BetType]BetConfig{
	BetSingleNumber: {
		Name:        "Single Number",
		Description: "High chance to lose (~97.3%)",
		MaxBet:      100,
		WinChance:   1.0 / 37.0,
	},
	BetDozen: {
		Name:        "Dozen",
		Description: "Medium chance to lose (~67.6%)",
		MaxBet:      250,
		WinChance:   12.0 / 37.0,
	},
	BetRedBlack: {
		Name:        "Red/Black",
		Description: "Low chance to lose (~51.4%)",
		MaxBet:      500,
		WinChance:   18.0 / 37.0,
	},
}

// Bet is a bet specification: exactly one of Number, Dozen or Color is
// meaningful, selected by Type.
type Bet struct {
	Type   BetType
	Number int
	Dozen  Dozen
	Color  Color
}

// SingleNumber builds a Single Number bet
func SingleNumber(n int) Bet {
	return Bet{Type: BetSingleNumber, Number: n}
}

// DozenBet builds a Dozen bet
func DozenBet(d Dozen) Bet {
	return Bet{Type: BetDozen, Dozen: d}
}

// RedBlack builds a Red/Black bet
func RedBlack(c Color) Bet {
	return Bet{Type: BetRedBlack, Color: c}
}

// Config returns the variant's configuration
func (b Bet) Config() (BetConfig, bool) {
	cfg, ok := BetConfigs[b.Type]
	return cfg, ok
}

// MaxStake returns the variant's stake ceiling, or 0 for an unknown variant
func (b Bet) MaxStake() int64 {
	cfg, ok := b.Config()
	if !ok {
		return 0
	}
	return cfg.MaxBet
}

// Validate checks the bet's variant and value
func (b Bet) Validate() error {
	switch b.Type {
	case BetSingleNumber:
		if b.Number < MinNumber || b.Number > MaxNumber {
			return fmt.Errorf("number %d outside %d-%d", b.Number, MinNumber, MaxNumber)
		}
	case BetDozen:
		if _, _, ok := b.Dozen.Range(); !ok {
			return fmt.Errorf("unknown dozen %q", b.Dozen)
		}
	case BetRedBlack:
		if b.Color != ColorRed && b.Color != ColorBlack {
			return fmt.Errorf("unknown colour %q", b.Color)
		}
	default:
		return fmt.Errorf("unknown bet type %q", b.Type)
	}
	return nil
}

// String describes the bet the way the game log announces it
func (b Bet) String() string {
	switch b.Type {
	case BetSingleNumber:
		return fmt.Sprintf("Single Number (%d)", b.Number)
	case BetDozen:
		return fmt.Sprintf("%s Dozen", b.Dozen)
	case BetRedBlack:
		return strings.ToUpper(string(b.Color))
	}
	return string(b.Type)
}

type betWire struct {
	Type  BetType         `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the bet as {"type": ..., "value": ...}
func (b Bet) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch b.Type {
	case BetSingleNumber:
		value = b.Number
	case BetDozen:
		value = b.Dozen
	case BetRedBlack:
		value = b.Color
	default:
		return nil, fmt.Errorf("unknown bet type %q", b.Type)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(betWire{Type: b.Type, Value: raw})
}

// UnmarshalJSON decodes the {"type": ..., "value": ...} form
func (b *Bet) UnmarshalJSON(data []byte) error {
	var wire betWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	out := Bet{Type: wire.Type}
	var err error
	switch wire.Type {
	case BetSingleNumber:
		err = json.Unmarshal(wire.Value, &out.Number)
	case BetDozen:
		err = json.Unmarshal(wire.Value, &out.Dozen)
	case BetRedBlack:
		var c string
		if err = json.Unmarshal(wire.Value, &c); err == nil {
			out.Color = Color(strings.ToLower(c))
		}
	default:
		return fmt.Errorf("unknown bet type %q", wire.Type)
	}
	if err != nil {
		return fmt.Errorf("invalid %s bet value: %w", wire.Type, err)
	}

	*b = out
	return nil
}
