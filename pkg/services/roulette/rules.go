package roulette

import (
	"fmt"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// ColorOf returns the colour class of a pocket; 0 is green
func ColorOf(n int) entities.Color {
	switch {
	case n <= entities.MinNumber || n > entities.MaxNumber:
		return entities.ColorGreen
	case redNumbers[n]:
		return entities.ColorRed
	default:
		return entities.ColorBlack
	}
}

// Matches decides whether the bet wins on the drawn number
func Matches(bet entities.Bet, n int) bool {
	switch bet.Type {
	case entities.BetSingleNumber:
		return n == bet.Number
	case entities.BetDozen:
		low, high, ok := bet.Dozen.Range()
		return ok && n >= low && n <= high
	case entities.BetRedBlack:
		c := ColorOf(n)
		return c != entities.ColorGreen && c == bet.Color
	}
	return false
}

// Outcome is the result of evaluating one bet
type Outcome struct {
	Win         bool
	Balance     int64
	Pot         int64
	PotTaken    int64
	Eliminated  bool
	Description string
}

// Evaluate applies the inverted payout rules. A win hands the bettor the
// whole pot and returns the stake; a loss moves the stake into the pot.
// Balances are clamped at zero, and reaching zero eliminates the bettor.
func Evaluate(bet entities.Bet, stake int64, n int, pot, balance int64) Outcome {
	out := Outcome{Win: Matches(bet, n)}

	if out.Win {
		out.PotTaken = pot
		out.Balance = balance + pot
		out.Pot = 0
		out.Description = fmt.Sprintf("wins the spin! They take the pot of $%d and get their $%d bet back.", pot, stake)
	} else {
		out.Balance = balance - stake
		out.Pot = pot + stake
		out.Description = fmt.Sprintf("loses the spin. Their $%d bet is added to the pot.", stake)
	}

	if out.Balance <= 0 {
		out.Balance = 0
		out.Eliminated = true
	}
	return out
}

// DescribeNumber renders a pocket with its colour, e.g. "7 (Red)"
func DescribeNumber(n int) string {
	switch ColorOf(n) {
	case entities.ColorRed:
		return fmt.Sprintf("%d (Red)", n)
	case entities.ColorBlack:
		return fmt.Sprintf("%d (Black)", n)
	default:
		return fmt.Sprintf("%d (Green)", n)
	}
}
