package roulette

import "github.com/fadedpez/reverseroulette/pkg/entities"

// Variant thresholds per personality. A draw below First picks the first
// variant, below Second the second, otherwise the third.
type thresholds struct {
	First, Second float64
	Variants      [3]entities.BetType
}

var personalityWeights = map[entities.Personality]thresholds{
	// 90% single number, 10% dozen
	entities.PersonalityRiskLover: {
		First: 0.9, Second: 1.0,
		Variants: [3]entities.BetType{entities.BetSingleNumber, entities.BetDozen, entities.BetDozen},
	},
	// 80% red/black, the variant most likely to win the pot
	entities.PersonalityAccidentProne: {
		First: 0.8, Second: 1.0,
		Variants: [3]entities.BetType{entities.BetRedBlack, entities.BetDozen, entities.BetDozen},
	},
	entities.PersonalityBalanced: {
		First: 0.2, Second: 0.7,
		Variants: [3]entities.BetType{entities.BetSingleNumber, entities.BetDozen, entities.BetRedBlack},
	},
}

// ChooseBetType picks a variant according to the personality's weights.
// Unknown personalities behave as Balanced.
func ChooseBetType(p entities.Personality, src Source) entities.BetType {
	w, ok := personalityWeights[p]
	if !ok {
		w = personalityWeights[entities.PersonalityBalanced]
	}
	r := src.Float64()
	switch {
	case r < w.First:
		return w.Variants[0]
	case r < w.Second:
		return w.Variants[1]
	default:
		return w.Variants[2]
	}
}

// DecideBet produces a computer player's bet: a personality-weighted variant,
// a uniformly drawn value, and the largest legal stake.
func DecideBet(player entities.Player, src Source) (entities.Bet, int64) {
	if src == nil {
		src = DefaultSource
	}

	var bet entities.Bet
	switch ChooseBetType(player.Personality, src) {
	case entities.BetSingleNumber:
		bet = entities.SingleNumber(entities.MinNumber + src.IntN(entities.Pockets))
	case entities.BetDozen:
		bet = entities.DozenBet(entities.Dozens[src.IntN(len(entities.Dozens))])
	default:
		bet = entities.RedBlack(entities.BetColors[src.IntN(len(entities.BetColors))])
	}

	return bet, MaxLegalStake(bet, player.Balance)
}

// MaxLegalStake is the lesser of the balance and the variant ceiling
func MaxLegalStake(bet entities.Bet, balance int64) int64 {
	stake := bet.MaxStake()
	if balance < stake {
		stake = balance
	}
	if stake < 0 {
		return 0
	}
	return stake
}
