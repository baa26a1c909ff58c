package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fadedpez/reverseroulette/pkg/entities"
)

// command is one parsed line of player input
type command struct {
	name  string
	bet   entities.Bet
	stake int64
}

// parseCommand understands:
//
//	bet single <0-36> <stake>
//	bet dozen <1st|2nd|3rd> <stake>
//	bet <red|black> <stake>
//	start | restart | pause | resume | state | help | quit
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "bet", "b":
		bet, stake, err := parseBet(fields[1:])
		if err != nil {
			return command{}, err
		}
		return command{name: "bet", bet: bet, stake: stake}, nil
	case "start", "restart", "pause", "resume", "state", "help", "quit":
		return command{name: fields[0]}, nil
	case "q", "exit":
		return command{name: "quit"}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", fields[0])
}

func parseBet(args []string) (entities.Bet, int64, error) {
	if len(args) < 2 {
		return entities.Bet{}, 0, fmt.Errorf("usage: bet single <n> <stake> | bet dozen <1st|2nd|3rd> <stake> | bet <red|black> <stake>")
	}

	var bet entities.Bet
	rest := args[1:]
	switch args[0] {
	case "single", "number":
		if len(args) < 3 {
			return entities.Bet{}, 0, fmt.Errorf("usage: bet single <n> <stake>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return entities.Bet{}, 0, fmt.Errorf("invalid number %q", args[1])
		}
		bet = entities.SingleNumber(n)
		rest = args[2:]
	case "dozen":
		if len(args) < 3 {
			return entities.Bet{}, 0, fmt.Errorf("usage: bet dozen <1st|2nd|3rd> <stake>")
		}
		bet = entities.DozenBet(entities.Dozen(args[1]))
		rest = args[2:]
	case "red":
		bet = entities.RedBlack(entities.ColorRed)
	case "black":
		bet = entities.RedBlack(entities.ColorBlack)
	default:
		return entities.Bet{}, 0, fmt.Errorf("unknown bet %q", args[0])
	}

	if err := bet.Validate(); err != nil {
		return entities.Bet{}, 0, err
	}
	stake, err := strconv.ParseInt(strings.TrimPrefix(rest[0], "$"), 10, 64)
	if err != nil || stake <= 0 {
		return entities.Bet{}, 0, fmt.Errorf("invalid stake %q", rest[0])
	}
	return bet, stake, nil
}
