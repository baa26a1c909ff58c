package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/roulette"
	"github.com/fadedpez/reverseroulette/pkg/services/statistics"
)

// renderer prints each view change as the log lines and notices that are
// new since the last one
type renderer struct {
	out io.Writer

	mu         sync.Mutex
	lastEvent  int
	lastScreen roulette.Screen
	lastNotice *roulette.Notice
	turnShown  string
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, lastScreen: roulette.ScreenTitle}
}

func (r *renderer) render(v roulette.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.Screen != r.lastScreen {
		r.screenChanged(v)
		r.lastScreen = v.Screen
	}

	for _, e := range v.State.Log {
		if e.ID > r.lastEvent {
			fmt.Fprintf(r.out, "  %s\n", e.Text)
			r.lastEvent = e.ID
		}
	}
	if len(v.State.Log) > 0 && v.State.Log[len(v.State.Log)-1].ID < r.lastEvent {
		// the log was reset by a restart
		r.lastEvent = 0
		for _, e := range v.State.Log {
			fmt.Fprintf(r.out, "  %s\n", e.Text)
			r.lastEvent = e.ID
		}
	}

	if v.Notice != nil && (r.lastNotice == nil || *r.lastNotice != *v.Notice) {
		fmt.Fprintf(r.out, "!! %s (type anything to continue)\n", v.Notice.Message)
	}
	r.lastNotice = v.Notice

	if turn := turnLine(v); turn != "" && turn != r.turnShown {
		fmt.Fprintln(r.out, turn)
		r.turnShown = turn
	}
}

func (r *renderer) screenChanged(v roulette.View) {
	switch v.Screen {
	case roulette.ScreenLobby:
		if v.IsHost {
			fmt.Fprintf(r.out, "Hosting game %s. Share the code, then type 'start' once everyone has joined.\n", v.Code)
		} else {
			fmt.Fprintf(r.out, "Waiting in lobby %s for the host to start.\n", v.Code)
		}
	case roulette.ScreenOnline:
		fmt.Fprintln(r.out, "The game has started.")
	case roulette.ScreenPaused:
		fmt.Fprintln(r.out, "Paused. Type 'resume' to continue.")
	case roulette.ScreenTitle:
		r.lastEvent = 0
		r.turnShown = ""
		fmt.Fprintln(r.out, "Back at the title screen.")
	}
}

func turnLine(v roulette.View) string {
	if winner, ok := v.State.Winner(); ok {
		return fmt.Sprintf("%s wins! Type 'restart' to play again or 'quit'.", winner.Name)
	}
	if !v.CanBet() {
		return ""
	}
	current, _ := v.State.CurrentPlayer()
	return fmt.Sprintf("%s to bet. %s", current.Name, table(v.State))
}

func table(s entities.GameState) string {
	parts := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		parts = append(parts, fmt.Sprintf("%s $%d", p.Name, p.Balance))
	}
	return fmt.Sprintf("[%s | pot $%d]", strings.Join(parts, ", "), s.Pot)
}

func printLeaderboard(out io.Writer, board *statistics.Leaderboard) {
	if len(board.Players) == 0 {
		fmt.Fprintln(out, "No finished games yet.")
		return
	}
	fmt.Fprintf(out, "%-4s %-16s %6s %6s %7s\n", "#", "Player", "Games", "Wins", "Rate")
	for _, p := range board.Players {
		fmt.Fprintf(out, "%-4d %-16s %6d %6d %6.1f%%\n", p.Rank, p.PlayerName, p.GamesPlayed, p.Wins, p.WinRate)
	}
	fmt.Fprintf(out, "Page %d of %d (%d players)\n", board.CurrentPage, board.TotalPages, board.TotalPlayers)
}

func printSummary(out io.Writer, summary *statistics.PlayerSummary) {
	st := summary.Statistics
	fmt.Fprintf(out, "%s: %d games, %d wins, %d losses (%.1f%%)\n", st.PlayerName, st.GamesPlayed, st.Wins, st.Losses, st.WinRate())
	for _, g := range summary.RecentGames {
		fmt.Fprintf(out, "  %s  %-6s winner %-16s %d spins\n", g.CompletedAt.Format("2006-01-02 15:04"), g.Mode, g.WinnerName, g.Spins)
	}
}

const helpText = `Commands:
  bet single <0-36> <stake>      max $100
  bet dozen <1st|2nd|3rd> <stake> max $250
  bet <red|black> <stake>        max $500
  start      start the online game (host)
  restart    start over with the same players
  pause / resume
  state      show balances and pot
  quit       leave the game`
