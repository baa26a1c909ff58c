package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadedpez/reverseroulette/internal/app"
	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/games/roulette"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	logging.SetDefault(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Shutdown()

	switch os.Args[1] {
	case "local":
		localCmd := flag.NewFlagSet("local", flag.ExitOnError)
		localCmd.Parse(os.Args[2:])
		play(ctx, a, func(m *roulette.Manager) error {
			return m.StartLocal(localCmd.Args()...)
		})

	case "host":
		hostCmd := flag.NewFlagSet("host", flag.ExitOnError)
		name := hostCmd.String("name", "", "Your display name")
		hostCmd.Parse(os.Args[2:])
		play(ctx, a, func(m *roulette.Manager) error {
			return m.CreateOnline(ctx, *name)
		})

	case "join":
		joinCmd := flag.NewFlagSet("join", flag.ExitOnError)
		code := joinCmd.String("code", "", "Game code from the host")
		name := joinCmd.String("name", "", "Your display name")
		joinCmd.Parse(os.Args[2:])
		play(ctx, a, func(m *roulette.Manager) error {
			return m.JoinOnline(ctx, *code, *name)
		})

	case "stats":
		statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
		player := statsCmd.String("player", "", "Show one player's record")
		page := statsCmd.Int("page", 1, "Leaderboard page")
		statsCmd.Parse(os.Args[2:])
		if err := showStats(ctx, a, *player, *page); err != nil {
			log.Fatalf("Failed to load statistics: %v", err)
		}

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  reverseroulette local [NAME...]             - Play on this device (no names: you against three computer players)")
	fmt.Println("  reverseroulette host -name NAME             - Create an online game")
	fmt.Println("  reverseroulette join -code CODE -name NAME  - Join an online game")
	fmt.Println("  reverseroulette stats [-player NAME]        - Show the leaderboard")
	fmt.Println("\nThe first player to reach $0 wins.")
}

// play runs one session: start enters it, then commands are read from stdin
// until the player quits or the session drops back to the title screen
func play(ctx context.Context, a *app.App, start func(*roulette.Manager) error) {
	r := newRenderer(os.Stdout)
	manager := a.Factory.CreateManager(r.render)
	defer manager.Quit()

	if err := start(manager); err != nil {
		fmt.Printf("Could not start: %v\n", err)
		return
	}
	fmt.Println(helpText)

	done := make(chan struct{})
	defer close(done)
	lines := readLines(os.Stdin, done)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if manager.View().Notice != nil {
				manager.Dismiss()
				if manager.View().Screen == roulette.ScreenTitle {
					return
				}
				continue
			}
			if quit := handleLine(ctx, manager, line); quit {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, manager *roulette.Manager, line string) bool {
	cmd, err := parseCommand(line)
	if err != nil {
		fmt.Println(err)
		return false
	}

	switch cmd.name {
	case "bet":
		err = manager.PlaceBet(ctx, cmd.bet, cmd.stake)
	case "start":
		err = manager.StartOnline(ctx)
	case "restart":
		err = manager.Restart(ctx)
	case "pause":
		err = manager.Pause()
	case "resume":
		err = manager.Resume()
	case "state":
		fmt.Println(table(manager.View().State))
	case "help":
		fmt.Println(helpText)
	case "quit":
		return true
	}

	// notices are printed by the renderer; refused intents only get a hint
	if err != nil && types.IsIntentError(err) {
		var gameErr *types.GameError
		if types.As(err, &gameErr) {
			fmt.Println(gameErr.Message)
		}
	}
	return false
}

func showStats(ctx context.Context, a *app.App, player string, page int) error {
	if player != "" {
		summary, err := a.Stats.GetPlayerSummary(ctx, player, 10)
		if err != nil {
			return err
		}
		printSummary(os.Stdout, summary)
		return nil
	}

	board, err := a.Stats.GetLeaderboard(ctx, page, 10)
	if err != nil {
		return err
	}
	printLeaderboard(os.Stdout, board)
	return nil
}

// readLines forwards lines from r until r ends or done is closed. The
// channel is closed when r ends.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}
