// Command simulate runs Scala 40 matches against the engine directly,
// either as a fast headless batch (collecting win/turn statistics) or
// as an interactive single-player session against AI opponents.
// Grounded on original_source/cli/simulate.py's batch loop and
// original_source/cli/play.py's command-driven interactive loop,
// folded into one binary behind the --interactive flag per
// SPEC_FULL.md's module map.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

func main() {
	games := flag.Int("games", 100, "number of games to simulate")
	players := flag.Int("players", 4, "number of players (2-4)")
	seed := flag.Uint64("seed", 0, "deterministic RNG seed (0 picks one from the current time)")
	verbose := flag.Bool("verbose", false, "print per-hand events during batch simulation")
	interactive := flag.Bool("interactive", false, "play an interactive session against AI opponents")
	maxTurns := flag.Int("max-turns", 2000, "safety cap on turns per game before declaring a draw")
	flag.Parse()

	if *players < 2 || *players > 4 {
		fmt.Fprintln(os.Stderr, "simulate: --players must be 2, 3, or 4")
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}

	if *interactive {
		runInteractive(*players, s)
		return
	}
	runBatch(*games, *players, s, *verbose, *maxTurns)
}

type batchStats struct {
	gamesPlayed int
	wins        map[string]int
	totalHands  int
	totalTurns  int
	draws       int
}

func runBatch(games, players int, seed uint64, verbose bool, maxTurns int) {
	stats := batchStats{wins: map[string]int{}}
	rng := rand.New(rand.NewSource(int64(seed)))

	for i := 0; i < games; i++ {
		playerIDs := make([]string, players)
		for p := 0; p < players; p++ {
			playerIDs[p] = fmt.Sprintf("p%d", p+1)
		}

		g, err := engine.NewGame(fmt.Sprintf("sim-%d", i), playerIDs, engine.DefaultHouseRules(), rng.Uint64())
		if err != nil {
			fmt.Fprintln(os.Stderr, "simulate: new game:", err)
			os.Exit(1)
		}

		turns := 0
		for !g.IsTerminal() && turns < maxTurns {
			if g.HandNumber == 0 || g.Status == engine.StatusHandEnd || needsNewHand(g) {
				if events, err := engine.DealHand(g); err != nil {
					fmt.Fprintln(os.Stderr, "simulate: deal hand:", err)
					os.Exit(1)
				} else if verbose {
					logEvents(events)
				}
				stats.totalHands++
				continue
			}

			if err := aiTurn(g, rng); err != nil {
				if verbose {
					fmt.Printf("turn error (%s): %v\n", g.CurrentPlayer().ID, err)
				}
			}
			turns++
		}

		stats.gamesPlayed++
		stats.totalTurns += turns
		if turns >= maxTurns {
			stats.draws++
			continue
		}
		if winner := leastEliminated(g); winner != "" {
			stats.wins[winner]++
		}
	}

	printBatchSummary(stats)
}

// needsNewHand reports whether the current hand has run out of play
// (the stock is empty at the start of a turn) and a fresh smazzata
// should be dealt.
func needsNewHand(g *engine.GameState) bool {
	return len(g.Stock) == 0 && g.Phase == engine.AwaitDraw
}

func leastEliminated(g *engine.GameState) string {
	best := ""
	bestScore := -1
	for _, p := range g.ActivePlayers() {
		if bestScore == -1 || p.Score < bestScore {
			bestScore = p.Score
			best = p.ID
		}
	}
	return best
}

func logEvents(events []engine.Event) {
	for _, ev := range events {
		fmt.Printf("  [%s] %v\n", ev.Type, ev.Fields)
	}
}

func printBatchSummary(stats batchStats) {
	fmt.Printf("games played:   %d\n", stats.gamesPlayed)
	fmt.Printf("hands dealt:    %d\n", stats.totalHands)
	fmt.Printf("avg turns/game: %.1f\n", float64(stats.totalTurns)/float64(max(1, stats.gamesPlayed)))
	fmt.Printf("draws (cap hit): %d\n", stats.draws)
	fmt.Println("wins by seat:")
	for id, n := range stats.wins {
		fmt.Printf("  %-6s %d (%.1f%%)\n", id, n, 100*float64(n)/float64(max(1, stats.gamesPlayed)))
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// runInteractive plays a single human seat (p1) against AI-controlled
// remaining seats, reading whitespace-delimited commands from stdin:
// draw, pickup, open <c1>|<c2>|..., play <c1> <c2> ..., attach <card>
// <meldId>, discard <card> [dup], hand, table, quit. Grounded on
// original_source/cli/play.py's play_game loop.
func runInteractive(players int, seed uint64) {
	playerIDs := make([]string, players)
	playerIDs[0] = "you"
	for p := 1; p < players; p++ {
		playerIDs[p] = fmt.Sprintf("ai%d", p)
	}

	g, err := engine.NewGame("interactive", playerIDs, engine.DefaultHouseRules(), seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
	if events, err := engine.DealHand(g); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	} else {
		logEvents(events)
	}

	rng := rand.New(rand.NewSource(int64(seed) + 1))
	reader := bufio.NewScanner(os.Stdin)

	for !g.IsTerminal() {
		if needsNewHand(g) {
			events, err := engine.DealHand(g)
			if err != nil {
				fmt.Println("hand over:", err)
				break
			}
			logEvents(events)
			continue
		}

		if g.CurrentPlayer().ID != "you" {
			if err := aiTurn(g, rng); err != nil {
				fmt.Printf("%s errored: %v\n", g.CurrentPlayer().ID, err)
			}
			continue
		}

		fmt.Printf("\n-- your turn (%s) --\n", g.Phase)
		printHand(g.GetPlayer("you").Hand)
		printTable(g)
		fmt.Print("> ")
		if !reader.Scan() {
			return
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if err := handleCommand(g, line); err != nil {
			fmt.Println("error:", err)
		}
		if line == "quit" {
			return
		}
	}
	fmt.Println("game over")
	for _, p := range g.Players {
		fmt.Printf("  %-6s score=%d eliminated=%v\n", p.ID, p.Score, p.IsEliminated)
	}
}

func handleCommand(g *engine.GameState, line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "draw":
		_, err := engine.DrawStock(g, "you")
		return err
	case "pickup":
		_, err := engine.DrawDiscard(g, "you")
		return err
	case "hand":
		printHand(g.GetPlayer("you").Hand)
		return nil
	case "table":
		printTable(g)
		return nil
	case "quit":
		return nil
	case "open":
		groups := strings.Split(strings.Join(args, " "), "|")
		melds := make([][]engine.Card, 0, len(groups))
		for _, grp := range groups {
			cards, err := resolveGroup(g, strings.Fields(grp))
			if err != nil {
				return err
			}
			melds = append(melds, cards)
		}
		_, err := engine.Open(g, "you", melds, newMeldID)
		return err
	case "play":
		cards, err := resolveGroup(g, args)
		if err != nil {
			return err
		}
		_, err = engine.LayMeld(g, "you", cards, newMeldID)
		return err
	case "attach":
		if len(args) < 2 {
			return fmt.Errorf("usage: attach <card> <meldId>")
		}
		card, err := resolveOne(g, args[0])
		if err != nil {
			return err
		}
		_, err = engine.Attach(g, "you", card, args[1])
		return err
	case "discard":
		if len(args) < 1 {
			return fmt.Errorf("usage: discard <card> [dup]")
		}
		card, err := resolveOne(g, args[0])
		if err != nil {
			return err
		}
		dup := len(args) > 1 && args[1] == "dup"
		_, err = engine.Discard(g, "you", card, dup)
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func resolveOne(g *engine.GameState, ref string) (engine.Card, error) {
	suit, rank, err := parseCardRef(ref)
	if err != nil {
		return engine.Card{}, err
	}
	card, ok := resolveCardRef(g.GetPlayer("you").Hand, suit, rank)
	if !ok {
		return engine.Card{}, fmt.Errorf("card %q not in hand", ref)
	}
	return card, nil
}

func resolveGroup(g *engine.GameState, refs []string) ([]engine.Card, error) {
	out := make([]engine.Card, 0, len(refs))
	for _, ref := range refs {
		c, err := resolveOne(g, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func printHand(hand []engine.Card) {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = compact(c)
	}
	fmt.Println("hand:", strings.Join(parts, " "))
}

func printTable(g *engine.GameState) {
	if top, ok := g.DiscardTop(); ok {
		fmt.Println("discard top:", compact(top))
	}
	for _, m := range g.Melds {
		parts := make([]string, len(m.Cards))
		for i, c := range m.Cards {
			parts[i] = compact(c)
		}
		fmt.Printf("meld %s (%s, owner=%s): %s\n", m.ID, m.Type, m.Owner, strings.Join(parts, " "))
	}
}
