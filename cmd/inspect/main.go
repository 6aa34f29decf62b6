// Command inspect loads a saved game document from disk and prints a
// summary, a single player's hand, the table melds, or an integrity
// report. Grounded on
// original_source/cli/inspect_state.py's inspect_state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

func main() {
	file := flag.String("file", "", "path to a game state JSON document (required)")
	player := flag.String("player", "", "player id to inspect (used with -show hand)")
	show := flag.String("show", "", "what to show: hand, table (default: full summary)")
	validate := flag.Bool("validate", false, "run integrity checks and exit non-zero on violations")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "inspect: -file is required")
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}

	var doc engine.GameDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintln(os.Stderr, "inspect: invalid document:", err)
		os.Exit(1)
	}

	g, importErr := engine.ImportState(doc)

	if *validate {
		if importErr != nil {
			fmt.Println("integrity violations:")
			fmt.Println("  -", importErr)
			os.Exit(1)
		}
		violations := engine.CheckIntegrity(g)
		if len(violations) == 0 {
			fmt.Println("state valid")
			return
		}
		fmt.Println("integrity violations:")
		for _, v := range violations {
			fmt.Println("  -", v.String())
		}
		os.Exit(1)
	}

	if importErr != nil {
		fmt.Fprintln(os.Stderr, "inspect: cannot load document:", importErr)
		os.Exit(1)
	}

	switch {
	case *player != "" && *show == "hand":
		showHand(g, *player)
	case *show == "table":
		showTable(g)
	default:
		showSummary(g)
	}
}

func showHand(g *engine.GameState, playerID string) {
	p := g.GetPlayer(playerID)
	if p == nil {
		fmt.Fprintf(os.Stderr, "inspect: player %q not found\n", playerID)
		os.Exit(1)
	}
	fmt.Printf("hand of %s (%d cards):\n", playerID, len(p.Hand))
	for i, c := range p.Hand {
		fmt.Printf("  %2d. %s\n", i+1, c.String())
	}
}

func showTable(g *engine.GameState) {
	if len(g.Melds) == 0 {
		fmt.Println("no melds on the table")
		return
	}
	fmt.Println("melds on the table:")
	for _, m := range g.Melds {
		fmt.Printf("  [%s] %s: %v (%s)\n", shortID(m.ID), m.Owner, m.Cards, m.Type)
	}
}

func showSummary(g *engine.GameState) {
	fmt.Printf("game id:  %s\n", g.ID)
	fmt.Printf("hand:     %d\n", g.HandNumber)
	fmt.Printf("status:   %s\n", g.Status)
	fmt.Printf("turn:     %s (%s)\n", g.CurrentPlayer().ID, g.Phase)
	fmt.Printf("stock:    %d cards\n", len(g.Stock))
	fmt.Printf("discard:  %d cards\n", len(g.Discard))
	if top, ok := g.DiscardTop(); ok {
		fmt.Printf("  top: %s\n", top.String())
	}
	fmt.Println("players:")
	for _, p := range g.Players {
		status := "closed"
		if p.IsEliminated {
			status = "eliminated"
		} else if p.HasOpened {
			status = "opened"
		}
		fmt.Printf("  %s: %d cards, score=%d (%s)\n", p.ID, len(p.Hand), p.Score, status)
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
