package main

import (
	"fmt"
	"strings"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// parseCardRef parses compact notation like "5h", "Kc", "Ad", or
// "JK" for a joker, mirroring original_source's Card.from_compact.
// It returns a suit/rank pair; the caller resolves it against an
// actual hand to pick a concrete Card (with its DeckIndex).
func parseCardRef(s string) (engine.Suit, engine.Rank, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "JK") {
		return engine.JokerSuit, engine.JokerRank, nil
	}
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("invalid card reference %q", s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]
	rank, err := parseRank(rankPart)
	if err != nil {
		return 0, 0, err
	}
	suit, err := parseSuit(suitPart)
	if err != nil {
		return 0, 0, err
	}
	return suit, rank, nil
}

func parseRank(s string) (engine.Rank, error) {
	switch strings.ToUpper(s) {
	case "A":
		return engine.Ace, nil
	case "J":
		return engine.Jack, nil
	case "Q":
		return engine.Queen, nil
	case "K":
		return engine.King, nil
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid rank %q", s)
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > 13 {
		return 0, fmt.Errorf("rank out of range: %q", s)
	}
	return engine.Rank(n), nil
}

func parseSuit(s string) (engine.Suit, error) {
	switch strings.ToLower(s) {
	case "s":
		return engine.Spades, nil
	case "h":
		return engine.Hearts, nil
	case "d":
		return engine.Diamonds, nil
	case "c":
		return engine.Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit %q", s)
}

func compact(c engine.Card) string {
	if c.IsJoker() {
		return "JK"
	}
	return c.Rank.String() + suitLetter(c.Suit)
}

func suitLetter(s engine.Suit) string {
	switch s {
	case engine.Spades:
		return "s"
	case engine.Hearts:
		return "h"
	case engine.Diamonds:
		return "d"
	case engine.Clubs:
		return "c"
	default:
		return "?"
	}
}

func display(c engine.Card) string {
	return fmt.Sprintf("%s [%s]", c.String(), compact(c))
}

// resolveCardRef finds the first card in hand matching suit/rank,
// regardless of DeckIndex (the CLI has no way to disambiguate
// between the two physical copies, nor does it need to).
func resolveCardRef(hand []engine.Card, suit engine.Suit, rank engine.Rank) (engine.Card, bool) {
	for _, c := range hand {
		if c.Suit == suit && c.Rank == rank {
			return c, true
		}
	}
	return engine.Card{}, false
}

func parseCardList(parts []string) ([]struct {
	Suit engine.Suit
	Rank engine.Rank
}, error) {
	out := make([]struct {
		Suit engine.Suit
		Rank engine.Rank
	}, 0, len(parts))
	for _, p := range parts {
		suit, rank, err := parseCardRef(p)
		if err != nil {
			return nil, err
		}
		out = append(out, struct {
			Suit engine.Suit
			Rank engine.Rank
		}{Suit: suit, Rank: rank})
	}
	return out, nil
}
