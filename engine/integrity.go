package engine

import "fmt"

// Violation is one integrity-check failure (spec.md §4.5). Kind lets
// callers match on the same ErrKind taxonomy used elsewhere; Detail
// is a human-readable description for logs.
type Violation struct {
	Kind   ErrKind
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// CheckIntegrity is a pure function over a game state returning a
// possibly-empty list of violations (spec.md §4.5, §8 P2). Grounded
// on original_source/src/game/integrity.py's
// validate_game_integrity: card-count check, duplicate-card check,
// per-meld validity, current-player-not-eliminated check, phase
// consistency, unopened-player-has-no-melds check, and non-negative
// score check.
func CheckIntegrity(g *GameState) []Violation {
	var violations []Violation

	if g.Status != StatusPlaying {
		return violations
	}

	all := make([]Card, 0, TotalCards)
	for _, p := range g.Players {
		if !p.IsEliminated {
			all = append(all, p.Hand...)
		}
	}
	all = append(all, g.Stock...)
	all = append(all, g.Discard...)
	for _, m := range g.Melds {
		all = append(all, m.Cards...)
	}

	if len(all) != TotalCards {
		violations = append(violations, Violation{
			ErrCorruptState,
			fmt.Sprintf("total cards = %d, expected %d", len(all), TotalCards),
		})
	}

	nonJokerCounts := map[Card]int{}
	jokerCount := 0
	for _, c := range all {
		if c.IsJoker() {
			jokerCount++
			continue
		}
		nonJokerCounts[c]++
	}
	for c, n := range nonJokerCounts {
		if n > 1 {
			violations = append(violations, Violation{
				ErrCorruptState,
				fmt.Sprintf("illegal duplicate card %s (x%d)", c, n),
			})
		}
	}
	if jokerCount != 4 {
		violations = append(violations, Violation{
			ErrCorruptState,
			fmt.Sprintf("total jokers = %d, expected 4", jokerCount),
		})
	}

	for _, m := range g.Melds {
		_, result := ValidateMeld(m.Cards)
		if !result.Valid {
			violations = append(violations, Violation{
				ErrIllegalMeld,
				fmt.Sprintf("table meld %s invalid: %v", m.ID, result.Err),
			})
		}
	}

	current := g.CurrentPlayer()
	if current.IsEliminated {
		violations = append(violations, Violation{
			ErrNotYourTurn,
			fmt.Sprintf("current player %s is eliminated", current.ID),
		})
	}

	switch g.Phase {
	case AwaitDraw, AwaitPlay, AwaitDiscard, TurnEnd:
	default:
		violations = append(violations, Violation{
			ErrWrongPhase,
			fmt.Sprintf("invalid turn phase: %s", g.Phase),
		})
	}

	for _, m := range g.Melds {
		owner := g.GetPlayer(m.Owner)
		if owner != nil && !owner.HasOpened && !owner.IsEliminated {
			violations = append(violations, Violation{
				ErrNotOpened,
				fmt.Sprintf("player %s has table melds but has not opened", m.Owner),
			})
		}
	}

	for _, p := range g.Players {
		if p.Score < 0 {
			violations = append(violations, Violation{
				ErrCorruptState,
				fmt.Sprintf("negative score for %s: %d", p.ID, p.Score),
			})
		}
	}

	return violations
}
