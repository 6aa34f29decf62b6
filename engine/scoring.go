package engine

// HandScore sums the point values of the cards remaining in a hand,
// ace always counted high (11) since this is penalty scoring, not
// sequence placement. Grounded on
// original_source/src/game/scoring.py's calculate_hand_score.
func HandScore(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Points(false)
	}
	return total
}

// RoundOutcome is the result of applying end-of-hand scoring: which
// players scored what, which were newly eliminated, and the winner
// if the match ended.
type RoundOutcome struct {
	HandDeltas  map[string]int // per active player, points added this hand
	Eliminated  []string       // newly eliminated player ids, in seating order
	Winner      string         // set only if the match finished
	MatchOver   bool
}

// ApplyRoundScoring implements spec.md §4.3: the closer scores 0 for
// the hand; every other active player's hand score is the sum of
// §4.2 card values of their remaining hand; those totals accumulate
// into cumulative Score. Players whose cumulative score reaches the
// elimination threshold are marked eliminated. If exactly one active
// player remains, the match is finished with that player as winner.
//
// When rules.CloseInHandBonus is set and the closer emptied their
// hand in a single turn (closedInOneTurn), every other active
// player's hand delta is doubled; a player who took no action at all
// during the hand (neverActed) receives a flat 100-point penalty
// instead of their hand total. Grounded on
// original_source/src/game/scoring.py's apply_round_scores,
// check_eliminations, check_winner, generalized per spec.md §6's
// closeInHandBonus flag.
func ApplyRoundScoring(g *GameState, closerID string, closedInOneTurn bool, neverActed map[string]bool) RoundOutcome {
	deltas := make(map[string]int)

	for i := range g.Players {
		p := &g.Players[i]
		if p.IsEliminated {
			continue
		}
		var delta int
		switch {
		case p.ID == closerID:
			delta = 0
		case g.Settings.CloseInHandBonus && neverActed != nil && neverActed[p.ID]:
			delta = 100
		default:
			delta = HandScore(p.Hand)
			if g.Settings.CloseInHandBonus && closedInOneTurn {
				delta *= 2
			}
		}
		p.Score += delta
		deltas[p.ID] = delta
	}

	threshold := g.Settings.EliminationScore
	if threshold == 0 {
		threshold = 101
	}

	var eliminated []string
	for i := range g.Players {
		p := &g.Players[i]
		if p.IsEliminated {
			continue
		}
		if p.Score >= threshold {
			p.IsEliminated = true
			eliminated = append(eliminated, p.ID)
		}
	}

	active := g.ActivePlayers()
	outcome := RoundOutcome{HandDeltas: deltas, Eliminated: eliminated}
	if len(active) == 1 {
		outcome.Winner = active[0].ID
		outcome.MatchOver = true
	}
	return outcome
}
