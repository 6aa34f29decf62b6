package main

import (
	"math/rand"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// meldCandidate is one validated subset of the hand considered as a
// possible meld during opening search.
type meldCandidate struct {
	cards  []engine.Card
	points int
}

// findOpeningCombo greedily searches the hand for a set of valid,
// non-overlapping 3- or 4-card melds whose combined points clear the
// house's opening threshold, mirroring
// original_source/cli/simulate.py's find_opening_combo.
func findOpeningCombo(hand []engine.Card, rules engine.HouseRules) [][]engine.Card {
	var candidates []meldCandidate

	for _, size := range []int{3, 4} {
		forEachCombination(len(hand), size, func(idx []int) {
			cards := pick(hand, idx)
			if _, result := engine.ValidateMeld(cards); result.Valid {
				candidates = append(candidates, meldCandidate{cards: cards, points: result.Points})
			}
		})
	}

	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].points > candidates[j-1].points; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	var selected [][]engine.Card
	used := map[int]bool{}
	total := 0
	for _, cand := range candidates {
		indices := indicesOf(hand, cand.cards, used)
		if indices == nil {
			continue
		}
		selected = append(selected, cand.cards)
		for _, i := range indices {
			used[i] = true
		}
		total += cand.points
		if total >= rules.OpeningThreshold {
			return selected
		}
	}
	return nil
}

// aiTurn plays one full turn (draw, optionally open/lay/attach,
// discard) for the acting player using simple greedy heuristics,
// mirroring original_source/cli/simulate.py's ai_turn.
func aiTurn(g *engine.GameState, rng *rand.Rand) error {
	playerID := g.CurrentPlayer().ID

	if g.Phase == engine.AwaitDraw {
		player := g.GetPlayer(playerID)
		drewFromDiscard := false
		if player.HasOpened && len(g.Discard) > 0 && rng.Float64() < 0.3 {
			if _, err := engine.DrawDiscard(g, playerID); err == nil {
				drewFromDiscard = true
			}
		}
		if !drewFromDiscard {
			if _, err := engine.DrawStock(g, playerID); err != nil {
				return err
			}
		}
	}

	if g.Phase == engine.AwaitPlay || g.Phase == engine.AwaitDiscard {
		player := g.GetPlayer(playerID)
		if !player.HasOpened {
			if opening := findOpeningCombo(player.Hand, g.Settings); opening != nil {
				_, _ = engine.Open(g, playerID, opening, newMeldID)
			}
		}

		if g.GetPlayer(playerID).HasOpened {
			tryLayAdditionalMelds(g, playerID)
			tryAttachCards(g, playerID)
		}
	}

	if g.Phase == engine.AwaitPlay || g.Phase == engine.AwaitDiscard {
		player := g.GetPlayer(playerID)
		if len(player.Hand) == 0 {
			return nil
		}
		shuffled := append([]engine.Card(nil), player.Hand...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for _, c := range shuffled {
			if _, err := engine.Discard(g, playerID, c, false); err == nil {
				return nil
			}
		}
	}
	return nil
}

// tryLayAdditionalMelds repeatedly lays down any remaining valid
// 4-card, then 3-card, subset of the hand until none remain.
func tryLayAdditionalMelds(g *engine.GameState, playerID string) {
	for _, size := range []int{4, 3} {
		for {
			player := g.GetPlayer(playerID)
			if len(player.Hand) <= size {
				break
			}
			laid := false
			forEachCombination(len(player.Hand), size, func(idx []int) {
				if laid {
					return
				}
				cards := pick(player.Hand, idx)
				if _, result := engine.ValidateMeld(cards); result.Valid {
					if _, err := engine.LayMeld(g, playerID, cards, newMeldID); err == nil {
						laid = true
					}
				}
			})
			if !laid {
				break
			}
		}
	}
}

// tryAttachCards attaches any hand card that legally extends an
// existing table meld, keeping at least one card for the mandatory
// discard.
func tryAttachCards(g *engine.GameState, playerID string) {
	melds := append([]engine.TableMeld(nil), g.Melds...)
	for _, meld := range melds {
		if len(g.GetPlayer(playerID).Hand) <= 1 {
			return
		}
		for {
			player := g.GetPlayer(playerID)
			if len(player.Hand) <= 1 {
				break
			}
			attached := false
			for _, c := range append([]engine.Card(nil), player.Hand...) {
				if result := engine.CanAttach(c, meld); result.Valid {
					if _, err := engine.Attach(g, playerID, c, meld.ID); err == nil {
						attached = true
						break
					}
				}
			}
			if !attached {
				break
			}
		}
	}
}

func pick(cards []engine.Card, idx []int) []engine.Card {
	out := make([]engine.Card, len(idx))
	for i, j := range idx {
		out[i] = cards[j]
	}
	return out
}

// indicesOf finds, for each card in cards, an unused matching index
// in hand, returning nil if any card cannot be matched to a distinct
// unused slot.
func indicesOf(hand []engine.Card, cards []engine.Card, used map[int]bool) []int {
	var out []int
	taken := map[int]bool{}
	for _, c := range cards {
		found := -1
		for i, h := range hand {
			if used[i] || taken[i] {
				continue
			}
			if h == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil
		}
		taken[found] = true
		out = append(out, found)
	}
	return out
}

// forEachCombination calls fn with every size-length, strictly
// increasing subset of indices drawn from [0, n).
func forEachCombination(n, size int, fn func(idx []int)) {
	if size > n || size == 0 {
		return
	}
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(append([]int(nil), idx...))
		i := size - 1
		for i >= 0 && idx[i] == i+n-size {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

var meldCounter int

func newMeldID() string {
	meldCounter++
	return "m" + itoa(meldCounter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
