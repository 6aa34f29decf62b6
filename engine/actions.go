package engine

// validateTurn checks that it is playerID's turn, that they are an
// active player, and that the game is in expectedPhase (or, when
// allowDiscardPhase is set, also accepts AwaitDiscard — several play
// actions and the discard action itself are legal from either phase).
// Grounded on original_source/src/game/engine.py's _validate_turn.
func validateTurn(g *GameState, playerID string, expectedPhase Phase, allowDiscardPhase bool) *RuleError {
	if g.Status != StatusPlaying {
		return newErr(ErrWrongPhase, "match is not in progress")
	}
	if g.CurrentPlayer().ID != playerID {
		return newErr(ErrNotYourTurn, "it is not this player's turn")
	}
	player := g.GetPlayer(playerID)
	if player == nil || player.IsEliminated {
		return newErr(ErrNotYourTurn, "player is not active")
	}
	if g.Phase != expectedPhase {
		if allowDiscardPhase && g.Phase == AwaitDiscard {
			return nil
		}
		return newErr(ErrWrongPhase, "unexpected turn phase")
	}
	return nil
}

// DrawStock implements the AWAIT_DRAW -> AWAIT_PLAY/AWAIT_DISCARD
// transition on drawFromStock (spec.md §4.4). Always legal if the
// stock is non-empty; if empty, transparently reshuffles the discard
// pile first (spec.md §4.1) and emits a reshuffle event ahead of the
// draw event.
func DrawStock(g *GameState, playerID string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitDraw, false); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)

	var events []Event
	if len(g.Stock) == 0 {
		newStock, newDiscard, err := ReshuffleDiscardIntoStock(g.Discard, currentRNG(g))
		if err != nil {
			return nil, newErr(ErrStockEmpty, "no cards left to draw")
		}
		g.Stock = newStock
		g.Discard = newDiscard
		events = append(events, newEvent("reshuffle", g.ID, playerID, map[string]any{
			"new_stock_size": len(g.Stock),
		}))
	}

	card, rest, err := DrawFromStock(g.Stock)
	if err != nil {
		return nil, err
	}
	g.Stock = rest
	player.Hand = append(player.Hand, card)
	g.Scratch.Drawn = &card
	g.Scratch.DrawnFromDiscard = false
	g.Phase = nextPhaseAfterDraw(player)

	events = append(events, newEvent("draw", g.ID, playerID, map[string]any{
		"source":         "stock",
		"stock_remaining": len(g.Stock),
		"hand_size":      len(player.Hand),
	}))
	return events, nil
}

// DrawDiscard implements drawFromDiscard (spec.md §4.4): permitted
// only if the player has already opened, or the OpenWithDiscard
// house rule is on. Neither the draw nor Open checks that the card
// is then played; Discard holds the player to it by rejecting any
// other discard while the picked-up card is still in hand, and the
// picked-up card itself unless it is declared as a duplicate.
func DrawDiscard(g *GameState, playerID string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitDraw, false); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)
	if !player.HasOpened && !g.Settings.OpenWithDiscard {
		return nil, newErr(ErrNotOpened, "must have opened to draw from the discard pile")
	}

	card, rest, err := DrawFromDiscard(g.Discard)
	if err != nil {
		return nil, err
	}
	g.Discard = rest
	player.Hand = append(player.Hand, card)
	g.Scratch.Drawn = &card
	g.Scratch.DrawnFromDiscard = true
	g.Phase = nextPhaseAfterDraw(player)

	return []Event{newEvent("draw", g.ID, playerID, map[string]any{
		"source":          "discard",
		"card":            card.String(),
		"discard_remaining": len(g.Discard),
		"hand_size":       len(player.Hand),
	})}, nil
}

func nextPhaseAfterDraw(p *PlayerState) Phase {
	if p.HasOpened {
		return AwaitPlay
	}
	return AwaitDiscard
}

// Open implements spec.md §4.4's open(meldList): legal only before
// having opened; validates the meldList as an opening; on success
// removes all involved cards from hand, appends melds to the table,
// and sets HasOpened. On failure, no state changes (validation runs
// against a copy of the hand first).
func Open(g *GameState, playerID string, melds [][]Card, newMeldID func() string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitPlay, true); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)
	if player.HasOpened {
		return nil, newErr(ErrNotOpened, "player has already opened")
	}

	result := ValidateOpening(melds, g.Settings)
	if !result.Valid {
		return nil, result.Err
	}

	handCopy := append([]Card(nil), player.Hand...)
	for _, meldCards := range melds {
		for _, c := range meldCards {
			idx := indexOfCard(handCopy, c)
			if idx < 0 {
				return nil, newMeldErr(MeldUnknownCard, "card not in hand: "+c.String())
			}
			handCopy = removeAt(handCopy, idx)
		}
	}

	player.Hand = handCopy
	player.HasOpened = true
	g.Scratch.OpenedThisTurn = true
	for _, meldCards := range melds {
		typ, _ := ValidateMeld(meldCards)
		g.Melds = append(g.Melds, TableMeld{ID: newMeldID(), Owner: playerID, Type: typ, Cards: meldCards})
	}
	g.Phase = AwaitPlay

	return []Event{newEvent("open", g.ID, playerID, map[string]any{
		"melds_count":  len(melds),
		"total_points": result.Points,
	})}, nil
}

// LayMeld implements layDownMeld(meld) (spec.md §4.4): legal only
// after having opened.
func LayMeld(g *GameState, playerID string, cards []Card, newMeldID func() string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitPlay, false); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)
	if !player.HasOpened {
		return nil, newErr(ErrNotOpened, "must open before laying down melds")
	}

	typ, result := ValidateMeld(cards)
	if !result.Valid {
		return nil, result.Err
	}

	handCopy := append([]Card(nil), player.Hand...)
	for _, c := range cards {
		idx := indexOfCard(handCopy, c)
		if idx < 0 {
			return nil, newMeldErr(MeldUnknownCard, "card not in hand: "+c.String())
		}
		handCopy = removeAt(handCopy, idx)
	}
	player.Hand = handCopy
	g.Melds = append(g.Melds, TableMeld{ID: newMeldID(), Owner: playerID, Type: typ, Cards: cards})
	consumePendingJokerIfPlayed(g, cards)

	return []Event{newEvent("lay_meld", g.ID, playerID, map[string]any{
		"type":   string(typ),
		"points": result.Points,
	})}, nil
}

// Attach implements attachCard(handCardRef, meldRef) (spec.md §4.4).
func Attach(g *GameState, playerID string, card Card, meldID string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitPlay, false); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)
	if !player.HasOpened {
		return nil, newErr(ErrNotOpened, "must open before attaching")
	}
	meld := g.findMeld(meldID)
	if meld == nil {
		return nil, newErr(ErrNotFound, "table meld not found")
	}
	idx := indexOfCard(player.Hand, card)
	if idx < 0 {
		return nil, newMeldErr(MeldUnknownCard, "card not in hand: "+card.String())
	}
	result := CanAttach(card, *meld)
	if !result.Valid {
		return nil, result.Err
	}

	player.Hand = removeAt(player.Hand, idx)
	insertIntoMeld(meld, card)
	consumePendingJokerIfPlayed(g, []Card{card})

	return []Event{newEvent("attach", g.ID, playerID, map[string]any{
		"card":     card.String(),
		"meld_id":  meldID,
	})}, nil
}

func insertIntoMeld(m *TableMeld, card Card) {
	if m.Type != MeldSequence || card.IsJoker() {
		m.Cards = append(m.Cards, card)
		return
	}
	seqRanks, ok := sequenceRanks(m.Cards)
	if !ok || len(seqRanks) == 0 {
		m.Cards = append(m.Cards, card)
		return
	}
	minRank, _ := minMax(seqRanks)
	rank := int(card.Rank)
	if card.Rank == Ace && minRank > 2 {
		rank = int(AceHigh)
	}
	if rank < minRank {
		m.Cards = append([]Card{card}, m.Cards...)
	} else {
		m.Cards = append(m.Cards, card)
	}
}

// SubstituteJoker implements substituteJoker(meldRef, handCardRef)
// (spec.md §4.4): the withdrawn joker goes into the turn's pending
// slot and must be consumed this turn by a subsequent LayMeld or
// Attach call that includes it.
func SubstituteJoker(g *GameState, playerID string, card Card, meldID string) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitPlay, false); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)
	if !player.HasOpened {
		return nil, newErr(ErrNotOpened, "must open before substituting a joker")
	}
	meld := g.findMeld(meldID)
	if meld == nil {
		return nil, newErr(ErrNotFound, "table meld not found")
	}
	idx := indexOfCard(player.Hand, card)
	if idx < 0 {
		return nil, newMeldErr(MeldUnknownCard, "card not in hand: "+card.String())
	}
	if err := CanSubstituteJoker(card, *meld); err != nil {
		return nil, err
	}

	player.Hand = removeAt(player.Hand, idx)
	joker, _ := firstJoker(meld.Cards)
	for i, c := range meld.Cards {
		if c.IsJoker() {
			meld.Cards[i] = card
			break
		}
	}
	// The withdrawn joker is temporarily added to the player's hand so
	// a subsequent LayMeld/Attach call can reference it like any other
	// held card; it must be consumed before the turn can end (spec.md
	// §4.4), enforced via Scratch.PendingJoker.
	player.Hand = append(player.Hand, joker)
	g.Scratch.PendingJoker = &joker

	return []Event{newEvent("substitute_joker", g.ID, playerID, map[string]any{
		"card_inserted": card.String(),
		"meld_id":       meldID,
	})}, nil
}

// consumePendingJokerIfPlayed clears the pending-joker slot if the
// just-played cards include it (spec.md §4.4's "must be consumed by
// a subsequent layDownMeld or attachCard that includes that joker").
func consumePendingJokerIfPlayed(g *GameState, played []Card) {
	if g.Scratch.PendingJoker == nil {
		return
	}
	for _, c := range played {
		if c.IsJoker() && c.DeckIndex == g.Scratch.PendingJoker.DeckIndex {
			g.Scratch.PendingJoker = nil
			return
		}
	}
}

// Discard implements discard(card) (spec.md §4.4): the mandatory
// AWAIT_PLAY/AWAIT_DISCARD -> TURN_END transition. Validates discard
// legality, then either closes the hand or advances the turn.
func Discard(g *GameState, playerID string, card Card, declareDuplicate bool) ([]Event, error) {
	if err := validateTurn(g, playerID, AwaitPlay, true); err != nil {
		return nil, err
	}
	player := g.GetPlayer(playerID)

	if g.Scratch.PendingJoker != nil {
		return nil, newErr(ErrJokerMustBeUsed, "withdrawn joker has not been used this turn")
	}
	if g.Scratch.Drawn != nil && g.Scratch.DrawnFromDiscard {
		stillInHand := indexOfCard(player.Hand, *g.Scratch.Drawn) >= 0
		if stillInHand && !cardsEqual(card, *g.Scratch.Drawn) {
			return nil, newErr(ErrPickedCardMustBePlayed, "the card picked up from discard must be used")
		}
	}

	idx := indexOfCard(player.Hand, card)
	if idx < 0 {
		return nil, newMeldErr(MeldUnknownCard, "card not in hand: "+card.String())
	}

	handAfter := removeAt(append([]Card(nil), player.Hand...), idx)
	var drawnFromDiscardCard *Card
	if g.Scratch.DrawnFromDiscard {
		drawnFromDiscardCard = g.Scratch.Drawn
	}
	chk := DiscardCheck{
		Card:               card,
		DrawnFromDiscard:   drawnFromDiscardCard,
		DeclareDuplicate:   declareDuplicate,
		HandAfterDiscard:   handAfter,
		TableMelds:         g.Melds,
		PlayerHasOpened:    player.HasOpened,
		NumActivePlayers:   len(g.ActivePlayers()),
		CardsInHandAfter:   len(handAfter),
		FirstRoundComplete: g.FirstRoundComplete,
	}
	if g.Settings.CloseInHandBonus && g.Scratch.OpenedThisTurn && len(handAfter) == 0 {
		return nil, newErr(ErrCannotOpenAndCloseSameTurn, "cannot open and close in the same turn with closeInHandBonus active")
	}
	if err := ValidateDiscard(chk); err != nil {
		return nil, err
	}

	player.Hand = handAfter
	g.Discard = append(g.Discard, card)

	events := []Event{newEvent("discard", g.ID, playerID, map[string]any{
		"card":           card.String(),
		"hand_remaining": len(player.Hand),
	})}

	if len(handAfter) == 0 {
		closureEvents := handleClosure(g, playerID)
		events = append(events, closureEvents...)
	} else {
		advanceTurn(g)
	}
	g.Scratch = TurnScratch{}
	return events, nil
}

// advanceTurn moves to the next active seat and detects
// firstRoundComplete (spec.md §4.4 "Turn advancement").
func advanceTurn(g *GameState) {
	nextIdx := nextActiveSeat(g, g.CurrentPlayerIdx)
	g.CurrentPlayerIdx = nextIdx
	g.Phase = AwaitDraw

	if !g.FirstRoundComplete && g.Players[nextIdx].ID == g.RoundStarterID {
		g.FirstRoundComplete = true
		g.RoundNumber++
	}
}

// handleClosure implements spec.md §4.3/§4.4's closure path: scoring,
// eliminations, and match/hand-end transition.
func handleClosure(g *GameState, closerID string) []Event {
	closedInOneTurn := g.Scratch.OpenedThisTurn
	outcome := ApplyRoundScoring(g, closerID, closedInOneTurn, nil)

	events := []Event{newEvent("closure", g.ID, closerID, map[string]any{
		"hand_number": g.HandNumber,
		"deltas":      outcome.HandDeltas,
	})}

	for _, id := range outcome.Eliminated {
		events = append(events, newEvent("elimination", g.ID, id, map[string]any{
			"score":     g.GetPlayer(id).Score,
			"threshold": g.Settings.EliminationScore,
		}))
	}

	if outcome.MatchOver {
		g.Status = StatusFinished
		events = append(events, newEvent("match_end", g.ID, "", map[string]any{
			"winner": outcome.Winner,
		}))
	} else {
		g.Status = StatusHandEnd
		events = append(events, newEvent("hand_end", g.ID, "", map[string]any{
			"hand_number": g.HandNumber,
		}))
	}
	return events
}

// AutoPlay implements spec.md §4.4's timeout behaviour: draw from
// stock, then discard the highest-valued card that satisfies §4.2
// discard legality. If no card passes those checks, it tries the
// smallest-value card once more through the same checks; when that
// also fails, no card is discarded, an invalid_action warning event
// is recorded and the error is returned.
func AutoPlay(g *GameState, playerID string) ([]Event, error) {
	var events []Event
	if g.Phase == AwaitDraw {
		drawEvents, err := DrawStock(g, playerID)
		if err != nil {
			return nil, err
		}
		events = append(events, drawEvents...)
	}

	player := g.GetPlayer(playerID)
	sorted := append([]Card(nil), player.Hand...)
	sortByPointsDesc(sorted)

	for _, c := range sorted {
		if _, err := Discard(g, playerID, c, false); err == nil {
			events = append(events, newEvent("discard", g.ID, playerID, map[string]any{
				"auto_play": true,
				"card":      c.String(),
			}))
			return events, nil
		}
	}

	if len(sorted) > 0 {
		lowest := sorted[len(sorted)-1]
		discardEvents, err := Discard(g, playerID, lowest, false)
		if err != nil {
			events = append(events, newEvent("invalid_action", g.ID, playerID, map[string]any{
				"warning": "auto_play found no legal discard, not even the smallest-value card",
			}))
			return events, err
		}
		events = append(events, discardEvents...)
	}
	return events, nil
}

func sortByPointsDesc(cards []Card) {
	for i := 1; i < len(cards); i++ {
		for j := i; j > 0 && cards[j].Points(false) > cards[j-1].Points(false); j-- {
			cards[j], cards[j-1] = cards[j-1], cards[j]
		}
	}
}

func currentRNG(g *GameState) RNG {
	rng := NewDeterministicRNG(g.Seed)
	g.Seed = g.Seed*6364136223846793005 + 1442695040888963407
	return rng
}

func indexOfCard(hand []Card, c Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

func cardsEqual(a, b Card) bool { return a == b }

func removeAt(cards []Card, idx int) []Card {
	return append(cards[:idx], cards[idx+1:]...)
}
