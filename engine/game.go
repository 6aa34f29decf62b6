package engine

// NewGame constructs a fresh match for the given seating order and
// house rules. It does not deal cards; call DealHand to start the
// first hand (spec.md §4.3/§4.4 "hand restart" applies equally to the
// very first hand). Grounded on
// original_source/src/game/engine.py's GameEngine.create_game.
func NewGame(id string, playerIDs []string, rules HouseRules, seed uint64) (*GameState, error) {
	if len(playerIDs) < 2 || len(playerIDs) > 4 {
		return nil, newErr(ErrIllegalMeld, "a game requires 2 to 4 players")
	}
	if rules.EliminationScore == 0 {
		rules.EliminationScore = 101
	}
	if rules.OpeningThreshold == 0 {
		rules.OpeningThreshold = 40
	}

	players := make([]PlayerState, len(playerIDs))
	for i, id := range playerIDs {
		players[i] = PlayerState{ID: id}
	}

	return &GameState{
		ID:       id,
		Players:  players,
		Settings: rules,
		Status:   StatusPlaying,
		DealerIdx: 0,
		Seed:     seed,
		Version:  1,
	}, nil
}

// DealHand starts a new hand (Italian "smazzata"): shuffles a fresh
// 108-card deck with the game's deterministic seed stream, deals 13
// cards to each active player, flips the first discard, rotates the
// dealer (except for the very first hand), and sets the first
// player to the dealer's left. Grounded on
// original_source/src/game/engine.py's start_round.
func DealHand(g *GameState) ([]Event, error) {
	active := g.ActivePlayers()
	if len(active) < 2 {
		return nil, newErr(ErrIllegalMeld, "at least 2 active players are required")
	}

	deck := NewDeck()
	Shuffle(deck, currentRNG(g))

	for _, p := range active {
		p.Hand = nil
		p.HasOpened = false
	}

	activeIDs := make([]string, len(active))
	for i, p := range active {
		activeIDs[i] = p.ID
	}

	dealt, err := Deal(deck, len(active))
	if err != nil {
		return nil, err
	}
	for i, p := range active {
		p.Hand = dealt.Hands[i]
	}

	g.Stock = dealt.Stock
	g.Discard = []Card{dealt.FirstDiscard}
	g.Melds = nil
	g.HandNumber++
	g.RoundNumber = 0
	g.FirstRoundComplete = false
	g.Scratch = TurnScratch{}
	g.Status = StatusPlaying

	if g.HandNumber > 1 {
		g.DealerIdx = nextActiveSeat(g, dealerAbsoluteIdx(g, activeIDs))
	}

	dealerID := g.Players[g.DealerIdx].ID
	firstPlayerIdx := nextActiveSeat(g, indexOfID(g.Players, dealerID))
	g.CurrentPlayerIdx = firstPlayerIdx
	g.RoundStarterID = g.Players[firstPlayerIdx].ID
	g.Phase = AwaitDraw

	cardsByPlayer := map[string]int{}
	for _, p := range active {
		cardsByPlayer[p.ID] = len(p.Hand)
	}
	ev := newEvent("hand_start", g.ID, "", map[string]any{
		"hand_number": g.HandNumber,
		"dealer":      dealerID,
		"first_player": g.Players[firstPlayerIdx].ID,
		"hand_sizes":   cardsByPlayer,
	})
	return []Event{ev}, nil
}

// dealerAbsoluteIdx resolves the current dealer's seat index,
// falling back to the first active seat if the previous dealer was
// eliminated between hands.
func dealerAbsoluteIdx(g *GameState, activeIDs []string) int {
	dealerID := g.Players[g.DealerIdx].ID
	for _, id := range activeIDs {
		if id == dealerID {
			return g.DealerIdx
		}
	}
	for i, p := range g.Players {
		if !p.IsEliminated {
			return i
		}
	}
	return 0
}

func indexOfID(players []PlayerState, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return 0
}

// nextActiveSeat returns the seat index of the next non-eliminated
// player after from, wrapping seating order.
func nextActiveSeat(g *GameState, from int) int {
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if !g.Players[idx].IsEliminated {
			return idx
		}
	}
	return from
}

// IsTerminal reports whether the match has finished.
func (g *GameState) IsTerminal() bool {
	return g.Status == StatusFinished
}
