package engine

import "testing"

func freshDealtGame(t *testing.T) *GameState {
	t.Helper()
	g, err := NewGame("g1", []string{"a", "b"}, DefaultHouseRules(), 99)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := DealHand(g); err != nil {
		t.Fatalf("DealHand: %v", err)
	}
	return g
}

func TestCheckIntegrityCleanGame(t *testing.T) {
	g := freshDealtGame(t)
	if v := CheckIntegrity(g); len(v) != 0 {
		t.Fatalf("expected no violations on a freshly dealt game, got %v", v)
	}
}

func TestCheckIntegrityDetectsMissingCard(t *testing.T) {
	g := freshDealtGame(t)
	g.Stock = g.Stock[1:]
	v := CheckIntegrity(g)
	if len(v) == 0 {
		t.Fatal("expected a card-count violation")
	}
	found := false
	for _, viol := range v {
		if viol.Kind == ErrCorruptState {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrCorruptState among violations, got %v", v)
	}
}

func TestCheckIntegrityDetectsDuplicateCard(t *testing.T) {
	g := freshDealtGame(t)
	dupe := g.Stock[0]
	g.Discard = append(g.Discard, dupe)
	// Keep the original in the stock and drop a different card, so the
	// total stays at 108 and only the duplicate is wrong.
	g.Stock = append(g.Stock[:1], g.Stock[2:]...)
	v := CheckIntegrity(g)
	if len(v) == 0 {
		t.Fatal("expected a duplicate-card violation")
	}
}

func TestCheckIntegrityDetectsUnopenedPlayerWithMelds(t *testing.T) {
	g := freshDealtGame(t)
	g.Melds = append(g.Melds, TableMeld{ID: "m1", Owner: "a", Type: MeldCombination, Cards: []Card{
		c(Spades, 9), c(Hearts, 9), c(Clubs, 9),
	}})
	found := false
	for _, viol := range CheckIntegrity(g) {
		if viol.Kind == ErrNotOpened {
			found = true
		}
	}
	if !found {
		t.Fatal("expected ErrNotOpened violation for a table meld owned by a player who hasn't opened")
	}
}
