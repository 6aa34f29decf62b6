package engine

import "testing"

func c(suit Suit, rank Rank) Card { return Card{Suit: suit, Rank: rank} }
func joker(deckIdx uint8) Card    { return Card{Suit: JokerSuit, Rank: JokerRank, DeckIndex: deckIdx} }

func TestValidateSequenceBasic(t *testing.T) {
	seq := []Card{c(Spades, 4), c(Spades, 5), c(Spades, 6)}
	result := ValidateSequence(seq)
	if !result.Valid {
		t.Fatalf("expected valid sequence, got err %v", result.Err)
	}
	if result.Points != 15 {
		t.Fatalf("points = %d, want 15", result.Points)
	}
}

func TestValidateSequenceAceLowAndHigh(t *testing.T) {
	low := []Card{c(Hearts, Ace), c(Hearts, 2), c(Hearts, 3)}
	if r := ValidateSequence(low); !r.Valid {
		t.Fatalf("ace-low sequence should be valid: %v", r.Err)
	}
	high := []Card{c(Hearts, Queen), c(Hearts, King), c(Hearts, Ace)}
	if r := ValidateSequence(high); !r.Valid {
		t.Fatalf("ace-high sequence should be valid: %v", r.Err)
	}
}

func TestValidateSequenceRejectsWrap(t *testing.T) {
	wrap := []Card{c(Spades, King), c(Spades, Ace), c(Spades, 2)}
	result := ValidateSequence(wrap)
	if result.Valid {
		t.Fatal("king-ace-two must not be a valid sequence")
	}
	if result.Err.MeldCode != MeldWrap {
		t.Fatalf("meld code = %v, want %v", result.Err.MeldCode, MeldWrap)
	}
}

func TestValidateSequenceRejectsMixedSuits(t *testing.T) {
	mixed := []Card{c(Spades, 4), c(Hearts, 5), c(Spades, 6)}
	result := ValidateSequence(mixed)
	if result.Valid || result.Err.MeldCode != MeldMixedSuitsInSequence {
		t.Fatalf("expected mixedSuitsInSequence, got %+v", result)
	}
}

func TestValidateSequenceRejectsTwoJokers(t *testing.T) {
	cards := []Card{joker(0), joker(1), c(Spades, 5), c(Spades, 6)}
	result := ValidateSequence(cards)
	if result.Valid || result.Err.MeldCode != MeldMultipleJokers {
		t.Fatalf("expected multipleJokers, got %+v", result)
	}
}

func TestValidateSequenceWithJokerFillsGap(t *testing.T) {
	cards := []Card{c(Diamonds, 4), joker(0), c(Diamonds, 6)}
	result := ValidateSequence(cards)
	if !result.Valid {
		t.Fatalf("joker should fill the gap at 5: %v", result.Err)
	}
	if result.Points != 4+5+6 {
		t.Fatalf("points = %d, want %d", result.Points, 4+5+6)
	}
}

func TestValidateSequenceTooShort(t *testing.T) {
	result := ValidateSequence([]Card{c(Spades, 4), c(Spades, 5)})
	if result.Valid || result.Err.MeldCode != MeldTooShort {
		t.Fatalf("expected tooShort, got %+v", result)
	}
}

func TestValidateCombinationBasic(t *testing.T) {
	comb := []Card{c(Spades, 7), c(Hearts, 7), c(Clubs, 7)}
	result := ValidateCombination(comb)
	if !result.Valid {
		t.Fatalf("expected valid combination: %v", result.Err)
	}
	if result.Points != 21 {
		t.Fatalf("points = %d, want 21", result.Points)
	}
}

func TestValidateCombinationRejectsDuplicateSuit(t *testing.T) {
	comb := []Card{c(Spades, 7), c(Spades, 7), c(Clubs, 7)}
	result := ValidateCombination(comb)
	if result.Valid || result.Err.MeldCode != MeldSameSuitInCombination {
		t.Fatalf("expected sameSuitInCombination, got %+v", result)
	}
}

func TestValidateCombinationWithJoker(t *testing.T) {
	comb := []Card{c(Spades, 9), c(Hearts, 9), joker(0)}
	result := ValidateCombination(comb)
	if !result.Valid {
		t.Fatalf("expected valid combination with joker: %v", result.Err)
	}
	if result.Points != 9+9+9 {
		t.Fatalf("points = %d, want %d", result.Points, 27)
	}
}

func TestValidateOpeningBelowThreshold(t *testing.T) {
	melds := [][]Card{{c(Spades, 2), c(Spades, 3), c(Spades, 4)}}
	result := ValidateOpening(melds, DefaultHouseRules())
	if result.Valid {
		t.Fatal("9 points must not satisfy the default 40pt opening threshold")
	}
	if result.Err.Kind != ErrOpeningBelowThreshold {
		t.Fatalf("kind = %v, want ErrOpeningBelowThreshold", result.Err.Kind)
	}
}

func TestValidateOpeningMeetsThreshold(t *testing.T) {
	melds := [][]Card{
		{c(Spades, 10), c(Spades, Jack), c(Spades, Queen)},
		{c(Hearts, King), c(Diamonds, King), c(Clubs, King)},
	}
	result := ValidateOpening(melds, DefaultHouseRules())
	if !result.Valid {
		t.Fatalf("30+30=60 points should satisfy the opening: %v", result.Err)
	}
}

func TestValidateOpeningWithoutJokerRule(t *testing.T) {
	melds := [][]Card{
		{c(Spades, 4), c(Spades, 5), joker(0)},
		{c(Hearts, King), c(Diamonds, King), c(Clubs, King)},
	}
	// Without the rule, the joker counts as the 6 it stands for: total = 15+30 = 45.
	plain := ValidateOpening(melds, DefaultHouseRules())
	if !plain.Valid {
		t.Fatalf("45 total points should satisfy the plain opening rule: %v", plain.Err)
	}

	// With the rule, only clean (non-joker) points count toward the
	// threshold when the clean total alone falls short: 4+5+30 = 39 < 40.
	rules := DefaultHouseRules()
	rules.OpeningWithoutJoker = true
	strict := ValidateOpening(melds, rules)
	if strict.Valid {
		t.Fatalf("clean total of 39 must not satisfy openingWithoutJoker, got %+v", strict)
	}
}

func TestCanAttachToSequenceExtendsBothEnds(t *testing.T) {
	m := TableMeld{Type: MeldSequence, Cards: []Card{c(Clubs, 5), c(Clubs, 6), c(Clubs, 7)}}
	if r := CanAttach(c(Clubs, 4), m); !r.Valid {
		t.Fatalf("4 of clubs should extend below: %v", r.Err)
	}
	if r := CanAttach(c(Clubs, 8), m); !r.Valid {
		t.Fatalf("8 of clubs should extend above: %v", r.Err)
	}
	if r := CanAttach(c(Hearts, 8), m); r.Valid {
		t.Fatal("wrong suit must not attach")
	}
}

func TestCanAttachToCombinationRejectsDuplicateSuit(t *testing.T) {
	m := TableMeld{Type: MeldCombination, Cards: []Card{c(Spades, 9), c(Hearts, 9), c(Clubs, 9)}}
	if r := CanAttach(c(Spades, 9), m); r.Valid {
		t.Fatal("duplicate suit must not attach to a combination")
	}
	m2 := TableMeld{Type: MeldCombination, Cards: []Card{c(Spades, 9), c(Hearts, 9)}}
	if r := CanAttach(c(Diamonds, 9), m2); !r.Valid {
		t.Fatalf("distinct suit should attach: %v", r.Err)
	}
}

func TestCanSubstituteJokerRequiresExactPosition(t *testing.T) {
	m := TableMeld{Type: MeldSequence, Cards: []Card{c(Diamonds, 4), joker(0), c(Diamonds, 6)}}
	if err := CanSubstituteJoker(c(Diamonds, 5), m); err != nil {
		t.Fatalf("5 of diamonds should substitute the joker: %v", err)
	}
	if err := CanSubstituteJoker(c(Diamonds, 9), m); err == nil {
		t.Fatal("9 of diamonds must not substitute this joker")
	}
}

func TestValidateDiscardBlocksImmediatePickupReturn(t *testing.T) {
	picked := c(Hearts, 7)
	err := ValidateDiscard(DiscardCheck{
		Card:             picked,
		DrawnFromDiscard: &picked,
		PlayerHasOpened:  true,
		CardsInHandAfter: 5,
	})
	if err == nil || err.Kind != ErrDiscardIsPickedUpCard {
		t.Fatalf("expected ErrDiscardIsPickedUpCard, got %v", err)
	}
}

func TestValidateDiscardAllowsDeclaredDuplicate(t *testing.T) {
	picked := c(Hearts, 7)
	other := Card{Suit: Hearts, Rank: 7, DeckIndex: 1}
	err := ValidateDiscard(DiscardCheck{
		Card:             picked,
		DrawnFromDiscard: &picked,
		DeclareDuplicate: true,
		HandAfterDiscard: []Card{other},
		PlayerHasOpened:  true,
		CardsInHandAfter: 1,
	})
	if err != nil {
		t.Fatalf("declared duplicate present in hand should be allowed: %v", err)
	}
}

func TestValidateDiscardBlocksFirstRoundClose(t *testing.T) {
	err := ValidateDiscard(DiscardCheck{
		Card:               c(Spades, 3),
		PlayerHasOpened:    true,
		CardsInHandAfter:   0,
		FirstRoundComplete: false,
	})
	if err == nil || err.Kind != ErrCannotCloseFirstRound {
		t.Fatalf("expected ErrCannotCloseFirstRound, got %v", err)
	}
}

func TestValidateDiscardBlocksAttachableDiscardWithThreePlusPlayers(t *testing.T) {
	melds := []TableMeld{{Type: MeldSequence, Cards: []Card{c(Clubs, 5), c(Clubs, 6), c(Clubs, 7)}}}
	err := ValidateDiscard(DiscardCheck{
		Card:             c(Clubs, 8),
		PlayerHasOpened:  true,
		CardsInHandAfter: 4,
		TableMelds:       melds,
		NumActivePlayers: 3,
	})
	if err == nil || err.Kind != ErrDiscardAttachesToTable {
		t.Fatalf("expected ErrDiscardAttachesToTable, got %v", err)
	}
}
