package engine

// TotalCards is the canonical deck size: two 52-card decks plus four
// jokers (spec.md §3 I1).
const TotalCards = 108

// CardsPerPlayer is the initial deal size (spec.md §4.1).
const CardsPerPlayer = 13

// NewDeck builds the canonical 108-card deck: for each suit and rank
// 1..13, two cards (one per deck index), plus four jokers (two per
// deck index, since jokers carry no suit and are distinguished only
// by deck index). Grounded on original_source/src/game/deck.py's
// create_deck.
func NewDeck() []Card {
	cards := make([]Card, 0, TotalCards)
	for deckIdx := uint8(0); deckIdx < 2; deckIdx++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				cards = append(cards, Card{Suit: suit, Rank: rank, DeckIndex: deckIdx})
			}
		}
		cards = append(cards,
			Card{Suit: JokerSuit, Rank: JokerRank, DeckIndex: deckIdx},
			Card{Suit: JokerSuit, Rank: JokerRank, DeckIndex: deckIdx},
		)
	}
	return cards
}

// Shuffle performs a Fisher-Yates shuffle of cards in place using rng.
func Shuffle(cards []Card, rng RNG) {
	rng.ShuffleInPlace(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// DealResult is the outcome of an initial deal (spec.md §4.1).
type DealResult struct {
	Hands        [][]Card
	Stock        []Card
	FirstDiscard Card
}

// Deal deals CardsPerPlayer cards to each of numPlayers seats, one at
// a time in seating order, from an already-shuffled stock; the next
// card becomes the initial discard-pile top; the remainder is the
// stock. Fails if numPlayers is not in {2,3,4}.
func Deal(shuffledStock []Card, numPlayers int) (DealResult, error) {
	if numPlayers < 2 || numPlayers > 4 {
		return DealResult{}, newErr(ErrIllegalMeld, "numPlayers must be 2, 3, or 4")
	}
	needed := numPlayers*CardsPerPlayer + 1
	if len(shuffledStock) < needed {
		return DealResult{}, newErr(ErrNoCards, "not enough cards to deal")
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, CardsPerPlayer)
	}

	cursor := 0
	for round := 0; round < CardsPerPlayer; round++ {
		for p := 0; p < numPlayers; p++ {
			hands[p] = append(hands[p], shuffledStock[cursor])
			cursor++
		}
	}
	firstDiscard := shuffledStock[cursor]
	cursor++
	stock := append([]Card(nil), shuffledStock[cursor:]...)

	return DealResult{Hands: hands, Stock: stock, FirstDiscard: firstDiscard}, nil
}

// DrawFromStock pops the top of the stock. Returns ErrStockEmpty if
// the stock is empty; callers are expected to reshuffle first (see
// ReshuffleDiscardIntoStock) per spec.md §4.1.
func DrawFromStock(stock []Card) (Card, []Card, error) {
	if len(stock) == 0 {
		return Card{}, stock, newErr(ErrStockEmpty, "stock is empty")
	}
	card := stock[0]
	return card, stock[1:], nil
}

// DrawFromDiscard pops the current discard-pile top.
func DrawFromDiscard(discard []Card) (Card, []Card, error) {
	if len(discard) == 0 {
		return Card{}, discard, newErr(ErrNoCards, "discard pile is empty")
	}
	n := len(discard)
	card := discard[n-1]
	return card, discard[:n-1], nil
}

// ReshuffleDiscardIntoStock implements spec.md §4.1: when the stock
// is empty at the moment a player must draw from it, take the
// discard pile except its top, shuffle it with a fresh RNG draw from
// the same seed stream, and make it the new stock; the single
// remaining discard stays on top of a new, otherwise-empty discard
// pile. This operation preserves I1 (card count is unchanged, only
// relocated). Requires at least 2 cards in the discard pile.
func ReshuffleDiscardIntoStock(discard []Card, rng RNG) (newStock []Card, newDiscard []Card, err error) {
	if len(discard) < 2 {
		return nil, nil, newErr(ErrNoCards, "not enough cards to reshuffle")
	}
	n := len(discard)
	top := discard[n-1]
	toShuffle := append([]Card(nil), discard[:n-1]...)
	Shuffle(toShuffle, rng)
	return toShuffle, []Card{top}, nil
}
