package engine

import "fmt"

// SchemaVersion is bumped whenever the exported document shape
// changes in a backward-incompatible way (spec.md §4.9, §9 "keep the
// codec stable and schema-versioned").
const SchemaVersion = 1

// CardDoc is the wire shape of a Card.
type CardDoc struct {
	Suit      string `json:"suit"`
	Rank      int    `json:"rank"`
	DeckIndex uint8  `json:"deckIndex"`
}

// PlayerDoc is the wire shape of a PlayerState.
type PlayerDoc struct {
	ID           string    `json:"id"`
	Hand         []CardDoc `json:"hand"`
	HasOpened    bool      `json:"hasOpened"`
	Score        int       `json:"score"`
	IsEliminated bool      `json:"isEliminated"`
}

// MeldDoc is the wire shape of a TableMeld.
type MeldDoc struct {
	ID    string    `json:"id"`
	Owner string    `json:"owner"`
	Type  string    `json:"type"`
	Cards []CardDoc `json:"cards"`
}

// GameDoc is the self-describing export document produced by
// ExportState (spec.md §4.9): schema version plus every field of
// §3's data model.
type GameDoc struct {
	SchemaVersion int         `json:"schemaVersion"`
	ID            string      `json:"id"`
	Players       []PlayerDoc `json:"players"`
	Stock         []CardDoc   `json:"stock"`
	Discard       []CardDoc   `json:"discard"`
	Melds         []MeldDoc   `json:"melds"`
	Settings      HouseRules  `json:"settings"`

	CurrentPlayerIdx   int    `json:"currentPlayerIdx"`
	Phase              string `json:"phase"`
	RoundNumber        int    `json:"roundNumber"`
	FirstRoundComplete bool   `json:"firstRoundComplete"`
	RoundStarterID     string `json:"roundStarterId"`
	DealerIdx          int    `json:"dealerIdx"`
	HandNumber         int    `json:"handNumber"`
	Status             string `json:"status"`

	Seed    uint64 `json:"seed"`
	Version int64  `json:"version"`

	// LastNonce/LastEvents back the idempotency contract (spec.md §5):
	// a request replayed with the same nonce returns LastEvents
	// without re-applying the action.
	LastNonce  string     `json:"lastNonce"`
	LastEvents []EventDoc `json:"lastEvents,omitempty"`
}

// EventDoc is the wire shape of an Event.
type EventDoc struct {
	Type     string         `json:"type"`
	GameID   string         `json:"gameId"`
	PlayerID string         `json:"playerId"`
	Fields   map[string]any `json:"fields,omitempty"`
}

func eventToDoc(e Event) EventDoc {
	return EventDoc{Type: e.Type, GameID: e.GameID, PlayerID: e.PlayerID, Fields: e.Fields}
}

func eventFromDoc(d EventDoc) Event {
	return Event{Type: d.Type, GameID: d.GameID, PlayerID: d.PlayerID, Fields: d.Fields}
}

func eventsToDocs(events []Event) []EventDoc {
	out := make([]EventDoc, len(events))
	for i, e := range events {
		out[i] = eventToDoc(e)
	}
	return out
}

func eventsFromDocs(docs []EventDoc) []Event {
	out := make([]Event, len(docs))
	for i, d := range docs {
		out[i] = eventFromDoc(d)
	}
	return out
}

func cardToDoc(c Card) CardDoc {
	return CardDoc{Suit: c.Suit.String(), Rank: int(c.Rank), DeckIndex: c.DeckIndex}
}

func cardFromDoc(d CardDoc) (Card, error) {
	suit, err := suitFromString(d.Suit)
	if err != nil {
		return Card{}, err
	}
	return Card{Suit: suit, Rank: Rank(d.Rank), DeckIndex: d.DeckIndex}, nil
}

func suitFromString(s string) (Suit, error) {
	for _, candidate := range []Suit{Spades, Hearts, Diamonds, Clubs, JokerSuit} {
		if candidate.String() == s {
			return candidate, nil
		}
	}
	return 0, newErr(ErrCorruptState, "unknown suit in document: "+s)
}

func cardsToDocs(cards []Card) []CardDoc {
	out := make([]CardDoc, len(cards))
	for i, c := range cards {
		out[i] = cardToDoc(c)
	}
	return out
}

func cardsFromDocs(docs []CardDoc) ([]Card, error) {
	out := make([]Card, len(docs))
	for i, d := range docs {
		c, err := cardFromDoc(d)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// ExportState produces a self-describing document from a game state
// (spec.md §4.9's exportState).
func ExportState(g *GameState) GameDoc {
	players := make([]PlayerDoc, len(g.Players))
	for i, p := range g.Players {
		players[i] = PlayerDoc{
			ID:           p.ID,
			Hand:         cardsToDocs(p.Hand),
			HasOpened:    p.HasOpened,
			Score:        p.Score,
			IsEliminated: p.IsEliminated,
		}
	}
	melds := make([]MeldDoc, len(g.Melds))
	for i, m := range g.Melds {
		melds[i] = MeldDoc{ID: m.ID, Owner: m.Owner, Type: string(m.Type), Cards: cardsToDocs(m.Cards)}
	}
	return GameDoc{
		SchemaVersion:      SchemaVersion,
		ID:                 g.ID,
		Players:            players,
		Stock:              cardsToDocs(g.Stock),
		Discard:            cardsToDocs(g.Discard),
		Melds:              melds,
		Settings:           g.Settings,
		CurrentPlayerIdx:   g.CurrentPlayerIdx,
		Phase:              string(g.Phase),
		RoundNumber:        g.RoundNumber,
		FirstRoundComplete: g.FirstRoundComplete,
		RoundStarterID:     g.RoundStarterID,
		DealerIdx:          g.DealerIdx,
		HandNumber:         g.HandNumber,
		Status:             string(g.Status),
		Seed:               g.Seed,
		Version:            g.Version,
		LastNonce:          g.LastNonce,
		LastEvents:         eventsToDocs(g.LastEvents),
	}
}

// ImportState reconstructs a game from a document, validates the
// schema version, and invokes the integrity checker before returning
// (spec.md §4.9); fails with CorruptState if any violation is found.
func ImportState(doc GameDoc) (*GameState, error) {
	if doc.SchemaVersion != SchemaVersion {
		return nil, newErr(ErrCorruptState, fmt.Sprintf("unsupported schema version %d", doc.SchemaVersion))
	}

	players := make([]PlayerState, len(doc.Players))
	for i, pd := range doc.Players {
		hand, err := cardsFromDocs(pd.Hand)
		if err != nil {
			return nil, err
		}
		players[i] = PlayerState{
			ID:           pd.ID,
			Hand:         hand,
			HasOpened:    pd.HasOpened,
			Score:        pd.Score,
			IsEliminated: pd.IsEliminated,
		}
	}

	stock, err := cardsFromDocs(doc.Stock)
	if err != nil {
		return nil, err
	}
	discard, err := cardsFromDocs(doc.Discard)
	if err != nil {
		return nil, err
	}
	melds := make([]TableMeld, len(doc.Melds))
	for i, md := range doc.Melds {
		cards, err := cardsFromDocs(md.Cards)
		if err != nil {
			return nil, err
		}
		melds[i] = TableMeld{ID: md.ID, Owner: md.Owner, Type: MeldType(md.Type), Cards: cards}
	}

	g := &GameState{
		ID:                 doc.ID,
		Players:            players,
		Stock:              stock,
		Discard:            discard,
		Melds:              melds,
		Settings:           doc.Settings,
		CurrentPlayerIdx:   doc.CurrentPlayerIdx,
		Phase:              Phase(doc.Phase),
		RoundNumber:        doc.RoundNumber,
		FirstRoundComplete: doc.FirstRoundComplete,
		RoundStarterID:     doc.RoundStarterID,
		DealerIdx:          doc.DealerIdx,
		HandNumber:         doc.HandNumber,
		Status:             Status(doc.Status),
		Seed:               doc.Seed,
		Version:            doc.Version,
		LastNonce:          doc.LastNonce,
		LastEvents:         eventsFromDocs(doc.LastEvents),
	}

	if violations := CheckIntegrity(g); len(violations) > 0 {
		return nil, newErr(ErrCorruptState, fmt.Sprintf("%d integrity violations on import: %v", len(violations), violations))
	}
	return g, nil
}

// PublicView is what every player in the game may see (spec.md §6).
type PublicView struct {
	Players      []PublicPlayerView `json:"players"`
	DiscardTop   *CardDoc           `json:"discardTop,omitempty"`
	StockSize    int                `json:"stockSize"`
	Melds        []MeldDoc          `json:"melds"`
	CurrentTurn  string             `json:"currentTurn"`
	Phase        string             `json:"phase"`
	Scores       map[string]int     `json:"scores"`
	HandNumber   int                `json:"handNumber"`
	RoundNumber  int                `json:"roundNumber"`
	Status       string             `json:"status"`
}

// PublicPlayerView redacts a player's hand down to a size, per
// spec.md §6 "Public view".
type PublicPlayerView struct {
	ID           string `json:"id"`
	HandSize     int    `json:"handSize"`
	HasOpened    bool   `json:"hasOpened"`
	IsEliminated bool   `json:"isEliminated"`
}

// PrivateView is visible only to the requesting player: their hand.
type PrivateView struct {
	Hand []CardDoc `json:"hand"`
}

// BuildPublicView produces the public view of a game state,
// grounded on service/internal/game/sync_state.go's
// ObfGameState/GetCurrentObfuscatedGameState pattern in the teacher
// repo, generalized from "obfuscated for one viewer" to "public for
// all viewers" since Scala 40 has no viewer-specific redaction beyond
// hand contents.
func BuildPublicView(g *GameState) PublicView {
	players := make([]PublicPlayerView, len(g.Players))
	scores := make(map[string]int, len(g.Players))
	for i, p := range g.Players {
		players[i] = PublicPlayerView{ID: p.ID, HandSize: len(p.Hand), HasOpened: p.HasOpened, IsEliminated: p.IsEliminated}
		scores[p.ID] = p.Score
	}
	melds := make([]MeldDoc, len(g.Melds))
	for i, m := range g.Melds {
		melds[i] = MeldDoc{ID: m.ID, Owner: m.Owner, Type: string(m.Type), Cards: cardsToDocs(m.Cards)}
	}
	var top *CardDoc
	if c, ok := g.DiscardTop(); ok {
		d := cardToDoc(c)
		top = &d
	}
	return PublicView{
		Players:     players,
		DiscardTop:  top,
		StockSize:   len(g.Stock),
		Melds:       melds,
		CurrentTurn: g.CurrentPlayer().ID,
		Phase:       string(g.Phase),
		Scores:      scores,
		HandNumber:  g.HandNumber,
		RoundNumber: g.RoundNumber,
		Status:      string(g.Status),
	}
}

// BuildPrivateView returns the requesting player's hand.
func BuildPrivateView(g *GameState, playerID string) PrivateView {
	p := g.GetPlayer(playerID)
	if p == nil {
		return PrivateView{}
	}
	return PrivateView{Hand: cardsToDocs(p.Hand)}
}
