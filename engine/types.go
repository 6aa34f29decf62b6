package engine

// Phase is one of the turn-engine states from spec.md §4.4.
type Phase string

const (
	AwaitDraw    Phase = "AWAIT_DRAW"
	AwaitPlay    Phase = "AWAIT_PLAY"
	AwaitDiscard Phase = "AWAIT_DISCARD"
	TurnEnd      Phase = "TURN_END"
)

// Status is the match-level status from spec.md §3.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusHandEnd  Status = "hand_end"
	StatusFinished Status = "finished"
)

// MeldType distinguishes a sequence from a combination (spec.md §4.2).
type MeldType string

const (
	MeldSequence    MeldType = "sequence"
	MeldCombination MeldType = "combination"
)

// HouseRules holds the per-game configuration flags from spec.md §6.
type HouseRules struct {
	EliminationScore    int  // default 101; 201 also recommended
	OpeningThreshold    int  // default 40
	OpenWithDiscard     bool // draw-from-discard before opening, if used in this turn's opening
	CloseInHandBonus    bool // double opponents' scores on single-turn close; 100pt penalty for never acting
	OpeningWithoutJoker bool // joker may not count toward the 40pt opening unless clean melds alone reach it
}

// DefaultHouseRules mirrors original_source/src/utils/constants.py's
// DEFAULT_ELIMINATION_SCORE and OPENING_THRESHOLD, and spec.md §6's
// default column.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		EliminationScore: 101,
		OpeningThreshold: 40,
	}
}

// PlayerState is one seat's state within a game (spec.md §3).
type PlayerState struct {
	ID           string
	Hand         []Card
	HasOpened    bool
	Score        int
	IsEliminated bool
}

// TableMeld is a sequence or combination laid on the table (spec.md
// §3). Owner is the player id that first laid it down; anybody who
// has opened may attach to it.
type TableMeld struct {
	ID    string
	Owner string
	Type  MeldType
	Cards []Card
}

// jokerCount returns how many jokers are present in the meld.
func (m TableMeld) jokerCount() int {
	n := 0
	for _, c := range m.Cards {
		if c.IsJoker() {
			n++
		}
	}
	return n
}

// TurnScratch is the per-turn transient state from spec.md §3's
// "Per-turn scratch": the card just drawn from the discard pile this
// turn (if any — needed to forbid immediately re-discarding it) and
// the withdrawn-joker pending-use slot from §4.4's substituteJoker
// contract. Cleared on TURN_END (spec.md §9 design notes).
type TurnScratch struct {
	// Drawn is the card drawn this turn, if any.
	Drawn *Card
	// DrawnFromDiscard is true when Drawn came from the discard pile,
	// which is what makes it subject to the "must use / can't
	// immediately re-discard" obligation.
	DrawnFromDiscard bool
	// PendingJoker is a joker withdrawn via substituteJoker this turn
	// that has not yet been consumed by a layDownMeld or attachCard.
	// The turn cannot reach TURN_END while this is non-nil.
	PendingJoker *Card
	// OpenedThisTurn records whether this turn's open() call is what
	// set HasOpened, needed to enforce the close-in-hand-bonus
	// same-turn open-and-close prohibition (SPEC_FULL.md open question
	// #1).
	OpenedThisTurn bool
}

// GameState is the complete state of one Scala 40 match (spec.md §3).
// Everything the engine needs to resolve an action lives here; the
// engine package itself holds no state between calls.
type GameState struct {
	ID       string
	Players  []PlayerState
	Stock    []Card
	Discard  []Card
	Melds    []TableMeld
	Settings HouseRules

	CurrentPlayerIdx   int
	Phase              Phase
	RoundNumber        int
	FirstRoundComplete bool
	// RoundStarterID is the player id whose turn began the current
	// round; FirstRoundComplete becomes true the moment play returns
	// to this seat (spec.md §4.4 turn advancement).
	RoundStarterID string
	DealerIdx      int
	HandNumber     int
	Status         Status

	Scratch TurnScratch

	// Seed drives all deterministic reshuffles for the lifetime of the
	// game (spec.md §5 "RNG seeds ... are derived from a per-game seed
	// stored in the game document"). Each reshuffle advances it so the
	// stream never repeats within a game.
	Seed uint64

	// Version is the optimistic-concurrency token (spec.md §4.7).
	Version int64

	// LastNonce/LastEvents back the idempotency contract (spec.md §5):
	// a repeated nonce short-circuits to this stored result.
	LastNonce  string
	LastEvents []Event
}

// CurrentPlayer returns the player whose turn it currently is.
func (g *GameState) CurrentPlayer() *PlayerState {
	return &g.Players[g.CurrentPlayerIdx]
}

// GetPlayer finds a player by id, or nil.
func (g *GameState) GetPlayer(id string) *PlayerState {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// ActivePlayers returns the non-eliminated players, in seating order.
func (g *GameState) ActivePlayers() []*PlayerState {
	var out []*PlayerState
	for i := range g.Players {
		if !g.Players[i].IsEliminated {
			out = append(out, &g.Players[i])
		}
	}
	return out
}

// DiscardTop returns the visible top of the discard pile, or false if
// empty (spec.md I5: only the top is accessible).
func (g *GameState) DiscardTop() (Card, bool) {
	if len(g.Discard) == 0 {
		return Card{}, false
	}
	return g.Discard[len(g.Discard)-1], true
}

// findMeld locates a table meld by id.
func (g *GameState) findMeld(id string) *TableMeld {
	for i := range g.Melds {
		if g.Melds[i].ID == id {
			return &g.Melds[i]
		}
	}
	return nil
}
