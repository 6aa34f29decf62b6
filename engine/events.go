package engine

// Event is one entry in the structured log emitted per committed
// action (spec.md §6). Type is one of the fixed event names:
// hand_start, draw, reshuffle, open, lay_meld, attach,
// substitute_joker, discard, closure, elimination, hand_end,
// match_end, invalid_action.
type Event struct {
	Type     string
	GameID   string
	PlayerID string
	Fields   map[string]any
}

func newEvent(typ, gameID, playerID string, fields map[string]any) Event {
	if fields == nil {
		fields = map[string]any{}
	}
	return Event{Type: typ, GameID: gameID, PlayerID: playerID, Fields: fields}
}
