package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
	"github.com/g3ncl/scala-40-telegram-bot/internal/repository"
)

// mockCollector captures committed events for test assertions,
// mirroring the teacher's mockBroadcaster but collecting engine
// events instead of websocket GameEvents.
type mockCollector struct {
	mu     sync.Mutex
	events []engine.Event
}

func (c *mockCollector) collect(events []engine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *mockCollector) findType(t string) *engine.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == t {
			return &c.events[i]
		}
	}
	return nil
}

func newTestService(t *testing.T) (*GameService, repository.GameRepository, *mockCollector) {
	t.Helper()
	repo := repository.NewInMemoryGameRepository()
	collector := &mockCollector{}
	svc := NewGameService(repo, nil, nil, 0, collector.collect)
	return svc, repo, collector
}

// seedGame deals a fresh hand and pins the first turn to playerIDs[0],
// regardless of which seat DealHand's dealer-rotation rules would
// otherwise pick, so tests don't need to track dealer/seat arithmetic.
func seedGame(t *testing.T, repo repository.GameRepository, id string, playerIDs []string, seed uint64) {
	t.Helper()
	g, err := engine.NewGame(id, playerIDs, engine.DefaultHouseRules(), seed)
	require.NoError(t, err)
	_, err = engine.DealHand(g)
	require.NoError(t, err)
	g.CurrentPlayerIdx = 0
	g.RoundStarterID = playerIDs[0]
	g.Phase = engine.AwaitDraw
	require.NoError(t, repo.SaveGame(context.Background(), engine.ExportState(g)))
}

// giveHand sets playerID's hand to cards and deals every other card of
// the game back out to the other hands (keeping their sizes), one
// discard and the stock, so the 108-card total that ImportState checks
// still holds.
func giveHand(t *testing.T, g *engine.GameState, playerID string, cards []engine.Card) {
	t.Helper()
	sizes := make([]int, len(g.Players))
	rest := append([]engine.Card(nil), g.Stock...)
	rest = append(rest, g.Discard...)
	for i, p := range g.Players {
		sizes[i] = len(p.Hand)
		rest = append(rest, p.Hand...)
	}
	for _, want := range cards {
		idx := -1
		for i, c := range rest {
			if c == want {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0, "card %v is not in the game", want)
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			g.Players[i].Hand = cards
			continue
		}
		g.Players[i].Hand = append([]engine.Card(nil), rest[:sizes[i]]...)
		rest = rest[sizes[i]:]
	}
	g.Discard = []engine.Card{rest[0]}
	g.Stock = append([]engine.Card(nil), rest[1:]...)
}

func TestApplyActionDrawStockAdvancesPhase(t *testing.T) {
	svc, repo, collector := newTestService(t)
	ctx := context.Background()
	seedGame(t, repo, "g1", []string{"a", "b"}, 7)

	events, err := svc.ApplyAction(ctx, ActionRequest{GameID: "g1", PlayerID: "a", Nonce: "n1", Action: ActionDrawStock})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "draw", events[len(events)-1].Type)
	assert.NotNil(t, collector.findType("draw"))

	doc, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Version)
}

func TestApplyActionRejectsWrongTurn(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedGame(t, repo, "g1", []string{"a", "b"}, 7)

	_, err := svc.ApplyAction(ctx, ActionRequest{GameID: "g1", PlayerID: "b", Nonce: "n1", Action: ActionDrawStock})
	require.Error(t, err)
	ruleErr, ok := err.(*engine.RuleError)
	require.True(t, ok)
	assert.Equal(t, engine.ErrNotYourTurn, ruleErr.Kind)
}

func TestApplyActionIdempotentReplayShortCircuits(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedGame(t, repo, "g1", []string{"a", "b"}, 7)

	first, err := svc.ApplyAction(ctx, ActionRequest{GameID: "g1", PlayerID: "a", Nonce: "dup-1", Action: ActionDrawStock})
	require.NoError(t, err)

	docAfterFirst, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)

	second, err := svc.ApplyAction(ctx, ActionRequest{GameID: "g1", PlayerID: "a", Nonce: "dup-1", Action: ActionDrawStock})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	docAfterSecond, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, docAfterFirst.Version, docAfterSecond.Version, "a replayed nonce must not persist a second mutation")
}

func TestApplyActionUnknownGameReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ApplyAction(context.Background(), ActionRequest{GameID: "missing", PlayerID: "a", Nonce: "n1", Action: ActionDrawStock})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplyActionRecordsClosureStats(t *testing.T) {
	repo := repository.NewInMemoryGameRepository()
	users := repository.NewInMemoryUserRepository()
	svc := NewGameService(repo, nil, users, 0, nil)
	ctx := context.Background()
	seedGame(t, repo, "g1", []string{"a", "b"}, 7)

	doc, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	g, err := engine.ImportState(*doc)
	require.NoError(t, err)

	a := g.GetPlayer("a")
	a.HasOpened = true
	giveHand(t, g, "a", []engine.Card{
		{Suit: engine.Spades, Rank: engine.Rank(4)},
	})
	g.CurrentPlayerIdx = 0
	g.Phase = engine.AwaitDiscard
	g.FirstRoundComplete = true
	require.NoError(t, repo.SaveGame(ctx, engine.ExportState(g)))

	_, err = svc.ApplyAction(ctx, ActionRequest{
		GameID:   "g1",
		PlayerID: "a",
		Nonce:    "discard-1",
		Action:   ActionDiscard,
		Card:     engine.Card{Suit: engine.Spades, Rank: engine.Rank(4)},
	})
	require.NoError(t, err)

	closer, err := users.GetUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, closer.HandsClosed)
}

func TestApplyActionOpenRoundTrip(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedGame(t, repo, "g1", []string{"a", "b"}, 7)

	doc, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	g, err := engine.ImportState(*doc)
	require.NoError(t, err)

	// Force a hand that can open immediately so the test doesn't
	// depend on the deterministic shuffle's dealt cards.
	giveHand(t, g, "a", []engine.Card{
		{Suit: engine.Spades, Rank: engine.Rank(4)},
		{Suit: engine.Spades, Rank: engine.Rank(5)},
		{Suit: engine.Spades, Rank: engine.Rank(6)},
		{Suit: engine.Hearts, Rank: engine.Rank(10)},
		{Suit: engine.Clubs, Rank: engine.Rank(10)},
		{Suit: engine.Diamonds, Rank: engine.Rank(10)},
	})
	g.CurrentPlayerIdx = 0
	g.Phase = engine.AwaitPlay
	require.NoError(t, repo.SaveGame(ctx, engine.ExportState(g)))

	events, err := svc.ApplyAction(ctx, ActionRequest{
		GameID:   "g1",
		PlayerID: "a",
		Nonce:    "open-1",
		Action:   ActionOpen,
		Melds: [][]engine.Card{
			{
				{Suit: engine.Spades, Rank: engine.Rank(4)},
				{Suit: engine.Spades, Rank: engine.Rank(5)},
				{Suit: engine.Spades, Rank: engine.Rank(6)},
			},
			{
				{Suit: engine.Hearts, Rank: engine.Rank(10)},
				{Suit: engine.Clubs, Rank: engine.Rank(10)},
				{Suit: engine.Diamonds, Rank: engine.Rank(10)},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "open", events[0].Type)

	doc, err = repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, doc.Melds, 2)
}
