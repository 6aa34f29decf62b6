package lobby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
	"github.com/g3ncl/scala-40-telegram-bot/internal/repository"
)

func newTestManager() *Manager {
	return NewManager(
		repository.NewInMemoryLobbyRepository(),
		repository.NewInMemoryGameRepository(),
		nil,
	)
}

func TestCreateAutoJoinsHost(t *testing.T) {
	m := newTestManager()
	res := m.Create(context.Background(), "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, res.Err)
	require.NotNil(t, res.Lobby)
	assert.Equal(t, "host", res.Lobby.HostUserID)
	assert.Len(t, res.Lobby.Players, 1)
	assert.Equal(t, StatusWaiting, res.Lobby.Status)
	assert.Len(t, res.Lobby.Code, engine.LobbyCodeLength)
}

func TestJoinAddsPlayerAndRejectsDuplicate(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, created.Err)

	joined := m.Join(ctx, "p2", created.Lobby.Code)
	require.NoError(t, joined.Err)
	assert.Len(t, joined.Lobby.Players, 2)

	dup := m.Join(ctx, "p2", created.Lobby.Code)
	assert.ErrorIs(t, dup.Err, ErrAlreadyInLobby)
}

func TestJoinRejectsUnknownCode(t *testing.T) {
	m := newTestManager()
	res := m.Join(context.Background(), "p2", "ZZZZZZ")
	assert.ErrorIs(t, res.Err, ErrLobbyNotFound)
}

func TestJoinRejectsFullLobby(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)
	require.NoError(t, m.Join(ctx, "p3", created.Lobby.Code).Err)
	require.NoError(t, m.Join(ctx, "p4", created.Lobby.Code).Err)

	res := m.Join(ctx, "p5", created.Lobby.Code)
	assert.ErrorIs(t, res.Err, ErrLobbyFull)
}

func TestLeaveNonHostRemovesOnlyThatPlayer(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)

	res := m.Leave(ctx, "p2", created.Lobby.ID)
	require.NoError(t, res.Err)
	assert.Len(t, res.Lobby.Players, 1)
	assert.Equal(t, StatusWaiting, res.Lobby.Status)
}

func TestLeaveHostTransfersHostWhenPlayersRemain(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)

	res := m.Leave(ctx, "host", created.Lobby.ID)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusWaiting, res.Lobby.Status)
	assert.Equal(t, "p2", res.Lobby.HostUserID)
	assert.Len(t, res.Lobby.Players, 1)
}

func TestLeaveHostClosesLobbyWhenLastPlayer(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())

	res := m.Leave(ctx, "host", created.Lobby.ID)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusClosed, res.Lobby.Status)
	assert.Len(t, res.Lobby.Players, 0)
}

func TestToggleReadyFlips(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())

	res := m.ToggleReady(ctx, "host", created.Lobby.ID)
	require.NoError(t, res.Err)
	assert.True(t, res.Lobby.Players[0].Ready)

	res = m.ToggleReady(ctx, "host", created.Lobby.ID)
	require.NoError(t, res.Err)
	assert.False(t, res.Lobby.Players[0].Ready)
}

func TestStartRejectsNonHost(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)

	res := m.Start(ctx, "p2", created.Lobby.ID, 42)
	assert.ErrorIs(t, res.Err, ErrNotHost)
}

func TestStartRejectsNotEnoughPlayers(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.ToggleReady(ctx, "host", created.Lobby.ID).Err)

	res := m.Start(ctx, "host", created.Lobby.ID, 42)
	assert.ErrorIs(t, res.Err, ErrNotEnoughPlayers)
}

func TestStartRejectsWhenNotAllReady(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)
	require.NoError(t, m.ToggleReady(ctx, "host", created.Lobby.ID).Err)

	res := m.Start(ctx, "host", created.Lobby.ID, 42)
	assert.ErrorIs(t, res.Err, ErrPlayersNotReady)
}

func TestStartDealsGameAndClosesLobbyToInGame(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	created := m.Create(ctx, "host", "chat1", engine.DefaultHouseRules())
	require.NoError(t, m.Join(ctx, "p2", created.Lobby.Code).Err)
	require.NoError(t, m.ToggleReady(ctx, "host", created.Lobby.ID).Err)
	require.NoError(t, m.ToggleReady(ctx, "p2", created.Lobby.ID).Err)

	res := m.Start(ctx, "host", created.Lobby.ID, 42)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusInGame, res.Lobby.Status)
	assert.NotEmpty(t, res.GameID)

	doc, err := m.games.GetGame(ctx, res.GameID)
	require.NoError(t, err)
	assert.Len(t, doc.Players, 2)
}
