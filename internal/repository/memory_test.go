package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

func TestInMemoryGameRepositorySaveAndGet(t *testing.T) {
	repo := NewInMemoryGameRepository()
	ctx := context.Background()

	doc := engine.GameDoc{ID: "g1", SchemaVersion: engine.SchemaVersion, Version: 0}
	require.NoError(t, repo.SaveGame(ctx, doc))

	got, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	assert.Equal(t, int64(1), got.Version)
}

func TestInMemoryGameRepositoryGetMissingReturnsNotFound(t *testing.T) {
	repo := NewInMemoryGameRepository()
	_, err := repo.GetGame(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryGameRepositoryRejectsStaleVersion(t *testing.T) {
	repo := NewInMemoryGameRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveGame(ctx, engine.GameDoc{ID: "g1", Version: 0}))
	// Stored version is now 1; saving again with the caller's stale
	// Version: 0 must be rejected rather than silently overwritten.
	err := repo.SaveGame(ctx, engine.GameDoc{ID: "g1", Version: 0})
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The correct, current version succeeds.
	require.NoError(t, repo.SaveGame(ctx, engine.GameDoc{ID: "g1", Version: 1}))
}

func TestInMemoryGameRepositoryGetReturnsDefensiveCopy(t *testing.T) {
	repo := NewInMemoryGameRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveGame(ctx, engine.GameDoc{ID: "g1", Version: 0, RoundNumber: 1}))

	got, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	got.RoundNumber = 99

	again, err := repo.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.RoundNumber, "mutating a returned doc must not affect the stored copy")
}

func TestInMemoryLobbyRepositoryCRUDAndCodeLookup(t *testing.T) {
	repo := NewInMemoryLobbyRepository()
	ctx := context.Background()

	lobby := Lobby{ID: "l1", Code: "ABCD", HostUserID: "u1", Status: "waiting",
		Players: []LobbyPlayer{{UserID: "u1", Ready: false}}}
	require.NoError(t, repo.SaveLobby(ctx, lobby))

	byID, err := repo.GetLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", byID.Code)

	byCode, err := repo.GetLobbyByCode(ctx, "ABCD")
	require.NoError(t, err)
	assert.Equal(t, "l1", byCode.ID)

	_, err = repo.GetLobbyByCode(ctx, "ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteLobby(ctx, "l1", 1))
	_, err = repo.GetLobby(ctx, "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryLobbyRepositoryDeleteRejectsStaleVersionAndMissingID(t *testing.T) {
	repo := NewInMemoryLobbyRepository()
	ctx := context.Background()

	err := repo.DeleteLobby(ctx, "nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SaveLobby(ctx, Lobby{ID: "l1", Code: "ABCD"}))
	err = repo.DeleteLobby(ctx, "l1", 0)
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, repo.DeleteLobby(ctx, "l1", 1))
}

func TestInMemoryLobbyRepositorySaveRejectsStaleVersion(t *testing.T) {
	repo := NewInMemoryLobbyRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveLobby(ctx, Lobby{ID: "l1", Code: "ABCD"}))
	err := repo.SaveLobby(ctx, Lobby{ID: "l1", Code: "ABCD", Version: 0})
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, repo.SaveLobby(ctx, Lobby{ID: "l1", Code: "ABCD", Version: 1}))
}

func TestInMemoryLobbyRepositoryExpiredLobbyIsPurgedLazily(t *testing.T) {
	repo := NewInMemoryLobbyRepository()
	ctx := context.Background()

	lobby := Lobby{ID: "l1", Code: "ABCD", ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	require.NoError(t, repo.SaveLobby(ctx, lobby))

	_, err := repo.GetLobby(ctx, "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryLobbyRepositoryPlayersSliceIsCopied(t *testing.T) {
	repo := NewInMemoryLobbyRepository()
	ctx := context.Background()

	lobby := Lobby{ID: "l1", Code: "WXYZ", Players: []LobbyPlayer{{UserID: "u1"}}}
	require.NoError(t, repo.SaveLobby(ctx, lobby))

	got, err := repo.GetLobby(ctx, "l1")
	require.NoError(t, err)
	got.Players[0].Ready = true

	again, err := repo.GetLobby(ctx, "l1")
	require.NoError(t, err)
	assert.False(t, again.Players[0].Ready, "mutating a returned lobby's players must not affect the stored copy")
}

func TestInMemoryUserRepositoryUpdateStatsAccumulates(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.UpdateUserStats(ctx, "u1", UserStats{GamesPlayed: 1, GamesWon: 1}))
	require.NoError(t, repo.UpdateUserStats(ctx, "u1", UserStats{GamesPlayed: 1, HandsClosed: 2}))

	got, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.GamesPlayed)
	assert.Equal(t, 1, got.GamesWon)
	assert.Equal(t, 2, got.HandsClosed)
}
