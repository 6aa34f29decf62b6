// Package repository defines the persistence contracts for games,
// lobbies, and user statistics, and provides an in-memory reference
// implementation plus a Postgres/Redis-backed production one.
//
// Grounded on original_source/src/db/repository.py's Protocol-based
// GameRepository/LobbyRepository/UserRepository, translated to Go
// interfaces; the version-conflict contract follows
// original_source/src/db/memory.py's raise-on-stale-version behaviour.
package repository

import (
	"context"
	"errors"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// ErrNotFound is returned by Get* methods when no record exists.
var ErrNotFound = errors.New("repository: not found")

// ErrVersionConflict is returned by Save* methods when the caller's
// copy is stale relative to the stored version (spec.md §4.7
// optimistic concurrency).
var ErrVersionConflict = errors.New("repository: version conflict")

// GameRepository persists game documents keyed by game id. Delete
// follows spec.md §4.7's three-outcome contract
// (`delete(id, expectedVersion) -> ok | VersionConflict | NotFound`):
// expectedVersion must match the stored document's version or the
// call fails without deleting anything.
type GameRepository interface {
	GetGame(ctx context.Context, gameID string) (*engine.GameDoc, error)
	SaveGame(ctx context.Context, doc engine.GameDoc) error
	DeleteGame(ctx context.Context, gameID string, expectedVersion int64) error
}

// Lobby is the persisted shape of a lobby (spec.md §4.6). ExpiresAt
// backs the TTL spec.md §4.6 requires: a lobby (waiting or closed) is
// purged lazily the first time a lookup notices it has expired,
// rather than by a background sweep.
type Lobby struct {
	ID         string
	Code       string
	HostUserID string
	ChatID     string
	Status     string
	Players    []LobbyPlayer
	Settings   engine.HouseRules
	CreatedAt  int64 // unix seconds
	ExpiresAt  int64 // unix seconds; zero means no expiry
	Version    int64
}

// LobbyPlayer is one seat in a lobby's waiting room.
type LobbyPlayer struct {
	UserID string
	Ready  bool
}

// LobbyRepository persists lobby documents, keyed by id or by the
// short join code players type in (spec.md §4.6). Delete follows the
// same expectedVersion contract as GameRepository.DeleteGame.
type LobbyRepository interface {
	GetLobby(ctx context.Context, lobbyID string) (*Lobby, error)
	GetLobbyByCode(ctx context.Context, code string) (*Lobby, error)
	SaveLobby(ctx context.Context, lobby Lobby) error
	DeleteLobby(ctx context.Context, lobbyID string, expectedVersion int64) error
}

// UserStats is the supplemental per-user win/loss/hand record (C7
// supplement, grounded on
// original_source/src/db/repository.py's UserRepository /
// original_source/src/db/memory.py's InMemoryUserRepository).
type UserStats struct {
	UserID        string
	GamesPlayed   int
	GamesWon      int
	HandsClosed   int
	TotalHandCard int // cumulative penalty points absorbed across all hands
}

// UserRepository persists per-user aggregate statistics.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*UserStats, error)
	SaveUser(ctx context.Context, stats UserStats) error
	UpdateUserStats(ctx context.Context, userID string, delta UserStats) error
}
