package repository

import (
	"context"
	"sync"
	"time"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// InMemoryGameRepository is the required reference implementation
// used by tests, the simulate/inspect CLIs, and as a local dev
// fallback when no Postgres DSN is configured. Grounded on
// original_source/src/db/memory.py's InMemoryGameRepository: SaveGame
// rejects a stale version the same way the Python dict-based store
// does. GetGame and SaveGame copy the GameDoc struct only; its slices
// (players, cards, melds, events) are shared with the caller, not
// deep-copied.
type InMemoryGameRepository struct {
	mu    sync.Mutex
	games map[string]engine.GameDoc
}

func NewInMemoryGameRepository() *InMemoryGameRepository {
	return &InMemoryGameRepository{games: make(map[string]engine.GameDoc)}
}

func (r *InMemoryGameRepository) GetGame(_ context.Context, gameID string) (*engine.GameDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := doc
	return &clone, nil
}

func (r *InMemoryGameRepository) SaveGame(_ context.Context, doc engine.GameDoc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.games[doc.ID]
	if ok && existing.Version != doc.Version {
		return ErrVersionConflict
	}
	doc.Version++
	r.games[doc.ID] = doc
	return nil
}

func (r *InMemoryGameRepository) DeleteGame(_ context.Context, gameID string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(r.games, gameID)
	return nil
}

// InMemoryLobbyRepository mirrors
// original_source/src/db/memory.py's InMemoryLobbyRepository.
type InMemoryLobbyRepository struct {
	mu      sync.Mutex
	lobbies map[string]Lobby
}

func NewInMemoryLobbyRepository() *InMemoryLobbyRepository {
	return &InMemoryLobbyRepository{lobbies: make(map[string]Lobby)}
}

func (r *InMemoryLobbyRepository) GetLobby(_ context.Context, lobbyID string) (*Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lobbies[lobbyID]
	if !ok {
		return nil, ErrNotFound
	}
	if lobbyExpired(l) {
		delete(r.lobbies, lobbyID)
		return nil, ErrNotFound
	}
	clone := cloneLobby(l)
	return &clone, nil
}

func (r *InMemoryLobbyRepository) GetLobbyByCode(_ context.Context, code string) (*Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.lobbies {
		if l.Code != code {
			continue
		}
		if lobbyExpired(l) {
			delete(r.lobbies, id)
			return nil, ErrNotFound
		}
		clone := cloneLobby(l)
		return &clone, nil
	}
	return nil, ErrNotFound
}

// lobbyExpired reports whether l's TTL (spec.md §4.6) has elapsed. A
// zero ExpiresAt means no expiry.
func lobbyExpired(l Lobby) bool {
	return l.ExpiresAt != 0 && time.Now().Unix() > l.ExpiresAt
}

func (r *InMemoryLobbyRepository) SaveLobby(_ context.Context, lobby Lobby) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.lobbies[lobby.ID]
	if ok && existing.Version != lobby.Version {
		return ErrVersionConflict
	}
	lobby.Version++
	r.lobbies[lobby.ID] = cloneLobby(lobby)
	return nil
}

func (r *InMemoryLobbyRepository) DeleteLobby(_ context.Context, lobbyID string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.lobbies[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(r.lobbies, lobbyID)
	return nil
}

func cloneLobby(l Lobby) Lobby {
	players := make([]LobbyPlayer, len(l.Players))
	copy(players, l.Players)
	l.Players = players
	return l
}

// InMemoryUserRepository mirrors
// original_source/src/db/memory.py's InMemoryUserRepository.
type InMemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]UserStats
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]UserStats)}
}

func (r *InMemoryUserRepository) GetUser(_ context.Context, userID string) (*UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := u
	return &clone, nil
}

func (r *InMemoryUserRepository) SaveUser(_ context.Context, stats UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[stats.UserID] = stats
	return nil
}

func (r *InMemoryUserRepository) UpdateUserStats(_ context.Context, userID string, delta UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.UserID = userID
	u.GamesPlayed += delta.GamesPlayed
	u.GamesWon += delta.GamesWon
	u.HandsClosed += delta.HandsClosed
	u.TotalHandCard += delta.TotalHandCard
	r.users[userID] = u
	return nil
}
