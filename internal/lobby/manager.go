// Package lobby implements the pre-game waiting room: creating a
// lobby, joining it by its short code, toggling ready state, and
// promoting it into a running game once every seat is ready.
//
// Grounded on original_source/src/lobby/manager.py's LobbyManager,
// translated from its dict-based LobbyResult return value into a
// typed Result plus a Go error for repository failures.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
	"github.com/g3ncl/scala-40-telegram-bot/internal/repository"
)

const (
	StatusWaiting = "waiting"
	StatusInGame  = "in_game"
	StatusClosed  = "closed"

	MinPlayers = 2
	MaxPlayers = 4

	// WaitingLobbyTTL bounds how long an unstarted lobby can sit idle
	// before it is treated as abandoned.
	WaitingLobbyTTL = 30 * time.Minute

	// ClosedLobbyGrace is how long a closed lobby's code stays resolvable
	// (spec.md §4.6 TTL), so a player who just saw the host leave gets a
	// clear "closed" result instead of NotFound on their next lookup.
	ClosedLobbyGrace = 2 * time.Minute
)

var (
	ErrLobbyNotFound    = errors.New("lobby: not found")
	ErrLobbyFull        = errors.New("lobby: full")
	ErrLobbyNotWaiting  = errors.New("lobby: not accepting players")
	ErrAlreadyInLobby   = errors.New("lobby: already joined")
	ErrNotInLobby       = errors.New("lobby: not a member")
	ErrNotHost          = errors.New("lobby: only the host may do that")
	ErrNotEnoughPlayers = errors.New("lobby: not enough players")
	ErrPlayersNotReady  = errors.New("lobby: not all players are ready")
)

// Result mirrors LobbyResult from original_source/src/lobby/manager.py:
// the lifecycle methods (Create, Join, Leave, ToggleReady, Start)
// return one instead of a bare error, so
// callers (a Telegram handler, a CLI) can render the Italian-facing
// failure reasons directly without a type switch on error values.
// Programmer errors (repository failures) still surface through Err.
type Result struct {
	Lobby  *repository.Lobby
	GameID string
	Err    error
}

func fail(err error) Result { return Result{Err: err} }

// Manager owns lobby lifecycle operations. It holds no state itself;
// all state lives in the LobbyRepository, mirroring the teacher's
// stateless-service-over-a-repository pattern.
type Manager struct {
	lobbies repository.LobbyRepository
	games   repository.GameRepository
	codes   *repository.LobbyCodeReservation
	secureRNG engine.RNG
}

func NewManager(lobbies repository.LobbyRepository, games repository.GameRepository, codes *repository.LobbyCodeReservation) *Manager {
	return &Manager{
		lobbies:   lobbies,
		games:     games,
		codes:     codes,
		secureRNG: engine.NewSecureRNG(),
	}
}

// Create opens a new lobby with hostUserID auto-joined as its first,
// not-ready player (original_source create_lobby).
func (m *Manager) Create(ctx context.Context, hostUserID, chatID string, settings engine.HouseRules) Result {
	lobbyID := uuid.NewString()
	code, err := m.reserveCode(ctx, lobbyID)
	if err != nil {
		return fail(fmt.Errorf("reserve lobby code: %w", err))
	}

	l := repository.Lobby{
		ID:         lobbyID,
		Code:       code,
		HostUserID: hostUserID,
		ChatID:     chatID,
		Status:     StatusWaiting,
		Players:    []repository.LobbyPlayer{{UserID: hostUserID, Ready: false}},
		Settings:   settings,
		ExpiresAt:  time.Now().Add(WaitingLobbyTTL).Unix(),
	}
	if err := m.lobbies.SaveLobby(ctx, l); err != nil {
		return fail(err)
	}
	return Result{Lobby: &l}
}

// reserveCode draws codes from engine.GenerateLobbyCode until one is
// successfully claimed via SETNX, so two concurrent Create calls can
// never collide on the same code. Falls back to accepting an
// unreserved code when no reservation backend is configured (e.g. the
// in-memory dev setup), since InMemoryLobbyRepository.SaveLobby never
// collides on id anyway and GetLobbyByCode would simply surface a
// genuine duplicate as an operator-visible bug.
func (m *Manager) reserveCode(ctx context.Context, lobbyID string) (string, error) {
	code := engine.GenerateLobbyCode(m.secureRNG)
	if m.codes == nil {
		return code, nil
	}
	for attempt := 0; attempt < 5; attempt++ {
		ok, err := m.codes.Reserve(ctx, code, lobbyID)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
		code = engine.GenerateLobbyCode(m.secureRNG)
	}
	return "", errors.New("lobby: no free lobby code after 5 attempts")
}

// Join adds userID to the lobby identified by its short code
// (original_source join_lobby).
func (m *Manager) Join(ctx context.Context, userID, code string) Result {
	l, err := m.lobbies.GetLobbyByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrLobbyNotFound)
		}
		return fail(err)
	}
	if l.Status != StatusWaiting {
		return fail(ErrLobbyNotWaiting)
	}
	if len(l.Players) >= MaxPlayers {
		return fail(ErrLobbyFull)
	}
	for _, p := range l.Players {
		if p.UserID == userID {
			return fail(ErrAlreadyInLobby)
		}
	}
	l.Players = append(l.Players, repository.LobbyPlayer{UserID: userID, Ready: false})
	l.ExpiresAt = time.Now().Add(WaitingLobbyTTL).Unix()
	if err := m.lobbies.SaveLobby(ctx, *l); err != nil {
		return fail(err)
	}
	return Result{Lobby: l}
}

// Leave removes userID from lobbyID (spec.md §4.6: "if host leaves,
// transfer host to next seat or close lobby if empty"). The host
// leaving a lobby with remaining players promotes the next seat to
// host rather than closing it; the lobby only closes once the
// departing host was its last player.
func (m *Manager) Leave(ctx context.Context, userID, lobbyID string) Result {
	l, err := m.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrLobbyNotFound)
		}
		return fail(err)
	}
	if !containsUser(l.Players, userID) {
		return fail(ErrNotInLobby)
	}

	remaining := make([]repository.LobbyPlayer, 0, len(l.Players)-1)
	for _, p := range l.Players {
		if p.UserID != userID {
			remaining = append(remaining, p)
		}
	}
	l.Players = remaining

	if l.HostUserID == userID {
		if len(remaining) == 0 {
			l.Status = StatusClosed
			l.ExpiresAt = time.Now().Add(ClosedLobbyGrace).Unix()
			if err := m.lobbies.SaveLobby(ctx, *l); err != nil {
				return fail(err)
			}
			if m.codes != nil {
				_ = m.codes.Release(ctx, l.Code)
			}
			return Result{Lobby: l}
		}
		l.HostUserID = remaining[0].UserID
	}

	if err := m.lobbies.SaveLobby(ctx, *l); err != nil {
		return fail(err)
	}
	return Result{Lobby: l}
}

// ToggleReady flips userID's ready flag (original_source set_ready).
func (m *Manager) ToggleReady(ctx context.Context, userID, lobbyID string) Result {
	l, err := m.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrLobbyNotFound)
		}
		return fail(err)
	}
	for i := range l.Players {
		if l.Players[i].UserID == userID {
			l.Players[i].Ready = !l.Players[i].Ready
			if err := m.lobbies.SaveLobby(ctx, *l); err != nil {
				return fail(err)
			}
			return Result{Lobby: l}
		}
	}
	return fail(ErrNotInLobby)
}

// Start promotes a waiting lobby into a running game: only the host
// may call it, every seat must be ready, and the seat count must
// satisfy MinPlayers. On success it persists both the updated lobby
// (now StatusInGame) and the freshly dealt game document, grounded on
// original_source start_game's create_game + start_round pair.
func (m *Manager) Start(ctx context.Context, userID, lobbyID string, seed uint64) Result {
	l, err := m.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrLobbyNotFound)
		}
		return fail(err)
	}
	if l.HostUserID != userID {
		return fail(ErrNotHost)
	}
	if l.Status != StatusWaiting {
		return fail(ErrLobbyNotWaiting)
	}
	if len(l.Players) < MinPlayers {
		return fail(ErrNotEnoughPlayers)
	}
	for _, p := range l.Players {
		if !p.Ready {
			return fail(ErrPlayersNotReady)
		}
	}

	playerIDs := make([]string, len(l.Players))
	for i, p := range l.Players {
		playerIDs[i] = p.UserID
	}

	gameID := uuid.NewString()
	game, err := engine.NewGame(gameID, playerIDs, l.Settings, seed)
	if err != nil {
		return fail(err)
	}
	if _, err := engine.DealHand(game); err != nil {
		return fail(err)
	}

	if err := m.games.SaveGame(ctx, engine.ExportState(game)); err != nil {
		return fail(err)
	}

	l.Status = StatusInGame
	if err := m.lobbies.SaveLobby(ctx, *l); err != nil {
		return fail(err)
	}

	return Result{Lobby: l, GameID: gameID}
}

func (m *Manager) GetLobby(ctx context.Context, lobbyID string) (*repository.Lobby, error) {
	return m.lobbies.GetLobby(ctx, lobbyID)
}

func (m *Manager) GetLobbyByCode(ctx context.Context, code string) (*repository.Lobby, error) {
	return m.lobbies.GetLobbyByCode(ctx, code)
}

func containsUser(players []repository.LobbyPlayer, userID string) bool {
	for _, p := range players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
