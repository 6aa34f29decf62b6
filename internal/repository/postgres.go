package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// PostgresGameRepository is the production store for game documents:
// the full GameDoc is kept as a JSONB blob alongside a version column
// used for the conditional-write optimistic-concurrency check from
// spec.md §4.7. Grounded on original_source/src/db/memory.py's
// version-mismatch-raises contract, translated to a conditional
// UPDATE ... WHERE version = $n that reports zero rows affected as a
// conflict rather than relying on an in-process lock.
type PostgresGameRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresGameRepository(pool *pgxpool.Pool) *PostgresGameRepository {
	return &PostgresGameRepository{pool: pool}
}

func (r *PostgresGameRepository) GetGame(ctx context.Context, gameID string) (*engine.GameDoc, error) {
	row := r.pool.QueryRow(ctx, `SELECT document, version FROM games WHERE id = $1`, gameID)
	var raw []byte
	var version int64
	if err := row.Scan(&raw, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc engine.GameDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// The stored JSON keeps the version the caller saved with; the
	// column holds the current one.
	doc.Version = version
	return &doc, nil
}

func (r *PostgresGameRepository) SaveGame(ctx context.Context, doc engine.GameDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO games (id, version, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET document = $3, version = games.version + 1
		WHERE games.version = $2
	`, doc.ID, doc.Version, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *PostgresGameRepository) DeleteGame(ctx context.Context, gameID string, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1 AND version = $2`, gameID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`, gameID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// PostgresLobbyRepository stores lobby documents the same way, with
// the join code as a unique indexed column for GetLobbyByCode.
type PostgresLobbyRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresLobbyRepository(pool *pgxpool.Pool) *PostgresLobbyRepository {
	return &PostgresLobbyRepository{pool: pool}
}

func (r *PostgresLobbyRepository) GetLobby(ctx context.Context, lobbyID string) (*Lobby, error) {
	return r.scanOne(ctx, `SELECT id, code, host_user_id, chat_id, status, players, settings, created_at, expires_at, version FROM lobbies WHERE id = $1`, lobbyID)
}

func (r *PostgresLobbyRepository) GetLobbyByCode(ctx context.Context, code string) (*Lobby, error) {
	return r.scanOne(ctx, `SELECT id, code, host_user_id, chat_id, status, players, settings, created_at, expires_at, version FROM lobbies WHERE code = $1`, code)
}

func (r *PostgresLobbyRepository) scanOne(ctx context.Context, query string, arg string) (*Lobby, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	var l Lobby
	var playersRaw, settingsRaw []byte
	if err := row.Scan(&l.ID, &l.Code, &l.HostUserID, &l.ChatID, &l.Status, &playersRaw, &settingsRaw, &l.CreatedAt, &l.ExpiresAt, &l.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(playersRaw, &l.Players); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settingsRaw, &l.Settings); err != nil {
		return nil, err
	}
	if lobbyExpired(l) {
		_ = r.DeleteLobby(ctx, l.ID, l.Version)
		return nil, ErrNotFound
	}
	return &l, nil
}

func (r *PostgresLobbyRepository) SaveLobby(ctx context.Context, lobby Lobby) error {
	playersRaw, err := json.Marshal(lobby.Players)
	if err != nil {
		return err
	}
	settingsRaw, err := json.Marshal(lobby.Settings)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO lobbies (id, code, host_user_id, chat_id, status, players, settings, created_at, expires_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET code = $2, host_user_id = $3, chat_id = $4, status = $5, players = $6, settings = $7,
			expires_at = $9, version = lobbies.version + 1
		WHERE lobbies.version = $10
	`, lobby.ID, lobby.Code, lobby.HostUserID, lobby.ChatID, lobby.Status, playersRaw, settingsRaw, lobby.CreatedAt, lobby.ExpiresAt, lobby.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *PostgresLobbyRepository) DeleteLobby(ctx context.Context, lobbyID string, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lobbies WHERE id = $1 AND version = $2`, lobbyID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lobbies WHERE id = $1)`, lobbyID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// PostgresUserRepository persists the C7-supplement per-user
// statistics table, grounded on
// original_source/src/db/repository.py's UserRepository contract.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, userID string) (*UserStats, error) {
	row := r.pool.QueryRow(ctx, `SELECT user_id, games_played, games_won, hands_closed, total_hand_card FROM user_stats WHERE user_id = $1`, userID)
	var s UserStats
	if err := row.Scan(&s.UserID, &s.GamesPlayed, &s.GamesWon, &s.HandsClosed, &s.TotalHandCard); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresUserRepository) SaveUser(ctx context.Context, stats UserStats) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_stats (user_id, games_played, games_won, hands_closed, total_hand_card)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET games_played = $2, games_won = $3, hands_closed = $4, total_hand_card = $5
	`, stats.UserID, stats.GamesPlayed, stats.GamesWon, stats.HandsClosed, stats.TotalHandCard)
	return err
}

func (r *PostgresUserRepository) UpdateUserStats(ctx context.Context, userID string, delta UserStats) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_stats (user_id, games_played, games_won, hands_closed, total_hand_card)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			games_played = user_stats.games_played + $2,
			games_won = user_stats.games_won + $3,
			hands_closed = user_stats.hands_closed + $4,
			total_hand_card = user_stats.total_hand_card + $5
	`, userID, delta.GamesPlayed, delta.GamesWon, delta.HandsClosed, delta.TotalHandCard)
	if err != nil {
		return fmt.Errorf("update user stats for %s: %w", userID, err)
	}
	return nil
}
