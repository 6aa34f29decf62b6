package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
)

// IdempotencyCache backs spec.md §5's nonce contract: a repeated
// action nonce for a game must short-circuit to the previously
// committed events rather than re-executing the action. Grounded on
// the teacher's Redis-backed GameActionRecord publish pattern in
// service/internal/cache (logAction -> PublishGameAction), repurposed
// here from an append-only action log into a request/response cache.
type IdempotencyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyCache(rdb *redis.Client, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &IdempotencyCache{rdb: rdb, ttl: ttl}
}

type idempotentResult struct {
	Events []engine.Event `json:"events"`
}

func nonceKey(gameID, nonce string) string {
	return "idem:" + gameID + ":" + nonce
}

// Get returns the cached event list for a (gameID, nonce) pair, or
// (nil, false) if no entry exists.
func (c *IdempotencyCache) Get(ctx context.Context, gameID, nonce string) ([]engine.Event, bool) {
	raw, err := c.rdb.Get(ctx, nonceKey(gameID, nonce)).Bytes()
	if err != nil {
		return nil, false
	}
	var stored idempotentResult
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false
	}
	return stored.Events, true
}

// Put stores the outcome of a freshly committed action under its
// nonce so a retried request returns the same events instead of
// re-applying the action.
func (c *IdempotencyCache) Put(ctx context.Context, gameID, nonce string, events []engine.Event) error {
	raw, err := json.Marshal(idempotentResult{Events: events})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, nonceKey(gameID, nonce), raw, c.ttl).Err()
}

// LobbyCodeReservation uses SETNX to atomically claim a freshly
// generated lobby code, avoiding a rare collision between two lobbies
// created at the same instant (spec.md §4.6). Grounded on
// original_source/src/utils/crypto.py's generate_lobby_code, which
// assumes uniqueness is enforced by the caller.
type LobbyCodeReservation struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLobbyCodeReservation(rdb *redis.Client) *LobbyCodeReservation {
	return &LobbyCodeReservation{rdb: rdb, ttl: 24 * time.Hour}
}

// Reserve attempts to claim code for lobbyID; false means another
// lobby already holds this code and the caller should generate a new
// one and retry.
func (c *LobbyCodeReservation) Reserve(ctx context.Context, code, lobbyID string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, "lobbycode:"+code, lobbyID, c.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees a code when its lobby closes, so it can be reused.
func (c *LobbyCodeReservation) Release(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, "lobbycode:"+code).Err()
}
