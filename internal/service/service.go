// Package service orchestrates one repository-backed game: it loads
// the authoritative document, applies a single engine action against
// it, and writes the result back under optimistic concurrency,
// retrying on a version conflict per spec.md §4.7/§5. It also owns
// per-turn timeout scheduling and the committed-event log.
//
// Grounded on the teacher's service/internal/game/game.go CambiaGame:
// HandlePlayerAction's validate-then-route dispatch, logAction's
// async event publication, and scheduleNextTurnTimerEngine/
// handleTimeoutEngine's time.AfterFunc-based turn clock — adapted
// from an in-memory-authoritative struct (CambiaGame holds the whole
// game under a single Mu) into a stateless service over a
// GameRepository, since C7 requires every mutation to round-trip
// through the optimistic-concurrency store rather than live only in
// process memory.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
	"github.com/g3ncl/scala-40-telegram-bot/internal/repository"
)

// ActionType is the fixed action-name enum from spec.md §6's "Action
// request (engine boundary)".
type ActionType string

const (
	ActionDrawStock       ActionType = "draw_stock"
	ActionDrawDiscard     ActionType = "draw_discard"
	ActionOpen            ActionType = "open"
	ActionLayMeld         ActionType = "lay_meld"
	ActionAttach          ActionType = "attach"
	ActionSubstituteJoker ActionType = "substitute_joker"
	ActionDiscard         ActionType = "discard"
	ActionAutoPlay        ActionType = "auto_play"
)

// ActionRequest is the engine-boundary request shape from spec.md
// §6: gameId/playerId/nonce/action/payload, generalized into typed
// fields per action kind instead of a single untyped payload map.
type ActionRequest struct {
	GameID   string
	PlayerID string
	Nonce    string
	Action   ActionType

	// Open payload: one or more melds.
	Melds [][]engine.Card
	// LayMeld payload: a single meld.
	Cards []engine.Card
	// Attach/SubstituteJoker/Discard payload.
	Card   engine.Card
	MeldID string
	// Discard payload.
	DeclareDuplicate bool
}

const maxVersionRetries = 3
const retryBaseDelay = 20 * time.Millisecond

// ErrStaleState surfaces when the optimistic-concurrency retry budget
// is exhausted (spec.md §7 "beyond that they surface as StaleState").
var ErrStaleState = errors.New("service: version conflict retries exhausted")

// BroadcastFunc receives the events committed by a successful action.
// Mirrors the teacher's BroadcastFn callback (game.go's fireEvent),
// generalized from a websocket push into a plain callback: spec.md
// §1's Non-goals exclude a push transport, so cmd/server is free to
// wire this to whatever out-of-band notification it likes, and tests
// install a collector instead.
type BroadcastFunc func(events []engine.Event)

// GameService applies actions to one repository-backed game,
// enforcing idempotency and optimistic-concurrency retry, and
// schedules auto-play on turn timeout.
type GameService struct {
	repo   repository.GameRepository
	idem   *repository.IdempotencyCache
	users  repository.UserRepository
	logger *logrus.Entry

	turnDuration time.Duration
	broadcast    BroadcastFunc

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// NewGameService builds a service over repo. idem, users, and
// broadcast may all be nil: idempotency replay then relies solely on
// the game document's own LastNonce/LastEvents fields, per-user
// aggregate stats are simply not recorded, and no out-of-band
// notification is sent. turnDuration of 0 disables auto-play
// scheduling.
func NewGameService(repo repository.GameRepository, idem *repository.IdempotencyCache, users repository.UserRepository, turnDuration time.Duration, broadcast BroadcastFunc) *GameService {
	return &GameService{
		repo:         repo,
		idem:         idem,
		users:        users,
		logger:       logrus.WithField("component", "service"),
		turnDuration: turnDuration,
		broadcast:    broadcast,
		timers:       make(map[string]*time.Timer),
	}
}

// ApplyAction loads the game, checks nonce idempotency, dispatches
// the requested engine action, and persists the result — retrying
// from a fresh read on a version conflict up to maxVersionRetries
// times with exponential backoff, per spec.md §4.7.
func (s *GameService) ApplyAction(ctx context.Context, req ActionRequest) ([]engine.Event, error) {
	log := s.logger.WithFields(logrus.Fields{
		"game_id":   req.GameID,
		"player_id": req.PlayerID,
		"nonce":     req.Nonce,
		"action":    req.Action,
	})

	if req.Nonce != "" && s.idem != nil {
		if events, ok := s.idem.Get(ctx, req.GameID, req.Nonce); ok {
			log.Debug("idempotent replay from cache, skipping game load")
			return events, nil
		}
	}

	for attempt := 0; ; attempt++ {
		doc, err := s.repo.GetGame(ctx, req.GameID)
		if err != nil {
			return nil, err
		}
		g, err := engine.ImportState(*doc)
		if err != nil {
			log.WithError(err).Error("refusing mutation: corrupt game document")
			return nil, err
		}

		if req.Nonce != "" && g.LastNonce == req.Nonce {
			log.Debug("idempotent replay, returning stored result")
			return g.LastEvents, nil
		}

		events, applyErr := s.dispatch(g, req)
		if applyErr != nil {
			log.WithError(applyErr).Info("action rejected")
			return nil, applyErr
		}

		g.LastNonce = req.Nonce
		g.LastEvents = events

		saveErr := s.repo.SaveGame(ctx, engine.ExportState(g))
		if saveErr == nil {
			if s.idem != nil {
				if err := s.idem.Put(ctx, req.GameID, req.Nonce, events); err != nil {
					log.WithError(err).Warn("failed caching idempotent result")
				}
			}
			s.logEvents(log, events)
			s.recordUserStats(ctx, log, g, events)
			s.rescheduleTimeout(req.GameID, g)
			if s.broadcast != nil {
				s.broadcast(events)
			}
			return events, nil
		}
		if errors.Is(saveErr, repository.ErrVersionConflict) {
			if attempt >= maxVersionRetries {
				log.Warn("version conflict retries exhausted")
				return nil, ErrStaleState
			}
			delay := retryBaseDelay * time.Duration(1<<attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		return nil, saveErr
	}
}

// dispatch routes one action against an already-loaded game state,
// mirroring the teacher's HandlePlayerAction switch over
// action.ActionType.
func (s *GameService) dispatch(g *engine.GameState, req ActionRequest) ([]engine.Event, error) {
	switch req.Action {
	case ActionDrawStock:
		return engine.DrawStock(g, req.PlayerID)
	case ActionDrawDiscard:
		return engine.DrawDiscard(g, req.PlayerID)
	case ActionOpen:
		return engine.Open(g, req.PlayerID, req.Melds, newMeldID)
	case ActionLayMeld:
		return engine.LayMeld(g, req.PlayerID, req.Cards, newMeldID)
	case ActionAttach:
		return engine.Attach(g, req.PlayerID, req.Card, req.MeldID)
	case ActionSubstituteJoker:
		return engine.SubstituteJoker(g, req.PlayerID, req.Card, req.MeldID)
	case ActionDiscard:
		return engine.Discard(g, req.PlayerID, req.Card, req.DeclareDuplicate)
	case ActionAutoPlay:
		return engine.AutoPlay(g, req.PlayerID)
	default:
		return nil, errors.New("service: unknown action type " + string(req.Action))
	}
}

func newMeldID() string {
	return uuid.NewString()
}

// logEvents emits one structured log line per committed event,
// generalizing the teacher's logAction (which published a single
// cache.GameActionRecord to Redis per call) to the full event batch
// a single action can produce (e.g. discard -> closure -> elimination
// -> match_end).
func (s *GameService) logEvents(log *logrus.Entry, events []engine.Event) {
	for _, ev := range events {
		log.WithFields(logrus.Fields{
			"event_type":      ev.Type,
			"event_player_id": ev.PlayerID,
			"fields":          ev.Fields,
		}).Info("committed event")
	}
}

// recordUserStats folds closure and match-end events into each
// affected player's aggregate record, grounded on
// original_source/src/db/repository.py's update_user_stats being
// called from the same action-handling path that persists the game
// itself. A failure here is logged and otherwise ignored — stats are
// a supplemental record, never a reason to fail an already-committed
// action.
func (s *GameService) recordUserStats(ctx context.Context, log *logrus.Entry, g *engine.GameState, events []engine.Event) {
	if s.users == nil {
		return
	}
	for _, ev := range events {
		switch ev.Type {
		case "closure":
			if err := s.users.UpdateUserStats(ctx, ev.PlayerID, repository.UserStats{HandsClosed: 1}); err != nil {
				log.WithError(err).Warn("failed recording closure stat")
			}
			if deltas, ok := ev.Fields["deltas"].(map[string]int); ok {
				for playerID, points := range deltas {
					if playerID == ev.PlayerID || points <= 0 {
						continue
					}
					if err := s.users.UpdateUserStats(ctx, playerID, repository.UserStats{TotalHandCard: points}); err != nil {
						log.WithError(err).Warn("failed recording absorbed-points stat")
					}
				}
			}
		case "match_end":
			winner, _ := ev.Fields["winner"].(string)
			for _, p := range g.Players {
				delta := repository.UserStats{GamesPlayed: 1}
				if p.ID == winner {
					delta.GamesWon = 1
				}
				if err := s.users.UpdateUserStats(ctx, p.ID, delta); err != nil {
					log.WithError(err).Warn("failed recording match-end stat")
				}
			}
		}
	}
}

// rescheduleTimeout stops any outstanding timer for gameID and, if
// the game is still in progress, arms a fresh one that auto-plays for
// the now-current player — grounded on the teacher's
// scheduleNextTurnTimerEngine, adapted from an in-process Timer field
// on CambiaGame to a map keyed by game id since this service holds no
// per-game struct of its own.
func (s *GameService) rescheduleTimeout(gameID string, g *engine.GameState) {
	if s.turnDuration <= 0 {
		return
	}
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if t, ok := s.timers[gameID]; ok {
		t.Stop()
		delete(s.timers, gameID)
	}
	if g.IsTerminal() {
		return
	}

	playerID := g.CurrentPlayer().ID
	s.timers[gameID] = time.AfterFunc(s.turnDuration, func() {
		s.fireTimeout(gameID, playerID)
	})
}

// fireTimeout applies an auto-play action for playerID. If the turn
// has already moved on by the time the timer fires, the underlying
// engine call rejects it with NotYourTurn/WrongPhase, which is logged
// and otherwise ignored — mirroring the teacher's TurnID-stamped
// closure check in its own AfterFunc callback, but relying on the
// engine's own turn validation instead of a separate epoch counter.
func (s *GameService) fireTimeout(gameID, playerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{"game_id": gameID, "player_id": playerID})
	log.Info("turn timeout, auto-playing")

	_, err := s.ApplyAction(ctx, ActionRequest{
		GameID:   gameID,
		PlayerID: playerID,
		Nonce:    uuid.NewString(),
		Action:   ActionAutoPlay,
	})
	if err != nil {
		log.WithError(err).Debug("auto-play on timeout did not apply (turn likely already advanced)")
	}
}

// CancelTimeout stops any pending turn timer for gameID, e.g. when a
// game ends outright or is removed.
func (s *GameService) CancelTimeout(gameID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[gameID]; ok {
		t.Stop()
		delete(s.timers, gameID)
	}
}
