// Command server wires the persistence layer, the game service, and
// the lobby manager into one running process. It owns no game or
// transport logic of its own; spec.md's Non-goals exclude a bot/HTTP
// front end, so this entrypoint stops at logging a readiness line and
// leaving the wired components available for a front end to drive.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	engine "github.com/g3ncl/scala-40-telegram-bot/engine"
	"github.com/g3ncl/scala-40-telegram-bot/internal/config"
	"github.com/g3ncl/scala-40-telegram-bot/internal/lobby"
	"github.com/g3ncl/scala-40-telegram-bot/internal/repository"
	"github.com/g3ncl/scala-40-telegram-bot/internal/service"
)

func main() {
	cfg := config.Load()
	logrus.SetLevel(cfg.LogLevel)
	log := logrus.WithField("component", "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameRepo, lobbyRepo, userRepo, idem := connectStores(ctx, cfg, log)

	svc := service.NewGameService(gameRepo, idem, userRepo, cfg.TurnTimeout, func(events []engine.Event) {
		for _, ev := range events {
			log.WithField("event_type", ev.Type).Debug("broadcast")
		}
	})
	_ = svc // wired for a front end to call ApplyAction against; nothing in this process drives it yet

	mgr := lobby.NewManager(lobbyRepo, gameRepo, nil)
	_ = mgr // same story as svc: ready for a front end to call Create/Join/Start against

	log.WithFields(logrus.Fields{
		"elimination_score": cfg.EliminationScore,
		"opening_threshold": cfg.OpeningThreshold,
		"turn_timeout":      cfg.TurnTimeout,
	}).Info("scala 40 game service ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
}

// connectStores builds the repository set from cfg, falling back to
// the in-memory implementations (and skipping the idempotency cache)
// when Postgres or Redis are unreachable, so the binary still starts
// for local development without either dependency running.
func connectStores(ctx context.Context, cfg config.Config, log *logrus.Entry) (repository.GameRepository, repository.LobbyRepository, repository.UserRepository, *repository.IdempotencyCache) {
	var gameRepo repository.GameRepository = repository.NewInMemoryGameRepository()
	var lobbyRepo repository.LobbyRepository = repository.NewInMemoryLobbyRepository()
	var userRepo repository.UserRepository = repository.NewInMemoryUserRepository()

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pool, err := pgxpool.New(connCtx, cfg.PostgresDSN); err != nil {
		log.WithError(err).Warn("postgres unavailable, using in-memory game/lobby/user repositories")
	} else if err := pool.Ping(connCtx); err != nil {
		log.WithError(err).Warn("postgres ping failed, using in-memory game/lobby/user repositories")
		pool.Close()
	} else {
		gameRepo = repository.NewPostgresGameRepository(pool)
		lobbyRepo = repository.NewPostgresLobbyRepository(pool)
		userRepo = repository.NewPostgresUserRepository(pool)
		log.Info("connected to postgres")
	}

	var idem *repository.IdempotencyCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(connCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, idempotency replay will rely on the game document alone")
	} else {
		idem = repository.NewIdempotencyCache(rdb, 10*time.Minute)
		log.Info("connected to redis")
	}

	return gameRepo, lobbyRepo, userRepo, idem
}
