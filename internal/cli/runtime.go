package cli

import (
	"context"
	"fmt"

	"codeduel/internal/app"
	"codeduel/internal/config"
	"codeduel/internal/domain"
	"codeduel/internal/infra/leetcode"
	"codeduel/internal/infra/memory"
	mongostore "codeduel/internal/infra/mongo"
	pgstore "codeduel/internal/infra/postgres"
	redisinfra "codeduel/internal/infra/redis"
	"codeduel/internal/jobs"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// runtime holds the wired collaborators for one process.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger

	contests  app.ContestRepository
	questions app.QuestionRepository
	redis     *redis.Client

	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.logger.Sync()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// buildRuntime loads config and connects the configured store and Redis.
func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	if err := rt.openStore(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = rt.redis.Close() })
	}
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) error {
	switch rt.cfg.Store.Driver {
	case config.DriverMemory:
		rt.contests = memory.NewContestStore()
		rt.questions = memory.NewQuestionStore()

	case config.DriverPostgres:
		if _, err := pgstore.Migrate(ctx, rt.cfg.Postgres.URL); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, rt.cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.contests = pgstore.NewContestStore(pool)
		rt.questions = pgstore.NewQuestionStore(pool)

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, rt.cfg.Mongo.URI)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = client.Disconnect(context.Background()) })
		db := mongostore.Database(client, rt.cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		rt.contests = mongostore.NewContestStore(db)
		rt.questions = mongostore.NewQuestionStore(db)

	default:
		return fmt.Errorf("unknown store driver %q", rt.cfg.Store.Driver)
	}
	rt.logger.Info("store ready", zap.String("driver", rt.cfg.Store.Driver))
	return nil
}

func (rt *runtime) contestService() *app.ContestService {
	return app.NewContestService(rt.contests, rt.questions, rt.logger,
		app.WithCodeLength(rt.cfg.Contest.CodeLength),
		app.WithMaxCodeAttempts(rt.cfg.Contest.MaxCodeAttempts),
	)
}

func (rt *runtime) questionService() *app.QuestionService {
	return app.NewQuestionService(rt.questions, rt.logger)
}

// profileService layers a cache over the GraphQL client: Redis when
// configured so instances share entries, in-process otherwise.
func (rt *runtime) profileService() *app.ProfileService {
	client := leetcode.NewClient(rt.cfg.Profile.Endpoint, rt.cfg.ProfileTimeout())

	var lookup app.ProfileLookup
	if rt.redis != nil {
		lookup = redisinfra.NewProfileCache(rt.redis, client, rt.cfg.ProfileTTL())
	} else {
		lookup = memory.NewProfileCache(client, rt.cfg.ProfileTTL())
	}

	usernames := make(map[domain.User]string, len(domain.Users))
	for name, username := range rt.cfg.Profile.Usernames {
		u, err := domain.ParseUser(name)
		if err != nil {
			rt.logger.Warn("ignoring profile username for unknown user", zap.String("user", name))
			continue
		}
		usernames[u] = username
	}
	return app.NewProfileService(lookup, usernames, rt.logger)
}

func (rt *runtime) sweepLock() jobs.Locker {
	if rt.redis != nil {
		return redisinfra.NewSweepLock(rt.redis)
	}
	return memory.NewSweepLock()
}

func (rt *runtime) finalizer(svc *app.ContestService) *jobs.FinalizerJob {
	return jobs.NewFinalizerJob(svc, rt.sweepLock(), jobs.FinalizerConfig{
		Interval: rt.cfg.SweepInterval(),
		LockTTL:  rt.cfg.SweepLockTTL(),
	}, rt.logger)
}
