package store

import (
	"context"
	"fmt"
	"task_tracker/internal/config"
	"task_tracker/internal/observability"
	"task_tracker/internal/store/elastic"
	"task_tracker/internal/store/postgres"
	"task_tracker/internal/store/redisstore"
	"task_tracker/internal/task"
	"task_tracker/internal/user"

	"github.com/sirupsen/logrus"
)

// Stores bundles the credential and task adapters of one backend.
type Stores struct {
	Backend string
	Users   user.UserRepositoryInterface
	Tasks   task.TaskRepositoryInterface

	close func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the configured backend, prepares its schema and returns
// instrumented adapters.
func Open(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Stores, error) {
	var (
		users   user.UserRepositoryInterface
		tasks   task.TaskRepositoryInterface
		closeFn func() error
	)

	switch cfg.StoreBackend {
	case config.BackendElasticsearch:
		es, err := elastic.NewClient(ctx, &cfg.Elastic)
		if err != nil {
			return nil, err
		}
		if err := elastic.EnsureIndices(ctx, es, cfg.Elastic.UsersIndex, cfg.Elastic.TasksIndex); err != nil {
			return nil, err
		}
		users = elastic.NewUserRepository(es, cfg.Elastic.UsersIndex)
		tasks = elastic.NewTaskRepository(es, cfg.Elastic.TasksIndex)

	case config.BackendPostgres:
		db, err := postgres.Init(ctx, &cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		users = postgres.NewUserRepository(db)
		tasks = postgres.NewTaskRepository(db)
		closeFn = db.Close

	case config.BackendRedis:
		rdb, err := redisstore.SetupRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		users = redisstore.NewUserRepository(rdb)
		tasks = redisstore.NewTaskRepository(rdb)
		closeFn = rdb.Close

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}

	logrus.WithField("backend", cfg.StoreBackend).Info("Document store ready")

	return &Stores{
		Backend: cfg.StoreBackend,
		Users:   InstrumentUsers(cfg.StoreBackend, users, metrics),
		Tasks:   InstrumentTasks(cfg.StoreBackend, tasks, metrics),
		close:   closeFn,
	}, nil
}
