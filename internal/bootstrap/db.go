package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskhq/desk-backend/config"
	"github.com/deskhq/desk-backend/internal/db"
	"github.com/deskhq/desk-backend/internal/liststate"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	projectrepo "github.com/deskhq/desk-backend/internal/projects/repository"
	"github.com/deskhq/desk-backend/internal/store"
	"github.com/deskhq/desk-backend/internal/store/memstore"
	"github.com/deskhq/desk-backend/internal/store/postgres"
	taskrepo "github.com/deskhq/desk-backend/internal/tasks/repository"
	"github.com/deskhq/desk-backend/internal/workspace"
)

// Stores is the row storage selected by STORE_DRIVER.
type Stores struct {
	Rows    store.Client
	Metrics *store.Metrics
	DB      *db.DB // nil for the memory driver
}

func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	metrics := &store.Metrics{}

	switch cfg.Store.Driver {
	case "memory":
		return &Stores{Rows: store.WithMetrics(memstore.New(), metrics), Metrics: metrics}, nil
	case "postgres":
		database, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx); err != nil {
				database.Close()
				return nil, err
			}
		}
		return &Stores{
			Rows:    store.WithMetrics(postgres.New(database.SQL), metrics),
			Metrics: metrics,
			DB:      database,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (s *Stores) Close() {
	if s != nil && s.DB != nil {
		s.DB.Close()
	}
}

// OpenRedis connects and pings so a misconfigured address fails at startup.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewWorkspace wires the per-user session registry to the row store repositories.
func NewWorkspace(rows store.Client, ttl time.Duration) *workspace.Registry {
	subtasks := projectrepo.NewSubtaskRepository(rows)
	return workspace.NewRegistry(workspace.Sources{
		Tasks:    taskrepo.NewTaskRepository(rows),
		Projects: projectrepo.NewProjectRepository(rows),
		Subtasks: func(projectID string) liststate.Source[projectdomain.ProjectTask] {
			return subtasks.ForProject(projectID)
		},
	}, ttl)
}
