package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/deskhq/desk-backend/internal/logging"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

type migration struct {
	name string
	sql  string
}

func loadMigrations() ([]migration, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		b, err := migrationFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, migration{name: strings.TrimPrefix(name, "migrations/"), sql: string(b)})
	}
	return out, nil
}

// Migrate applies every embedded migration in file order. The scripts are
// idempotent so it is safe to run on every start.
func (d *DB) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	log := logging.FromContext(ctx)
	for _, m := range migrations {
		if _, err := d.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		log.Infof("db.migrate", "applied %s", m.name)
	}
	return nil
}
