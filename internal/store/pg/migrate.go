package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dropDatabas3/talkauth/internal/observability/logger"
	migrations "github.com/dropDatabas3/talkauth/migrations/postgres"
)

// Formato de archivo: {version}_{name}.sql (ej: 0001_identities.sql)
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// Migrator aplica migraciones SQL embebidas sobre un pool pgx.
type Migrator struct {
	fsys fs.FS
	dir  string
}

// NewMigrator crea un Migrator sobre un FS arbitrario (tests usan fstest.MapFS).
func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{fsys: fsys, dir: dir}
}

// DefaultMigrator usa el esquema embebido del binario.
func DefaultMigrator() *Migrator {
	return NewMigrator(migrations.FS, migrations.Dir)
}

// ParseMigrations lee y ordena las migraciones del FS.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("bad version in %s: %w", e.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: matches[2], SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run aplica las migraciones pendientes, cada una en su propia transacción.
func (m *Migrator) Run(ctx context.Context, pool *pgxpool.Pool) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	const createSQL = `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`
	if _, err := pool.Exec(ctx, createSQL); err != nil {
		return result, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return result, fmt.Errorf("getting applied migrations: %w", err)
	}

	migs, err := m.ParseMigrations()
	if err != nil {
		return result, fmt.Errorf("parsing migrations: %w", err)
	}

	log := logger.From(ctx)
	for _, mig := range migs {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := applyMigration(ctx, pool, mig); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		log.Info("migration applied", zap.Int("version", mig.Version), zap.String("name", mig.Name))
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Pending devuelve las versiones aún no aplicadas.
func (m *Migrator) Pending(ctx context.Context, pool *pgxpool.Pool) ([]int, error) {
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass('_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return nil, err
	}
	applied := map[int]bool{}
	if exists {
		var err error
		if applied, err = appliedVersions(ctx, pool); err != nil {
			return nil, err
		}
	}
	migs, err := m.ParseMigrations()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, mig := range migs {
		if !applied[mig.Version] {
			out = append(out, mig.Version)
		}
	}
	return out, nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[int(v)] = true
	}
	return applied, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, mig Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO _migrations (version, name) VALUES ($1, $2)",
		mig.Version, mig.Name,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Migrate aplica el esquema embebido sobre el pool del store.
func (s *Store) Migrate(ctx context.Context) (*MigrationResult, error) {
	return DefaultMigrator().Run(ctx, s.pool)
}
