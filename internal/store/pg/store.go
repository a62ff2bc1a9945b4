// Package pg implementa los colaboradores de persistencia sobre Postgres
// (pgx/v5): identidades y perfiles, validez de PATs y settings globales.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/security/password"
)

type Store struct {
	pool   *pgxpool.Pool
	params password.Params
}

// Open abre el pool y verifica la conexión.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if maxConns > 0 {
		pcfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return New(pool), nil
}

// New envuelve un pool existente.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, params: password.Default}
}

// WithPasswordParams cambia los parámetros de hash para perfiles nuevos.
func (s *Store) WithPasswordParams(p password.Params) *Store {
	s.params = p
	return s
}

// Pool expone el pool interno (métricas, migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Ping verifica la conexión (readyz).
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Users() repository.UserRepository        { return &userRepo{pool: s.pool, params: s.params} }
func (s *Store) Settings() repository.SettingsRepository { return &settingsRepo{pool: s.pool} }
func (s *Store) PATs() repository.PATRepository          { return &patRepo{pool: s.pool} }
