package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ─── PATRepository ───

type patRepo struct{ pool *pgxpool.Pool }

func (r *patRepo) IsActive(ctx context.Context, subject, jti string) (bool, error) {
	const query = `SELECT active FROM personal_access_tokens WHERE jti = $1 AND subject = $2`
	var active bool
	err := r.pool.QueryRow(ctx, query, jti, subject).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return active, err
}

// ─── SettingsRepository ───

type settingsRepo struct{ pool *pgxpool.Pool }

func (r *settingsRepo) RequireEmailConfirmation(ctx context.Context) (bool, error) {
	const query = `SELECT require_email_confirmation FROM settings WHERE id = 1`
	var v bool
	err := r.pool.QueryRow(ctx, query).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return v, err
}
