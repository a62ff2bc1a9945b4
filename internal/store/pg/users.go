package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/security/password"
)

// ─── UserRepository ───

type userRepo struct {
	pool   *pgxpool.Pool
	params password.Params
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*types.Identity, error) {
	const query = `
		SELECT id, username, roles, disabled, created_at
		FROM identities WHERE id = $1
	`
	var u types.Identity
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Roles, &u.Disabled, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	profiles, err := r.profiles(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Profiles = profiles
	return &u, nil
}

func (r *userRepo) profiles(ctx context.Context, identityID string) ([]types.Profile, error) {
	const query = `
		SELECT profile_id, provider, confirmed_at, challenge_required
		FROM identity_profiles WHERE identity_id = $1
		ORDER BY provider, profile_id
	`
	rows, err := r.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Profile
	for rows.Next() {
		var p types.Profile
		if err := rows.Scan(&p.ID, &p.Provider, &p.Metadata.ConfirmedAt, &p.Metadata.ChallengeRequired); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *userRepo) FindLocalUser(ctx context.Context, email string) (*types.Identity, error) {
	const query = `
		SELECT identity_id FROM identity_profiles
		WHERE provider = 'local' AND profile_id = $1
	`
	var id string
	err := r.pool.QueryRow(ctx, query, normEmail(email)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *userRepo) Create(ctx context.Context, u *types.Identity) error {
	return r.create(ctx, u, "")
}

// create inserta identidad y perfiles en una transacción. phc se guarda en el
// perfil local, si hay.
func (r *userRepo) create(ctx context.Context, u *types.Identity, phc string) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("pg: identity without id")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO identities (id, username, roles, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, u.ID, u.Username, roles, u.Disabled, createdAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}

	for _, p := range u.Profiles {
		var hash *string
		id := p.ID
		if p.Provider == types.ProviderLocal {
			id = normEmail(id)
			if phc != "" {
				hash = &phc
			}
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO identity_profiles (identity_id, provider, profile_id, password_hash, confirmed_at, challenge_required)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (provider, profile_id) DO NOTHING
		`, u.ID, p.Provider, id, hash, p.Metadata.ConfirmedAt, p.Metadata.ChallengeRequired)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("pg: profile %s/%s already linked: %w", p.Provider, id, repository.ErrConflict)
		}
	}
	return tx.Commit(ctx)
}

func (r *userRepo) VerifyPassword(ctx context.Context, u *types.Identity, plain string) (bool, error) {
	const query = `
		SELECT password_hash FROM identity_profiles
		WHERE identity_id = $1 AND provider = 'local' AND password_hash IS NOT NULL
		LIMIT 1
	`
	var phc string
	err := r.pool.QueryRow(ctx, query, u.ID).Scan(&phc)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return password.Verify(plain, phc)
}

func (r *userRepo) SetChallengeRequired(ctx context.Context, email string, required bool) error {
	const query = `
		UPDATE identity_profiles SET challenge_required = $2
		WHERE provider = 'local' AND profile_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, normEmail(email), required)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ─── Seeds ───

// LocalSeed identidad local a precargar.
type LocalSeed struct {
	ID        string
	Email     string
	Password  string
	Username  string
	Roles     []string
	Disabled  bool
	Confirmed bool
}

// SeedLocal crea identidades locales que todavía no existen. Es idempotente:
// las que ya existen se saltean sin tocar su password.
func (s *Store) SeedLocal(ctx context.Context, seeds ...LocalSeed) (created int, err error) {
	r := &userRepo{pool: s.pool, params: s.params}
	for _, sd := range seeds {
		phc, err := password.Hash(s.params, sd.Password)
		if err != nil {
			return created, fmt.Errorf("pg: hash seed %s: %w", sd.ID, err)
		}
		p := types.Profile{ID: sd.Email, Provider: types.ProviderLocal}
		if sd.Confirmed {
			now := time.Now().UTC()
			p.Metadata.ConfirmedAt = &now
		}
		err = r.create(ctx, &types.Identity{
			ID:       sd.ID,
			Username: sd.Username,
			Roles:    sd.Roles,
			Disabled: sd.Disabled,
			Profiles: []types.Profile{p},
		}, phc)
		if repository.IsConflict(err) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
