package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, verified, verification_token, created_at, updated_at`

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Verified,
		&u.VerificationToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (u user.User, err error) {
	err = r.observe(op, func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})
	return
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `email = $1`, email)
}

func (r *UsersRepo) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_verification_token", `verification_token = $1`, token)
}

func (r *UsersRepo) MarkVerified(ctx context.Context, id string) error {
	return r.exec(ctx, "users.mark_verified", `
		UPDATE users
		SET verified = TRUE, verification_token = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "users.update_password", `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
}

func (r *UsersRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	var affected int64

	err := r.observe(op, func() error {
		tag, e := r.pool.Exec(ctx, sql, args...)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetResearcherByUserID(ctx context.Context, userID string) (p user.ResearcherProfile, err error) {
	err = r.observe("researchers.get_by_user", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, research_id, organization, specialization, created_at
			FROM researchers
			WHERE user_id = $1
		`, userID).Scan(&p.ID, &p.UserID, &p.ResearchID, &p.Organization, &p.Specialization, &p.CreatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = user.ErrResearcherNotFound
	}
	return
}

func (r *UsersRepo) GetResearcherLogin(ctx context.Context, email string) (out user.ResearcherLogin, err error) {
	u := &out.User
	p := &out.Profile

	err = r.observe("researchers.get_login", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT u.id, u.name, u.email, u.password_hash, u.role, u.verified, u.verification_token, u.created_at, u.updated_at,
			       r.id, r.user_id, r.research_id, r.organization, r.specialization, r.created_at
			FROM users u
			INNER JOIN researchers r ON u.id = r.user_id
			WHERE u.email = $1 AND u.role = 'researcher'
		`, email).Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Verified, &u.VerificationToken, &u.CreatedAt, &u.UpdatedAt,
			&p.ID, &p.UserID, &p.ResearchID, &p.Organization, &p.Specialization, &p.CreatedAt,
		)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = user.ErrNotFound
	}
	return
}
