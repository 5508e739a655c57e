package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/session"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsRepo struct {
	base
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{base{pool: pool, prom: prom}}
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	return r.observe("sessions.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO user_sessions (id, user_id, token_hash, ip_address, user_agent, created_at, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, s.ID, s.UserID, s.TokenHash, s.IPAddress, s.UserAgent, s.CreatedAt, s.ExpiresAt)
		return err
	})
}

func (r *SessionsRepo) FindLive(ctx context.Context, tokenHash string, now time.Time) (s session.Session, err error) {
	err = r.observe("sessions.find_live", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, token_hash, ip_address, user_agent, created_at, expires_at
			FROM user_sessions
			WHERE token_hash = $1 AND expires_at > $2
		`, tokenHash, now).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = session.ErrNotFound
	}
	return
}

func (r *SessionsRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	var affected int64

	err := r.observe("sessions.delete_by_hash", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE token_hash = $1`, tokenHash)
		affected = tag.RowsAffected()
		return err
	})
	return affected > 0, err
}

func (r *SessionsRepo) DeleteAllForUser(ctx context.Context, userID string) (n int64, err error) {
	err = r.observe("sessions.delete_all_for_user", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
		n = tag.RowsAffected()
		return err
	})
	return
}

func (r *SessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (n int64, err error) {
	err = r.observe("sessions.delete_expired", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, now)
		n = tag.RowsAffected()
		return err
	})
	return
}

func (r *SessionsRepo) ListForUser(ctx context.Context, userID string, limit int) ([]session.Session, error) {
	out := make([]session.Session, 0)

	err := r.observe("sessions.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, token_hash, ip_address, user_agent, created_at, expires_at
			FROM user_sessions
			WHERE user_id = $1
			ORDER BY created_at DESC, id
			LIMIT $2
		`, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s session.Session
			if err := rows.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SessionsRepo) CountActive(ctx context.Context, userID string, now time.Time) (n int, err error) {
	err = r.observe("sessions.count_active", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM user_sessions WHERE user_id = $1 AND expires_at > $2
		`, userID, now).Scan(&n)
	})
	return
}
