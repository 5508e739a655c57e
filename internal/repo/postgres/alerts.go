package postgres

import (
	"context"

	"github.com/geocoder89/staroracle/internal/domain/alert"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AlertsRepo struct {
	base
}

func NewAlertsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AlertsRepo {
	return &AlertsRepo{base{pool: pool, prom: prom}}
}

func (r *AlertsRepo) List(ctx context.Context, userID string, limit int) ([]alert.Alert, error) {
	out := make([]alert.Alert, 0)

	err := r.observe("alerts.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, asteroid_id, message, is_read, created_at
			FROM user_alerts
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a alert.Alert
			if err := rows.Scan(&a.ID, &a.UserID, &a.AsteroidID, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

func (r *AlertsRepo) CountUnread(ctx context.Context, userID string) (n int, err error) {
	err = r.observe("alerts.count_unread", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_alerts WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	})
	return
}
