package postgres

import (
	"context"

	"github.com/geocoder89/staroracle/internal/domain/preferences"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PreferencesRepo struct {
	base
}

func NewPreferencesRepo(pool *pgxpool.Pool, prom *observability.Prom) *PreferencesRepo {
	return &PreferencesRepo{base{pool: pool, prom: prom}}
}

// GetOrCreate lazily inserts the defaults on first read.
func (r *PreferencesRepo) GetOrCreate(ctx context.Context, userID string) (p preferences.Preferences, err error) {
	err = r.observe("preferences.get_or_create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO user_preferences (user_id, email_alerts, sms_alerts, push_notifications, updated_at)
			VALUES ($1, TRUE, FALSE, TRUE, NOW())
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING user_id, email_alerts, sms_alerts, push_notifications, updated_at
		`, userID).Scan(&p.UserID, &p.EmailAlerts, &p.SMSAlerts, &p.PushNotifications, &p.UpdatedAt)
	})
	return
}

func (r *PreferencesRepo) Upsert(ctx context.Context, in preferences.Preferences) (p preferences.Preferences, err error) {
	err = r.observe("preferences.upsert", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO user_preferences (user_id, email_alerts, sms_alerts, push_notifications, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (user_id) DO UPDATE
			SET email_alerts = EXCLUDED.email_alerts,
			    sms_alerts = EXCLUDED.sms_alerts,
			    push_notifications = EXCLUDED.push_notifications,
			    updated_at = NOW()
			RETURNING user_id, email_alerts, sms_alerts, push_notifications, updated_at
		`, in.UserID, in.EmailAlerts, in.SMSAlerts, in.PushNotifications).
			Scan(&p.UserID, &p.EmailAlerts, &p.SMSAlerts, &p.PushNotifications, &p.UpdatedAt)
	})
	return
}
