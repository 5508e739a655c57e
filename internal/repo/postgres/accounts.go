package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersEmailUniq    = "users_email_key"
	researchersIDUniq = "researchers_research_id_key"
)

type AccountsRepo struct {
	base
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{base{pool: pool, prom: prom}}
}

// Register writes the user, the researcher profile (if any) and default
// preferences in one transaction. Any failure rolls everything back.
func (r *AccountsRepo) Register(ctx context.Context, reg user.Registration) (out user.Registration, err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	out, err = r.RegisterTx(ctx, tx, reg)
	if err != nil {
		return user.Registration{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return user.Registration{}, err
	}

	return
}

func (r *AccountsRepo) RegisterTx(ctx context.Context, tx pgx.Tx, reg user.Registration) (user.Registration, error) {
	// cheap pre-check, the unique index is still the source of truth
	var exists bool

	err := r.observe("accounts.register.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, reg.User.Email).Scan(&exists)
	})
	if err != nil {
		return user.Registration{}, err
	}
	if exists {
		return user.Registration{}, user.ErrEmailTaken
	}

	u := reg.User
	err = r.observe("accounts.register.insert_user", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, verified, verification_token, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Verified, u.VerificationToken, u.CreatedAt, u.UpdatedAt)
		return e
	})
	if err != nil {
		return user.Registration{}, translateRegisterErr(err)
	}

	if p := reg.Researcher; p != nil {
		err = r.observe("accounts.register.insert_researcher", func() error {
			_, e := tx.Exec(ctx, `
				INSERT INTO researchers (id, user_id, research_id, organization, specialization, created_at)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, p.ID, p.UserID, p.ResearchID, p.Organization, p.Specialization, p.CreatedAt)
			return e
		})
		if err != nil {
			return user.Registration{}, translateRegisterErr(err)
		}
	}

	prefs := reg.Preferences
	err = r.observe("accounts.register.insert_preferences", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO user_preferences (user_id, email_alerts, sms_alerts, push_notifications, updated_at)
			VALUES ($1,$2,$3,$4,$5)
		`, prefs.UserID, prefs.EmailAlerts, prefs.SMSAlerts, prefs.PushNotifications, prefs.UpdatedAt)
		return e
	})
	if err != nil {
		return user.Registration{}, err
	}

	return reg, nil
}

func translateRegisterErr(err error) error {
	name, ok := uniqueConstraint(err)
	if !ok {
		return err
	}

	switch name {
	case usersEmailUniq:
		return user.ErrEmailTaken
	case researchersIDUniq:
		return user.ErrResearchIDTaken
	}
	return errors.Join(user.ErrEmailTaken, err)
}
