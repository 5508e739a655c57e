package postgres

import (
	"context"

	"github.com/geocoder89/staroracle/internal/domain/watchlist"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WatchlistRepo struct {
	base
}

func NewWatchlistRepo(pool *pgxpool.Pool, prom *observability.Prom) *WatchlistRepo {
	return &WatchlistRepo{base{pool: pool, prom: prom}}
}

func (r *WatchlistRepo) List(ctx context.Context, userID string) ([]watchlist.Entry, error) {
	out := make([]watchlist.Entry, 0)

	err := r.observe("watchlist.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, asteroid_id, asteroid_name, notes, added_at
			FROM watchlist
			WHERE user_id = $1
			ORDER BY added_at DESC, asteroid_id
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e watchlist.Entry
			if err := rows.Scan(&e.ID, &e.UserID, &e.AsteroidID, &e.AsteroidName, &e.Notes, &e.AddedAt); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

// Upsert keys on (user, asteroid); re-adding refreshes added_at and notes.
func (r *WatchlistRepo) Upsert(ctx context.Context, userID string, req watchlist.AddRequest) (e watchlist.Entry, err error) {
	err = r.observe("watchlist.upsert", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO watchlist (id, user_id, asteroid_id, asteroid_name, notes, added_at)
			VALUES ($1,$2,$3,$4,$5,NOW())
			ON CONFLICT (user_id, asteroid_id)
			DO UPDATE SET notes = EXCLUDED.notes, added_at = NOW()
			RETURNING id, user_id, asteroid_id, asteroid_name, notes, added_at
		`, uuid.NewString(), userID, req.AsteroidID, req.AsteroidName, req.Notes).
			Scan(&e.ID, &e.UserID, &e.AsteroidID, &e.AsteroidName, &e.Notes, &e.AddedAt)
	})
	return
}

func (r *WatchlistRepo) Remove(ctx context.Context, userID, asteroidID string) (bool, error) {
	var affected int64

	err := r.observe("watchlist.remove", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND asteroid_id = $2`, userID, asteroidID)
		affected = tag.RowsAffected()
		return err
	})
	return affected > 0, err
}

func (r *WatchlistRepo) Count(ctx context.Context, userID string) (n int, err error) {
	err = r.observe("watchlist.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, userID).Scan(&n)
	})
	return
}

func (r *WatchlistRepo) ListWithNoteCounts(ctx context.Context, userID, researcherID string) ([]watchlist.EntryWithNotes, error) {
	out := make([]watchlist.EntryWithNotes, 0)

	err := r.observe("watchlist.list_with_note_counts", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT w.id, w.user_id, w.asteroid_id, w.asteroid_name, w.notes, w.added_at,
			       COUNT(n.id) AS notes_count
			FROM watchlist w
			LEFT JOIN research_notes n ON n.asteroid_id = w.asteroid_id AND n.researcher_id = $2
			WHERE w.user_id = $1
			GROUP BY w.id
			ORDER BY w.added_at DESC, w.asteroid_id
		`, userID, researcherID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e watchlist.EntryWithNotes
			if err := rows.Scan(&e.ID, &e.UserID, &e.AsteroidID, &e.AsteroidName, &e.Notes, &e.AddedAt, &e.NotesCount); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}
