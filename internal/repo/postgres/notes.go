package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/staroracle/internal/domain/note"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, researcher_id, asteroid_id, title, content, risk_override, created_at, updated_at`

type NotesRepo struct {
	base
}

func NewNotesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotesRepo {
	return &NotesRepo{base{pool: pool, prom: prom}}
}

func scanNote(row pgx.Row) (n note.Note, err error) {
	err = row.Scan(&n.ID, &n.ResearcherID, &n.AsteroidID, &n.Title, &n.Content, &n.RiskOverride, &n.CreatedAt, &n.UpdatedAt)
	return
}

func (r *NotesRepo) List(ctx context.Context, researcherID string, asteroidID *string, limit int) ([]note.Note, error) {
	out := make([]note.Note, 0)

	err := r.observe("notes.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+noteColumns+`
			FROM research_notes
			WHERE researcher_id = $1
			  AND ($2::text IS NULL OR asteroid_id = $2)
			ORDER BY updated_at DESC, id
			LIMIT NULLIF($3::int, 0)
		`, researcherID, asteroidID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			n, err := scanNote(rows)
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	return out, err
}

func (r *NotesRepo) Create(ctx context.Context, n note.Note) (out note.Note, err error) {
	err = r.observe("notes.create", func() error {
		out, err = scanNote(r.pool.QueryRow(ctx, `
			INSERT INTO research_notes (`+noteColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING `+noteColumns,
			n.ID, n.ResearcherID, n.AsteroidID, n.Title, n.Content, n.RiskOverride, n.CreatedAt, n.UpdatedAt))
		return err
	})
	return
}

// Update only touches notes owned by researcherID.
func (r *NotesRepo) Update(ctx context.Context, researcherID, id string, req note.SaveRequest) (out note.Note, err error) {
	err = r.observe("notes.update", func() error {
		out, err = scanNote(r.pool.QueryRow(ctx, `
			UPDATE research_notes
			SET title = $3, content = $4, risk_override = $5, updated_at = NOW()
			WHERE id = $1 AND researcher_id = $2
			RETURNING `+noteColumns,
			id, researcherID, req.Title, req.Content, req.RiskOverride))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = note.ErrNotFound
	}
	return
}

func (r *NotesRepo) Delete(ctx context.Context, researcherID, id string) (bool, error) {
	var affected int64

	err := r.observe("notes.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM research_notes WHERE id = $1 AND researcher_id = $2`, id, researcherID)
		affected = tag.RowsAffected()
		return err
	})
	return affected > 0, err
}

func (r *NotesRepo) Count(ctx context.Context, researcherID string) (n int, err error) {
	err = r.observe("notes.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM research_notes WHERE researcher_id = $1`, researcherID).Scan(&n)
	})
	return
}
