package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Load(ctx context.Context, username string) (progress.State, error) {
	query, args, err := sq.Select("document").
		From("progress_states").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return progress.State{}, fmt.Errorf("build query: %w", err)
	}

	var doc string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc); err != nil {
		if isNoRows(err) {
			return progress.State{}, shared.ErrStateNotFound
		}
		return progress.State{}, fmt.Errorf("load progress: %w", err)
	}

	state, _, err := progress.Decode([]byte(doc))
	return state, err
}

func (r *ProgressRepository) Save(ctx context.Context, state progress.State) error {
	doc, err := progress.Encode(state)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert("progress_states").
		Columns("username", "document", "streak", "updated_at").
		Values(state.Username, string(doc), state.Streak, state.UpdatedAt.UnixNano()).
		Suffix(`ON CONFLICT(username) DO UPDATE SET
			document = excluded.document,
			streak = excluded.streak,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// List returns all documents ordered by username. Undecodable rows are skipped.
func (r *ProgressRepository) List(ctx context.Context) ([]progress.State, error) {
	query, args, err := sq.Select("document").
		From("progress_states").
		OrderBy("username").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var states []progress.State
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		state, _, err := progress.Decode([]byte(doc))
		if err != nil {
			continue
		}
		states = append(states, state)
	}
	return states, rows.Err()
}
