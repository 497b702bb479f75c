package postgres

import (
	"context"
	"fmt"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository stores progress documents as JSONB.
type ProgressRepository struct {
	conn *Connection
	log  *logger.Logger
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection, log *logger.Logger) *ProgressRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressRepository{conn: conn, log: log.With(logger.Component("postgres_progress"))}
}

// Load returns the progress document of username.
func (r *ProgressRepository) Load(ctx context.Context, username string) (progress.State, error) {
	q, err := r.conn.querier()
	if err != nil {
		return progress.State{}, err
	}

	sql, args, err := psql.Select("document").
		From("progress_states").
		Where("username = ?", username).
		ToSql()
	if err != nil {
		return progress.State{}, fmt.Errorf("failed to build query: %w", err)
	}

	var doc []byte
	if err := q.QueryRow(ctx, sql, args...).Scan(&doc); err != nil {
		if IsNoRows(err) {
			return progress.State{}, shared.ErrStateNotFound
		}
		return progress.State{}, fmt.Errorf("failed to load progress: %w", err)
	}

	return r.decode(username, doc)
}

// Save upserts the progress document.
func (r *ProgressRepository) Save(ctx context.Context, state progress.State) error {
	q, err := r.conn.querier()
	if err != nil {
		return err
	}

	doc, err := progress.Encode(state)
	if err != nil {
		return err
	}

	sql, args, err := psql.Insert("progress_states").
		Columns("username", "document", "streak", "created_at", "updated_at").
		Values(state.Username, doc, state.Streak, state.CreatedAt, state.UpdatedAt).
		Suffix(`ON CONFLICT (username) DO UPDATE SET
			document = EXCLUDED.document,
			streak = EXCLUDED.streak,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// List returns every stored progress document. Corrupt documents are skipped and logged.
func (r *ProgressRepository) List(ctx context.Context) ([]progress.State, error) {
	q, err := r.conn.querier()
	if err != nil {
		return nil, err
	}

	sql, args, err := psql.Select("username", "document").
		From("progress_states").
		OrderBy("username").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var states []progress.State
	for rows.Next() {
		var (
			username string
			doc      []byte
		)
		if err := rows.Scan(&username, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		state, err := r.decode(username, doc)
		if err != nil {
			r.log.Warn("skipping corrupt progress document", logger.Username(username), logger.Err(err))
			continue
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

func (r *ProgressRepository) decode(username string, doc []byte) (progress.State, error) {
	state, repairs, err := progress.Decode(doc)
	if err != nil {
		return progress.State{}, err
	}
	if len(repairs) > 0 {
		r.log.Info("progress document repaired",
			logger.Username(username),
			logger.Int("repairs", len(repairs)),
		)
	}
	return state, nil
}
