package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
)

// NotificationRepository keeps created_at as unix nanoseconds so ordering is numeric.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Append(ctx context.Context, ns ...notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	q := sq.Insert("notifications").
		Options("OR IGNORE").
		Columns("id", "username", "type", "title", "message", "read", "created_at")
	for _, n := range ns {
		q = q.Values(n.ID.String(), n.Recipient, string(n.Type), n.Title, n.Message, n.Read, n.Timestamp.UnixNano())
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, username string, limit int) ([]notification.Notification, error) {
	q := sq.Select("id", "username", "type", "title", "message", "read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"username": username}).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var (
			n       notification.Notification
			id, typ string
			created int64
		)
		if err := rows.Scan(&id, &n.Recipient, &typ, &n.Title, &n.Message, &n.Read, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = notification.ID(id)
		n.Type = notification.Type(typ)
		n.Timestamp = time.Unix(0, created).UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, username string) (int, error) {
	query, args, err := sq.Update("notifications").
		Set("read", true).
		Where(squirrel.Eq{"username": username, "read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Prune deletes entries older than before (zero = no age limit) and caps every
// student at keep newest entries (0 = no cap).
func (r *NotificationRepository) Prune(ctx context.Context, before time.Time, keep int) (int, error) {
	var total int64

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if !before.IsZero() {
			query, args, err := sq.Delete("notifications").
				Where(squirrel.Lt{"created_at": before.UnixNano()}).
				ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			total += n
		}

		if keep > 0 {
			res, err := tx.ExecContext(ctx, `
				DELETE FROM notifications WHERE id IN (
					SELECT id FROM (
						SELECT id, ROW_NUMBER() OVER (PARTITION BY username ORDER BY created_at DESC) AS rn
						FROM notifications
					) WHERE rn > ?
				)`, keep)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return int(total), nil
}
