package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
)

// NotificationRepository stores the notification history.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Append inserts notifications in one batch; existing IDs are ignored.
func (r *NotificationRepository) Append(ctx context.Context, ns ...notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	q := psql.Insert("notifications").
		Columns("id", "username", "type", "title", "message", "read", "created_at")
	for _, n := range ns {
		q = q.Values(n.ID.String(), n.Recipient, string(n.Type), n.Title, n.Message, n.Read, n.Timestamp)
	}

	sql, args, err := q.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.conn.Pool().Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to append notifications: %w", err)
	}
	return nil
}

// List returns the newest notifications of username.
func (r *NotificationRepository) List(ctx context.Context, username string, limit int) ([]notification.Notification, error) {
	q := psql.Select("id", "username", "type", "title", "message", "read", "created_at").
		From("notifications").
		Where("username = ?", username).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.Notification, error) {
		var (
			n   notification.Notification
			id  string
			typ string
		)
		err := row.Scan(&id, &n.Recipient, &typ, &n.Title, &n.Message, &n.Read, &n.Timestamp)
		n.ID = notification.ID(id)
		n.Type = notification.Type(typ)
		n.Timestamp = n.Timestamp.UTC()
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return out, nil
}

// MarkAllRead marks all unread notifications of username as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, username string) (int, error) {
	sql, args, err := psql.Update("notifications").
		Set("read", true).
		Where("username = ? AND read = FALSE", username).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.conn.Pool().Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Prune deletes notifications older than before (zero = no age limit) and
// keeps at most keep newest per student (0 = no cap).
func (r *NotificationRepository) Prune(ctx context.Context, before time.Time, keep int) (int, error) {
	var total int64

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if !before.IsZero() {
			tag, err := tx.Exec(ctx, "DELETE FROM notifications WHERE created_at < $1", before)
			if err != nil {
				return err
			}
			total += tag.RowsAffected()
		}

		if keep > 0 {
			tag, err := tx.Exec(ctx, `
				DELETE FROM notifications WHERE id IN (
					SELECT id FROM (
						SELECT id, ROW_NUMBER() OVER (PARTITION BY username ORDER BY created_at DESC) AS rn
						FROM notifications
					) ranked WHERE rn > $1
				)`, keep)
			if err != nil {
				return err
			}
			total += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return int(total), nil
}
