package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo struct {
	pool *pgxpool.Pool
}

type NotificationRecord struct {
	ID        int64
	UserID    int64
	Message   string
	Type      string
	IsRead    bool
	CreatedAt time.Time
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, userID int64, message, notificationType string) (NotificationRecord, error) {
	if r.pool == nil {
		return NotificationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	message = strings.TrimSpace(message)
	if userID <= 0 || message == "" || notificationType == "" {
		return NotificationRecord{}, fmt.Errorf("invalid notification payload")
	}

	var record NotificationRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO notifications (user_id, message, notification_type, is_read, created_at)
VALUES ($1, $2, $3, FALSE, NOW())
RETURNING id, user_id, message, notification_type, is_read, created_at
`, userID, message, notificationType).Scan(
		&record.ID,
		&record.UserID,
		&record.Message,
		&record.Type,
		&record.IsRead,
		&record.CreatedAt,
	)
	if err != nil {
		return NotificationRecord{}, fmt.Errorf("create notification: %w", err)
	}

	return record, nil
}

func (r *NotificationRepo) List(ctx context.Context, userID *int64, limit, offset int) ([]NotificationRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if userID != nil && *userID > 0 {
		where = "WHERE user_id = $1"
		args = append(args, *userID)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT id, user_id, message, notification_type, is_read, created_at
FROM notifications
%s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]NotificationRecord, 0, limit)
	for rows.Next() {
		var record NotificationRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Message,
			&record.Type,
			&record.IsRead,
			&record.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", rows.Err())
	}

	return items, total, nil
}

// MarkRead is scoped to the owning user so customers cannot ack each other's
// notifications.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if notificationID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid notification mark-read payload")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE notifications
SET is_read = TRUE
WHERE id = $1
  AND user_id = $2
`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
