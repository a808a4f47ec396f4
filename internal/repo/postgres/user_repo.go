package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	Role           string
	TelegramChatID *int64
	IsVerified     bool
	CreatedAt      time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || passwordHash == "" || role == "" {
		return UserRecord{}, fmt.Errorf("invalid user payload")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role, is_verified, created_at)
VALUES ($1, $2, $3, $4, FALSE, NOW())
RETURNING id, name, email, password_hash, role, telegram_chat_id, is_verified, created_at
`, name, email, passwordHash, role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return record, nil
}

// UpsertByEmail is used by the operator seed: repeated runs converge on the
// given attributes instead of duplicating rows.
func (r *UserRepo) UpsertByEmail(ctx context.Context, name, email, passwordHash, role string, verified bool) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = normalizeEmail(email)
	if email == "" || passwordHash == "" {
		return UserRecord{}, fmt.Errorf("invalid user payload")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role, is_verified, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (email) DO UPDATE SET
	name = EXCLUDED.name,
	password_hash = EXCLUDED.password_hash,
	role = EXCLUDED.role,
	is_verified = EXCLUDED.is_verified
RETURNING id, name, email, password_hash, role, telegram_chat_id, is_verified, created_at
`, strings.TrimSpace(name), email, passwordHash, role, verified))
	if err != nil {
		return UserRecord{}, fmt.Errorf("upsert user by email: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, role, telegram_chat_id, is_verified, created_at
FROM users
WHERE id = $1
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by id: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = normalizeEmail(email)
	if email == "" {
		return UserRecord{}, fmt.Errorf("invalid email")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, role, telegram_chat_id, is_verified, created_at
FROM users
WHERE email = $1
LIMIT 1
`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by email: %w", err)
	}

	return record, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role string, limit, offset int) ([]UserRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if role == "" {
		return nil, 0, fmt.Errorf("invalid role")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users by role: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, email, password_hash, role, telegram_chat_id, is_verified, created_at
FROM users
WHERE role = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, role, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	items := make([]UserRecord, 0, limit)
	for rows.Next() {
		record, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", rows.Err())
	}

	return items, total, nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET is_verified = TRUE
WHERE id = $1
`, userID)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (UserRecord, error) {
	var record UserRecord
	if err := row.Scan(
		&record.ID,
		&record.Name,
		&record.Email,
		&record.PasswordHash,
		&record.Role,
		&record.TelegramChatID,
		&record.IsVerified,
		&record.CreatedAt,
	); err != nil {
		return UserRecord{}, err
	}
	return record, nil
}
