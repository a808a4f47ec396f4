package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var (
	ErrValidation           = errors.New("validation error")
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationStore interface {
	Create(ctx context.Context, userID int64, message, notificationType string) (pgrepo.NotificationRecord, error)
	List(ctx context.Context, userID *int64, limit, offset int) ([]pgrepo.NotificationRecord, int64, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
}

// TelegramSender pushes a message to a chat. infra/telegram implements it.
type TelegramSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Service struct {
	store    NotificationStore
	users    UserStore
	telegram TelegramSender
	logger   *zap.Logger
}

type Dependencies struct {
	Store    NotificationStore
	Users    UserStore
	Telegram TelegramSender
	Logger   *zap.Logger
}

type Page struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:    deps.Store,
		users:    deps.Users,
		telegram: deps.Telegram,
		logger:   logger,
	}
}

// Send records an in-app notification and, when the user has a linked chat,
// mirrors it to Telegram. The Telegram leg is best effort.
func (s *Service) Send(ctx context.Context, userID int64, message string) error {
	message = strings.TrimSpace(message)
	if userID <= 0 || message == "" {
		return ErrValidation
	}

	if _, err := s.store.Create(ctx, userID, message, string(enums.NotificationTypeInApp)); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.telegram == nil || s.users == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user.TelegramChatID == nil {
		return nil
	}
	if err := s.telegram.Send(ctx, *user.TelegramChatID, message); err != nil {
		s.logger.Warn("telegram delivery failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	if _, err := s.store.Create(ctx, userID, message, string(enums.NotificationTypeTelegram)); err != nil {
		s.logger.Warn("record telegram notification failed", zap.Error(err))
	}

	return nil
}

// List scopes customers to their own notifications. Admins may pass a user
// filter or read the full feed.
func (s *Service) List(ctx context.Context, identity authsvc.Identity, filterUserID int64, page, pageSize int) ([]pgrepo.NotificationRecord, Page, error) {
	var userID *int64
	if identity.Role == enums.RoleAdmin {
		if filterUserID > 0 {
			userID = &filterUserID
		}
	} else {
		own := identity.UserID
		userID = &own
	}

	limit, offset, meta := clampPage(page, pageSize)
	records, total, err := s.store.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list notifications: %w", err)
	}

	meta.Total = total
	meta.TotalPages = int((total + int64(meta.PageSize) - 1) / int64(meta.PageSize))
	return records, meta, nil
}

// MarkRead flips one of the caller's notifications. The user scope in the
// update keeps one user from touching another's feed.
func (s *Service) MarkRead(ctx context.Context, identity authsvc.Identity, notificationID int64) error {
	if notificationID <= 0 {
		return ErrValidation
	}
	if err := s.store.MarkRead(ctx, notificationID, identity.UserID); err != nil {
		if errors.Is(err, pgrepo.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func clampPage(page, pageSize int) (limit, offset int, meta Page) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize, Page{Page: page, PageSize: pageSize}
}
