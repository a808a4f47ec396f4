package model

import (
	"time"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
)

type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           enums.Role `json:"role"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	CreatedAt      time.Time  `json:"created_at"`
}
