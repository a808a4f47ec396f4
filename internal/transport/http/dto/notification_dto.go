package dto

import "time"

type NotificationResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Meta  PageMeta               `json:"meta"`
}

type NotificationSendRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

type NotificationSendResponse struct {
	OK bool `json:"ok"`
}

type MarkReadResponse struct {
	OK bool `json:"ok"`
}
