package enums

type NotificationType string

const (
	NotificationTypeInApp    NotificationType = "in_app"
	NotificationTypeTelegram NotificationType = "telegram"
	NotificationTypeEmail    NotificationType = "email"
)
