package auth

import (
	"errors"
	"time"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
)

type SessionRecord struct {
	SID       string
	UserID    int64
	Role      enums.Role
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    int64
	SID       string
	Role      enums.Role
	ExpiresAt time.Time
}

type Me struct {
	ID       int64
	Name     string
	Email    string
	Role     enums.Role
	Verified bool
}

type Page struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

type AuthResult struct {
	AccessToken   string
	AccessExpires time.Time
	SID           string
	Me            Me
}
