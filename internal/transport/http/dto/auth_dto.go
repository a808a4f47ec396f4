package dto

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

type CustomerListResponse struct {
	Items []MeResponse `json:"items"`
	Meta  PageMeta     `json:"meta"`
}

type AuthTokenResponse struct {
	AccessToken  string     `json:"access_token"`
	ExpiresInSec int64      `json:"expires_in_sec"`
	Me           MeResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
