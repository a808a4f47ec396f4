package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
)

const (
	MinPasswordLen = 6
	MinSessionTTL  = time.Hour
	MaxSessionTTL  = 30 * 24 * time.Hour
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (pgrepo.UserRecord, error)
	UpsertByEmail(ctx context.Context, name, email, passwordHash, role string, verified bool) (pgrepo.UserRecord, error)
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
	FindByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	ListByRole(ctx context.Context, role string, limit, offset int) ([]pgrepo.UserRecord, int64, error)
	MarkVerified(ctx context.Context, userID int64) error
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord) error
	Get(ctx context.Context, sid string) (SessionRecord, error)
	Delete(ctx context.Context, sid string) error
}

type Service struct {
	jwt        *JWTManager
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	now        func() time.Time
}

type Dependencies struct {
	JWT        *JWTManager
	Users      UserStore
	Sessions   SessionStore
	SessionTTL time.Duration
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func NewService(deps Dependencies) *Service {
	ttl := deps.SessionTTL
	if ttl < MinSessionTTL {
		ttl = MinSessionTTL
	}
	if ttl > MaxSessionTTL {
		ttl = MaxSessionTTL
	}

	return &Service{
		jwt:        deps.JWT,
		users:      deps.Users,
		sessions:   deps.Sessions,
		sessionTTL: ttl,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Me, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || !strings.Contains(email, "@") {
		return Me{}, ErrInvalidInput
	}
	if len(in.Password) < MinPasswordLen {
		return Me{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Me{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := s.users.Create(ctx, name, email, string(hash), string(enums.RoleCustomer))
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return Me{}, ErrEmailTaken
		}
		return Me{}, fmt.Errorf("create user: %w", err)
	}

	return meFromRecord(record), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	record, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	role := enums.Role(record.Role)
	if !role.Valid() {
		return AuthResult{}, fmt.Errorf("user %d has unknown role %q", record.ID, record.Role)
	}

	sid, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}

	session := SessionRecord{
		SID:       sid,
		UserID:    record.ID,
		Role:      role,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(record.ID, sid, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		AccessExpires: accessExpires,
		SID:           sid,
		Me:            meFromRecord(record),
	}, nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	session, err := s.sessions.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return Identity{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		UserID: claims.UserID,
		SID:    claims.SID,
		Role:   claims.Role,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (Me, error) {
	record, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Me{}, ErrUnauthorized
		}
		return Me{}, fmt.Errorf("find user: %w", err)
	}
	return meFromRecord(record), nil
}

// EnsureUser creates or refreshes an account without failing on reruns.
// The seed command uses it so seeding stays idempotent.
func (s *Service) EnsureUser(ctx context.Context, name, email, password string, role enums.Role) (Me, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || !strings.Contains(email, "@") || len(password) < MinPasswordLen {
		return Me{}, ErrInvalidInput
	}
	if !role.Valid() {
		return Me{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Me{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := s.users.UpsertByEmail(ctx, name, email, string(hash), string(role), true)
	if err != nil {
		return Me{}, fmt.Errorf("upsert user: %w", err)
	}

	return meFromRecord(record), nil
}

// ListCustomers pages through customer accounts for the admin panel.
func (s *Service) ListCustomers(ctx context.Context, page, pageSize int) ([]Me, Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	records, total, err := s.users.ListByRole(ctx, string(enums.RoleCustomer), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list customers: %w", err)
	}

	items := make([]Me, 0, len(records))
	for _, record := range records {
		items = append(items, meFromRecord(record))
	}

	meta := Page{Page: page, PageSize: pageSize, Total: total}
	meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	return items, meta, nil
}

// VerifyCustomer flags a customer account as verified. Verifying an already
// verified account is a no-op, not an error.
func (s *Service) VerifyCustomer(ctx context.Context, userID int64) (Me, error) {
	if userID <= 0 {
		return Me{}, ErrInvalidInput
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Me{}, ErrUserNotFound
		}
		return Me{}, fmt.Errorf("mark customer verified: %w", err)
	}

	record, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Me{}, fmt.Errorf("reload verified customer: %w", err)
	}
	return meFromRecord(record), nil
}

func meFromRecord(record pgrepo.UserRecord) Me {
	return Me{
		ID:       record.ID,
		Name:     record.Name,
		Email:    record.Email,
		Role:     enums.Role(record.Role),
		Verified: record.IsVerified,
	}
}
