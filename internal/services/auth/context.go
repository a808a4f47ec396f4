package auth

import (
	"context"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

type Identity struct {
	UserID int64
	SID    string
	Role   enums.Role
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// AuthorizeOwner is the single access gate for owner-scoped resources.
// Admins pass unconditionally, everyone else must own the resource.
func AuthorizeOwner(identity Identity, ownerID int64) error {
	if identity.Role == enums.RoleAdmin {
		return nil
	}
	if identity.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// AuthorizeAdmin gates admin-only operations.
func AuthorizeAdmin(identity Identity) error {
	if identity.Role != enums.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
