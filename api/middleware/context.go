package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/streetcart/groupbuy-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxUserName contextKey = "user_name"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func UserNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserName).(string); ok {
		return v
	}
	return ""
}

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Role   enums.UserRole
}

// IdentityFromContext rebuilds the caller identity seeded by Auth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Identity{}, false
	}
	role, err := enums.ParseUserRole(RoleFromContext(ctx))
	if err != nil {
		return Identity{}, false
	}
	return Identity{UserID: id, Name: UserNameFromContext(ctx), Role: role}, true
}

// WithIdentity injects the caller into the context for downstream handlers.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, identity.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(identity.Role))
	return context.WithValue(ctx, ctxUserName, identity.Name)
}
