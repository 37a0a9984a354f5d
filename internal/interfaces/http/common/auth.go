package common

import (
	"context"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// AuthenticatedUser represents the JWT-derived principal.
type AuthenticatedUser struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Username string   `json:"username,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Actor はトークンの主体をドメインの Actor に変換する。未知のロールはそのまま渡し、ガード側で無視される。
func (u AuthenticatedUser) Actor() domain.Actor {
	roles := make([]domain.Role, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, domain.Role(role))
	}
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return domain.Actor{ID: u.ID, Name: name, Roles: roles}
}

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(AuthenticatedUser)
	return user, ok
}

// ActorFromContext は未認証なら匿名の Actor を返す。
func ActorFromContext(ctx context.Context) domain.Actor {
	user, ok := UserFromContext(ctx)
	if !ok {
		return domain.Actor{}
	}
	return user.Actor()
}
