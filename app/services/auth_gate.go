package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/session"
)

const sessionUserKey = "user_id"

// LoginInput is the login form. Identifier is an email or a phone number.
type LoginInput struct {
	Identifier string `form:"email_or_phone"  validate:"required"`
	Password   string `form:"password,notrim" validate:"required"`
	Remember   bool   `form:"remember"`
}

// AuthGate binds authenticated users to sessions and guards protected
// operations.
type AuthGate struct {
	identity *IdentityService
}

func NewAuthGate(identity *IdentityService) *AuthGate {
	return &AuthGate{identity: identity}
}

// Login authenticates and binds the user to sess under a fresh session id.
// remember selects a persistent cookie over a browser-session one.
func (g *AuthGate) Login(ctx context.Context, sess *session.Session, in LoginInput) (models.User, error) {
	user, err := g.identity.Authenticate(ctx, in.Identifier, in.Password)
	if err != nil {
		return models.User{}, err
	}

	sess.Regenerate()
	sess.Set(sessionUserKey, user.ID)
	sess.SetRemember(in.Remember)

	logger.WithCtx(ctx).Info("user logged in", "user_id", user.ID, "remember", in.Remember)
	return user, nil
}

// Logout drops every value in sess and rotates its id.
func (g *AuthGate) Logout(sess *session.Session) {
	sess.Invalidate()
}

// CurrentUser returns the user bound to sess, or nil for anonymous
// sessions and users that no longer exist.
func (g *AuthGate) CurrentUser(ctx context.Context, sess *session.Session) *models.User {
	if sess == nil {
		return nil
	}
	id, ok := sess.GetUint(sessionUserKey)
	if !ok {
		return nil
	}
	user, err := g.identity.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.WithCtx(ctx).Error("load session user", "user_id", id, "error", err)
		}
		return nil
	}
	return &user
}

// RequireAuth fails with ErrUnauthorized unless sess belongs to a user.
func (g *AuthGate) RequireAuth(ctx context.Context, sess *session.Session) (models.User, error) {
	user := g.CurrentUser(ctx, sess)
	if user == nil {
		return models.User{}, ErrUnauthorized
	}
	return *user, nil
}

// Guard adapts RequireAuth to middleware.RequireAuth: on success the user
// is stored in the returned context.
func (g *AuthGate) Guard(r *http.Request) (context.Context, error) {
	user, err := g.RequireAuth(r.Context(), session.FromCtx(r.Context()))
	if err != nil {
		return nil, err
	}
	return WithUser(r.Context(), user), nil
}

type userCtxKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromCtx returns the user stored by Guard.
func UserFromCtx(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(models.User)
	return u, ok
}
