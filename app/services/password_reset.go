package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/pkg/auth"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/mail"
)

// ResetInput is the password-reset request form.
type ResetInput struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetLinkSender delivers a reset token to a user.
type ResetLinkSender interface {
	SendResetLink(ctx context.Context, user models.User, token string) error
}

// PasswordReset issues and verifies reset tokens. Changing the password
// with a verified token is not offered.
type PasswordReset struct {
	users  *repositories.UserRepository
	tokens *auth.ResetTokens
	sender ResetLinkSender
}

func NewPasswordReset(users *repositories.UserRepository, tokens *auth.ResetTokens, sender ResetLinkSender) *PasswordReset {
	return &PasswordReset{users: users, tokens: tokens, sender: sender}
}

// Request reports whether email belongs to a user. For a known user it
// issues a token and hands it to the sender; delivery failures are logged
// and do not change the answer.
func (p *PasswordReset) Request(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reset lookup: %w", err)
	}

	token, err := p.tokens.Issue(user.ID, user.PasswordHash)
	if err != nil {
		logger.WithCtx(ctx).Error("issue reset token", "user_id", user.ID, "error", err)
		return true, nil
	}
	if err := p.sender.SendResetLink(ctx, user, token); err != nil {
		logger.WithCtx(ctx).Warn("reset link not delivered", "user_id", user.ID, "error", err)
	}
	return true, nil
}

// Verify returns the user a valid token was issued for.
func (p *PasswordReset) Verify(ctx context.Context, token string) (models.User, error) {
	var user models.User
	_, err := p.tokens.Verify(token, func(id uint) (string, error) {
		u, err := p.users.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		user = u
		return u.PasswordHash, nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ResetMessage builds the reset email carrying token.
func ResetMessage(user models.User, token string) *mail.Message {
	link := "/reset_password?token=" + url.QueryEscape(token)
	return mail.To(user.Email).
		Subject("Reset your password").
		Text(fmt.Sprintf("Hello %s,\n\nUse this link within %d minutes to reset your password:\n%s\n\nIf you did not ask for this, ignore this email.\n",
			user.Username, int(auth.ResetTTL.Minutes()), link))
}

// MailResetSender mails the link directly.
type MailResetSender struct {
	mailer mail.Sender
}

func NewMailResetSender(mailer mail.Sender) *MailResetSender {
	return &MailResetSender{mailer: mailer}
}

// SendResetLink implements ResetLinkSender.
func (s *MailResetSender) SendResetLink(ctx context.Context, user models.User, token string) error {
	return s.mailer.Send(ctx, ResetMessage(user, token))
}
