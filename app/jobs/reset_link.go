package jobs

import (
	"context"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/services"
)

// ResetLinkJob mails a password-reset token.
type ResetLinkJob struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`

	deps Deps
}

// Handle implements queue.Job.
func (j *ResetLinkJob) Handle(ctx context.Context) error {
	user := models.User{Email: j.Email, Username: j.Username}
	return j.deps.Mailer.Send(ctx, services.ResetMessage(user, j.Token))
}

// QueuedResetSender enqueues reset links.
type QueuedResetSender struct {
	q Dispatcher
}

func NewQueuedResetSender(q Dispatcher) *QueuedResetSender {
	return &QueuedResetSender{q: q}
}

// SendResetLink implements services.ResetLinkSender.
func (s *QueuedResetSender) SendResetLink(ctx context.Context, user models.User, token string) error {
	return s.q.Dispatch(ctx, &ResetLinkJob{Email: user.Email, Username: user.Username, Token: token})
}
