// Package jobs holds the background jobs and the queue-backed senders that
// enqueue them.
package jobs

import (
	"context"

	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/mail"
	"github.com/shashiranjanraj/carby/pkg/queue"
)

// Dispatcher enqueues jobs. *queue.Manager satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Deps are the collaborators jobs need when a worker runs them.
type Deps struct {
	Orders   *repositories.OrderRepository
	Notifier services.Notifier // delivers synchronously, e.g. *services.MailNotifier
	Mailer   mail.Sender
}

// Register makes every job type known to m, wired with deps.
func Register(m *queue.Manager, deps Deps) {
	m.Register(func() queue.Job { return &OrderConfirmationJob{deps: deps} })
	m.Register(func() queue.Job { return &ResetLinkJob{deps: deps} })
}
