package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/metrics"
)

// OrderConfirmationJob mails the confirmation for one committed order.
// Only the id travels through the queue; the worker reloads the rest.
type OrderConfirmationJob struct {
	OrderID uint `json:"order_id"`

	deps Deps
}

// Handle implements queue.Job. A returned error makes the queue retry.
func (j *OrderConfirmationJob) Handle(ctx context.Context) error {
	order, err := j.deps.Orders.FindWithDetails(ctx, j.OrderID)
	if errors.Is(err, repositories.ErrNotFound) {
		logger.WithCtx(ctx).Warn("confirmation for missing order dropped", "order_id", j.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", j.OrderID, err)
	}

	res := j.deps.Notifier.SendOrderConfirmation(ctx, order.User, order, order.Car, order.Configuration)
	if !res.Sent {
		return res.Err
	}
	logger.WithCtx(ctx).Info("order confirmation sent", "order_id", order.ID)
	return nil
}

// QueuedNotifier hands confirmations to the queue so the request never
// waits on the mail server. Sent means "enqueued".
type QueuedNotifier struct {
	q Dispatcher
}

func NewQueuedNotifier(q Dispatcher) *QueuedNotifier {
	return &QueuedNotifier{q: q}
}

// SendOrderConfirmation implements services.Notifier.
func (n *QueuedNotifier) SendOrderConfirmation(ctx context.Context, _ models.User, order models.Order, _ models.Car, _ models.Configuration) services.NotificationResult {
	if err := n.q.Dispatch(ctx, &OrderConfirmationJob{OrderID: order.ID}); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		return services.NotificationResult{Err: fmt.Errorf("enqueue confirmation for order %d: %w", order.ID, err)}
	}
	metrics.Notifications.WithLabelValues("queued").Inc()
	return services.NotificationResult{Sent: true}
}
