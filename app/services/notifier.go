package services

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/mail"
	"github.com/shashiranjanraj/carby/pkg/metrics"
)

// NotificationResult reports whether a confirmation went out (or, for a
// queued notifier, was handed to the queue).
type NotificationResult struct {
	Sent bool
	Err  error
}

// Notifier confirms orders to customers. Implementations never panic and
// never return an error other than through the result.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, user models.User, order models.Order, car models.Car, cfg models.Configuration) NotificationResult
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`Hello {{.User.Username}},

Thank you for your order #{{.Order.ID}}.

Car:             {{.Car.Model}} ({{.Car.Engine}}, {{.Car.BodyType}})
Color:           {{.Config.Color}}
Climate control: {{if .Config.ClimateControl}}yes{{else}}no{{end}}
Multimedia:      {{if .Config.Multimedia}}yes{{else}}no{{end}}
Delivery to:     {{.Order.Address}}
Payment:         {{.Order.PaymentMethod}}
Total:           {{.Order.Total.StringFixed 2}}

We will contact you shortly.
`))

// ConfirmationMessage builds the order confirmation email.
func ConfirmationMessage(user models.User, order models.Order, car models.Car, cfg models.Configuration) (*mail.Message, error) {
	var body strings.Builder
	err := confirmationTmpl.Execute(&body, struct {
		User   models.User
		Order  models.Order
		Car    models.Car
		Config models.Configuration
	}{user, order, car, cfg})
	if err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	return mail.To(user.Email).
		Subject(fmt.Sprintf("Order #%d confirmed", order.ID)).
		Text(body.String()), nil
}

// MailNotifier delivers the confirmation synchronously. The mailer bounds
// each attempt with its configured timeout.
type MailNotifier struct {
	mailer mail.Sender
}

func NewMailNotifier(mailer mail.Sender) *MailNotifier {
	return &MailNotifier{mailer: mailer}
}

// SendOrderConfirmation implements Notifier.
func (n *MailNotifier) SendOrderConfirmation(ctx context.Context, user models.User, order models.Order, car models.Car, cfg models.Configuration) (res NotificationResult) {
	defer func() {
		if r := recover(); r != nil {
			res = NotificationResult{Err: fmt.Errorf("mailer panicked: %v", r)}
		}
		if res.Sent {
			metrics.Notifications.WithLabelValues("sent").Inc()
		} else {
			metrics.Notifications.WithLabelValues("failed").Inc()
		}
	}()

	msg, err := ConfirmationMessage(user, order, car, cfg)
	if err != nil {
		return NotificationResult{Err: err}
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return NotificationResult{Err: fmt.Errorf("send confirmation for order %d: %w", order.ID, err)}
	}
	return NotificationResult{Sent: true}
}
