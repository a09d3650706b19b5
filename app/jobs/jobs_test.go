package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/queue"
	"github.com/shashiranjanraj/carby/pkg/testkit"
)

type fixture struct {
	orders *repositories.OrderRepository
	mailer *testkit.MockMailer
	order  models.Order
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := testkit.SeededDB(t)

	user := models.User{Username: "alice", Email: "a@x.com", Phone: "+1000", PasswordHash: "x"}
	require.NoError(t, repositories.NewUserRepository(db).Create(ctx, &user))
	cfg := models.Configuration{CarID: 1, Color: models.ColorBlack}
	require.NoError(t, repositories.NewConfigurationRepository(db).Create(ctx, &cfg))

	orders := repositories.NewOrderRepository(db)
	order := models.Order{
		UserID: user.ID, CarID: 1, ConfigID: cfg.ID,
		Address: "123 Main St", PaymentMethod: models.PaymentCredit, Total: decimal.NewFromInt(1_200_000),
	}
	require.NoError(t, orders.Create(ctx, &order))

	return fixture{orders: orders, mailer: testkit.NewMockMailer(), order: order}
}

func (f fixture) deps() Deps {
	return Deps{Orders: f.orders, Notifier: services.NewMailNotifier(f.mailer), Mailer: f.mailer}
}

func TestOrderConfirmationJobMailsCustomer(t *testing.T) {
	f := newFixture(t)
	job := &OrderConfirmationJob{OrderID: f.order.ID, deps: f.deps()}

	require.NoError(t, job.Handle(context.Background()))
	require.Equal(t, 1, f.mailer.WasCalled())
	assert.Equal(t, []string{"a@x.com"}, f.mailer.Sent()[0].Recipients())
	assert.Contains(t, f.mailer.Sent()[0].BodyText(), "Sedan Standard")
}

func TestOrderConfirmationJobRetriesOnMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.FailWith(errors.New("connection refused"))
	job := &OrderConfirmationJob{OrderID: f.order.ID, deps: f.deps()}

	assert.ErrorContains(t, job.Handle(context.Background()), "connection refused")
}

func TestOrderConfirmationJobDropsMissingOrder(t *testing.T) {
	f := newFixture(t)
	job := &OrderConfirmationJob{OrderID: 999, deps: f.deps()}

	assert.NoError(t, job.Handle(context.Background()))
	assert.Zero(t, f.mailer.WasCalled())
}

func TestQueuedNotifierDeliversThroughWorkers(t *testing.T) {
	f := newFixture(t)
	m := queue.New(queue.NewMemoryDriver(8), queue.WithBackoff(time.Millisecond))
	Register(m, f.deps())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		m.Wait()
	}()
	m.Start(ctx, 1)

	res := NewQueuedNotifier(m).SendOrderConfirmation(ctx, models.User{}, f.order, models.Car{}, models.Configuration{})
	require.True(t, res.Sent)

	assert.Eventually(t, func() bool { return f.mailer.WasCalled() == 1 }, 5*time.Second, 10*time.Millisecond)
}

type brokenQueue struct{}

func (brokenQueue) Dispatch(context.Context, queue.Job) error { return errors.New("redis down") }

func TestQueuedNotifierReportsEnqueueFailure(t *testing.T) {
	res := NewQueuedNotifier(brokenQueue{}).SendOrderConfirmation(context.Background(),
		models.User{}, models.Order{ID: 3}, models.Car{}, models.Configuration{})

	assert.False(t, res.Sent)
	assert.ErrorContains(t, res.Err, "redis down")
}

func TestResetLinkJobSendsToken(t *testing.T) {
	mailer := testkit.NewMockMailer()
	job := &ResetLinkJob{Email: "a@x.com", Username: "alice", Token: "tok", deps: Deps{Mailer: mailer}}

	require.NoError(t, job.Handle(context.Background()))
	require.Equal(t, 1, mailer.WasCalled())
	assert.Contains(t, mailer.Sent()[0].BodyText(), "token=tok")
}
