package services_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/auth"
	"github.com/shashiranjanraj/carby/pkg/testkit"
)

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type env struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	identity *services.IdentityService
	catalog  *services.CatalogService
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testkit.SeededDB(t)
	users := repositories.NewUserRepository(db)
	return env{
		db:       db,
		users:    users,
		identity: services.NewIdentityService(users),
		catalog: services.NewCatalogService(
			repositories.NewCarRepository(db, nil),
			repositories.NewConfigurationRepository(db),
		),
	}
}

func (e env) workflow(n services.Notifier) *services.OrderWorkflow {
	return services.NewOrderWorkflow(
		e.users,
		repositories.NewCarRepository(e.db, nil),
		repositories.NewConfigurationRepository(e.db),
		repositories.NewOrderRepository(e.db),
		n,
	)
}

func alice() services.RegisterInput {
	return services.RegisterInput{
		Username:        "alice",
		Email:           "a@x.com",
		Phone:           "+1000",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func register(t *testing.T, e env) models.User {
	t.Helper()
	u, err := e.identity.Register(context.Background(), alice())
	require.NoError(t, err)
	return u
}

// ─── Identity ────────────────────────────────────────────────────────────────

func TestRegisterStoresHashNotPassword(t *testing.T) {
	e := newEnv(t)
	u := register(t, e)

	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "secret1"))
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	in := alice()
	in.Email = "not-an-email"
	in.ConfirmPassword = "other"
	_, err := e.identity.Register(context.Background(), in)

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "confirm_password")
}

func TestRegisterAllowsSpacesInUsername(t *testing.T) {
	e := newEnv(t)

	in := alice()
	in.Username = "Jane Doe"
	in.Email = "jane@x.com"
	in.Phone = "+3000"
	u, err := e.identity.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Username)
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestRegisterDuplicateEmailIgnoresCase(t *testing.T) {
	e := newEnv(t)
	register(t, e)
	before := countUsers(t, e.db)

	in := alice()
	in.Username = "alice2"
	in.Phone = "+2000"
	in.Email = "A@X.com"
	_, err := e.identity.Register(context.Background(), in)

	var dup *services.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.ErrorIs(t, err, services.ErrDuplicateIdentity)
	assert.Equal(t, before, countUsers(t, e.db), "no row is written")
}

func TestAuthenticateByEmailOrPhone(t *testing.T) {
	e := newEnv(t)
	u := register(t, e)
	ctx := context.Background()

	for _, id := range []string{"a@x.com", "+1000", " A@X.COM "} {
		got, err := e.identity.Authenticate(ctx, id, "secret1")
		require.NoError(t, err, id)
		assert.Equal(t, u.ID, got.ID)
	}
}

func TestAuthenticateFailuresLookTheSame(t *testing.T) {
	e := newEnv(t)
	register(t, e)
	ctx := context.Background()

	_, wrongPassword := e.identity.Authenticate(ctx, "a@x.com", "nope")
	_, unknownUser := e.identity.Authenticate(ctx, "b@x.com", "secret1")

	assert.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

func TestCreateConfiguration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cfg, err := e.catalog.CreateConfiguration(ctx, 1, services.ConfigureInput{Color: "black", ClimateControl: true})
	require.NoError(t, err)
	assert.Equal(t, uint(1), cfg.CarID)
	assert.Equal(t, models.ColorBlack, cfg.Color)

	_, err = e.catalog.CreateConfiguration(ctx, 1, services.ConfigureInput{Color: "pink"})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = e.catalog.CreateConfiguration(ctx, 999, services.ConfigureInput{Color: "white"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = e.catalog.GetCar(ctx, 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetCarIsRepeatable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.catalog.GetCar(ctx, 1)
	require.NoError(t, err)
	second, err := e.catalog.GetCar(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Model, second.Model)
	assert.True(t, first.BasePrice.Equal(second.BasePrice))
	assert.Equal(t, first, second)
}

// ─── Order workflow ──────────────────────────────────────────────────────────

type stubNotifier struct {
	calls int
	res   services.NotificationResult
	panic bool
}

func (s *stubNotifier) SendOrderConfirmation(context.Context, models.User, models.Order, models.Car, models.Configuration) services.NotificationResult {
	s.calls++
	if s.panic {
		panic("smtp exploded")
	}
	return s.res
}

func TestQuote(t *testing.T) {
	car := models.Car{BasePrice: decimal.NewFromInt(1_200_000)}

	assert.Equal(t, "1200000", services.Quote(car, models.Configuration{}).String())
	assert.Equal(t, "1250000", services.Quote(car, models.Configuration{ClimateControl: true}).String())
	assert.Equal(t, "1325000", services.Quote(car, models.Configuration{ClimateControl: true, Multimedia: true}).String())
}

func placeInput(userID, carID, configID uint) services.PlaceOrderInput {
	return services.PlaceOrderInput{
		UserID:   userID,
		CarID:    carID,
		ConfigID: configID,
		OrderInput: services.OrderInput{
			Address:       "123 Main St",
			PaymentMethod: "credit",
		},
	}
}

func TestPlaceOrderPersistsAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := register(t, e)
	cfg, err := e.catalog.CreateConfiguration(ctx, 1, services.ConfigureInput{Color: "black", ClimateControl: true})
	require.NoError(t, err)

	n := &stubNotifier{res: services.NotificationResult{Sent: true}}
	res, err := e.workflow(n).PlaceOrder(ctx, placeInput(u.ID, 1, cfg.ID))
	require.NoError(t, err)

	assert.False(t, res.Warning)
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "1250000", res.Order.Total.String())

	var stored models.Order
	require.NoError(t, e.db.First(&stored, res.Order.ID).Error)
	assert.Equal(t, models.PaymentCredit, stored.PaymentMethod)
	assert.Equal(t, "123 Main St", stored.Address)
}

func TestPlaceOrderSurvivesNotifierFailure(t *testing.T) {
	cases := map[string]*stubNotifier{
		"error": {res: services.NotificationResult{Err: errors.New("connection refused")}},
		"panic": {panic: true},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			u := register(t, e)
			cfg, err := e.catalog.CreateConfiguration(ctx, 2, services.ConfigureInput{Color: "silver"})
			require.NoError(t, err)

			res, err := e.workflow(n).PlaceOrder(ctx, placeInput(u.ID, 2, cfg.ID))
			require.NoError(t, err)
			assert.True(t, res.Warning)
			assert.Error(t, res.Notification.Err)

			var count int64
			require.NoError(t, e.db.Model(&models.Order{}).Count(&count).Error)
			assert.EqualValues(t, 1, count, "order stays committed")
		})
	}
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := register(t, e)
	cfg, err := e.catalog.CreateConfiguration(ctx, 1, services.ConfigureInput{Color: "white"})
	require.NoError(t, err)
	n := &stubNotifier{res: services.NotificationResult{Sent: true}}
	w := e.workflow(n)

	_, err = w.PlaceOrder(ctx, placeInput(u.ID, 2, cfg.ID))
	assert.ErrorIs(t, err, services.ErrInconsistentConfiguration)

	_, err = w.PlaceOrder(ctx, placeInput(u.ID, 1, 999))
	assert.ErrorIs(t, err, services.ErrNotFound)

	in := placeInput(u.ID, 1, cfg.ID)
	in.PaymentMethod = "barter"
	in.Address = ""
	_, err = w.PlaceOrder(ctx, in)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "address")
	assert.Contains(t, verr.Fields, "payment_method")

	assert.Zero(t, n.calls)
	var count int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

// ─── Notifier ────────────────────────────────────────────────────────────────

func TestMailNotifierReportsFailure(t *testing.T) {
	mailer := testkit.NewMockMailer()
	n := services.NewMailNotifier(mailer)
	user := models.User{Username: "alice", Email: "a@x.com"}
	order := models.Order{ID: 7, Address: "123 Main St", PaymentMethod: models.PaymentCredit, Total: decimal.NewFromInt(1_250_000)}
	car := models.Car{Model: "Sedan Standard"}
	cfg := models.Configuration{Color: models.ColorBlack, ClimateControl: true}

	res := n.SendOrderConfirmation(context.Background(), user, order, car, cfg)
	require.True(t, res.Sent)
	require.Len(t, mailer.Sent(), 1)
	msg := mailer.Sent()[0]
	assert.Equal(t, []string{"a@x.com"}, msg.Recipients())
	assert.Contains(t, msg.SubjectLine(), "#7")
	assert.Contains(t, msg.BodyText(), "1250000.00")
	assert.Contains(t, msg.BodyText(), "Climate control: yes")

	mailer.FailWith(errors.New("timeout"))
	res = n.SendOrderConfirmation(context.Background(), user, order, car, cfg)
	assert.False(t, res.Sent)
	assert.ErrorContains(t, res.Err, "timeout")
}
