package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/pkg/cache"
	"github.com/shashiranjanraj/carby/pkg/testkit"
)

func newUser(username, email, phone string) *models.User {
	return &models.User{Username: username, Email: email, Phone: phone, PasswordHash: "x"}
}

func TestUserCreateReportsConflictingField(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewUserRepository(testkit.DB(t))
	require.NoError(t, users.Create(ctx, newUser("alice", "a@x.com", "+1000")))

	cases := []struct {
		name  string
		user  *models.User
		field string
	}{
		{"email", newUser("bob", "a@x.com", "+2000"), "email"},
		{"phone", newUser("bob", "b@x.com", "+1000"), "phone"},
		{"username", newUser("alice", "b@x.com", "+2000"), "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := users.Create(ctx, tc.user)

			var dup *repositories.DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tc.field, dup.Field)
			assert.ErrorIs(t, err, repositories.ErrDuplicateIdentity)
		})
	}
}

func TestUserCreateLosingRaceReportsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testkit.DB(t)
	users := repositories.NewUserRepository(db)

	// A rival registration commits between the existence checks and the
	// insert; only the unique index catches it.
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:rival_insert", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO users (username, email, phone, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
			"rival", "a@x.com", "+9000", "x", time.Now())
		if err != nil {
			_ = tx.AddError(err)
		}
	}))

	err := users.Create(ctx, newUser("alice", "a@x.com", "+1000"))
	require.True(t, raced)

	var dup *repositories.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.ErrorIs(t, err, repositories.ErrDuplicateIdentity)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n, "the failed transaction leaves no rows")
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewUserRepository(testkit.DB(t))
	u := newUser("alice", "a@x.com", "+1000")
	require.NoError(t, users.Create(ctx, u))

	byEmail, err := users.FindByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	byPhone, err := users.FindByIdentifier(ctx, "+1000")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, u.ID, byPhone.ID)

	_, err = users.FindByIdentifier(ctx, "alice")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCarsAreListedInIDOrderAndCached(t *testing.T) {
	ctx := context.Background()
	db := testkit.SeededDB(t)
	store := cache.NewMemory()
	cars := repositories.NewCarRepository(db, store)

	list, err := cars.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Sedan Standard", list[0].Model)
	assert.True(t, decimal.NewFromInt(1_200_000).Equal(list[0].BasePrice))

	// A row inserted behind the cache's back is invisible until Forget.
	require.NoError(t, db.Create(&models.Car{Model: "Coupe", BasePrice: decimal.NewFromInt(1)}).Error)
	list, err = cars.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, cars.Forget(ctx))
	list, err = cars.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = cars.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestConfigurationRequiresExistingCar(t *testing.T) {
	ctx := context.Background()
	configs := repositories.NewConfigurationRepository(testkit.SeededDB(t))

	err := configs.Create(ctx, &models.Configuration{CarID: 999, Color: models.ColorBlack})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	cfg := &models.Configuration{CarID: 1, Color: models.ColorBlack, ClimateControl: true}
	require.NoError(t, configs.Create(ctx, cfg))

	got, err := configs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ColorBlack, got.Color)
	assert.True(t, got.ClimateControl)
	assert.False(t, got.Multimedia)
}

type orderFixture struct {
	db      *gorm.DB
	user    *models.User
	configs *repositories.ConfigurationRepository
	orders  *repositories.OrderRepository
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	db := testkit.SeededDB(t)
	u := newUser("alice", "a@x.com", "+1000")
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), u))
	return orderFixture{
		db:      db,
		user:    u,
		configs: repositories.NewConfigurationRepository(db),
		orders:  repositories.NewOrderRepository(db),
	}
}

func TestOrderCreateChecksReferences(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	cfg := &models.Configuration{CarID: 1, Color: models.ColorWhite}
	require.NoError(t, f.configs.Create(ctx, cfg))

	base := func() *models.Order {
		return &models.Order{
			UserID: f.user.ID, CarID: 1, ConfigID: cfg.ID,
			Address: "123 Main St", PaymentMethod: models.PaymentCash, Total: decimal.NewFromInt(1_200_000),
		}
	}

	o := base()
	o.UserID = 999
	assert.ErrorIs(t, f.orders.Create(ctx, o), repositories.ErrNotFound)

	o = base()
	o.ConfigID = 999
	assert.ErrorIs(t, f.orders.Create(ctx, o), repositories.ErrNotFound)

	o = base()
	o.CarID = 2
	assert.ErrorIs(t, f.orders.Create(ctx, o), repositories.ErrInconsistentConfiguration)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "rejected orders leave no rows")

	o = base()
	require.NoError(t, f.orders.Create(ctx, o))

	full, err := f.orders.FindWithDetails(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", full.User.Username)
	assert.Equal(t, "Sedan Standard", full.Car.Model)
	assert.Equal(t, models.ColorWhite, full.Configuration.Color)

	mine, err := f.orders.ForUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestPruneOrphansKeepsOrderedAndFreshConfigurations(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	old := time.Now().Add(-48 * time.Hour)

	orphan := &models.Configuration{CarID: 1, Color: models.ColorWhite, CreatedAt: old}
	ordered := &models.Configuration{CarID: 1, Color: models.ColorBlack, CreatedAt: old}
	fresh := &models.Configuration{CarID: 2, Color: models.ColorSilver}
	for _, c := range []*models.Configuration{orphan, ordered, fresh} {
		require.NoError(t, f.configs.Create(ctx, c))
	}
	require.NoError(t, f.orders.Create(ctx, &models.Order{
		UserID: f.user.ID, CarID: 1, ConfigID: ordered.ID,
		Address: "1 Elm", PaymentMethod: models.PaymentCredit, Total: decimal.NewFromInt(1),
	}))

	n, err := f.configs.PruneOrphans(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.configs.FindByID(ctx, orphan.ID)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	_, err = f.configs.FindByID(ctx, ordered.ID)
	assert.NoError(t, err)
	_, err = f.configs.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
