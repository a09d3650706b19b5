package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/cache"
	"github.com/shashiranjanraj/carby/pkg/orm"
)

const (
	catalogCacheKey = "catalog:cars"
	catalogCacheTTL = 5 * time.Minute
)

// CarRepository reads the catalog. Cars are reference data, so the full
// listing is cached when a store is configured.
type CarRepository struct {
	db    *gorm.DB
	store cache.Store
}

// NewCarRepository creates a repository; store may be nil to disable caching.
func NewCarRepository(db *gorm.DB, store cache.Store) *CarRepository {
	return &CarRepository{db: db, store: store}
}

// All returns every car ordered by id ascending.
func (r *CarRepository) All(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	q := orm.DB(ctx, r.db).Model(&models.Car{}).Order("id ASC")
	if r.store != nil {
		return cars, q.Cache(r.store, catalogCacheKey, catalogCacheTTL, &cars)
	}
	return cars, q.Get(&cars)
}

// FindByID returns ErrNotFound for unknown ids.
func (r *CarRepository) FindByID(ctx context.Context, id uint) (models.Car, error) {
	var car models.Car
	err := orm.DB(ctx, r.db).Where("id = ?", id).First(&car)
	return car, err
}

// Forget drops the cached listing, e.g. after seeding.
func (r *CarRepository) Forget(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Del(ctx, catalogCacheKey)
}
