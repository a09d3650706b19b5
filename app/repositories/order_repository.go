package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/orm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create re-checks every reference inside the insert transaction so a
// concurrent prune or bad id cannot slip past the earlier reads.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		q := func() *orm.Query { return orm.DB(ctx, tx) }

		if ok, err := q().Model(&models.User{}).Where("id = ?", order.UserID).Exists(); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("user %d: %w", order.UserID, ErrNotFound)
		}

		if ok, err := q().Model(&models.Car{}).Where("id = ?", order.CarID).Exists(); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("car %d: %w", order.CarID, ErrNotFound)
		}

		var cfg models.Configuration
		if err := q().Where("id = ?", order.ConfigID).First(&cfg); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("configuration %d: %w", order.ConfigID, ErrNotFound)
			}
			return err
		}
		if cfg.CarID != order.CarID {
			return ErrInconsistentConfiguration
		}

		return tx.Omit(clause.Associations).Create(order).Error
	})
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInconsistentConfiguration) {
		return fmt.Errorf("create order: %w", err)
	}
	return err
}

// FindWithDetails loads an order with its user, car and configuration.
func (r *OrderRepository) FindWithDetails(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := orm.DB(ctx, r.db.Preload("User").Preload("Car").Preload("Configuration")).
		Where("id = ?", id).
		First(&order)
	return order, err
}

// ForUser lists a user's orders, newest first.
func (r *OrderRepository) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := orm.DB(ctx, r.db).Where("user_id = ?", userID).Order("id DESC").Get(&orders)
	return orders, err
}
