package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/orm"
)

type ConfigurationRepository struct {
	db *gorm.DB
}

func NewConfigurationRepository(db *gorm.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// Create verifies the car exists and inserts cfg in one transaction.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg *models.Configuration) error {
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		exists, err := orm.DB(ctx, tx).Model(&models.Car{}).Where("id = ?", cfg.CarID).Exists()
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("car %d: %w", cfg.CarID, ErrNotFound)
		}
		return tx.Omit("Car").Create(cfg).Error
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("create configuration: %w", err)
	}
	return err
}

// FindByID returns ErrNotFound for unknown ids.
func (r *ConfigurationRepository) FindByID(ctx context.Context, id uint) (models.Configuration, error) {
	var cfg models.Configuration
	err := orm.DB(ctx, r.db).Where("id = ?", id).First(&cfg)
	return cfg, err
}

// PruneOrphans deletes configurations created before cutoff that no order
// references. Returns the number of rows removed.
func (r *ConfigurationRepository) PruneOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	referenced := r.db.Model(&models.Order{}).Select("config_id")
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Where("id NOT IN (?)", referenced).
		Delete(&models.Configuration{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune configurations: %w", res.Error)
	}
	return res.RowsAffected, nil
}
