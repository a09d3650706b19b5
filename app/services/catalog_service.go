package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
)

// ConfigureInput is the configuration form.
type ConfigureInput struct {
	Color          string `form:"color" validate:"required,in=white|black|silver"`
	ClimateControl bool   `form:"climate_control"`
	Multimedia     bool   `form:"multimedia"`
}

// CatalogService reads cars and records configurations.
type CatalogService struct {
	cars    *repositories.CarRepository
	configs *repositories.ConfigurationRepository
}

func NewCatalogService(cars *repositories.CarRepository, configs *repositories.ConfigurationRepository) *CatalogService {
	return &CatalogService{cars: cars, configs: configs}
}

// ListCars returns every car ordered by id.
func (s *CatalogService) ListCars(ctx context.Context) ([]models.Car, error) {
	return s.cars.All(ctx)
}

// GetCar returns ErrNotFound for unknown ids.
func (s *CatalogService) GetCar(ctx context.Context, id uint) (models.Car, error) {
	return s.cars.FindByID(ctx, id)
}

// CreateConfiguration records an options bundle for carID. Fails with
// ErrNotFound when the car does not exist.
func (s *CatalogService) CreateConfiguration(ctx context.Context, carID uint, in ConfigureInput) (models.Configuration, error) {
	color := models.Color(in.Color)
	if !color.Valid() {
		return models.Configuration{}, invalid("color", "The selected color is invalid.")
	}

	cfg := models.Configuration{
		CarID:          carID,
		Color:          color,
		ClimateControl: in.ClimateControl,
		Multimedia:     in.Multimedia,
	}
	if err := s.configs.Create(ctx, &cfg); err != nil {
		return models.Configuration{}, err
	}
	return cfg, nil
}

// GetConfiguration returns ErrNotFound for unknown ids.
func (s *CatalogService) GetConfiguration(ctx context.Context, id uint) (models.Configuration, error) {
	return s.configs.FindByID(ctx, id)
}

// PruneOrphanedConfigurations deletes configurations older than ttl that
// never became an order.
func (s *CatalogService) PruneOrphanedConfigurations(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.configs.PruneOrphans(ctx, time.Now().Add(-ttl))
}
