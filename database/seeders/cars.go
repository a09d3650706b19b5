package seeders

import (
	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	Register("cars", SeedCars)
}

// SampleCars is the reference catalog loaded into an empty cars table.
func SampleCars() []models.Car {
	return []models.Car{
		{
			Model:     "Sedan Standard",
			BasePrice: decimal.NewFromInt(1_200_000),
			Engine:    "1.6L Turbo",
			BodyType:  "Sedan",
			Image:     "sedan.jpg",
		},
		{
			Model:     "Crossover Premium",
			BasePrice: decimal.NewFromInt(1_800_000),
			Engine:    "2.0L Hybrid",
			BodyType:  "Crossover",
			Image:     "crossover.jpg",
		},
	}
}

// SeedCars inserts SampleCars unless the catalog already has rows.
func SeedCars(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Car{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		cars := SampleCars()
		return tx.Create(&cars).Error
	})
}
