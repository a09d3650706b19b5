package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Car is a catalog entry. Cars are seeded reference data.
type Car struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Model     string          `gorm:"size:100;not null" json:"model"`
	BasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	Engine    string          `gorm:"size:50" json:"engine"`
	BodyType  string          `gorm:"size:50" json:"body_type"`
	Image     string          `gorm:"size:100" json:"image"`
}

// Color is the paint choice of a Configuration.
type Color string

const (
	ColorWhite  Color = "white"
	ColorBlack  Color = "black"
	ColorSilver Color = "silver"
)

// Valid reports whether c is one of the offered colors.
func (c Color) Valid() bool {
	switch c {
	case ColorWhite, ColorBlack, ColorSilver:
		return true
	}
	return false
}

// Configuration is an options bundle for exactly one Car. It is immutable
// once created and consumed by at most one Order.
type Configuration struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Color          Color     `gorm:"size:30;not null" json:"color"`
	ClimateControl bool      `gorm:"not null;default:false" json:"climate_control"`
	Multimedia     bool      `gorm:"not null;default:false" json:"multimedia"`
	CarID          uint      `gorm:"not null;index" json:"car_id"`
	Car            Car       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
