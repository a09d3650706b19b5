package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is descriptive only; no payment is processed.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

// Valid reports whether p is an accepted payment method.
func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCredit
}

// Order is created once at checkout and never modified.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Address       string          `gorm:"type:text;not null" json:"address"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	UserID   uint `gorm:"not null;index" json:"user_id"`
	CarID    uint `gorm:"not null;index" json:"car_id"`
	ConfigID uint `gorm:"not null;index" json:"config_id"`

	User          User          `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Car           Car           `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Configuration Configuration `gorm:"foreignKey:ConfigID;constraint:OnDelete:RESTRICT" json:"-"`
}
