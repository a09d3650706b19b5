package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/metrics"
	"github.com/shashiranjanraj/carby/pkg/validate"
)

// Option surcharges, in currency units. They are not stored per configuration.
var (
	ClimateControlSurcharge = decimal.NewFromInt(50000)
	MultimediaSurcharge     = decimal.NewFromInt(75000)
)

// Quote prices car with the options in cfg.
func Quote(car models.Car, cfg models.Configuration) decimal.Decimal {
	total := car.BasePrice
	if cfg.ClimateControl {
		total = total.Add(ClimateControlSurcharge)
	}
	if cfg.Multimedia {
		total = total.Add(MultimediaSurcharge)
	}
	return total
}

// OrderInput is the checkout form.
type OrderInput struct {
	Address       string `form:"address"        validate:"required,max=500"`
	PaymentMethod string `form:"payment_method" validate:"required,in=cash|credit"`
}

// PlaceOrderInput identifies what is being ordered and by whom.
type PlaceOrderInput struct {
	UserID   uint
	CarID    uint
	ConfigID uint
	OrderInput
}

// Checkout is a resolved car/configuration pair with its price.
type Checkout struct {
	Car           models.Car           `json:"car"`
	Configuration models.Configuration `json:"configuration"`
	Total         decimal.Decimal      `json:"total"`
}

// OrderResult is a committed order plus the outcome of the confirmation.
// Warning is set when the confirmation could not be handed off; the order
// stands regardless.
type OrderResult struct {
	Order        models.Order
	Notification NotificationResult
	Warning      bool
}

// OrderWorkflow places orders.
type OrderWorkflow struct {
	users    *repositories.UserRepository
	cars     *repositories.CarRepository
	configs  *repositories.ConfigurationRepository
	orders   *repositories.OrderRepository
	notifier Notifier
}

func NewOrderWorkflow(
	users *repositories.UserRepository,
	cars *repositories.CarRepository,
	configs *repositories.ConfigurationRepository,
	orders *repositories.OrderRepository,
	notifier Notifier,
) *OrderWorkflow {
	return &OrderWorkflow{users: users, cars: cars, configs: configs, orders: orders, notifier: notifier}
}

// Checkout resolves the car, then the configuration, and checks that the
// configuration belongs to the car.
func (w *OrderWorkflow) Checkout(ctx context.Context, carID, configID uint) (Checkout, error) {
	car, err := w.cars.FindByID(ctx, carID)
	if err != nil {
		return Checkout{}, fmt.Errorf("car %d: %w", carID, err)
	}
	cfg, err := w.configs.FindByID(ctx, configID)
	if err != nil {
		return Checkout{}, fmt.Errorf("configuration %d: %w", configID, err)
	}
	if cfg.CarID != car.ID {
		return Checkout{}, ErrInconsistentConfiguration
	}
	return Checkout{Car: car, Configuration: cfg, Total: Quote(car, cfg)}, nil
}

// PlaceOrder commits the order, then asks the notifier to confirm it. A
// notification failure is logged and flagged on the result; it never
// undoes the order.
func (w *OrderWorkflow) PlaceOrder(ctx context.Context, in PlaceOrderInput) (OrderResult, error) {
	if errs := validate.Struct(in.OrderInput); validate.HasErrors(errs) {
		return OrderResult{}, &ValidationError{Fields: errs}
	}

	co, err := w.Checkout(ctx, in.CarID, in.ConfigID)
	if err != nil {
		return OrderResult{}, err
	}

	order := models.Order{
		UserID:        in.UserID,
		CarID:         co.Car.ID,
		ConfigID:      co.Configuration.ID,
		Address:       in.Address,
		PaymentMethod: models.PaymentMethod(in.PaymentMethod),
		Total:         co.Total,
	}
	if err := w.orders.Create(ctx, &order); err != nil {
		return OrderResult{}, err
	}
	metrics.OrdersPlaced.Inc()

	log := logger.WithCtx(ctx).With("order_id", order.ID)
	log.Info("order placed", "user_id", order.UserID, "car_id", order.CarID, "total", order.Total.String())

	result := OrderResult{Order: order}
	result.Notification = w.notify(ctx, order, co)
	if !result.Notification.Sent {
		result.Warning = true
		log.Error("order confirmation failed", "error", result.Notification.Err)
	}
	return result, nil
}

func (w *OrderWorkflow) notify(ctx context.Context, order models.Order, co Checkout) (res NotificationResult) {
	defer func() {
		if r := recover(); r != nil {
			res = NotificationResult{Err: fmt.Errorf("notifier panicked: %v", r)}
		}
	}()

	user, err := w.users.FindByID(ctx, order.UserID)
	if err != nil {
		return NotificationResult{Err: fmt.Errorf("load user: %w", err)}
	}
	return w.notifier.SendOrderConfirmation(ctx, user, order, co.Car, co.Configuration)
}
