package controllers

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/ctx"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/session"
)

type OrderController struct {
	workflow *services.OrderWorkflow
}

func NewOrderController(workflow *services.OrderWorkflow) *OrderController {
	return &OrderController{workflow: workflow}
}

// Order shows the checkout page for a configured car and places the order.
func (oc *OrderController) Order(c *ctx.Context) {
	carID, ok1 := c.ParamUint("carId")
	configID, ok2 := c.ParamUint("configId")
	if !ok1 || !ok2 {
		orderFailed(c, services.ErrNotFound)
		return
	}

	checkout, err := oc.workflow.Checkout(c.Context(), carID, configID)
	if err != nil {
		orderFailed(c, err)
		return
	}

	if !c.IsPost() {
		c.View("order", checkout)
		return
	}

	user, ok := services.UserFromCtx(c.Context())
	if !ok {
		c.Redirect(PathLogin)
		return
	}

	var in services.OrderInput
	old := func() map[string]string {
		return map[string]string{"address": in.Address, "payment_method": in.PaymentMethod}
	}
	if errs := c.BindForm(&in); len(errs) > 0 {
		c.Invalid("order", checkout, errs, old())
		return
	}

	res, err := oc.workflow.PlaceOrder(c.Context(), services.PlaceOrderInput{
		UserID:     user.ID,
		CarID:      carID,
		ConfigID:   configID,
		OrderInput: in,
	})
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			c.Invalid("order", checkout, errs, old())
			return
		}
		orderFailed(c, err)
		return
	}

	if res.Warning {
		c.Flash(session.FlashWarning, fmt.Sprintf(
			"Your order #%d has been placed, but we could not send the confirmation email.", res.Order.ID))
	} else {
		c.Flash(session.FlashSuccess, fmt.Sprintf(
			"Your order #%d has been placed. A confirmation email is on its way.", res.Order.ID))
	}
	c.Redirect(PathHome)
}

// orderFailed is the catch-all for order pages: a danger notice and back
// to the catalog.
func orderFailed(c *ctx.Context, err error) {
	msg := "Something went wrong while placing your order."
	switch {
	case errors.Is(err, services.ErrNotFound):
		msg = "The selected car or configuration was not found."
	case errors.Is(err, services.ErrInconsistentConfiguration):
		msg = "That configuration does not belong to the selected car."
	default:
		logger.WithCtx(c.Context()).Error("order failed", "error", err)
	}
	c.Flash(session.FlashDanger, msg)
	c.Redirect(PathCatalog)
}
