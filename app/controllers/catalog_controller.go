package controllers

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/ctx"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/session"
)

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// Index lists every car.
func (cc *CatalogController) Index(c *ctx.Context) {
	cars, err := cc.catalog.ListCars(c.Context())
	if err != nil {
		logger.WithCtx(c.Context()).Error("list cars", "error", err)
		c.Flash(session.FlashDanger, "The catalog is unavailable right now.")
		c.Redirect(PathHome)
		return
	}
	c.View("catalog", map[string]any{"cars": cars})
}

// Configure shows the options form for a car and records the chosen
// configuration.
func (cc *CatalogController) Configure(c *ctx.Context) {
	carID, ok := c.ParamUint("carId")
	if !ok {
		carNotFound(c)
		return
	}

	car, err := cc.catalog.GetCar(c.Context(), carID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logger.WithCtx(c.Context()).Error("load car", "car_id", carID, "error", err)
		}
		carNotFound(c)
		return
	}

	data := map[string]any{
		"car":    car,
		"colors": []models.Color{models.ColorWhite, models.ColorBlack, models.ColorSilver},
		"surcharges": map[string]string{
			"climate_control": services.ClimateControlSurcharge.String(),
			"multimedia":      services.MultimediaSurcharge.String(),
		},
	}

	if !c.IsPost() {
		c.View("configure", data)
		return
	}

	var in services.ConfigureInput
	if errs := c.BindForm(&in); len(errs) > 0 {
		c.Invalid("configure", data, errs, map[string]string{"color": in.Color})
		return
	}

	cfg, err := cc.catalog.CreateConfiguration(c.Context(), car.ID, in)
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			c.Invalid("configure", data, errs, map[string]string{"color": in.Color})
			return
		}
		if !errors.Is(err, services.ErrNotFound) {
			logger.WithCtx(c.Context()).Error("create configuration", "car_id", car.ID, "error", err)
		}
		carNotFound(c)
		return
	}

	c.Redirect(fmt.Sprintf("/order/%d/%d", car.ID, cfg.ID))
}

func carNotFound(c *ctx.Context) {
	c.Flash(session.FlashDanger, "Car not found.")
	c.Redirect(PathCatalog)
}
