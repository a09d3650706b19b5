package controllers

import (
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/ctx"
)

type HomeController struct {
	gate *services.AuthGate
}

func NewHomeController(gate *services.AuthGate) *HomeController {
	return &HomeController{gate: gate}
}

// Index renders the landing page.
func (h *HomeController) Index(c *ctx.Context) {
	c.View("home", map[string]any{
		"user": h.gate.CurrentUser(c.Context(), c.Session()),
	})
}
