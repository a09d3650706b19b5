// Package routes registers the site's named routes.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/carby/app/controllers"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/ctx"
	"github.com/shashiranjanraj/carby/pkg/metrics"
	"github.com/shashiranjanraj/carby/pkg/middleware"
	"github.com/shashiranjanraj/carby/pkg/router"
)

// Handlers is everything the route table points at.
type Handlers struct {
	Home    *controllers.HomeController
	Auth    *controllers.AuthController
	Catalog *controllers.CatalogController
	Order   *controllers.OrderController

	Gate         *services.AuthGate
	LoginLimiter *middleware.Limiter
}

// Web registers the page routes on r.
func Web(r *router.Router, h Handlers) {
	r.Get("/", "home", ctx.Wrap(h.Home.Index))
	r.Form("/register", "register", ctx.Wrap(h.Auth.Register))
	r.Form("/login", "login", ctx.Wrap(h.Auth.Login),
		middleware.RateLimit(h.LoginLimiter, http.MethodPost))
	r.Form("/reset_password", "reset_password", ctx.Wrap(h.Auth.ResetPassword))

	auth := r.Group("", middleware.RequireAuth(h.Gate.Guard, controllers.PathLogin))
	auth.Get("/logout", "logout", ctx.Wrap(h.Auth.Logout))
	auth.Get("/catalog", "catalog", ctx.Wrap(h.Catalog.Index))
	auth.Form("/configure/{carId}", "configure", ctx.Wrap(h.Catalog.Configure))
	auth.Form("/order/{carId}/{configId}", "order", ctx.Wrap(h.Order.Order))

	r.Handle("/metrics", "metrics", metrics.Handler())
}
