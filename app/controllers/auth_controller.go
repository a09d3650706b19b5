package controllers

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/pkg/ctx"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/session"
)

const msgInvalidCredentials = "Invalid email/phone or password."

type AuthController struct {
	identity *services.IdentityService
	gate     *services.AuthGate
	reset    *services.PasswordReset
}

func NewAuthController(identity *services.IdentityService, gate *services.AuthGate, reset *services.PasswordReset) *AuthController {
	return &AuthController{identity: identity, gate: gate, reset: reset}
}

// Register shows and submits the registration form.
func (a *AuthController) Register(c *ctx.Context) {
	if !c.IsPost() {
		c.View("register", nil)
		return
	}

	var in services.RegisterInput
	old := func() map[string]string {
		return map[string]string{"username": in.Username, "email": in.Email, "phone": in.Phone}
	}
	if errs := c.BindForm(&in); len(errs) > 0 {
		c.Invalid("register", nil, errs, old())
		return
	}

	user, err := a.identity.Register(c.Context(), in)
	var dup *services.DuplicateError
	switch {
	case err == nil:
	case errors.As(err, &dup):
		c.Invalid("register", nil, map[string]string{
			dup.Field: fmt.Sprintf("This %s is already registered.", dup.Field),
		}, old())
		return
	default:
		if errs, ok := fieldErrors(err); ok {
			c.Invalid("register", nil, errs, old())
			return
		}
		logger.WithCtx(c.Context()).Error("registration failed", "error", err)
		c.Flash(session.FlashDanger, "Registration failed. Please try again.")
		c.Redirect("/register")
		return
	}

	logger.WithCtx(c.Context()).Info("user registered", "user_id", user.ID)
	c.Flash(session.FlashSuccess, "Registration successful. Please log in.")
	c.Redirect(PathLogin)
}

// Login shows and submits the login form.
func (a *AuthController) Login(c *ctx.Context) {
	if !c.IsPost() {
		c.View("login", nil)
		return
	}

	var in services.LoginInput
	if errs := c.BindForm(&in); len(errs) > 0 {
		c.Invalid("login", nil, errs, map[string]string{"email_or_phone": in.Identifier})
		return
	}

	user, err := a.gate.Login(c.Context(), c.Session(), in)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			logger.WithCtx(c.Context()).Error("login failed", "error", err)
		}
		c.Invalid("login", nil, map[string]string{"form": msgInvalidCredentials},
			map[string]string{"email_or_phone": in.Identifier})
		return
	}

	c.Flash(session.FlashSuccess, fmt.Sprintf("Welcome, %s!", user.Username))
	c.Redirect(PathCatalog)
}

// Logout clears the session.
func (a *AuthController) Logout(c *ctx.Context) {
	a.gate.Logout(c.Session())
	c.Flash(session.FlashInfo, "You have been logged out.")
	c.Redirect(PathHome)
}

// ResetPassword shows the request form, answers submissions and checks
// links carrying a token.
func (a *AuthController) ResetPassword(c *ctx.Context) {
	if !c.IsPost() {
		data := map[string]any{}
		if token := c.R.URL.Query().Get("token"); token != "" {
			_, err := a.reset.Verify(c.Context(), token)
			data["token_valid"] = err == nil
		}
		c.View("reset_password", data)
		return
	}

	var in services.ResetInput
	if errs := c.BindForm(&in); len(errs) > 0 {
		c.Invalid("reset_password", nil, errs, map[string]string{"email": in.Email})
		return
	}

	found, err := a.reset.Request(c.Context(), in.Email)
	switch {
	case err != nil:
		logger.WithCtx(c.Context()).Error("reset request failed", "error", err)
		c.Flash(session.FlashDanger, "Something went wrong. Please try again.")
	case found:
		c.Flash(session.FlashInfo, "Password reset instructions have been sent to your email.")
		c.Redirect(PathLogin)
		return
	default:
		c.Flash(session.FlashDanger, "Email not found.")
	}
	c.Redirect(PathReset)
}
