// Package controllers holds the page handlers. Every failure resolves to a
// rendered page or a redirect with a flash; no raw error reaches the client.
package controllers

import (
	"errors"

	"github.com/shashiranjanraj/carby/app/services"
)

// Paths redirected to by handlers.
const (
	PathHome    = "/"
	PathLogin   = "/login"
	PathCatalog = "/catalog"
	PathReset   = "/reset_password"
)

// fieldErrors extracts per-field messages from a *services.ValidationError.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
