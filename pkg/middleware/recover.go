package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/response"
)

// Recovery catches any panic in downstream handlers, logs the stack trace,
// and renders the error page with 500 Internal Server Error.
//
//	r.Use(reqid.Middleware())
//	r.Use(middleware.Logger)
//	r.Use(middleware.Recovery)
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				page := response.Page{Name: "error", Data: map[string]string{"message": "Something went wrong."}}
				if rerr := response.FromCtx(r.Context()).Render(w, http.StatusInternalServerError, page); rerr != nil {
					response.Error(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}
		}()
		next.ServeHTTP(w, r)
	})
}
