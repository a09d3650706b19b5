package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/session"
)

// Guard resolves the caller's identity. It returns a context carrying the
// identity, or an error when the caller is anonymous.
type Guard func(r *http.Request) (context.Context, error)

// RequireAuth rejects anonymous callers before the handler runs: it queues
// a flash, persists the session and redirects to loginPath.
func RequireAuth(guard Guard, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := guard(r)
			if err != nil {
				if sess := session.FromCtx(r.Context()); sess != nil {
					sess.Flash(session.FlashWarning, "Please log in to continue.")
					if err := sess.Save(r.Context(), w); err != nil {
						logger.WithCtx(r.Context()).Error("session: save failed", "error", err)
					}
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
