package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/internal/models"
	"github.com/diewo77/go-questions/internal/services"
)

type ctxKey string

const userCtxKey = ctxKey("user")

// UserFinder loads a user by its unique name.
type UserFinder interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
}

// WithUser stores the current user in context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext returns the current user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// CurrentUser loads the record behind the session username on every request.
// A session naming an unknown user is cleared and the request continues anonymously.
func CurrentUser(users UserFinder, sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, ok := auth.UsernameFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.FindByName(r.Context(), name)
			switch {
			case errors.Is(err, services.ErrNotFound):
				sessions.Clear(w, r)
			case err != nil:
				slog.ErrorContext(r.Context(), "load current user", "user", name, "error", err)
			default:
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
