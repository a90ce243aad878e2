package policy

import (
	"context"
	"net/http"

	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/models"
)

// AuthGate is the central authorization point of the application.
type AuthGate struct {
	Gate *gate.Gate[*models.User]
}

// NewAuthGate builds the gate for the configured policy. The addressee rule
// is only registered when answers are restricted to the addressed expert.
func NewAuthGate(cfg config.PolicyConfig) *AuthGate {
	g := gate.New[*models.User](RoleResolver)
	if cfg.AnswerRequiresAddressee {
		g.Register(ResourceQuestion, NewAddresseePolicy())
	}
	return &AuthGate{Gate: g}
}

// Authorize checks if the current user can perform an action on a resource.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	u, ok := UserFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, u, action, resourceType, resource)
}

// CanProfile checks only profile permissions. Used by templates to build the navigation.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, u, action, resourceType)
}

// RequirePermission redirects anonymous requests to /login and requests
// lacking the permission to /. Both happen before the handler runs.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !ag.CanProfile(r.Context(), action, resourceType) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
