// Package server assembles routes and the middleware chain.
package server

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/httpx"
	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/middleware"
	"github.com/diewo77/go-questions/internal/policy"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg *config.Config, sessions auth.Sessions) http.Handler {
	rc := NewRouterConfig(db, cfg, sessions)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes
	ah := rc.AuthHandler
	qh := rc.QuestionHandler
	mux.HandleFunc("GET /{$}", qh.Home)
	mux.HandleFunc("GET /question/{id}", qh.Show)
	mux.HandleFunc("GET /register", ah.Register)
	mux.HandleFunc("POST /register", ah.Register)
	mux.HandleFunc("GET /login", ah.Login)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("GET /logout", ah.Logout)

	// Routes gated by profile permission: /login without a user, / without the permission.
	require := rc.AuthGate.RequirePermission
	ask := require(policy.ResourceQuestion, gate.ActionCreate)(http.HandlerFunc(qh.Ask))
	answer := require(policy.ResourceQuestion, gate.ActionUpdate)(http.HandlerFunc(qh.Answer))
	mux.Handle("GET /ask", ask)
	mux.Handle("POST /ask", ask)
	mux.Handle("GET /answer/{id}", answer)
	mux.Handle("POST /answer/{id}", answer)
	mux.Handle("GET /unanswered", require(policy.ResourceQuestion, gate.ActionList)(http.HandlerFunc(qh.Unanswered)))

	// Admin routes
	uh := rc.AdminUserHandler
	mux.Handle("GET /users", require(policy.ResourceUser, gate.ActionList)(http.HandlerFunc(uh.List)))
	mux.Handle("GET /promote/{userId}", require(policy.ResourceUser, gate.ActionUpdate)(http.HandlerFunc(uh.Promote)))

	return chain(mux,
		chimw.RequestID,
		chimw.RealIP,
		withLogging,
		chimw.Recoverer,
		middleware.Prefs,
		auth.Middleware(sessions),
		policy.CurrentUser(rc.Users, sessions),
	)
}

// chain applies middlewares so that the first one listed is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
