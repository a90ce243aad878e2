package server

import (
	"net/http"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/handlers"
	"github.com/diewo77/go-questions/internal/middleware"
	"github.com/diewo77/go-questions/internal/policy"
	"github.com/diewo77/go-questions/internal/services"
	"github.com/diewo77/go-questions/view"
	"gorm.io/gorm"
)

// RouterConfig holds the wired services, gate and handlers of the application.
type RouterConfig struct {
	AuthGate *policy.AuthGate
	Sessions auth.Sessions
	View     *view.Renderer

	Users     *services.UserService
	Questions *services.QuestionService

	AuthHandler      *handlers.AuthHandler
	QuestionHandler  *handlers.QuestionHandler
	AdminUserHandler *handlers.AdminUserHandler
}

// NewRouterConfig wires every component from the configuration.
func NewRouterConfig(db *gorm.DB, cfg *config.Config, sessions auth.Sessions) *RouterConfig {
	authGate := policy.NewAuthGate(cfg.Policy)

	renderer := view.New(view.Options{
		Dir:  cfg.App.TemplatesDir,
		Lang: middleware.LangFrom,
		UserName: func(r *http.Request) (string, bool) {
			u, ok := policy.UserFromContext(r.Context())
			if !ok {
				return "", false
			}
			return u.Name, true
		},
		Can: func(r *http.Request, resource, action string) bool {
			return authGate.CanProfile(r.Context(), gate.Action(action), resource)
		},
	})

	users := services.NewUserService(db)
	questions := services.NewQuestionService(db)

	return &RouterConfig{
		AuthGate:         authGate,
		Sessions:         sessions,
		View:             renderer,
		Users:            users,
		Questions:        questions,
		AuthHandler:      handlers.NewAuthHandler(users, sessions, renderer, cfg.Policy.LoginErrorOnGet),
		QuestionHandler:  handlers.NewQuestionHandler(questions, users, authGate, renderer, cfg.Policy.AskRequiresExpert),
		AdminUserHandler: handlers.NewAdminUserHandler(users, renderer),
	}
}
