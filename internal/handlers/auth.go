package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/internal/services"
	"github.com/diewo77/go-questions/validation"
)

type AuthHandler struct {
	users    *services.UserService
	sessions auth.Sessions
	view     Renderer

	// loginErrorOnGet shows the mismatch message on the initial login form too.
	loginErrorOnGet bool
}

func NewAuthHandler(users *services.UserService, sessions auth.Sessions, view Renderer, loginErrorOnGet bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, view: view, loginErrorOnGet: loginErrorOnGet}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, h.view, "register.html", map[string]any{"Name": ""})
		return
	}

	name := r.FormValue("name")
	password := r.FormValue("password")

	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.Required("password", password, v)
	if !v.Empty() {
		render(w, r, h.view, "register.html", map[string]any{"Name": name, "Errors": v})
		return
	}

	user, err := h.users.Register(r.Context(), name, password)
	if errors.Is(err, services.ErrDuplicateName) {
		render(w, r, h.view, "register.html", map[string]any{"Name": name, "Error": "username_taken"})
		return
	}
	if err != nil {
		serverError(w, r, "register user", err)
		return
	}

	if err := h.sessions.Create(r.Context(), w, user.Name); err != nil {
		serverError(w, r, "create session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		data := map[string]any{"Name": ""}
		if h.loginErrorOnGet {
			data["Error"] = "login_mismatch"
		}
		render(w, r, h.view, "login.html", data)
		return
	}

	name := r.FormValue("name")
	password := r.FormValue("password")

	user, err := h.users.Authenticate(r.Context(), name, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		render(w, r, h.view, "login.html", map[string]any{"Name": name, "Error": "login_mismatch"})
		return
	}
	if err != nil {
		serverError(w, r, "authenticate user", err)
		return
	}

	if err := h.sessions.Create(r.Context(), w, user.Name); err != nil {
		serverError(w, r, "create session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
