package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-questions/httpx"
	"github.com/diewo77/go-questions/internal/services"
)

// AdminUserHandler lists users and promotes them to expert.
type AdminUserHandler struct {
	users *services.UserService
	view  Renderer
}

func NewAdminUserHandler(users *services.UserService, view Renderer) *AdminUserHandler {
	return &AdminUserHandler{users: users, view: view}
}

// List displays all users with their flags.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		serverError(w, r, "list users", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}
	render(w, r, h.view, "users.html", map[string]any{"Users": users})
}

// Promote sets the expert flag of the user in the path.
func (h *AdminUserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userId")
	if !ok {
		notFound(w, r)
		return
	}
	if err := h.users.Promote(r.Context(), id); errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	} else if err != nil {
		serverError(w, r, "promote user", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user_id": id, "expert": true})
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
