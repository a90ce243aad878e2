// Package handlers implements the HTTP use cases. Authentication and role
// checks run in middleware before these handlers; handlers only deal with
// forms, persistence and rendering.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/diewo77/go-questions/httpx"
)

// Renderer renders a named page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error
}

func render(w http.ResponseWriter, r *http.Request, v Renderer, name string, data map[string]any) {
	if err := v.Render(w, r, http.StatusOK, name, data); err != nil {
		serverError(w, r, "render "+name, err)
	}
}

func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "request_id", chimw.GetReqID(r.Context()))
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	http.NotFound(w, r)
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
