package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/httpx"
	"github.com/diewo77/go-questions/internal/policy"
	"github.com/diewo77/go-questions/internal/services"
	"github.com/diewo77/go-questions/validation"
)

// Authorizer checks an action against a loaded resource for the current user.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

type QuestionHandler struct {
	questions *services.QuestionService
	users     *services.UserService
	authz     Authorizer
	view      Renderer

	// askRequiresExpert rejects questions addressed to a user without the expert flag.
	askRequiresExpert bool
}

func NewQuestionHandler(questions *services.QuestionService, users *services.UserService, authz Authorizer, view Renderer, askRequiresExpert bool) *QuestionHandler {
	return &QuestionHandler{
		questions:         questions,
		users:             users,
		authz:             authz,
		view:              view,
		askRequiresExpert: askRequiresExpert,
	}
}

// Home lists every answered question.
func (h *QuestionHandler) Home(w http.ResponseWriter, r *http.Request) {
	rows, err := h.questions.Answered(r.Context())
	if err != nil {
		serverError(w, r, "list answered questions", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"questions": rows})
		return
	}
	render(w, r, h.view, "home.html", map[string]any{"Questions": rows})
}

// Show displays one answered question.
func (h *QuestionHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	q, err := h.questions.Detail(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load question", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, q)
		return
	}
	render(w, r, h.view, "question.html", map[string]any{"Question": q})
}

func (h *QuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderAsk(w, r, "", 0, nil)
		return
	}

	current, _ := policy.UserFromContext(r.Context())
	text := r.FormValue("question")

	v := validation.Violations{}
	validation.Required("question", text, v)
	expertID := validation.ID("expert", r.FormValue("expert"), "invalid_expert", v)
	if expertID != 0 && h.askRequiresExpert {
		expert, err := h.users.FindByID(r.Context(), expertID)
		switch {
		case errors.Is(err, services.ErrNotFound):
			v["expert"] = "invalid_expert"
		case err != nil:
			serverError(w, r, "load expert", err)
			return
		case !expert.Expert:
			v["expert"] = "invalid_expert"
		}
	}
	if !v.Empty() {
		h.renderAsk(w, r, text, expertID, v)
		return
	}

	_, err := h.questions.Ask(r.Context(), current.ID, expertID, text)
	if errors.Is(err, services.ErrNotFound) {
		h.renderAsk(w, r, text, expertID, validation.Violations{"expert": "invalid_expert"})
		return
	}
	if err != nil {
		serverError(w, r, "ask question", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *QuestionHandler) renderAsk(w http.ResponseWriter, r *http.Request, text string, expertID uint, v validation.Violations) {
	experts, err := h.users.ListExperts(r.Context())
	if err != nil {
		serverError(w, r, "list experts", err)
		return
	}
	if v == nil {
		v = validation.Violations{}
	}
	render(w, r, h.view, "ask.html", map[string]any{
		"Experts":      experts,
		"QuestionText": text,
		"ExpertID":     expertID,
		"Errors":       v,
	})
}

// Answer shows the answer form and records the answer. The route already
// requires the answer permission; the resource check runs here once the
// question is loaded.
func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	q, err := h.questions.Get(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load question", err)
		return
	}
	if err := h.authz.Authorize(r.Context(), gate.ActionUpdate, policy.ResourceQuestion, q); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		render(w, r, h.view, "answer.html", map[string]any{"Question": q})
		return
	}

	text := r.FormValue("answer")
	v := validation.Violations{}
	validation.Required("answer", text, v)
	if !v.Empty() {
		render(w, r, h.view, "answer.html", map[string]any{"Question": q, "Errors": v})
		return
	}

	if err := h.questions.Answer(r.Context(), id, text); errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	} else if err != nil {
		serverError(w, r, "answer question", err)
		return
	}
	http.Redirect(w, r, "/unanswered", http.StatusSeeOther)
}

// Unanswered lists the open questions addressed to the current expert.
func (h *QuestionHandler) Unanswered(w http.ResponseWriter, r *http.Request) {
	current, _ := policy.UserFromContext(r.Context())
	rows, err := h.questions.UnansweredFor(r.Context(), current.ID)
	if err != nil {
		serverError(w, r, "list unanswered questions", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"questions": rows})
		return
	}
	render(w, r, h.view, "unanswered.html", map[string]any{"Questions": rows})
}
