package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/service"
)

// SnippetHandler manages CRUD operations for the current user's snippets.
//
// Every route here sits behind the session guard, so the user id is always
// in the request context. The handler passes it to the service with every
// call; the service and the store scope all reads and writes by it.
type SnippetHandler struct {
	snippets *service.SnippetService
	renderer *Renderer
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, renderer *Renderer, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		snippets: snippets,
		renderer: renderer,
		logger:   logger,
	}
}

type snippetsPage struct {
	Snippets []model.Snippet
	Tag      string
}

type editPage struct {
	Snippet *model.Snippet
}

// HandleList renders the user's snippets, newest first.
//
// HTTP: GET /snippets?tag=go
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	tag := r.URL.Query().Get("tag")

	snippets, err := h.snippets.List(r.Context(), userID, tag)
	if err != nil {
		writeError(w, r, h.logger, err, "Error in fetching snippets")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, PageSnippets, "My snippets", snippetsPage{
		Snippets: snippets,
		Tag:      model.NormalizeTag(tag),
	})
}

// HandleEditForm renders the edit form for one of the user's snippets.
//
// HTTP: GET /edit-snippet/{id}
//
// URL PARAMETERS:
// chi.URLParam extracts the {id} segment. For /edit-snippet/abc123 it
// returns "abc123".
func (h *SnippetHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetForEdit(r.Context(), chi.URLParam(r, "id"), currentUserID(r))
	if err != nil {
		writeError(w, r, h.logger, err, "Error in fetching the snippet")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, PageEdit, "Edit snippet", editPage{Snippet: snippet})
}

// HandleCreate saves a new snippet and redirects to the list.
//
// HTTP: POST /add-snippet and POST /save-snippet
// FORM: title, language, content, tags (comma separated)
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in saving the snippet")
		return
	}

	if _, err := h.snippets.Create(r.Context(), currentUserID(r), snippetInput(r)); err != nil {
		writeError(w, r, h.logger, err, "Error in saving the snippet")
		return
	}

	http.Redirect(w, r, "/snippets", http.StatusFound)
}

// HandleUpdate overwrites one of the user's snippets.
//
// HTTP: POST /edit-snippet/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in updating the snippet")
		return
	}

	_, err := h.snippets.Update(r.Context(), chi.URLParam(r, "id"), currentUserID(r), snippetInput(r))
	if err != nil {
		writeError(w, r, h.logger, err, "Error in updating the snippet")
		return
	}

	http.Redirect(w, r, "/snippets", http.StatusFound)
}

// HandleDelete removes one of the user's snippets.
//
// HTTP: POST /delete-snippet/{id}
//
// The response is the same redirect whether or not anything was deleted,
// so probing other users' ids reveals nothing.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "id"), currentUserID(r)); err != nil {
		writeError(w, r, h.logger, err, "Error in deleting the snippet")
		return
	}

	http.Redirect(w, r, "/snippets", http.StatusFound)
}

func snippetInput(r *http.Request) service.SnippetInput {
	return service.SnippetInput{
		Title:    r.PostFormValue("title"),
		Language: r.PostFormValue("language"),
		Content:  r.PostFormValue("content"),
		Tags:     r.PostFormValue("tags"),
	}
}

// currentUserID reads the user the session guard put in the context.
// Routes using it must be mounted behind auth.Sessions.Require.
func currentUserID(r *http.Request) string {
	userID, _ := auth.UserIDFromContext(r.Context())
	return userID
}
