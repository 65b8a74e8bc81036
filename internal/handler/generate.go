package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devhelper/internal/service"
)

// GenerateHandler serves the AI generation page.
//
// Generating never saves anything. The result page carries a separate
// "Save" form that posts to /save-snippet, so storing a generated snippet
// is always an explicit second step.
type GenerateHandler struct {
	generate *service.GenerateService
	renderer *Renderer
	logger   *slog.Logger
}

func NewGenerateHandler(generate *service.GenerateService, renderer *Renderer, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generate: generate,
		renderer: renderer,
		logger:   logger,
	}
}

type generatePage struct {
	Prompt    string
	Generated string
}

// HandleForm renders the empty prompt form.
//
// HTTP: GET /generate
func (h *GenerateHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageGenerate, "Generate", generatePage{})
}

// HandleGenerate sends the prompt to the provider and renders the prompt
// together with the generated text.
//
// HTTP: POST /generate
// FORM: prompt
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in generating the snippet")
		return
	}

	prompt := r.PostFormValue("prompt")
	generated, err := h.generate.Generate(r.Context(), currentUserID(r), prompt)
	if err != nil {
		writeError(w, r, h.logger, err, "Error in generating the snippet")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, PageGenerate, "Generate", generatePage{
		Prompt:    prompt,
		Generated: generated,
	})
}
