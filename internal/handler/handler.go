// Package handler serves the guest-facing assessment pages. It renders
// session state; all assessment logic lives in the session controller.
package handler

//go:generate templ generate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/salatiso/lifesync/internal/handler/views"
	"github.com/salatiso/lifesync/internal/i18n"
	"github.com/salatiso/lifesync/internal/model"
	"github.com/salatiso/lifesync/internal/report"
	"github.com/salatiso/lifesync/internal/session"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	registry *session.Registry
	config   model.ServeConfig
}

// New creates a new Handler.
func New(reg *session.Registry, cfg model.ServeConfig) *Handler {
	return &Handler{registry: reg, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/assessment/start", h.handleStart)
	r.Get("/assessment/{sessionID}", h.handleAssessmentPage)
	r.Post("/assessment/{sessionID}/answer", h.handleAnswer)
	r.Post("/assessment/{sessionID}/complete", h.handleComplete)
	r.Get("/report/{sessionID}", h.handleReportPage)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, r, views.IndexPage())
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ctl := h.registry.Create()
	if err := ctl.Start(r.Context()); err != nil {
		// The assessment page renders the failed state.
		slog.Warn("session start failed", "session_id", id, "error", err)
	}
	http.Redirect(w, r, "/assessment/"+id, http.StatusSeeOther)
}

func (h *Handler) handleAssessmentPage(w http.ResponseWriter, r *http.Request) {
	id, ctl, ok := h.session(w, r)
	if !ok {
		return
	}

	v := ctl.View()
	if v.Status == session.StatusCompleted {
		http.Redirect(w, r, "/report/"+id, http.StatusSeeOther)
		return
	}
	render(w, r, views.AssessmentPage(id, v, ""))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, ctl, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_, provided := r.Form["answer"]
	sub := model.Submission{Value: r.FormValue("answer"), Provided: provided}

	err := ctl.Submit(r.Context(), sub)
	switch {
	case err == nil:
		http.Redirect(w, r, "/assessment/"+id, http.StatusSeeOther)
	case errors.Is(err, model.ErrAnswerRequired), errors.Is(err, model.ErrValueOutOfRange):
		// Recoverable: re-ask the same question with a warning.
		render(w, r, views.AssessmentPage(id, ctl.View(), i18n.T(r.Context(), "SelectAnswer")))
	case errors.Is(err, model.ErrUnsupportedQuestion):
		render(w, r, views.AssessmentPage(id, ctl.View(), ""))
	default:
		slog.Warn("submit failed", "session_id", id, "error", err)
		http.Redirect(w, r, "/assessment/"+id, http.StatusSeeOther)
	}
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ctl, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := ctl.Complete(r.Context()); err != nil {
		slog.Warn("complete failed", "session_id", id, "error", err)
		http.Redirect(w, r, "/assessment/"+id, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/report/"+id, http.StatusSeeOther)
}

func (h *Handler) handleReportPage(w http.ResponseWriter, r *http.Request) {
	id, ctl, ok := h.session(w, r)
	if !ok {
		return
	}

	v := ctl.View()
	if v.Report == nil {
		http.Redirect(w, r, "/assessment/"+id, http.StatusSeeOther)
		return
	}
	entries := report.Present(v.Questions, v.Report.Answers)
	render(w, r, views.ReportPage(v.Report.Summary, entries))
}

// session resolves the controller for the request's sessionID, sending
// the guest back to the start page when it is unknown or evicted.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *session.Controller, bool) {
	id := chi.URLParam(r, "sessionID")
	ctl, ok := h.registry.Get(id)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return "", nil, false
	}
	return id, ctl, true
}

func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
