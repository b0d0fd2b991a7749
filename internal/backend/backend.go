// Package backend implements the guest assessment API: question
// delivery, per-answer feedback, and report generation. It is the
// server side of the api client package.
package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salatiso/lifesync/internal/feedback"
	"github.com/salatiso/lifesync/internal/llm/prompts"
	"github.com/salatiso/lifesync/internal/model"
	"github.com/salatiso/lifesync/internal/store"
)

// LLM is the optional model-backed feedback generator. A nil LLM means
// the rule engine handles everything.
type LLM interface {
	Comment(ctx context.Context, question, answer string) (string, error)
	Summarize(ctx context.Context, exchanges []prompts.Exchange) (string, error)
}

// Server holds shared dependencies for the API handlers.
type Server struct {
	store *store.Store
	llm   LLM
	cfg   model.BackendConfig
}

// New creates a new API server.
func New(s *store.Store, l LLM, cfg model.BackendConfig) *Server {
	return &Server{store: s, llm: l, cfg: cfg}
}

// Routes registers the guest API routes.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/guest/questions", s.handleQuestions)
	r.Post("/api/guest/feedback", s.handleFeedback)
	r.Post("/api/guest/complete", s.handleComplete)
	r.Get("/api/guest/report/{token}", s.handleReport)
	r.Get("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.QuestionCount(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.store.ListQuestions()
	if err != nil {
		slog.Error("list questions", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load questions"})
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.QuestionID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "question_id is required"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"feedback": s.comment(r.Context(), req.QuestionID, req.Answer),
	})
}

// comment asks the model for feedback when one is configured and falls
// back to the rule engine on any failure.
func (s *Server) comment(ctx context.Context, questionID, answer string) string {
	if s.llm == nil {
		return feedback.Comment(answer)
	}

	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		slog.Warn("feedback for unknown question", "question_id", questionID, "error", err)
		return feedback.Comment(answer)
	}

	msg, err := s.llm.Comment(ctx, q.Prompt(), answer)
	if err != nil {
		slog.Warn("LLM feedback failed, using rule engine", "question_id", questionID, "error", err)
		feedbackFallbacks.Inc()
		return feedback.Comment(answer)
	}
	return msg
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []model.Answer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	report := model.Report{
		Summary: s.summarize(r.Context(), req.Answers),
		Answers: req.Answers,
	}
	if report.Answers == nil {
		report.Answers = []model.Answer{}
	}

	stored, err := s.store.SaveReport(report, s.cfg.ReportTTL)
	if err != nil {
		slog.Error("save report", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save report"})
		return
	}
	reportsCreated.Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"token":        stored.Token,
		"summary":      stored.Summary,
		"user_answers": report.Answers,
		"expires_at":   stored.ExpiresAt,
	})
}

func (s *Server) summarize(ctx context.Context, answers []model.Answer) string {
	total, err := s.store.QuestionCount()
	if err != nil {
		slog.Warn("question count for summary", "error", err)
		total = len(answers)
	}

	if s.llm == nil || len(answers) == 0 {
		return feedback.Summary(len(answers), total)
	}

	exchanges := make([]prompts.Exchange, 0, len(answers))
	for _, a := range answers {
		prompt := a.QuestionID
		if q, err := s.store.GetQuestion(a.QuestionID); err == nil {
			prompt = q.Prompt()
		}
		exchanges = append(exchanges, prompts.Exchange{Question: prompt, Answer: a.Value})
	}

	summary, err := s.llm.Summarize(ctx, exchanges)
	if err != nil {
		slog.Warn("LLM summary failed, using rule engine", "error", err)
		feedbackFallbacks.Inc()
		return feedback.Summary(len(answers), total)
	}
	return summary
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	report, err := s.store.GetReport(token)
	if err != nil {
		slog.Error("get report", "token", token, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load report"})
		return
	}
	if report == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "report not found or expired"})
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
