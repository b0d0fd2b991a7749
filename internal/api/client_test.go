package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salatiso/lifesync/internal/model"
)

func TestQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/guest/questions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questions": [
			{"id": "q1", "type": "text", "text": "Tell us more."},
			{"id": "q2", "type": "scale", "text": "Rate it.", "min_value": 1, "max_value": 5}
		]}`))
	}))
	defer srv.Close()

	questions, err := New(srv.URL).Questions(context.Background())
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID() != "q1" || questions[0].Kind() != model.KindText {
		t.Errorf("unexpected first question: %s/%s", questions[0].ID(), questions[0].Kind())
	}
	if questions[1].Kind() != model.KindScale {
		t.Errorf("expected scale question, got %s", questions[1].Kind())
	}
}

func TestQuestionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Questions(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/guest/feedback" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var in model.Answer
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in.QuestionID != "q1" || in.Value != "I love hiking" {
			t.Errorf("unexpected payload %+v", in)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"feedback": "Noted!"})
	}))
	defer srv.Close()

	got, err := New(srv.URL).Feedback(context.Background(), "q1", "I love hiking")
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if got != "Noted!" {
		t.Errorf("expected 'Noted!', got %q", got)
	}
}

func TestFeedbackTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	if _, err := New(srv.URL).Feedback(context.Background(), "q1", "x"); err == nil {
		t.Error("expected transport error")
	}
}

func TestComplete(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "q1", Value: "I love hiking"},
		{QuestionID: "q2", Value: "Yes"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/guest/complete" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var in struct {
			Answers []model.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(in.Answers) != 2 || in.Answers[0].QuestionID != "q1" {
			t.Errorf("unexpected payload %+v", in.Answers)
		}
		_ = json.NewEncoder(w).Encode(model.Report{
			Summary: "You seem adventurous.",
			Answers: in.Answers,
		})
	}))
	defer srv.Close()

	report, err := New(srv.URL).Complete(context.Background(), answers)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if report.Summary != "You seem adventurous." {
		t.Errorf("unexpected summary %q", report.Summary)
	}
	if len(report.Answers) != 2 || report.Answers[1].Value != "Yes" {
		t.Errorf("unexpected echo %+v", report.Answers)
	}
}

func TestCompleteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Complete(context.Background(), nil); err == nil {
		t.Error("expected error for 502 response")
	}
}
