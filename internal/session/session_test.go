package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/salatiso/lifesync/internal/model"
)

// fakeService lets each test script the three backend calls.
type fakeService struct {
	questions func(ctx context.Context) ([]model.Question, error)
	feedback  func(ctx context.Context, questionID, value string) (string, error)
	complete  func(ctx context.Context, answers []model.Answer) (model.Report, error)
}

func (f *fakeService) Questions(ctx context.Context) ([]model.Question, error) {
	if f.questions == nil {
		return nil, nil
	}
	return f.questions(ctx)
}

func (f *fakeService) Feedback(ctx context.Context, questionID, value string) (string, error) {
	if f.feedback == nil {
		return "Answer received.", nil
	}
	return f.feedback(ctx, questionID, value)
}

func (f *fakeService) Complete(ctx context.Context, answers []model.Answer) (model.Report, error) {
	if f.complete == nil {
		return model.Report{Summary: "summary", Answers: answers}, nil
	}
	return f.complete(ctx, answers)
}

func textQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = &model.TextQuestion{QID: fmt.Sprintf("q%d", i+1), Text: fmt.Sprintf("Question %d", i+1)}
	}
	return qs
}

func startedController(t *testing.T, svc *fakeService) *Controller {
	t.Helper()
	c := New(svc)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}

func TestStartActivatesSession(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(3), nil },
	}
	c := startedController(t, svc)

	v := c.View()
	if v.Status != StatusActive {
		t.Fatalf("expected active, got %s", v.Status)
	}
	if v.Index != 0 || v.Question.ID() != "q1" {
		t.Errorf("expected question q1 at index 0, got %s at %d", v.Question.ID(), v.Index)
	}
	// One answer slot per question, always.
	if len(v.Answers) != len(v.Questions) {
		t.Errorf("answers/questions length mismatch: %d vs %d", len(v.Answers), len(v.Questions))
	}
}

func TestStartEmptyQuestionSet(t *testing.T) {
	// Scenario B: an empty fetch is a terminal failure with its own message.
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return nil, nil },
	}
	c := New(svc)
	if err := c.Start(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	v := c.View()
	if v.Status != StatusFailed || v.Reason != FailNoQuestions {
		t.Errorf("expected failed/no_questions, got %s/%s", v.Status, v.Reason)
	}
}

func TestStartFetchError(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := New(svc)
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	v := c.View()
	if v.Status != StatusFailed || v.Reason != FailLoad {
		t.Errorf("expected failed/load, got %s/%s", v.Status, v.Reason)
	}
}

func TestVisitsEveryQuestionInOrder(t *testing.T) {
	var feedbackOrder []string
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(5), nil },
		feedback: func(_ context.Context, questionID, _ string) (string, error) {
			feedbackOrder = append(feedbackOrder, questionID)
			return "ok", nil
		},
	}
	c := startedController(t, svc)

	for i := 0; i < 5; i++ {
		v := c.View()
		if v.Status != StatusActive || v.Index != i {
			t.Fatalf("step %d: expected active at index %d, got %s at %d", i, i, v.Status, v.Index)
		}
		if err := c.Submit(context.Background(), model.Submission{Value: "answer", Provided: true}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	if c.View().Status != StatusReadyToSubmit {
		t.Errorf("expected ready_to_submit after last answer, got %s", c.View().Status)
	}
	want := []string{"q1", "q2", "q3", "q4", "q5"}
	if !reflect.DeepEqual(feedbackOrder, want) {
		t.Errorf("feedback requested in order %v, want %v", feedbackOrder, want)
	}
}

func TestScenarioSingleTextQuestion(t *testing.T) {
	// Scenario A: one text question, one answer, straight to completion.
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) {
			return []model.Question{&model.TextQuestion{QID: "q1", Text: "What do you enjoy?"}}, nil
		},
	}
	c := startedController(t, svc)

	if err := c.Submit(context.Background(), model.Submission{Value: "I love hiking", Provided: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	v := c.View()
	if v.Status != StatusReadyToSubmit {
		t.Errorf("expected ready_to_submit, got %s", v.Status)
	}
	if v.Progress != 100 {
		t.Errorf("expected progress 100, got %v", v.Progress)
	}
	if v.Answers[0] != (model.Answer{QuestionID: "q1", Value: "I love hiking"}) {
		t.Errorf("unexpected recorded answer %+v", v.Answers[0])
	}
}

func TestScenarioChoiceValidation(t *testing.T) {
	// Scenario C: submitting a choice question with nothing selected
	// re-asks the same question; selecting then advances.
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) {
			return []model.Question{
				&model.ChoiceQuestion{QID: "q1", Text: "Yes or no?", Options: []model.Option{
					{Value: "Yes", Label: "Yes"},
					{Value: "No", Label: "No"},
				}},
				&model.TextQuestion{QID: "q2", Text: "Why?"},
			}, nil
		},
	}
	c := startedController(t, svc)

	err := c.Submit(context.Background(), model.Submission{})
	if !errors.Is(err, model.ErrAnswerRequired) {
		t.Fatalf("expected ErrAnswerRequired, got %v", err)
	}
	if v := c.View(); v.Index != 0 || v.Status != StatusActive {
		t.Errorf("cursor moved on rejected submission: index %d status %s", v.Index, v.Status)
	}

	if err := c.Submit(context.Background(), model.Submission{Value: "Yes", Provided: true}); err != nil {
		t.Fatalf("Submit with selection: %v", err)
	}
	if v := c.View(); v.Index != 1 {
		t.Errorf("expected cursor at 1, got %d", v.Index)
	}
}

func TestScaleDefaultsToMidpoint(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) {
			return []model.Question{&model.ScaleQuestion{QID: "q1", Text: "Rate", Min: 1, Max: 5, Step: 1}}, nil
		},
	}
	c := startedController(t, svc)

	// No interaction at all still submits the pre-selected midpoint.
	if err := c.Submit(context.Background(), model.Submission{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := c.View().Answers[0].Value; got != "3" {
		t.Errorf("expected midpoint '3', got %q", got)
	}
}

func TestProgress(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(4), nil },
	}
	c := startedController(t, svc)

	// The bar starts empty: the first question is on screen, nothing
	// is answered yet.
	if got := c.Progress(); got != 0 {
		t.Errorf("progress before any answer = %v, want 0", got)
	}

	want := []float64{25, 50, 75, 100}
	for i := 0; i < 4; i++ {
		if err := c.Submit(context.Background(), model.Submission{Value: "x", Provided: true}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		if got := c.Progress(); got != want[i] {
			t.Errorf("progress after answering question %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestFeedbackFailureNeverBlocks(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(2), nil },
		feedback: func(context.Context, string, string) (string, error) {
			return "", errors.New("feedback service down")
		},
	}
	c := startedController(t, svc)

	if err := c.Submit(context.Background(), model.Submission{Value: "hello", Provided: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	v := c.View()
	if v.Index != 1 {
		t.Errorf("feedback failure blocked the cursor: index %d", v.Index)
	}
	if !v.FeedbackFallback {
		t.Error("expected fallback feedback flag")
	}
}

func TestUnsupportedQuestionBlocks(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) {
			return []model.Question{&model.UnsupportedQuestion{QID: "q1", Text: "?", RawType: "matrix"}}, nil
		},
	}
	c := startedController(t, svc)

	for i := 0; i < 3; i++ {
		err := c.Submit(context.Background(), model.Submission{Value: "x", Provided: true})
		if !errors.Is(err, model.ErrUnsupportedQuestion) {
			t.Fatalf("attempt %d: expected ErrUnsupportedQuestion, got %v", i, err)
		}
	}
	if v := c.View(); v.Index != 0 || v.Status != StatusActive {
		t.Errorf("unsupported question did not hold the cursor: index %d status %s", v.Index, v.Status)
	}
}

func answerAll(t *testing.T, c *Controller, value string) {
	t.Helper()
	for c.View().Status == StatusActive {
		if err := c.Submit(context.Background(), model.Submission{Value: value, Provided: true}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
}

func TestCompleteReturnsReport(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(2), nil },
		complete: func(_ context.Context, answers []model.Answer) (model.Report, error) {
			return model.Report{Summary: "Great match.", Answers: answers}, nil
		},
	}
	c := startedController(t, svc)
	answerAll(t, c, "a fine answer")

	report, err := c.Complete(context.Background())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if report.Summary != "Great match." {
		t.Errorf("unexpected summary %q", report.Summary)
	}
	v := c.View()
	if v.Status != StatusCompleted || v.Report == nil {
		t.Errorf("expected completed with report, got %s", v.Status)
	}
}

func TestCompleteBeforeReady(t *testing.T) {
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(2), nil },
	}
	c := startedController(t, svc)

	if _, err := c.Complete(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestCompleteFailurePreservesAnswers(t *testing.T) {
	var payloads [][]model.Answer
	calls := 0
	svc := &fakeService{
		questions: func(context.Context) ([]model.Question, error) { return textQuestions(2), nil },
		complete: func(_ context.Context, answers []model.Answer) (model.Report, error) {
			payloads = append(payloads, answers)
			calls++
			if calls == 1 {
				return model.Report{}, errors.New("backend unavailable")
			}
			return model.Report{Summary: "ok", Answers: answers}, nil
		},
	}
	c := startedController(t, svc)
	answerAll(t, c, "same answer")

	if _, err := c.Complete(context.Background()); err == nil {
		t.Fatal("expected first completion to fail")
	}
	v := c.View()
	if v.Status != StatusFailed || v.Reason != FailReport {
		t.Fatalf("expected failed/report, got %s/%s", v.Status, v.Reason)
	}

	// Retry resubmits without re-answering, and the payload is identical.
	if _, err := c.Complete(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(payloads) != 2 || !reflect.DeepEqual(payloads[0], payloads[1]) {
		t.Errorf("retry payload differs: %+v vs %+v", payloads[0], payloads[1])
	}
	if c.View().Status != StatusCompleted {
		t.Errorf("expected completed after retry, got %s", c.View().Status)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	c := New(&fakeService{})
	if err := c.Submit(context.Background(), model.Submission{Value: "x", Provided: true}); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("expected ErrNoActiveQuestion, got %v", err)
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	// A restart while the first fetch is in flight supersedes it: the
	// late response must not clobber the new session's questions.
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	svc := &fakeService{}
	svc.questions = func(context.Context) ([]model.Question, error) {
		if first {
			first = false
			close(entered)
			<-release
			return []model.Question{&model.TextQuestion{QID: "old", Text: "old set"}}, nil
		}
		return []model.Question{&model.TextQuestion{QID: "new", Text: "new set"}}, nil
	}

	c := New(svc)
	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()
	<-entered

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected first Start to report ErrSuperseded, got %v", err)
	}
	v := c.View()
	if len(v.Questions) != 1 || v.Questions[0].ID() != "new" {
		t.Errorf("stale fetch overwrote the session: %+v", v.Questions)
	}
}
