// Package session drives one guest assessment from question fetch to
// report: it owns the question set, the answer slots, and the cursor,
// and is the only writer of that state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/salatiso/lifesync/internal/model"
)

// Status is the controller's position in the assessment lifecycle.
type Status string

const (
	StatusLoading       Status = "loading"
	StatusActive        Status = "active"
	StatusReadyToSubmit Status = "ready_to_submit"
	StatusSubmitting    Status = "submitting"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// FailReason distinguishes the user-visible failure messages. All are
// terminal for the session except FailReport, which keeps the answers
// so completion can be retried without re-answering.
type FailReason string

const (
	FailNone        FailReason = ""
	FailLoad        FailReason = "load"
	FailNoQuestions FailReason = "no_questions"
	FailReport      FailReason = "report"
)

// Service is the remote assessment API surface the controller needs.
type Service interface {
	Questions(ctx context.Context) ([]model.Question, error)
	Feedback(ctx context.Context, questionID, value string) (string, error)
	Complete(ctx context.Context, answers []model.Answer) (model.Report, error)
}

var (
	// ErrNoQuestions reports a fetch that returned an empty set.
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoActiveQuestion reports a submit outside the Active state.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNotReady reports a completion attempt before all questions
	// are answered.
	ErrNotReady = errors.New("assessment not ready to complete")
	// ErrSuperseded reports an operation whose response arrived after
	// the session was restarted; its result was discarded.
	ErrSuperseded = errors.New("session superseded")
)

// Controller is the assessment state machine. Methods may be called
// from concurrent requests: state is mutated under the lock, the lock
// is released around network calls, and a generation counter makes
// responses for a superseded session no-ops.
type Controller struct {
	svc Service

	mu               sync.Mutex
	gen              int
	status           Status
	reason           FailReason
	questions        []model.Question
	answers          []model.Answer
	cursor           int
	feedback         string
	feedbackFallback bool
	report           *model.Report
}

// New creates a controller in the Loading state. Nothing happens until
// Start fetches the question set.
func New(svc Service) *Controller {
	return &Controller{svc: svc, status: StatusLoading}
}

// Start fetches the question set and activates the session. An error
// or an empty set puts the session in the Failed state with a distinct
// reason. Calling Start again restarts the session; a fetch still in
// flight for the previous attempt is discarded when it lands.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.status = StatusLoading
	c.reason = FailNone
	c.questions = nil
	c.answers = nil
	c.cursor = 0
	c.feedback = ""
	c.feedbackFallback = false
	c.report = nil
	c.mu.Unlock()

	questions, err := c.svc.Questions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	if err != nil {
		c.status = StatusFailed
		c.reason = FailLoad
		return fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		c.status = StatusFailed
		c.reason = FailNoQuestions
		return ErrNoQuestions
	}
	c.questions = questions
	c.answers = make([]model.Answer, len(questions))
	c.status = StatusActive
	return nil
}

// Submit validates the input against the active question, records the
// answer, fetches the feedback comment, and advances the cursor.
// A validation error leaves the cursor and answers untouched so the
// same question is re-asked.
//
// The feedback call is awaited before the cursor advances: the comment
// for question i is on screen when question i+1 renders, matching the
// assessment's original ordering. A feedback failure degrades to the
// fallback notice and never blocks the advance.
func (c *Controller) Submit(ctx context.Context, sub model.Submission) error {
	c.mu.Lock()
	if c.status != StatusActive {
		c.mu.Unlock()
		return ErrNoActiveQuestion
	}
	idx := c.cursor
	q := c.questions[idx]
	value, err := q.Answer(sub)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.answers[idx] = model.Answer{QuestionID: q.ID(), Value: value}
	gen := c.gen
	c.mu.Unlock()

	comment, fbErr := c.svc.Feedback(ctx, q.ID(), value)
	if fbErr != nil {
		slog.Warn("feedback request failed", "question_id", q.ID(), "error", fbErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.status != StatusActive || c.cursor != idx {
		// Session restarted, or a duplicate submit already advanced.
		return nil
	}
	c.feedback = comment
	c.feedbackFallback = fbErr != nil
	c.cursor = idx + 1
	if c.cursor == len(c.questions) {
		c.status = StatusReadyToSubmit
	}
	return nil
}

// Complete submits the full answer set and stores the returned report.
// On failure the session enters the Failed state but keeps its answers,
// so a retry resubmits the identical payload without re-answering.
func (c *Controller) Complete(ctx context.Context) (model.Report, error) {
	c.mu.Lock()
	retrying := c.status == StatusFailed && c.reason == FailReport
	if c.status != StatusReadyToSubmit && !retrying {
		c.mu.Unlock()
		return model.Report{}, ErrNotReady
	}
	c.status = StatusSubmitting
	c.reason = FailNone
	answers := make([]model.Answer, len(c.answers))
	copy(answers, c.answers)
	gen := c.gen
	c.mu.Unlock()

	report, err := c.svc.Complete(ctx, answers)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return model.Report{}, ErrSuperseded
	}
	if err != nil {
		c.status = StatusFailed
		c.reason = FailReport
		return model.Report{}, fmt.Errorf("generate report: %w", err)
	}
	c.status = StatusCompleted
	c.report = &report
	return report, nil
}

// Progress is the answered share of the question set in percent,
// derived from the cursor: after question i (0-indexed) is answered it
// reads (i+1)/N*100, so the bar is at 0% while the first question is
// on screen.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

func (c *Controller) progressLocked() float64 {
	n := len(c.questions)
	if n == 0 {
		return 0
	}
	cur := min(c.cursor, n)
	return float64(cur) / float64(n) * 100
}

// View is an immutable snapshot of session state for rendering.
type View struct {
	Status           Status
	Reason           FailReason
	Question         model.Question // active question, nil otherwise
	Index            int            // 0-based position of the active question
	Total            int
	Progress         float64
	Feedback         string
	FeedbackFallback bool
	Questions        []model.Question
	Answers          []model.Answer
	Report           *model.Report
}

// View snapshots the current state. The slices are copies; mutating
// them does not affect the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Status:           c.status,
		Reason:           c.reason,
		Total:            len(c.questions),
		Progress:         c.progressLocked(),
		Feedback:         c.feedback,
		FeedbackFallback: c.feedbackFallback,
		Questions:        make([]model.Question, len(c.questions)),
		Answers:          make([]model.Answer, len(c.answers)),
	}
	copy(v.Questions, c.questions)
	copy(v.Answers, c.answers)
	if c.status == StatusActive {
		v.Question = c.questions[c.cursor]
		v.Index = c.cursor
	}
	if c.report != nil {
		report := *c.report
		v.Report = &report
	}
	return v
}
