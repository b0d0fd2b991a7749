package model

import "time"

// Answer is one captured response, keyed to its question.
// The wire names match the guest API: {"question_id": ..., "answer": ...}.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"answer"`
}

// Report is the result of completing an assessment: a free-text summary
// plus the server's echo of the submitted answers. The echo is what the
// presenter pairs back with the original question prompts.
type Report struct {
	Summary string   `json:"summary"`
	Answers []Answer `json:"user_answers"`
}

// StoredReport is a persisted guest report, addressable by token until
// it expires.
type StoredReport struct {
	Token     string    `json:"token"`
	Summary   string    `json:"summary"`
	Answers   []Answer  `json:"user_answers"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportExport is the top-level JSON structure for report export.
type ReportExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Reports    []StoredReport `json:"reports"`
}

// Submission carries the raw user input for one question. Provided is
// false when the form carried no input at all (e.g. no radio option
// checked), which is distinct from an empty text answer.
type Submission struct {
	Value    string
	Provided bool
}

// ServeConfig holds runtime parameters for the guest-facing web server.
type ServeConfig struct {
	APIURL      string // base URL of the assessment backend
	DefaultLang string
	MaxSessions int // cap on concurrently held guest sessions
}

// BackendConfig holds runtime parameters for the assessment API server.
type BackendConfig struct {
	DBPath       string
	LLMURL       string // empty means rule-based feedback only
	LLMKey       string
	LLMModel     string
	FeedbackTone string
	ReportTTL    time.Duration
}
