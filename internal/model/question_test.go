package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeQuestions(t *testing.T) {
	payload := `[
		{"id": "q1", "type": "text", "text": "Tell us about yourself."},
		{"id": "q2", "type": "radio", "text": "Do you want children?",
		 "options": [{"value": "Yes", "text": "Yes"}, {"value": "No", "text": "No"}]},
		{"id": "q3", "type": "scale", "text": "How important is saving?",
		 "min_value": 1, "max_value": 10, "step": 1,
		 "min_label": "Not at all", "max_label": "Essential"},
		{"id": "q4", "type": "checkbox", "text": "Pick hobbies."}
	]`

	questions, err := DecodeQuestions([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeQuestions: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}

	if _, ok := questions[0].(*TextQuestion); !ok {
		t.Errorf("q1: expected TextQuestion, got %T", questions[0])
	}
	choice, ok := questions[1].(*ChoiceQuestion)
	if !ok {
		t.Fatalf("q2: expected ChoiceQuestion, got %T", questions[1])
	}
	if len(choice.Options) != 2 || choice.Options[0].Value != "Yes" {
		t.Errorf("q2: unexpected options %+v", choice.Options)
	}
	scale, ok := questions[2].(*ScaleQuestion)
	if !ok {
		t.Fatalf("q3: expected ScaleQuestion, got %T", questions[2])
	}
	if scale.Min != 1 || scale.Max != 10 || scale.Step != 1 {
		t.Errorf("q3: unexpected bounds %d..%d step %d", scale.Min, scale.Max, scale.Step)
	}
	if scale.MinLabel != "Not at all" || scale.MaxLabel != "Essential" {
		t.Errorf("q3: unexpected labels %q / %q", scale.MinLabel, scale.MaxLabel)
	}
	unsupported, ok := questions[3].(*UnsupportedQuestion)
	if !ok {
		t.Fatalf("q4: expected UnsupportedQuestion, got %T", questions[3])
	}
	if unsupported.RawType != "checkbox" {
		t.Errorf("q4: expected raw type 'checkbox', got %q", unsupported.RawType)
	}

	// Order must match the payload.
	wantIDs := []string{"q1", "q2", "q3", "q4"}
	for i, q := range questions {
		if q.ID() != wantIDs[i] {
			t.Errorf("position %d: expected id %q, got %q", i, wantIDs[i], q.ID())
		}
	}
}

func TestDecodeScaleDefaults(t *testing.T) {
	q, err := DecodeQuestion([]byte(`{"id": "q1", "type": "scale", "text": "Rate it."}`))
	if err != nil {
		t.Fatalf("DecodeQuestion: %v", err)
	}
	scale, ok := q.(*ScaleQuestion)
	if !ok {
		t.Fatalf("expected ScaleQuestion, got %T", q)
	}
	if scale.Min != 1 || scale.Max != 5 || scale.Step != 1 {
		t.Errorf("expected defaults 1..5 step 1, got %d..%d step %d", scale.Min, scale.Max, scale.Step)
	}
	// Labels default to the numeric bounds.
	if scale.MinLabel != "1" || scale.MaxLabel != "5" {
		t.Errorf("expected numeric labels, got %q / %q", scale.MinLabel, scale.MaxLabel)
	}
	if scale.Default() != 3 {
		t.Errorf("expected default midpoint 3, got %d", scale.Default())
	}
}

func TestDecodeInvalidScale(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"min equals max", `[{"id": "q1", "type": "scale", "text": "x", "min_value": 3, "max_value": 3}]`},
		{"min above max", `[{"id": "q1", "type": "scale", "text": "x", "min_value": 5, "max_value": 1}]`},
		{"zero step", `[{"id": "q1", "type": "scale", "text": "x", "step": 0}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeQuestions([]byte(tt.payload)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecodeChoiceWithoutOptions(t *testing.T) {
	_, err := DecodeQuestions([]byte(`[{"id": "q1", "type": "radio", "text": "Pick one."}]`))
	if err == nil {
		t.Error("expected decode error for choice without options")
	}
}

func TestTextAnswer(t *testing.T) {
	q := &TextQuestion{QID: "q1", Text: "Describe your weekend."}

	// Any string is acceptable, including empty.
	for _, value := range []string{"I love hiking", ""} {
		got, err := q.Answer(Submission{Value: value, Provided: true})
		if err != nil {
			t.Errorf("Answer(%q): %v", value, err)
		}
		if got != value {
			t.Errorf("Answer(%q) = %q", value, got)
		}
	}
}

func TestChoiceAnswer(t *testing.T) {
	q := &ChoiceQuestion{
		QID:  "q1",
		Text: "Yes or no?",
		Options: []Option{
			{Value: "Yes", Label: "Yes"},
			{Value: "No", Label: "No"},
		},
	}

	tests := []struct {
		name    string
		sub     Submission
		want    string
		wantErr error
	}{
		{"selected yes", Submission{Value: "Yes", Provided: true}, "Yes", nil},
		{"selected no", Submission{Value: "No", Provided: true}, "No", nil},
		{"nothing selected", Submission{}, "", ErrAnswerRequired},
		{"empty value", Submission{Provided: true}, "", ErrAnswerRequired},
		{"forged value", Submission{Value: "Maybe", Provided: true}, "", ErrAnswerRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Answer(tt.sub)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Answer() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Answer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScaleAnswer(t *testing.T) {
	q := &ScaleQuestion{QID: "q1", Text: "Rate it.", Min: 1, Max: 10, Step: 1}

	// Default midpoint when nothing was submitted: round((1+10)/2) = 6.
	got, err := q.Answer(Submission{})
	if err != nil {
		t.Fatalf("Answer(empty): %v", err)
	}
	if got != "6" {
		t.Errorf("expected default '6', got %q", got)
	}

	got, err = q.Answer(Submission{Value: "10", Provided: true})
	if err != nil {
		t.Fatalf("Answer(10): %v", err)
	}
	if got != "10" {
		t.Errorf("expected '10', got %q", got)
	}

	for _, bad := range []string{"0", "11", "abc"} {
		if _, err := q.Answer(Submission{Value: bad, Provided: true}); !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("Answer(%q): expected ErrValueOutOfRange, got %v", bad, err)
		}
	}
}

func TestScaleDefaultRounding(t *testing.T) {
	tests := []struct {
		min, max int
		want     int
	}{
		{1, 5, 3},
		{1, 10, 6}, // 5.5 rounds up
		{0, 10, 5},
		{1, 4, 3}, // 2.5 rounds up
	}
	for _, tt := range tests {
		q := &ScaleQuestion{Min: tt.min, Max: tt.max, Step: 1}
		if got := q.Default(); got != tt.want {
			t.Errorf("Default() for %d..%d = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestUnsupportedAnswer(t *testing.T) {
	q := &UnsupportedQuestion{QID: "q1", Text: "x", RawType: "matrix"}
	if _, err := q.Answer(Submission{Value: "anything", Provided: true}); !errors.Is(err, ErrUnsupportedQuestion) {
		t.Errorf("expected ErrUnsupportedQuestion, got %v", err)
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	questions := []Question{
		&TextQuestion{QID: "q1", Text: "Free text"},
		&ChoiceQuestion{QID: "q2", Text: "Pick", Options: []Option{{Value: "a", Label: "A"}}},
		&ScaleQuestion{QID: "q3", Text: "Rate", Min: 1, Max: 7, Step: 2, MinLabel: "low", MaxLabel: "high"},
	}

	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal %s: %v", q.ID(), err)
		}
		back, err := DecodeQuestion(data)
		if err != nil {
			t.Fatalf("decode %s: %v", q.ID(), err)
		}
		if back.ID() != q.ID() || back.Kind() != q.Kind() || back.Prompt() != q.Prompt() {
			t.Errorf("round trip changed %s: got %s/%s/%s", q.ID(), back.ID(), back.Kind(), back.Prompt())
		}
	}
}
