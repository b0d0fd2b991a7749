package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies a question variant. The wire names follow the guest
// API ("text", "radio", "scale"); anything else decodes as unsupported.
type Kind string

const (
	KindText        Kind = "text"
	KindChoice      Kind = "radio"
	KindScale       Kind = "scale"
	KindUnsupported Kind = "unsupported"
)

var (
	// ErrAnswerRequired is returned when a question needs a selection
	// and none was made. Recoverable: the same question is re-asked.
	ErrAnswerRequired = errors.New("answer required")
	// ErrValueOutOfRange is returned when a scale value falls outside
	// the question's bounds.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrUnsupportedQuestion is returned when answering a question of a
	// kind this client does not know how to capture.
	ErrUnsupportedQuestion = errors.New("unsupported question type")
)

// Question is one fetched assessment question. Each variant validates
// and extracts its own answer, so the flow dispatches on the variant
// exactly once instead of string-matching the type across the code.
type Question interface {
	ID() string
	Prompt() string
	Kind() Kind
	// Answer validates the submission and returns the textual value to
	// record for it.
	Answer(sub Submission) (string, error)
}

// Option is a single (value, label) pair of a choice question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"text"`
}

// TextQuestion accepts any free-text answer, including an empty one.
type TextQuestion struct {
	QID  string
	Text string
}

func (q *TextQuestion) ID() string     { return q.QID }
func (q *TextQuestion) Prompt() string { return q.Text }
func (q *TextQuestion) Kind() Kind     { return KindText }

func (q *TextQuestion) Answer(sub Submission) (string, error) {
	return sub.Value, nil
}

// ChoiceQuestion requires exactly one of its options to be selected.
// Option values are unique within the question, not across questions.
type ChoiceQuestion struct {
	QID     string
	Text    string
	Options []Option
}

func (q *ChoiceQuestion) ID() string     { return q.QID }
func (q *ChoiceQuestion) Prompt() string { return q.Text }
func (q *ChoiceQuestion) Kind() Kind     { return KindChoice }

func (q *ChoiceQuestion) Answer(sub Submission) (string, error) {
	if !sub.Provided || sub.Value == "" {
		return "", ErrAnswerRequired
	}
	for _, opt := range q.Options {
		if opt.Value == sub.Value {
			return sub.Value, nil
		}
	}
	return "", ErrAnswerRequired
}

// ScaleQuestion captures an integer position on a [Min, Max] range.
// A missing submission resolves to the midpoint default, so answering
// a scale question never fails for lack of input.
type ScaleQuestion struct {
	QID      string
	Text     string
	Min      int
	Max      int
	Step     int
	MinLabel string
	MaxLabel string
}

func (q *ScaleQuestion) ID() string     { return q.QID }
func (q *ScaleQuestion) Prompt() string { return q.Text }
func (q *ScaleQuestion) Kind() Kind     { return KindScale }

// Default is the pre-selected position: round((min+max)/2).
func (q *ScaleQuestion) Default() int {
	return int(math.Round(float64(q.Min+q.Max) / 2))
}

func (q *ScaleQuestion) Answer(sub Submission) (string, error) {
	if !sub.Provided || sub.Value == "" {
		return strconv.Itoa(q.Default()), nil
	}
	n, err := strconv.Atoi(sub.Value)
	if err != nil {
		return "", ErrValueOutOfRange
	}
	if n < q.Min || n > q.Max {
		return "", ErrValueOutOfRange
	}
	return strconv.Itoa(n), nil
}

// UnsupportedQuestion is the catch-all for wire types this client does
// not recognize. It can never be answered, which blocks progression
// past it for the rest of the session.
type UnsupportedQuestion struct {
	QID     string
	Text    string
	RawType string
}

func (q *UnsupportedQuestion) ID() string     { return q.QID }
func (q *UnsupportedQuestion) Prompt() string { return q.Text }
func (q *UnsupportedQuestion) Kind() Kind     { return KindUnsupported }

func (q *UnsupportedQuestion) Answer(Submission) (string, error) {
	return "", ErrUnsupportedQuestion
}

// questionWire is the JSON shape of a question on the guest API.
// Scale bounds are pointers so absent fields fall back to defaults.
type questionWire struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Options  []Option `json:"options,omitempty"`
	MinValue *int     `json:"min_value,omitempty"`
	MaxValue *int     `json:"max_value,omitempty"`
	Step     *int     `json:"step,omitempty"`
	MinLabel string   `json:"min_label,omitempty"`
	MaxLabel string   `json:"max_label,omitempty"`
}

const (
	defaultScaleMin = 1
	defaultScaleMax = 5
)

// DecodeQuestion turns one wire record into its variant.
func DecodeQuestion(data []byte) (Question, error) {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	return w.toQuestion()
}

// DecodeQuestions turns a JSON array of wire records into variants,
// preserving order. Unrecognized types decode as UnsupportedQuestion
// rather than failing the whole set.
func DecodeQuestions(data []byte) ([]Question, error) {
	var wires []questionWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	questions := make([]Question, 0, len(wires))
	for i, w := range wires {
		q, err := w.toQuestion()
		if err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, w.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (w questionWire) toQuestion() (Question, error) {
	switch Kind(w.Type) {
	case KindText:
		return &TextQuestion{QID: w.ID, Text: w.Text}, nil
	case KindChoice:
		if len(w.Options) == 0 {
			return nil, fmt.Errorf("choice question without options")
		}
		return &ChoiceQuestion{QID: w.ID, Text: w.Text, Options: w.Options}, nil
	case KindScale:
		q := &ScaleQuestion{
			QID:  w.ID,
			Text: w.Text,
			Min:  defaultScaleMin,
			Max:  defaultScaleMax,
			Step: 1,
		}
		if w.MinValue != nil {
			q.Min = *w.MinValue
		}
		if w.MaxValue != nil {
			q.Max = *w.MaxValue
		}
		if w.Step != nil {
			q.Step = *w.Step
		}
		if q.Min >= q.Max {
			return nil, fmt.Errorf("scale bounds invalid: min %d, max %d", q.Min, q.Max)
		}
		if q.Step < 1 {
			return nil, fmt.Errorf("scale step invalid: %d", q.Step)
		}
		q.MinLabel = w.MinLabel
		if q.MinLabel == "" {
			q.MinLabel = strconv.Itoa(q.Min)
		}
		q.MaxLabel = w.MaxLabel
		if q.MaxLabel == "" {
			q.MaxLabel = strconv.Itoa(q.Max)
		}
		return q, nil
	default:
		return &UnsupportedQuestion{QID: w.ID, Text: w.Text, RawType: w.Type}, nil
	}
}

// MarshalJSON emits the wire shape so stored questions round-trip
// through DecodeQuestion.
func (q *TextQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionWire{ID: q.QID, Type: string(KindText), Text: q.Text})
}

func (q *ChoiceQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionWire{ID: q.QID, Type: string(KindChoice), Text: q.Text, Options: q.Options})
}

func (q *ScaleQuestion) MarshalJSON() ([]byte, error) {
	minV, maxV, step := q.Min, q.Max, q.Step
	return json.Marshal(questionWire{
		ID:       q.QID,
		Type:     string(KindScale),
		Text:     q.Text,
		MinValue: &minV,
		MaxValue: &maxV,
		Step:     &step,
		MinLabel: q.MinLabel,
		MaxLabel: q.MaxLabel,
	})
}

func (q *UnsupportedQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionWire{ID: q.QID, Type: q.RawType, Text: q.Text})
}
