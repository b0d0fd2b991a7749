package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

var (
	guestAnswerRegex        = regexp.MustCompile(`(?i)</?\s*guest-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// Tone represents a feedback prompt variant.
type Tone string

const (
	// ToneEncouraging is a warm variant for first-time guests.
	ToneEncouraging Tone = "encouraging"
	// ToneNeutral is the default matter-of-fact variant.
	ToneNeutral Tone = "neutral"
	// ToneConcise is a short variant for low-latency deployments.
	ToneConcise Tone = "concise"
)

var validTones = map[Tone]bool{
	ToneEncouraging: true,
	ToneNeutral:     true,
	ToneConcise:     true,
}

var (
	loadOnce          sync.Once
	loadErr           error
	feedbackTemplates map[Tone]*template.Template
	summaryTemplates  map[Tone]*template.Template
)

// IsValidTone checks if a tone name is valid.
func IsValidTone(v string) bool {
	return validTones[Tone(v)]
}

// Exchange is one answered question, used for summary prompts.
type Exchange struct {
	Question string
	Answer   string
}

// FeedbackData holds template data for per-answer feedback prompts.
type FeedbackData struct {
	Question string
	Answer   string
}

// SummaryData holds template data for report summary prompts.
type SummaryData struct {
	Exchanges []Exchange
}

// Load loads prompt templates from the embedded filesystem.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		feedbackTemplates = make(map[Tone]*template.Template)
		summaryTemplates = make(map[Tone]*template.Template)

		tones := []Tone{ToneEncouraging, ToneNeutral, ToneConcise}

		for _, tone := range tones {
			feedbackFile := "prompts/feedback_" + string(tone) + ".txt"
			summaryFile := "prompts/summary_" + string(tone) + ".txt"

			feedbackContent, err := fs.ReadFile(fsys, feedbackFile)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + feedbackFile + ": " + err.Error())
				return
			}

			feedbackTmpl, err := template.New("feedback").Parse(string(feedbackContent))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + feedbackFile + ": " + err.Error())
				return
			}
			feedbackTemplates[tone] = feedbackTmpl

			summaryContent, err := fs.ReadFile(fsys, summaryFile)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + summaryFile + ": " + err.Error())
				return
			}

			summaryTmpl, err := template.New("summary").Parse(string(summaryContent))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + summaryFile + ": " + err.Error())
				return
			}
			summaryTemplates[tone] = summaryTmpl
		}
	})
	return loadErr
}

// BuildFeedbackPrompt builds a per-answer feedback prompt using the specified tone.
func BuildFeedbackPrompt(tone Tone, question, answer string) (string, error) {
	if feedbackTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := feedbackTemplates[tone]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt tone: " + string(tone))
	}

	data := FeedbackData{
		Question: question,
		Answer:   sanitizeAnswer(answer),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// BuildSummaryPrompt builds a report summary prompt using the specified tone.
func BuildSummaryPrompt(tone Tone, exchanges []Exchange) (string, error) {
	if summaryTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := summaryTemplates[tone]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt tone: " + string(tone))
	}

	clean := make([]Exchange, len(exchanges))
	for i, ex := range exchanges {
		clean[i] = Exchange{
			Question: ex.Question,
			Answer:   sanitizeAnswer(ex.Answer),
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, SummaryData{Exchanges: clean}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = guestAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > 4000 {
		runes := []rune(answer)
		runes = runes[:4000]
		answer = string(runes) + "\n\n[Answer truncated due to length]"
	}

	return answer
}
