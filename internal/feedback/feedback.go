// Package feedback implements the per-answer comment policy. The same
// rules serve as the backend's default engine and as the fallback when
// an LLM-backed comment cannot be produced.
package feedback

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Comments returned by the rule engine, first match wins.
const (
	Thoughtful = "Thoughtful response! This gives us good insight."
	Simple     = "Okay, noted."
	Generic    = "Answer received."
)

// thoughtfulThreshold is the answer length (in runes) above which an
// answer counts as thoughtful.
const thoughtfulThreshold = 10

// shortAnswers are the recognized literal short answers.
var shortAnswers = []string{"yes", "no"}

// Comment applies the policy to one answer value:
// long free text reads as thoughtful, a recognized short literal gets a
// brief acknowledgment, everything else a generic one.
func Comment(value string) string {
	if utf8.RuneCountInString(value) > thoughtfulThreshold {
		return Thoughtful
	}
	for _, s := range shortAnswers {
		if strings.EqualFold(value, s) {
			return Simple
		}
	}
	return Generic
}

// Summary is the rule-based report summary, used when no model endpoint
// is configured or the model call fails.
func Summary(answered, total int) string {
	if total == 0 || answered == 0 {
		return "Thank you for trying the assessment. Complete a few questions to see your compatibility insights."
	}
	return fmt.Sprintf(
		"Thank you for completing the assessment. You answered %d of %d questions. "+
			"Your responses point to priorities worth discussing openly with your partner. "+
			"Register to unlock the full compatibility analysis.",
		answered, total,
	)
}
