// Package report turns the backend's answer echo back into
// human-readable (prompt, answer) pairs for display.
package report

import "github.com/salatiso/lifesync/internal/model"

// Entry is one line of the rendered report.
type Entry struct {
	Prompt string
	Answer string
}

// Present pairs each echoed answer with its original question prompt.
// Question IDs are unique within a session, so each echo resolves to at
// most one prompt; an echo whose question is unknown is skipped rather
// than shown without context. An empty echo yields an empty slice and
// the caller shows its "no answers" placeholder.
func Present(questions []model.Question, echoed []model.Answer) []Entry {
	prompts := make(map[string]string, len(questions))
	for _, q := range questions {
		prompts[q.ID()] = q.Prompt()
	}

	entries := make([]Entry, 0, len(echoed))
	for _, a := range echoed {
		prompt, ok := prompts[a.QuestionID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Prompt: prompt, Answer: a.Value})
	}
	return entries
}
