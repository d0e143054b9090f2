package domain

import (
	"encoding/json"
	"time"
)

// Collections holding questions in the document store
const (
	CollectionPending  = "pendingQuestions"
	CollectionApproved = "approvedQuestions"
)

// FieldQuestion holds the text of newly submitted questions
const FieldQuestion = "question"

// textFields are tried in order when a document is displayed
var textFields = []string{"text", FieldQuestion, "title"}

// Question is an anonymous question, either pending or approved
type Question struct {
	ID        string     `json:"id"`
	Text      string     `json:"question"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// DisplayText picks the text to show for a stored question document. Older
// documents used "text" or "title"; anything else is shown as raw JSON.
func DisplayText(fields map[string]any) string {
	for _, name := range textFields {
		if s, ok := fields[name].(string); ok && s != "" {
			return s
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(raw)
}
