package domain

import (
	"strings"
	"time"
)

// CollectionAnswers holds every answer, linked to its question by FieldQuestionID
const CollectionAnswers = "answers"

const (
	FieldQuestionID = "questionId"
	FieldAnswer     = "answer"
)

// MaxWords is the longest answer a visitor may post
const MaxWords = 10

// Answer is a short anonymous reply to an approved question
type Answer struct {
	ID         string     `json:"id"`
	QuestionID string     `json:"questionId"`
	Text       string     `json:"answer"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// CountWords counts runs of non-whitespace characters
func CountWords(text string) int {
	return len(strings.Fields(text))
}
