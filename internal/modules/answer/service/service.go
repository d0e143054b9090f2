package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/reshetovitsme/askanon/internal/modules/answer/domain"
	"github.com/reshetovitsme/askanon/internal/modules/answer/repository"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// QuestionLookup finds approved questions
type QuestionLookup interface {
	GetApproved(ctx context.Context, id string) (*questionDomain.Question, error)
}

// Service handles answer business logic
type Service struct {
	repo      repository.Repository
	questions QuestionLookup
	now       func() time.Time
}

// New creates a new answer service
func New(repo repository.Repository, questions QuestionLookup) *Service {
	return &Service{
		repo:      repo,
		questions: questions,
		now:       time.Now,
	}
}

// SetClock replaces the source of server timestamps
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Submit posts an anonymous answer to an approved question
func (s *Service) Submit(ctx context.Context, questionID, text string) (*domain.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyAnswer
	}
	if words := domain.CountWords(text); words > domain.MaxWords {
		return nil, oops.With("words", words, "max_words", domain.MaxWords).Wrap(apperrors.ErrTooManyWords)
	}

	if _, err := s.questions.GetApproved(ctx, questionID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	answer := &domain.Answer{QuestionID: questionID, Text: text, CreatedAt: &now}
	if err := s.repo.Add(ctx, answer); err != nil {
		return nil, err
	}

	slog.Info("Answer submitted", "question_id", questionID, "answer_id", answer.ID)
	return answer, nil
}

// List returns the answers to a question, oldest first
func (s *Service) List(ctx context.Context, questionID string) ([]*domain.Answer, error) {
	return s.repo.ListByQuestion(ctx, questionID)
}

// Delete removes an answer
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Answer deleted", "answer_id", id)
	return nil
}
