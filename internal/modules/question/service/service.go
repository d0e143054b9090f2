package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/reshetovitsme/askanon/internal/modules/question/domain"
	"github.com/reshetovitsme/askanon/internal/modules/question/repository"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// Notifier is told about every newly submitted question
type Notifier interface {
	NotifyPending(ctx context.Context, question *domain.Question) error
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) NotifyPending(context.Context, *domain.Question) error { return nil }

// Service handles question business logic
type Service struct {
	repo     repository.Repository
	notifier Notifier
	now      func() time.Time
}

// New creates a new question service
func New(repo repository.Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetClock replaces the source of server timestamps
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Submit stores a new question for moderation
func (s *Service) Submit(ctx context.Context, text string) (*domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	now := s.now().UTC()
	question := &domain.Question{Text: text, CreatedAt: &now}
	if err := s.repo.AddPending(ctx, question); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyPending(ctx, question); err != nil {
		slog.Warn("Failed to notify moderators", "question_id", question.ID, "error", err)
	}

	slog.Info("Question submitted", "question_id", question.ID)
	return question, nil
}

// ListApproved returns the questions visitors see, newest first
func (s *Service) ListApproved(ctx context.Context) ([]*domain.Question, error) {
	return s.repo.ListPublished(ctx, 0)
}

// ListRecent returns at most limit approved questions, newest first
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*domain.Question, error) {
	return s.repo.ListPublished(ctx, limit)
}

// GetApproved retrieves an approved question by ID
func (s *Service) GetApproved(ctx context.Context, id string) (*domain.Question, error) {
	return s.repo.GetApproved(ctx, id)
}

// ListPending returns every question awaiting approval
func (s *Service) ListPending(ctx context.Context) ([]*domain.Question, error) {
	return s.repo.ListPending(ctx)
}

// ListApprovedForAdmin returns every approved question, including ones without a timestamp
func (s *Service) ListApprovedForAdmin(ctx context.Context) ([]*domain.Question, error) {
	return s.repo.ListApproved(ctx)
}

// Approve publishes a pending question under the same ID
func (s *Service) Approve(ctx context.Context, id string) error {
	if err := s.repo.Approve(ctx, id); err != nil {
		return err
	}
	slog.Info("Question approved", "question_id", id)
	return nil
}

// DeletePending removes a question awaiting approval
func (s *Service) DeletePending(ctx context.Context, id string) error {
	if err := s.repo.DeletePending(ctx, id); err != nil {
		return oops.With("question_id", id).Wrap(err)
	}
	slog.Info("Pending question deleted", "question_id", id)
	return nil
}

// DeleteApproved removes a published question. Its answers are left in place.
func (s *Service) DeleteApproved(ctx context.Context, id string) error {
	if err := s.repo.DeleteApproved(ctx, id); err != nil {
		return oops.With("question_id", id).Wrap(err)
	}
	slog.Info("Approved question deleted", "question_id", id)
	return nil
}
