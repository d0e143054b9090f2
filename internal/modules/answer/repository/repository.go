package repository

import (
	"context"

	"github.com/reshetovitsme/askanon/internal/modules/answer/domain"
)

// Repository defines the interface for answer persistence
type Repository interface {
	Add(ctx context.Context, answer *domain.Answer) error
	// ListByQuestion returns the answers for one question, oldest first
	ListByQuestion(ctx context.Context, questionID string) ([]*domain.Answer, error)
	Delete(ctx context.Context, id string) error
}
