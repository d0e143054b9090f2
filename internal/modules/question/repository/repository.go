package repository

import (
	"context"

	"github.com/reshetovitsme/askanon/internal/modules/question/domain"
)

// Repository defines the interface for question persistence
type Repository interface {
	AddPending(ctx context.Context, question *domain.Question) error
	GetApproved(ctx context.Context, id string) (*domain.Question, error)
	// ListPending and ListApproved return every document, oldest first
	ListPending(ctx context.Context) ([]*domain.Question, error)
	ListApproved(ctx context.Context) ([]*domain.Question, error)
	// ListPublished returns timestamped approved questions, newest first
	ListPublished(ctx context.Context, limit int) ([]*domain.Question, error)
	Approve(ctx context.Context, id string) error
	DeletePending(ctx context.Context, id string) error
	DeleteApproved(ctx context.Context, id string) error
}
