package repository

import (
	"context"
	"errors"

	"github.com/reshetovitsme/askanon/internal/modules/question/domain"
	"github.com/reshetovitsme/askanon/internal/shared/docstore"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// DocStore implements Repository on top of a document store
type DocStore struct {
	store docstore.Store
}

// NewDocStore creates a question repository backed by store
func NewDocStore(store docstore.Store) Repository {
	return &DocStore{store: store}
}

func (r *DocStore) AddPending(ctx context.Context, question *domain.Question) error {
	doc := &docstore.Document{
		CreatedAt: question.CreatedAt,
		Fields:    map[string]any{domain.FieldQuestion: question.Text},
	}
	id, err := r.store.Add(ctx, domain.CollectionPending, doc)
	if err != nil {
		return oops.With("context", "failed to add pending question").Wrap(err)
	}
	question.ID = id
	return nil
}

func (r *DocStore) GetApproved(ctx context.Context, id string) (*domain.Question, error) {
	doc, err := r.store.Get(ctx, domain.CollectionApproved, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, oops.With("question_id", id).Wrap(apperrors.ErrQuestionNotFound)
	}
	if err != nil {
		return nil, oops.With("question_id", id, "context", "failed to get approved question").Wrap(err)
	}
	return toQuestion(doc), nil
}

func (r *DocStore) ListPending(ctx context.Context) ([]*domain.Question, error) {
	return r.listAll(ctx, domain.CollectionPending)
}

func (r *DocStore) ListApproved(ctx context.Context) ([]*domain.Question, error) {
	return r.listAll(ctx, domain.CollectionApproved)
}

func (r *DocStore) ListPublished(ctx context.Context, limit int) ([]*domain.Question, error) {
	q := docstore.Query{Limit: limit}.OrderByCreated(true)
	docs, err := r.store.List(ctx, domain.CollectionApproved, q)
	if err != nil {
		return nil, oops.With("context", "failed to list published questions").Wrap(err)
	}
	return lo.Map(docs, func(doc *docstore.Document, _ int) *domain.Question { return toQuestion(doc) }), nil
}

func (r *DocStore) Approve(ctx context.Context, id string) error {
	err := r.store.Move(ctx, domain.CollectionPending, domain.CollectionApproved, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return oops.With("question_id", id).Wrap(apperrors.ErrQuestionNotFound)
	}
	if err != nil {
		return oops.With("question_id", id, "context", "failed to approve question").Wrap(err)
	}
	return nil
}

func (r *DocStore) DeletePending(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.CollectionPending, id); err != nil {
		return oops.With("question_id", id, "context", "failed to delete pending question").Wrap(err)
	}
	return nil
}

func (r *DocStore) DeleteApproved(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.CollectionApproved, id); err != nil {
		return oops.With("question_id", id, "context", "failed to delete approved question").Wrap(err)
	}
	return nil
}

func (r *DocStore) listAll(ctx context.Context, collection string) ([]*domain.Question, error) {
	docs, err := r.store.List(ctx, collection, docstore.Query{})
	if err != nil {
		return nil, oops.With("collection", collection, "context", "failed to list questions").Wrap(err)
	}
	docs = docstore.OldestFirst(docs)
	return lo.Map(docs, func(doc *docstore.Document, _ int) *domain.Question { return toQuestion(doc) }), nil
}

func toQuestion(doc *docstore.Document) *domain.Question {
	return &domain.Question{
		ID:        doc.ID,
		Text:      domain.DisplayText(doc.Fields),
		CreatedAt: doc.CreatedAt,
	}
}
