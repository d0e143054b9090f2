package repository

import (
	"context"

	"github.com/reshetovitsme/askanon/internal/modules/answer/domain"
	"github.com/reshetovitsme/askanon/internal/shared/docstore"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// DocStore implements Repository on top of a document store
type DocStore struct {
	store docstore.Store
}

// NewDocStore creates an answer repository backed by store
func NewDocStore(store docstore.Store) Repository {
	return &DocStore{store: store}
}

func (r *DocStore) Add(ctx context.Context, answer *domain.Answer) error {
	doc := &docstore.Document{
		CreatedAt: answer.CreatedAt,
		Fields: map[string]any{
			domain.FieldQuestionID: answer.QuestionID,
			domain.FieldAnswer:     answer.Text,
		},
	}
	id, err := r.store.Add(ctx, domain.CollectionAnswers, doc)
	if err != nil {
		return oops.With("question_id", answer.QuestionID, "context", "failed to add answer").Wrap(err)
	}
	answer.ID = id
	return nil
}

func (r *DocStore) ListByQuestion(ctx context.Context, questionID string) ([]*domain.Answer, error) {
	q := docstore.Query{}.Where(domain.FieldQuestionID, questionID)
	docs, err := r.store.List(ctx, domain.CollectionAnswers, q)
	if err != nil {
		return nil, oops.With("question_id", questionID, "context", "failed to list answers").Wrap(err)
	}
	docs = docstore.OldestFirst(docs)
	return lo.Map(docs, func(doc *docstore.Document, _ int) *domain.Answer {
		return &domain.Answer{
			ID:         doc.ID,
			QuestionID: doc.String(domain.FieldQuestionID),
			Text:       doc.String(domain.FieldAnswer),
			CreatedAt:  doc.CreatedAt,
		}
	}), nil
}

func (r *DocStore) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.CollectionAnswers, id); err != nil {
		return oops.With("answer_id", id, "context", "failed to delete answer").Wrap(err)
	}
	return nil
}
