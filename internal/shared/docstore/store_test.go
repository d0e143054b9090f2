package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	open  func(t *testing.T) Store
	store Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.open(s.T())
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func ts(minute int) *time.Time {
	t := time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC)
	return &t
}

func (s *StoreSuite) TestAddAssignsID() {
	id, err := s.store.Add(s.ctx, "pendingQuestions", &Document{
		CreatedAt: ts(1),
		Fields:    map[string]any{"question": "why?"},
	})
	s.Require().NoError(err)
	s.NotEmpty(id)

	doc, err := s.store.Get(s.ctx, "pendingQuestions", id)
	s.Require().NoError(err)
	s.Equal(id, doc.ID)
	s.Equal("why?", doc.String("question"))
	s.Require().NotNil(doc.CreatedAt)
	s.True(doc.CreatedAt.Equal(*ts(1)))
}

func (s *StoreSuite) TestSetReplaces() {
	s.Require().NoError(s.store.Set(s.ctx, "answers", &Document{ID: "a1", Fields: map[string]any{"answer": "one"}}))
	s.Require().NoError(s.store.Set(s.ctx, "answers", &Document{ID: "a1", Fields: map[string]any{"answer": "two"}}))

	doc, err := s.store.Get(s.ctx, "answers", "a1")
	s.Require().NoError(err)
	s.Equal("two", doc.String("answer"))
	s.Nil(doc.CreatedAt)
}

func (s *StoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "answers", "nope")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestDeleteIsIdempotent() {
	s.Require().NoError(s.store.Set(s.ctx, "answers", &Document{ID: "a1", Fields: map[string]any{}}))
	s.Require().NoError(s.store.Delete(s.ctx, "answers", "a1"))
	s.Require().NoError(s.store.Delete(s.ctx, "answers", "a1"))

	_, err := s.store.Get(s.ctx, "answers", "a1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestListFilterAndOrder() {
	docs := []*Document{
		{ID: "c", CreatedAt: ts(3), Fields: map[string]any{"questionId": "q1", "answer": "third"}},
		{ID: "a", CreatedAt: ts(1), Fields: map[string]any{"questionId": "q1", "answer": "first"}},
		{ID: "b", CreatedAt: ts(2), Fields: map[string]any{"questionId": "q2", "answer": "other"}},
		{ID: "d", Fields: map[string]any{"questionId": "q1", "answer": "untimed"}},
		{ID: "e", CreatedAt: ts(4), Fields: map[string]any{"questionId": float64(1), "answer": "numeric"}},
	}
	for _, d := range docs {
		s.Require().NoError(s.store.Set(s.ctx, "answers", d))
	}

	all, err := s.store.List(s.ctx, "answers", Query{})
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c", "d", "e"}, ids(all))

	q1, err := s.store.List(s.ctx, "answers", Query{}.Where("questionId", "q1"))
	s.Require().NoError(err)
	s.Equal([]string{"a", "c", "d"}, ids(q1))

	ordered, err := s.store.List(s.ctx, "answers", Query{}.Where("questionId", "q1").OrderByCreated(true))
	s.Require().NoError(err)
	s.Equal([]string{"c", "a"}, ids(ordered))

	asc, err := s.store.List(s.ctx, "answers", Query{Limit: 2}.OrderByCreated(false))
	s.Require().NoError(err)
	s.Equal([]string{"a", "b"}, ids(asc))

	numeric, err := s.store.List(s.ctx, "answers", Query{}.Where("questionId", "1"))
	s.Require().NoError(err)
	s.Empty(numeric)
}

func (s *StoreSuite) TestListEmptyCollection() {
	docs, err := s.store.List(s.ctx, "approvedQuestions", Query{})
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *StoreSuite) TestListRejectsBadField() {
	_, err := s.store.List(s.ctx, "answers", Query{}.Where("a'); DROP TABLE documents;--", "x"))
	s.ErrorIs(err, apperrors.ErrInvalidField)
}

func (s *StoreSuite) TestSetRejectsBadFieldName() {
	for _, name := range []string{"bad name.$", "1st", "", "a-b"} {
		err := s.store.Set(s.ctx, "answers", &Document{ID: "x", Fields: map[string]any{name: "v"}})
		s.ErrorIs(err, apperrors.ErrInvalidField, name)
	}

	_, err := s.store.Add(s.ctx, "answers", &Document{Fields: map[string]any{"ok": "v", "not ok": "v"}})
	s.ErrorIs(err, apperrors.ErrInvalidField)

	docs, err := s.store.List(s.ctx, "answers", Query{})
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *StoreSuite) TestSetRequiresID() {
	err := s.store.Set(s.ctx, "answers", &Document{Fields: map[string]any{"answer": "v"}})
	s.ErrorIs(err, apperrors.ErrMissingDocumentID)

	docs, err := s.store.List(s.ctx, "answers", Query{})
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *StoreSuite) TestMove() {
	s.Require().NoError(s.store.Set(s.ctx, "pendingQuestions", &Document{
		ID:        "q1",
		CreatedAt: ts(5),
		Fields:    map[string]any{"question": "moved?", "extra": "kept"},
	}))

	s.Require().NoError(s.store.Move(s.ctx, "pendingQuestions", "approvedQuestions", "q1"))

	_, err := s.store.Get(s.ctx, "pendingQuestions", "q1")
	s.ErrorIs(err, apperrors.ErrNotFound)

	doc, err := s.store.Get(s.ctx, "approvedQuestions", "q1")
	s.Require().NoError(err)
	s.Equal("moved?", doc.String("question"))
	s.Equal("kept", doc.String("extra"))
	s.True(doc.CreatedAt.Equal(*ts(5)))
}

func (s *StoreSuite) TestMoveMissing() {
	err := s.store.Move(s.ctx, "pendingQuestions", "approvedQuestions", "ghost")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func ids(docs []*Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestFileStorage(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		store, err := NewFileStorage(t.TempDir())
		if err != nil {
			t.Fatalf("open file storage: %v", err)
		}
		return store
	}})
}

func TestSQLiteStorage(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		store, err := NewSQLiteStorage(":memory:")
		if err != nil {
			t.Fatalf("open sqlite storage: %v", err)
		}
		return store
	}})
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("ASKANON_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ASKANON_TEST_DATABASE_URL not set")
	}
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		store, err := NewPostgresStorage(context.Background(), dsn, PoolConfig{MaxConns: 2})
		if err != nil {
			t.Fatalf("open postgres storage: %v", err)
		}
		if _, err := store.pool.Exec(context.Background(), `TRUNCATE documents`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store
	}})
}

func TestFileStorage_RejectsPathTraversal(t *testing.T) {
	store, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	err = store.Set(context.Background(), "answers", &Document{ID: "../escape"})
	if err == nil {
		t.Fatal("expected error for traversal id")
	}
}
