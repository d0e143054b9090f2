package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	"github.com/samber/oops"
)

// FeedLimit caps the number of questions included in a feed
const FeedLimit = 50

// QuestionSource lists recently approved questions
type QuestionSource interface {
	ListRecent(ctx context.Context, limit int) ([]*questionDomain.Question, error)
}

// Service builds RSS/Atom feeds of approved questions
type Service struct {
	questions QuestionSource
	title     string
}

// New creates a new feed service
func New(questions QuestionSource, title string) *Service {
	return &Service{
		questions: questions,
		title:     title,
	}
}

// GenerateFeed builds a feed of the newest approved questions
func (s *Service) GenerateFeed(ctx context.Context, baseURL string) (*feeds.Feed, error) {
	questions, err := s.questions.ListRecent(ctx, FeedLimit)
	if err != nil {
		return nil, oops.With("context", "failed to list questions for feed").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       s.title,
		Link:        &feeds.Link{Href: baseURL + "/"},
		Description: fmt.Sprintf("Questions answered anonymously on %s", s.title),
		Id:          baseURL + "/",
	}

	for _, q := range questions {
		feed.Items = append(feed.Items, questionToFeedItem(q, baseURL))
	}

	if len(questions) > 0 && questions[0].CreatedAt != nil {
		feed.Updated = *questions[0].CreatedAt
		feed.Created = *questions[len(questions)-1].CreatedAt
	} else {
		feed.Created = time.Now()
	}

	return feed, nil
}

func questionToFeedItem(q *questionDomain.Question, baseURL string) *feeds.Item {
	link := fmt.Sprintf("%s/questions/%s", baseURL, q.ID)
	item := &feeds.Item{
		Title:       truncate(q.Text, 100),
		Link:        &feeds.Link{Href: link},
		Description: q.Text,
		Id:          link,
	}
	if q.CreatedAt != nil {
		item.Created = *q.CreatedAt
	}
	return item
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
