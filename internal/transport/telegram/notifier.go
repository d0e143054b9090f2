package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
)

// Sender is the subset of *bot.Bot used to push messages
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier tells moderators about new questions in the background
type Notifier struct {
	sender  Sender
	chatIDs []int64
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier creates a notifier that messages every chat in chatIDs
func NewNotifier(sender Sender, chatIDs []int64) *Notifier {
	return &Notifier{
		sender:  sender,
		chatIDs: chatIDs,
		timeout: 10 * time.Second,
	}
}

// NotifyPending queues a message about q and returns immediately
func (n *Notifier) NotifyPending(ctx context.Context, q *questionDomain.Question) error {
	if len(n.chatIDs) == 0 {
		return nil
	}

	text := fmt.Sprintf("❓ New question awaiting approval:\n\n%s\n\n/approve %s\n/reject %s", q.Text, q.ID, q.ID)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		for _, chatID := range n.chatIDs {
			if _, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   text,
			}); err != nil {
				slog.Error("Failed to notify moderator", "chat_id", chatID, "question_id", q.ID, "error", err)
			}
		}
	}()

	return nil
}

// Close waits for queued notifications to finish
func (n *Notifier) Close() {
	n.wg.Wait()
}
