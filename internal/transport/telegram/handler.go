package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/lo"
)

// Moderation is the part of the question service the bot drives
type Moderation interface {
	ListPending(ctx context.Context) ([]*questionDomain.Question, error)
	Approve(ctx context.Context, id string) error
	DeletePending(ctx context.Context, id string) error
}

// Handler handles Telegram bot interactions for moderators
type Handler struct {
	cfg        *config.Config
	moderation Moderation
}

// New creates a new Telegram handler
func New(cfg *config.Config, moderation Moderation) *Handler {
	return &Handler{
		cfg:        cfg,
		moderation: moderation,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	for _, cmd := range []string{"/start", "/help", "/pending", "/approve", "/reject"} {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h.handleCommand)
	}
}

// HandleUpdate processes updates that match no command
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	slog.Debug("Ignoring telegram message", "chat_id", update.Message.Chat.ID)
}

func (h *Handler) handleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	reply := h.Respond(ctx, userID, msg.Chat.ID, msg.Text)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   reply,
	}); err != nil {
		slog.Error("Failed to send telegram reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

// Respond executes a moderator command and returns the reply text
func (h *Handler) Respond(ctx context.Context, userID, chatID int64, text string) string {
	if !h.checkAuthorization(userID, chatID) {
		return "❌ You are not authorized to moderate questions."
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return helpText
	}

	// Commands may arrive as /approve@botname in group chats
	command, _, _ := strings.Cut(parts[0], "@")

	switch command {
	case "/start", "/help":
		return helpText
	case "/pending":
		return h.pending(ctx)
	case "/approve":
		if len(parts) < 2 {
			return "Usage: /approve <question_id>"
		}
		return h.apply(ctx, parts[1], "✅ Approved", h.moderation.Approve)
	case "/reject":
		if len(parts) < 2 {
			return "Usage: /reject <question_id>"
		}
		return h.apply(ctx, parts[1], "🗑 Deleted", h.moderation.DeletePending)
	default:
		return helpText
	}
}

const helpText = `👋 Question moderation bot

Available commands:
/pending - List questions awaiting approval
/approve <question_id> - Publish a question
/reject <question_id> - Delete a pending question
/help - Show this help message`

func (h *Handler) checkAuthorization(userID, chatID int64) bool {
	return lo.Contains(h.cfg.TelegramAdminChatIDs, userID) || lo.Contains(h.cfg.TelegramAdminChatIDs, chatID)
}

func (h *Handler) pending(ctx context.Context) string {
	questions, err := h.moderation.ListPending(ctx)
	if err != nil {
		slog.Error("Failed to list pending questions", "error", err)
		return "❌ Failed to load pending questions."
	}
	if len(questions) == 0 {
		return "No pending questions."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Pending questions (%d):\n", len(questions)))
	for i, q := range questions {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n   ID: %s\n", i+1, q.Text, q.ID))
	}
	return sb.String()
}

func (h *Handler) apply(ctx context.Context, id, done string, action func(context.Context, string) error) string {
	if err := action(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Sprintf("❌ No pending question with ID %s", id)
		}
		slog.Error("Moderation command failed", "question_id", id, "error", err)
		return "❌ Something went wrong, please try again."
	}
	return fmt.Sprintf("%s: %s", done, id)
}
