package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	answerRepo "github.com/reshetovitsme/askanon/internal/modules/answer/repository"
	answerService "github.com/reshetovitsme/askanon/internal/modules/answer/service"
	authService "github.com/reshetovitsme/askanon/internal/modules/auth/service"
	feedService "github.com/reshetovitsme/askanon/internal/modules/feed/service"
	questionRepo "github.com/reshetovitsme/askanon/internal/modules/question/repository"
	questionService "github.com/reshetovitsme/askanon/internal/modules/question/service"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	"github.com/reshetovitsme/askanon/internal/shared/docstore"
	httpServer "github.com/reshetovitsme/askanon/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/askanon/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container with the given config
func Setup(cfg *config.Config) (do.Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, oops.With("context", "invalid config").Wrap(err)
	}

	injector := do.New()

	// Register Config
	do.ProvideValue(injector, cfg)

	// Register Document Store
	do.Provide(injector, func(i do.Injector) (docstore.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := docstore.Open(context.Background(), cfg)
		if err != nil {
			return nil, oops.With("storage_driver", cfg.StorageDriver, "context", "failed to open document store").Wrap(err)
		}
		return store, nil
	})

	// Register Repositories
	do.Provide(injector, func(i do.Injector) (questionRepo.Repository, error) {
		return questionRepo.NewDocStore(do.MustInvoke[docstore.Store](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (answerRepo.Repository, error) {
		return answerRepo.NewDocStore(do.MustInvoke[docstore.Store](i)), nil
	})

	// Register Telegram Bot and moderator notifier when a token is configured
	if cfg.TelegramEnabled() {
		do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
			cfg := do.MustInvoke[*config.Config](i)

			opts := []bot.Option{
				// Resolved lazily, the handler depends on services that depend on the bot
				bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
					do.MustInvoke[*telegramHandler.Handler](i).HandleUpdate(ctx, b, update)
				}),
			}
			if cfg.TelegramAPIURL != "" {
				opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
			}

			b, err := bot.New(cfg.TelegramBotToken, opts...)
			if err != nil {
				return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
			}
			return b, nil
		})

		do.Provide(injector, func(i do.Injector) (*telegramHandler.Notifier, error) {
			cfg := do.MustInvoke[*config.Config](i)
			b := do.MustInvoke[*bot.Bot](i)
			return telegramHandler.NewNotifier(b, cfg.TelegramAdminChatIDs), nil
		})

		do.Provide(injector, func(i do.Injector) (questionService.Notifier, error) {
			return do.MustInvoke[*telegramHandler.Notifier](i), nil
		})

		do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
			cfg := do.MustInvoke[*config.Config](i)
			questions := do.MustInvoke[*questionService.Service](i)
			handler := telegramHandler.New(cfg, questions)

			// Register bot commands
			handler.RegisterCommands(do.MustInvoke[*bot.Bot](i))
			return handler, nil
		})
	} else {
		do.Provide(injector, func(i do.Injector) (questionService.Notifier, error) {
			return questionService.NopNotifier{}, nil
		})
	}

	// Register Question Service
	do.Provide(injector, func(i do.Injector) (*questionService.Service, error) {
		repo := do.MustInvoke[questionRepo.Repository](i)
		notifier := do.MustInvoke[questionService.Notifier](i)
		return questionService.New(repo, notifier), nil
	})

	// Register Answer Service
	do.Provide(injector, func(i do.Injector) (*answerService.Service, error) {
		repo := do.MustInvoke[answerRepo.Repository](i)
		questions := do.MustInvoke[*questionService.Service](i)
		return answerService.New(repo, questions), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		questions := do.MustInvoke[*questionService.Service](i)
		return feedService.New(questions, cfg.SiteTitle), nil
	})

	// Register Token Verifier
	do.Provide(injector, func(i do.Injector) (*authService.Verifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		verifier, err := authService.NewVerifier(cfg)
		if err != nil {
			return nil, oops.With("context", "failed to create token verifier").Wrap(err)
		}
		return verifier, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		server, err := httpServer.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*questionService.Service](i),
			do.MustInvoke[*answerService.Service](i),
			do.MustInvoke[*feedService.Service](i),
			do.MustInvoke[*authService.Verifier](i),
		)
		if err != nil {
			return nil, oops.With("context", "failed to create http server").Wrap(err)
		}
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown waits for queued notifications and closes the document store
func Shutdown(injector do.Injector) error {
	// Flush notifier if it was created
	if n, err := do.Invoke[*telegramHandler.Notifier](injector); err == nil && n != nil {
		n.Close()
	}

	// Close store if it was opened
	if store, err := do.Invoke[docstore.Store](injector); err == nil && store != nil {
		if err := store.Close(); err != nil {
			return oops.With("context", "failed to close document store").Wrap(err)
		}
	}

	return nil
}
