package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/askanon/internal/di"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	httpServer "github.com/reshetovitsme/askanon/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/askanon/internal/transport/telegram"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Setup dependency injection
	injector, err := di.Setup(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	// Get services from DI container
	server, err := do.Invoke[*httpServer.Server](injector)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(server.Start)

	// Start moderation bot
	if cfg.TelegramEnabled() {
		b, err := do.Invoke[*bot.Bot](injector)
		if err != nil {
			return err
		}
		// Commands are registered when the handler is built
		do.MustInvoke[*telegramHandler.Handler](injector)
		g.Go(func() error {
			b.Start(ctx)
			return nil
		})
		slog.Info("Telegram moderation bot started", "admin_chats", len(cfg.TelegramAdminChatIDs))
	}

	slog.Info("Application started", "port", cfg.HTTPPort, "app_env", cfg.AppEnv, "storage_driver", cfg.StorageDriver)
	slog.Info("Press Ctrl+C to stop")

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
