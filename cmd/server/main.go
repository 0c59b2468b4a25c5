package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"whatsapp-chat-viewer/internal/adapters/archive"
	"whatsapp-chat-viewer/internal/adapters/parser"
	"whatsapp-chat-viewer/internal/cache"
	applog "whatsapp-chat-viewer/internal/log"
	"whatsapp-chat-viewer/internal/pkg/config"
	"whatsapp-chat-viewer/internal/server"
	"whatsapp-chat-viewer/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := applog.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Инициализация зависимостей
	extractor := archive.NewZipExtractor(
		archive.WithWorkers(cfg.Processing.MediaWorkers),
		archive.WithLogger(logger.With(slog.String("component", "archive"))),
	)
	lineParser := parser.NewLineParser(cfg.Viewer.MediaOmittedMarker)
	loader := usecase.NewLoadChatUseCase(cfg, extractor, lineParser, logger.With(slog.String("component", "loader")))

	taskStore := server.NewTaskStore()
	sessions := cache.NewSessionStore(cfg.Processing.SessionTTL)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, loader, taskStore, sessions, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Signal received, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverErr
	slog.Info("Application exited gracefully")
	return nil
}
