package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"whatsapp-chat-viewer/internal/adapters/source"
	"whatsapp-chat-viewer/internal/cache"
	"whatsapp-chat-viewer/internal/core/services"
	"whatsapp-chat-viewer/internal/pkg/config"
	"whatsapp-chat-viewer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Время хранения записи о задаче загрузки
const taskTTL = 24 * time.Hour

// ChatLoader определяет интерфейс для варианта использования, который загружает экспорт чата.
type ChatLoader interface {
	LoadSource(ctx context.Context, ds ports.DataSource) (*services.Pipeline, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	sessions   *cache.SessionStore
	loader     ChatLoader
	log        *slog.Logger

	// ctx ограничивает время жизни фоновых загрузок и тикеров очистки.
	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

// New создает новый экземпляр Server
func New(cfg *config.Config, loader ChatLoader, taskStore *TaskStore, sessions *cache.SessionStore, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		taskStore: taskStore,
		sessions:  sessions,
		loader:    loader,
		log:       logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  orDefault(cfg.Server.ReadTimeout, config.DefaultReadTimeout),
		WriteTimeout: orDefault(cfg.Server.WriteTimeout, config.DefaultWriteTimeout),
		IdleTimeout:  orDefault(cfg.Server.IdleTimeout, config.DefaultIdleTimeout),
	}

	interval := orDefault(cfg.Server.CleanupInterval, config.DefaultCleanupInterval)
	s.taskStore.StartCleanupTicker(ctx, interval)
	s.sessions.StartCleanupTicker(ctx, interval)

	return s, nil
}

func (s *Server) routes() http.Handler {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": s.sessions.Len(),
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Get("/tasks/{taskID}", s.handleTask)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/messages", s.handleMessages)
			r.Put("/filters", s.handleSetFilters)
			r.Delete("/filters", s.handleResetFilters)
			r.Post("/more", s.handleLoadMore)
			r.Get("/media/{filename}", s.handleMedia)
		})
	})

	return chiRouter
}

// newSession создает сессию с параметрами окна из конфигурации
func (s *Server) newSession() *services.Session {
	return services.NewSession(services.SessionConfig{
		InitialWindow: s.cfg.Viewer.InitialWindow,
		WindowStep:    s.cfg.Viewer.WindowStep,
		ExtendLines:   s.cfg.Processing.ExtendDecodeLines,
	}, services.WithSessionLogger(s.log.With(slog.String("component", "session"))))
}

// runUpload загружает данные в фоне и по завершении заменяет состояние сессии.
// При ошибке загрузки прежнее состояние сессии не меняется. Если в сессию
// после ticket началась более новая загрузка, результат отбрасывается.
func (s *Server) runUpload(taskID string, session *services.Session, ticket uint64, data []byte) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		log := s.log.With(slog.String("task_id", taskID))
		_ = s.taskStore.Start(taskID)

		taskCtx := s.ctx
		if s.cfg.Processing.TaskTimeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(s.ctx, s.cfg.Processing.TaskTimeout)
			defer cancel()
		}

		p, err := s.loader.LoadSource(taskCtx, source.NewMemorySource(data))
		if err != nil {
			log.Warn("Загрузка чата не удалась", "error", err)
			_ = s.taskStore.Fail(taskID, uploadErrorMessage(err))
			return
		}

		view, err := session.ReplaceUpload(ticket, p)
		if err != nil {
			log.Warn("Результат загрузки отброшен", "error", err)
			_ = s.taskStore.Fail(taskID, uploadErrorMessage(err))
			return
		}

		_ = s.taskStore.Complete(taskID, view.Summary)
		log.Info("Загрузка завершена", "generation", view.Summary.Generation, "messages", view.Summary.TotalCount)
	}()
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера, отменяет незавершенные
// загрузки и закрывает все сессии
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Завершение работы HTTP-сервера")
	err := s.HTTPServer.Shutdown(ctx)

	s.cancel()
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("Не все загрузки завершились до остановки")
	}

	s.sessions.CloseAll()
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
