package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"whatsapp-chat-viewer/internal/adapters/source"
	"whatsapp-chat-viewer/internal/cache"
	"whatsapp-chat-viewer/internal/core/services"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Часть формы сверх multipartMemory уходит во временные файлы.
const multipartMemory = 32 << 20

// filtersRequest — тело PUT /filters. Даты в формате YYYY-MM-DD, пустые поля не ограничивают.
type filtersRequest struct {
	Search      string `json:"search"`
	DateFrom    string `json:"date_from"`
	DateTo      string `json:"date_to"`
	Participant string `json:"participant"`
}

func (f filtersRequest) criteria() (domain.FilterCriteria, error) {
	from, err := domain.ParseFilterDate(f.DateFrom)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	to, err := domain.ParseFilterDate(f.DateTo)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	return domain.FilterCriteria{
		SearchText:  f.Search,
		DateFrom:    from,
		DateTo:      to,
		Participant: f.Participant,
	}, nil
}

// sessionResponse описывает состояние сессии без самих сообщений.
type sessionResponse struct {
	SessionID      string              `json:"session_id"`
	Summary        domain.ChatSummary  `json:"summary"`
	Criteria       domain.CriteriaView `json:"criteria"`
	Window         domain.WindowState  `json:"window"`
	FilteredCount  int                 `json:"filtered_count"`
	HasMore        bool                `json:"has_more"`
	DecodedLines   int                 `json:"decoded_lines"`
	TotalLines     int                 `json:"total_lines"`
	DecodeComplete bool                `json:"decode_complete"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadBytes()
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadSizeMB << 20
	}
	// Запас на служебные части multipart-формы
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ds, err := source.NewReaderSource(file, maxBytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	data, err := ds.Fetch()
	if err != nil {
		http.Error(w, "Загруженный файл пуст", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if _, err := uuid.Parse(sessionID); err != nil {
		http.Error(w, "Некорректный session_id", http.StatusBadRequest)
		return
	}

	session, created := s.sessions.GetOrCreate(sessionID, s.newSession)
	ticket := session.BeginUpload()
	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, sessionID, taskTTL)

	s.log.Info("Получен файл для загрузки",
		"task_id", taskID,
		"session_id", sessionID,
		"new_session", created,
		"size", len(data),
		"sha256", cache.CalculateHash(data),
	)
	s.runUpload(taskID, session, ticket, data)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id":    taskID,
		"session_id": sessionID,
	})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.taskStore.GetTask(taskID)
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"task_id":       task.ID,
		"session_id":    task.SessionID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
		"summary":       task.Result,
		"created_at":    task.CreatedAt,
	}
	if task.Status.Finished() {
		resp["finished_at"] = task.FinishedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// session ищет сессию из URL. При отсутствии отвечает 404 и возвращает false.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	session, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, "Сессия не найдена", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := session.View()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:      chi.URLParam(r, "sessionID"),
		Summary:        view.Summary,
		Criteria:       view.Criteria,
		Window:         view.Window,
		FilteredCount:  view.FilteredCount,
		HasMore:        view.HasMore,
		DecodedLines:   view.DecodedLines,
		TotalLines:     view.TotalLines,
		DecodeComplete: view.DecodeComplete,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		http.Error(w, "Сессия не найдена", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, (*services.Session).View)
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, (*services.Session).ResetCriteria)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, (*services.Session).LoadMore)
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	criteria, err := req.criteria()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.respondView(w, r, func(session *services.Session) (domain.WindowView, error) {
		return session.SetCriteria(criteria)
	})
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request, op func(*services.Session) (domain.WindowView, error)) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := op(session)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "filename")
	att, data, err := session.Media(name)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(att.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Media-Category", string(att.Category))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeSessionError переводит ошибки сессии в HTTP-статусы
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoChatLoaded):
		http.Error(w, "Чат еще не загружен", http.StatusConflict)
	case errors.Is(err, services.ErrDecodeInProgress):
		http.Error(w, "Разбор уже выполняется", http.StatusConflict)
	case errors.Is(err, services.ErrSessionClosed):
		http.Error(w, "Сессия закрыта", http.StatusNotFound)
	case errors.Is(err, services.ErrMediaNotFound):
		http.Error(w, "Медиафайл не найден", http.StatusNotFound)
	case errors.Is(err, services.ErrMediaReleased):
		http.Error(w, "Медиафайл больше недоступен", http.StatusGone)
	default:
		http.Error(w, "Внутренняя ошибка", http.StatusInternalServerError)
	}
}

// uploadErrorMessage формирует сообщение об ошибке загрузки для пользователя
func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoTranscriptFound):
		return "В архиве не найден файл переписки"
	case errors.Is(err, domain.ErrArchiveOpen):
		return "Не удалось открыть архив"
	case errors.Is(err, domain.ErrEmptyInput):
		return "Загруженный файл пуст"
	case errors.Is(err, context.DeadlineExceeded):
		return "Превышено время обработки"
	case errors.Is(err, context.Canceled):
		return "Загрузка отменена"
	case errors.Is(err, services.ErrSessionClosed):
		return "Сессия закрыта"
	case errors.Is(err, services.ErrUploadSuperseded):
		return "Загрузка заменена более новой"
	default:
		return err.Error()
	}
}
