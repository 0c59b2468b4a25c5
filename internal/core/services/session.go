package services

import (
	"errors"
	"log/slog"
	"sync"
	"whatsapp-chat-viewer/internal/domain"
)

var (
	// ErrNoChatLoaded возвращается, пока в сессию не загружен ни один чат.
	ErrNoChatLoaded = errors.New("no chat loaded")
	// ErrSessionClosed возвращается после Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrMediaNotFound — в текущей загрузке нет файла с таким именем.
	ErrMediaNotFound = errors.New("media not found")
	// Содержимое файла уже освобождено.
	ErrMediaReleased = errors.New("media released")
	// ErrUploadSuperseded возвращается, если после начала загрузки началась более новая.
	ErrUploadSuperseded = errors.New("upload superseded")
)

// SessionConfig хранит параметры окна и докодирования.
type SessionConfig struct {
	// InitialWindow — размер окна после загрузки или смены фильтров.
	InitialWindow int
	// WindowStep — на сколько сообщений окно растет за один LoadMore.
	WindowStep int
	// Сколько строк разбирается за одно докодирование.
	ExtendLines int
}

// DefaultSessionConfig возвращает параметры по умолчанию.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{InitialWindow: 50, WindowStep: 50, ExtendLines: 500}
}

// SessionOption — функциональная опция для настройки Session.
type SessionOption func(*Session)

// WithSessionLogger устанавливает логгер сессии.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l
	}
}

// Session — состояние просмотра одного пользователя: текущая загрузка,
// активные фильтры, отфильтрованный результат и окно.
// Все методы безопасны для одновременного вызова.
type Session struct {
	config SessionConfig
	log    *slog.Logger

	mu       sync.Mutex
	pipeline *Pipeline
	criteria domain.FilterCriteria
	filtered []domain.ParsedMessage
	window   *Window
	closed   bool
	// uploads — номер последней начатой загрузки.
	uploads uint64
}

// NewSession создает пустую сессию.
func NewSession(config SessionConfig, opts ...SessionOption) *Session {
	def := DefaultSessionConfig()
	if config.InitialWindow <= 0 {
		config.InitialWindow = def.InitialWindow
	}
	if config.WindowStep <= 0 {
		config.WindowStep = def.WindowStep
	}
	if config.ExtendLines <= 0 {
		config.ExtendLines = def.ExtendLines
	}

	s := &Session{
		config:   config,
		log:      slog.Default(),
		filtered: []domain.ParsedMessage{},
		window:   NewWindow(config.InitialWindow, config.WindowStep),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginUpload регистрирует новую загрузку и возвращает ее номер.
// Все ранее выданные номера после этого считаются устаревшими.
func (s *Session) BeginUpload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	return s.uploads
}

// Replace делает p текущей загрузкой вне очереди загрузок.
// Незавершенные загрузки, начатые раньше, после этого будут отклонены.
func (s *Session) Replace(p *Pipeline) (domain.WindowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	return s.installLocked(s.uploads, p)
}

// ReplaceUpload делает p текущей загрузкой, если ticket выдан последним вызовом
// BeginUpload. Устаревшая загрузка сразу освобождается и возвращает ErrUploadSuperseded.
func (s *Session) ReplaceUpload(ticket uint64, p *Pipeline) (domain.WindowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.installLocked(ticket, p)
}

// installLocked заменяет загрузку: предыдущая освобождается, фильтры и окно сбрасываются.
// После Close p сразу освобождается.
func (s *Session) installLocked(ticket uint64, p *Pipeline) (domain.WindowView, error) {
	if s.closed {
		p.Release()
		return domain.WindowView{}, ErrSessionClosed
	}
	if ticket != s.uploads {
		p.Release()
		s.log.Debug("Stale upload discarded", "ticket", ticket, "latest", s.uploads)
		return domain.WindowView{}, ErrUploadSuperseded
	}

	prev := s.pipeline
	s.pipeline = p
	s.criteria = domain.FilterCriteria{}
	s.filtered = Filter(p.Index(), s.criteria)
	s.window.Reset(len(s.filtered))

	if prev != nil {
		prev.Release()
		s.log.Debug("Previous upload released", "generation", prev.Generation())
	}
	s.log.Info("Chat loaded", "generation", p.Generation(), "messages", len(s.filtered))

	return s.viewLocked(), nil
}

// SetCriteria применяет новые фильтры. Окно сбрасывается, только если фильтры изменились.
func (s *Session) SetCriteria(c domain.FilterCriteria) (domain.WindowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return domain.WindowView{}, err
	}

	c = c.Normalized()
	changed := !s.criteria.Equal(c)
	s.criteria = c
	s.filtered = Filter(s.pipeline.Index(), c)
	if changed {
		s.window.Reset(len(s.filtered))
	}
	return s.viewLocked(), nil
}

// ResetCriteria снимает все фильтры.
func (s *Session) ResetCriteria() (domain.WindowView, error) {
	return s.SetCriteria(domain.FilterCriteria{})
}

// LoadMore увеличивает окно на один шаг. Если окно упирается в конец
// отфильтрованного результата, а текст разобран не полностью, сначала
// докодируются следующие порции строк. Окно при этом не сбрасывается.
func (s *Session) LoadMore() (domain.WindowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return domain.WindowView{}, err
	}

	for s.window.Visible()+s.window.Step() > len(s.filtered) && !s.pipeline.Done() {
		idx, err := s.pipeline.Extend(s.config.ExtendLines)
		if err != nil {
			return domain.WindowView{}, err
		}
		s.filtered = Filter(idx, s.criteria)
	}

	s.window.Grow(len(s.filtered))
	return s.viewLocked(), nil
}

// View возвращает текущее состояние для отрисовки.
func (s *Session) View() (domain.WindowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return domain.WindowView{}, err
	}
	return s.viewLocked(), nil
}

// Summary возвращает сводку текущей загрузки.
func (s *Session) Summary() (domain.ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return domain.ChatSummary{}, err
	}
	return s.pipeline.Index().Summary(), nil
}

// Media ищет медиафайл текущей загрузки по имени.
func (s *Session) Media(name string) (domain.MediaAttachment, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return domain.MediaAttachment{}, nil, err
	}

	att, ok := s.pipeline.Library().Lookup(name)
	if !ok {
		return domain.MediaAttachment{}, nil, ErrMediaNotFound
	}
	data, ok := att.Content.Bytes()
	if !ok {
		return att, nil, ErrMediaReleased
	}
	return att, data, nil
}

// Close освобождает текущую загрузку. Повторные вызовы ничего не делают.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.pipeline != nil {
		s.pipeline.Release()
		s.log.Debug("Session closed", "generation", s.pipeline.Generation())
	}
	s.pipeline = nil
	s.filtered = nil
}

func (s *Session) readyLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.pipeline == nil {
		return ErrNoChatLoaded
	}
	return nil
}

func (s *Session) viewLocked() domain.WindowView {
	decoded, total := s.pipeline.Progress()
	done := s.pipeline.Done()
	return domain.WindowView{
		Summary:        s.pipeline.Index().Summary(),
		Criteria:       domain.NewCriteriaView(s.criteria),
		Messages:       s.window.Slice(s.filtered),
		Window:         s.window.State(),
		FilteredCount:  len(s.filtered),
		HasMore:        s.window.Visible() < len(s.filtered) || !done,
		DecodedLines:   decoded,
		TotalLines:     total,
		DecodeComplete: done,
	}
}
