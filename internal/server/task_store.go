package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"whatsapp-chat-viewer/internal/domain"
)

var (
	// ErrTaskNotFound возвращается для неизвестного или уже удаленного ID задачи.
	ErrTaskNotFound = errors.New("задача не найдена")
	// ErrTaskFinished возвращается при попытке изменить завершенную задачу.
	ErrTaskFinished = errors.New("задача уже завершена")
)

// TaskStatus представляет статус задачи загрузки
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Finished сообщает, что статус конечный.
func (s TaskStatus) Finished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task описывает загрузку одного экспорта в сессию
type Task struct {
	ID        string
	SessionID string
	Status    TaskStatus
	// Result заполняется сводкой загруженного чата после успешного завершения.
	Result       *domain.ChatSummary
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   time.Time
	ExpiresAt    time.Time // Для автоматической очистки
}

// TaskStore хранит задачи загрузки до истечения их TTL
type TaskStore struct {
	tasks map[string]*Task
	mutex sync.RWMutex
}

// NewTaskStore создает новый экземпляр TaskStore
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
	}
}

// CreateTask регистрирует задачу загрузки в сессию со статусом 'pending'
func (ts *TaskStore) CreateTask(taskID, sessionID string, ttl time.Duration) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	now := time.Now()
	ts.tasks[taskID] = &Task{
		ID:        taskID,
		SessionID: sessionID,
		Status:    TaskStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// update меняет незавершенную задачу под блокировкой
func (ts *TaskStore) update(taskID string, fn func(*Task)) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return fmt.Errorf("%s: %w", taskID, ErrTaskNotFound)
	}
	if task.Status.Finished() {
		return fmt.Errorf("%s: %w", taskID, ErrTaskFinished)
	}

	fn(task)
	if task.Status.Finished() {
		task.FinishedAt = time.Now()
	}
	return nil
}

// Start переводит задачу в 'processing'
func (ts *TaskStore) Start(taskID string) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusProcessing
	})
}

// Complete сохраняет сводку загруженного чата и переводит задачу в 'completed'
func (ts *TaskStore) Complete(taskID string, summary domain.ChatSummary) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusCompleted
		t.Result = &summary
	})
}

// Fail сохраняет сообщение для пользователя и переводит задачу в 'failed'
func (ts *TaskStore) Fail(taskID string, message string) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusFailed
		t.ErrorMessage = message
	})
}

// GetTask возвращает снимок задачи; последующие изменения в хранилище его не затрагивают
func (ts *TaskStore) GetTask(taskID string) (*Task, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%s: %w", taskID, ErrTaskNotFound)
	}

	snapshot := *task
	return &snapshot, nil
}

// CleanupExpired удаляет просроченные задачи и возвращает их количество
func (ts *TaskStore) CleanupExpired() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	now := time.Now()
	removed := 0
	for taskID, task := range ts.tasks {
		if now.After(task.ExpiresAt) {
			delete(ts.tasks, taskID)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных задач
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.CleanupExpired()
			}
		}
	}()
}
