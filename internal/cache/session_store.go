package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"whatsapp-chat-viewer/internal/core/services"
)

// SessionItem представляет сессию просмотра в хранилище
type SessionItem struct {
	Session   *services.Session
	ExpiresAt time.Time
}

// SessionStore хранит сессии просмотра с временем жизни.
// Срок продлевается при каждом обращении; просроченная сессия закрывается
// и ее медиафайлы освобождаются.
type SessionStore struct {
	items map[string]*SessionItem
	ttl   time.Duration
	mutex sync.Mutex
}

// NewSessionStore создает новый экземпляр SessionStore
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		items: make(map[string]*SessionItem),
		ttl:   ttl,
	}
}

// Get извлекает сессию по ключу и продлевает срок ее жизни
func (ss *SessionStore) Get(key string) (*services.Session, bool) {
	ss.mutex.Lock()
	item, exists := ss.items[key]
	if !exists {
		ss.mutex.Unlock()
		return nil, false
	}
	now := time.Now()
	if now.After(item.ExpiresAt) {
		// Срок истек, но очистка еще не прошла
		delete(ss.items, key)
		ss.mutex.Unlock()
		item.Session.Close()
		return nil, false
	}
	item.ExpiresAt = now.Add(ss.ttl)
	ss.mutex.Unlock()

	return item.Session, true
}

// GetOrCreate возвращает существующую сессию или сохраняет новую, созданную create.
// created сообщает, что сессия создана этим вызовом.
func (ss *SessionStore) GetOrCreate(key string, create func() *services.Session) (session *services.Session, created bool) {
	if s, ok := ss.Get(key); ok {
		return s, false
	}

	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	// Между Get и Lock сессию мог создать другой запрос
	if item, exists := ss.items[key]; exists {
		item.ExpiresAt = time.Now().Add(ss.ttl)
		return item.Session, false
	}

	s := create()
	ss.items[key] = &SessionItem{Session: s, ExpiresAt: time.Now().Add(ss.ttl)}
	return s, true
}

// Put сохраняет сессию. Ранее сохраненная под тем же ключом сессия закрывается.
func (ss *SessionStore) Put(key string, session *services.Session) {
	ss.mutex.Lock()
	prev, exists := ss.items[key]
	ss.items[key] = &SessionItem{Session: session, ExpiresAt: time.Now().Add(ss.ttl)}
	ss.mutex.Unlock()

	if exists && prev.Session != session {
		prev.Session.Close()
	}
}

// Delete удаляет и закрывает сессию. Возвращает false, если сессии не было.
func (ss *SessionStore) Delete(key string) bool {
	ss.mutex.Lock()
	item, exists := ss.items[key]
	delete(ss.items, key)
	ss.mutex.Unlock()

	if !exists {
		return false
	}
	item.Session.Close()
	return true
}

// Len возвращает количество сессий, включая еще не очищенные просроченные
func (ss *SessionStore) Len() int {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	return len(ss.items)
}

// CleanupExpired удаляет и закрывает просроченные сессии, возвращает их количество
func (ss *SessionStore) CleanupExpired() int {
	ss.mutex.Lock()
	now := time.Now()
	var expired []*services.Session
	for key, item := range ss.items {
		if now.After(item.ExpiresAt) {
			expired = append(expired, item.Session)
			delete(ss.items, key)
		}
	}
	ss.mutex.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// CloseAll закрывает все сессии. Используется при остановке сервера.
func (ss *SessionStore) CloseAll() {
	ss.mutex.Lock()
	items := ss.items
	ss.items = make(map[string]*SessionItem)
	ss.mutex.Unlock()

	for _, item := range items {
		item.Session.Close()
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных сессий
func (ss *SessionStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ss.CleanupExpired()
			}
		}
	}()
}

// CalculateHash вычисляет хеш SHA256 содержимого загрузки
func CalculateHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// CalculateFileHash вычисляет хеш SHA256 содержимого файла
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("не удалось прочитать файл: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
