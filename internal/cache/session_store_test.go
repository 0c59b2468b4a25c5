package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
	"whatsapp-chat-viewer/internal/adapters/parser"
	"whatsapp-chat-viewer/internal/core/services"
	"whatsapp-chat-viewer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadedSession создает сессию с одним медиафайлом и возвращает его для проверки освобождения.
func loadedSession(t *testing.T) (*services.Session, domain.MediaAttachment) {
	t.Helper()
	att := domain.NewMediaAttachment("IMG-20230315-WA0001.jpg", []byte("jpeg"))
	lib := domain.NewMediaLibrary([]domain.MediaAttachment{att})
	decoder := services.NewTranscriptDecoder(parser.NewLineParser(""))
	p := services.NewPipeline(decoder, "15/03/23, 10:31 - Bob: <Media omitted>", lib, 0)

	s := services.NewSession(services.DefaultSessionConfig())
	_, err := s.Replace(p)
	require.NoError(t, err)
	return s, att
}

func TestSessionStore(t *testing.T) {
	t.Run("Создание нового хранилища", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		assert.NotNil(t, ss)
		assert.NotNil(t, ss.items)
		assert.Zero(t, ss.Len())
	})

	t.Run("Запись и чтение", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		s, _ := loadedSession(t)

		ss.Put("id", s)

		got, found := ss.Get("id")
		require.True(t, found)
		assert.Same(t, s, got)
		assert.WithinDuration(t, time.Now().Add(time.Minute), ss.items["id"].ExpiresAt, time.Second)
	})

	t.Run("Чтение несуществующего ключа", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		_, found := ss.Get("non_existent_key")
		assert.False(t, found)
	})

	t.Run("Просроченная сессия закрывается при чтении", func(t *testing.T) {
		ss := NewSessionStore(-time.Second)
		s, att := loadedSession(t)
		ss.Put("expired", s)

		_, found := ss.Get("expired")
		assert.False(t, found)
		assert.True(t, att.Content.Released())
		assert.Zero(t, ss.Len())
	})

	t.Run("GetOrCreate создает сессию один раз", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		calls := 0
		create := func() *services.Session {
			calls++
			return services.NewSession(services.DefaultSessionConfig())
		}

		first, created := ss.GetOrCreate("id", create)
		assert.True(t, created)
		second, created := ss.GetOrCreate("id", create)
		assert.False(t, created)
		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("Put под тем же ключом закрывает прежнюю сессию", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		old, att := loadedSession(t)
		ss.Put("id", old)
		ss.Put("id", old)
		assert.False(t, att.Content.Released())

		fresh, _ := loadedSession(t)
		ss.Put("id", fresh)
		assert.True(t, att.Content.Released())
	})

	t.Run("Delete закрывает сессию", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		s, att := loadedSession(t)
		ss.Put("id", s)

		assert.True(t, ss.Delete("id"))
		assert.False(t, ss.Delete("id"))
		assert.True(t, att.Content.Released())

		_, err := s.View()
		assert.ErrorIs(t, err, services.ErrSessionClosed)
	})

	t.Run("Очистка просроченных сессий", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		expired, expiredAtt := loadedSession(t)
		valid, validAtt := loadedSession(t)
		ss.Put("expired", expired)
		ss.Put("valid", valid)
		ss.items["expired"].ExpiresAt = time.Now().Add(-time.Minute)

		assert.Equal(t, 1, ss.CleanupExpired())

		_, foundExpired := ss.Get("expired")
		assert.False(t, foundExpired, "Просроченная сессия должна быть удалена")
		assert.True(t, expiredAtt.Content.Released())

		_, foundValid := ss.Get("valid")
		assert.True(t, foundValid, "Действительная сессия не должна быть удалена")
		assert.False(t, validAtt.Content.Released())
	})

	t.Run("CloseAll", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		s, att := loadedSession(t)
		ss.Put("a", s)
		ss.Put("b", services.NewSession(services.DefaultSessionConfig()))

		ss.CloseAll()
		assert.Zero(t, ss.Len())
		assert.True(t, att.Content.Released())
	})

	t.Run("Одновременный доступ", func(t *testing.T) {
		ss := NewSessionStore(time.Minute)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, _ := ss.GetOrCreate("shared", func() *services.Session {
					return services.NewSession(services.DefaultSessionConfig())
				})
				assert.NotNil(t, s)
				ss.CleanupExpired()
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, ss.Len())
	})
}

func TestStartCleanupTicker(t *testing.T) {
	ss := NewSessionStore(50 * time.Millisecond)
	s, att := loadedSession(t)
	ss.Put("expired", s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ss.StartCleanupTicker(ctx, 100*time.Millisecond)

	// Ждем, пока таймер сработает хотя бы раз
	time.Sleep(250 * time.Millisecond)

	assert.Zero(t, ss.Len(), "Просроченная сессия должна быть удалена таймером")
	assert.True(t, att.Content.Released())

	cancel()
	time.Sleep(50 * time.Millisecond)
}

func TestCalculateHash(t *testing.T) {
	// SHA256 для "hello world"
	expectedHash := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	t.Run("Хеш содержимого", func(t *testing.T) {
		assert.Equal(t, expectedHash, CalculateHash([]byte("hello world")))
	})

	t.Run("Хеш файла", func(t *testing.T) {
		path := t.TempDir() + "/upload.txt"
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

		hash, err := CalculateFileHash(path)
		require.NoError(t, err)
		assert.Equal(t, expectedHash, hash)
	})

	t.Run("Файл не найден", func(t *testing.T) {
		_, err := CalculateFileHash("non_existent_file.txt")
		assert.Error(t, err)
	})

	t.Run("Невозможно прочитать файл", func(t *testing.T) {
		_, err := CalculateFileHash(t.TempDir())
		assert.Error(t, err, "Должна быть ошибка при попытке хешировать директорию")
	})
}
