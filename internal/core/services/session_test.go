package services

import (
	"sync"
	"testing"
	"whatsapp-chat-viewer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession(SessionConfig{InitialWindow: 10, WindowStep: 10, ExtendLines: 20})
}

func TestSession(t *testing.T) {
	t.Run("Без загрузки", func(t *testing.T) {
		s := newTestSession()

		_, err := s.View()
		assert.ErrorIs(t, err, ErrNoChatLoaded)
		_, err = s.LoadMore()
		assert.ErrorIs(t, err, ErrNoChatLoaded)
		_, _, err = s.Media("x.jpg")
		assert.ErrorIs(t, err, ErrNoChatLoaded)
	})

	t.Run("Начальное окно после загрузки", func(t *testing.T) {
		s := newTestSession()
		view, err := s.Replace(NewPipeline(newDecoder(), longTranscript(100), nil, 30))
		require.NoError(t, err)

		assert.Len(t, view.Messages, 10)
		assert.Equal(t, 30, view.FilteredCount)
		assert.True(t, view.HasMore)
		assert.False(t, view.DecodeComplete)
		assert.Equal(t, 30, view.DecodedLines)
		assert.Equal(t, 100, view.TotalLines)
	})

	t.Run("LoadMore докодирует текст и не сбрасывает окно", func(t *testing.T) {
		s := newTestSession()
		_, err := s.Replace(NewPipeline(newDecoder(), longTranscript(100), nil, 15))
		require.NoError(t, err)

		view, err := s.LoadMore()
		require.NoError(t, err)
		assert.Equal(t, 20, view.Window.VisibleCount)
		assert.Equal(t, 35, view.DecodedLines)

		for view.HasMore {
			prev := view.Window.VisibleCount
			view, err = s.LoadMore()
			require.NoError(t, err)
			assert.Greater(t, view.Window.VisibleCount, prev)
		}
		assert.True(t, view.DecodeComplete)
		assert.Equal(t, 100, view.FilteredCount)
		assert.Len(t, view.Messages, 100)
		assert.Equal(t, 0, view.Messages[0].SourceLineIndex)
		assert.Equal(t, 99, view.Messages[99].SourceLineIndex)
	})

	t.Run("Смена фильтров сбрасывает окно, повтор тех же фильтров не сбрасывает", func(t *testing.T) {
		s := newTestSession()
		_, err := s.Replace(NewPipeline(newDecoder(), longTranscript(90), nil, 0))
		require.NoError(t, err)

		c := domain.FilterCriteria{Participant: "alice"}
		view, err := s.SetCriteria(c)
		require.NoError(t, err)
		assert.Equal(t, 30, view.FilteredCount)
		assert.Equal(t, 10, view.Window.VisibleCount)
		assert.Equal(t, "alice", view.Criteria.Participant)

		view, err = s.LoadMore()
		require.NoError(t, err)
		assert.Equal(t, 20, view.Window.VisibleCount)

		view, err = s.SetCriteria(c)
		require.NoError(t, err)
		assert.Equal(t, 20, view.Window.VisibleCount)

		view, err = s.ResetCriteria()
		require.NoError(t, err)
		assert.Equal(t, 90, view.FilteredCount)
		assert.Equal(t, 10, view.Window.VisibleCount)
		assert.Empty(t, view.Criteria)
	})

	t.Run("Фильтр без совпадений докодирует весь текст", func(t *testing.T) {
		s := newTestSession()
		_, err := s.Replace(NewPipeline(newDecoder(), longTranscript(100), nil, 10))
		require.NoError(t, err)

		view, err := s.SetCriteria(domain.FilterCriteria{Participant: "nobody"})
		require.NoError(t, err)
		assert.Zero(t, view.FilteredCount)
		assert.True(t, view.HasMore)

		view, err = s.LoadMore()
		require.NoError(t, err)
		assert.Zero(t, view.FilteredCount)
		assert.True(t, view.DecodeComplete)
		assert.False(t, view.HasMore)
	})

	t.Run("Новая загрузка заменяет все предыдущее состояние", func(t *testing.T) {
		s := newTestSession()
		first := NewPipeline(newDecoder(), sampleTranscript, domain.NewMediaLibrary(media("IMG-20230315-WA0001.jpg")), 0)
		_, err := s.Replace(first)
		require.NoError(t, err)
		_, err = s.SetCriteria(domain.FilterCriteria{SearchText: "hello"})
		require.NoError(t, err)

		att, data, err := s.Media("IMG-20230315-WA0001.jpg")
		require.NoError(t, err)
		assert.Equal(t, "data:IMG-20230315-WA0001.jpg", string(data))
		old := first.Index().Messages[1].Media

		second := NewPipeline(newDecoder(), longTranscript(5), domain.NewMediaLibrary(media("other.png")), 0)
		view, err := s.Replace(second)
		require.NoError(t, err)

		assert.True(t, view.Criteria == domain.CriteriaView{})
		assert.Equal(t, 5, view.FilteredCount)
		assert.Equal(t, second.Generation(), view.Summary.Generation)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, view.Summary.Participants)

		_, ok := old.Content.Bytes()
		assert.False(t, ok, "медиа предыдущей загрузки освобождены")
		assert.True(t, att.Content.Released())

		_, _, err = s.Media("IMG-20230315-WA0001.jpg")
		assert.ErrorIs(t, err, ErrMediaNotFound)
		_, _, err = s.Media("other.png")
		assert.NoError(t, err)
	})

	t.Run("Загрузка, начатая раньше, не вытесняет более новую", func(t *testing.T) {
		s := newTestSession()
		older := s.BeginUpload()
		newer := s.BeginUpload()

		fresh := NewPipeline(newDecoder(), longTranscript(5), nil, 0)
		_, err := s.ReplaceUpload(newer, fresh)
		require.NoError(t, err)

		staleLib := domain.NewMediaLibrary(media("late.jpg"))
		_, err = s.ReplaceUpload(older, NewPipeline(newDecoder(), sampleTranscript, staleLib, 0))
		assert.ErrorIs(t, err, ErrUploadSuperseded)

		att, _ := staleLib.Lookup("late.jpg")
		assert.True(t, att.Content.Released())

		view, err := s.View()
		require.NoError(t, err)
		assert.Equal(t, fresh.Generation(), view.Summary.Generation)
		assert.Equal(t, 5, view.FilteredCount)
	})

	t.Run("Replace делает незавершенные загрузки устаревшими", func(t *testing.T) {
		s := newTestSession()
		pending := s.BeginUpload()
		_, err := s.Replace(NewPipeline(newDecoder(), sampleTranscript, nil, 0))
		require.NoError(t, err)

		_, err = s.ReplaceUpload(pending, NewPipeline(newDecoder(), longTranscript(5), nil, 0))
		assert.ErrorIs(t, err, ErrUploadSuperseded)
	})

	t.Run("Пустой поиск из пробелов не сбрасывает окно", func(t *testing.T) {
		s := newTestSession()
		_, err := s.Replace(NewPipeline(newDecoder(), longTranscript(90), nil, 0))
		require.NoError(t, err)

		view, err := s.LoadMore()
		require.NoError(t, err)
		require.Equal(t, 20, view.Window.VisibleCount)

		view, err = s.SetCriteria(domain.FilterCriteria{SearchText: "   ", Participant: " "})
		require.NoError(t, err)
		assert.Equal(t, 20, view.Window.VisibleCount)
		assert.Equal(t, 90, view.FilteredCount)
		assert.True(t, view.Criteria == domain.CriteriaView{})
	})

	t.Run("Освобожденное медиа", func(t *testing.T) {
		s := newTestSession()
		lib := domain.NewMediaLibrary(media("a.jpg"))
		_, err := s.Replace(NewPipeline(newDecoder(), sampleTranscript, lib, 0))
		require.NoError(t, err)

		lib.Release()
		_, _, err = s.Media("a.jpg")
		assert.ErrorIs(t, err, ErrMediaReleased)
	})

	t.Run("Close освобождает загрузку и закрывает сессию", func(t *testing.T) {
		s := newTestSession()
		lib := domain.NewMediaLibrary(media("a.jpg"))
		_, err := s.Replace(NewPipeline(newDecoder(), sampleTranscript, lib, 0))
		require.NoError(t, err)

		s.Close()
		s.Close()

		att, _ := lib.Lookup("a.jpg")
		assert.True(t, att.Content.Released())
		_, err = s.View()
		assert.ErrorIs(t, err, ErrSessionClosed)

		late := domain.NewMediaLibrary(media("b.jpg"))
		_, err = s.Replace(NewPipeline(newDecoder(), sampleTranscript, late, 0))
		assert.ErrorIs(t, err, ErrSessionClosed)
		att, _ = late.Lookup("b.jpg")
		assert.True(t, att.Content.Released())
	})

	t.Run("Одновременные LoadMore", func(t *testing.T) {
		s := newTestSession()
		_, err := s.Replace(NewPipeline(newDecoder(), longTranscript(300), nil, 10))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					_, _ = s.LoadMore()
					_, _ = s.View()
				}
			}()
		}
		wg.Wait()

		view, err := s.View()
		require.NoError(t, err)
		for i, m := range view.Messages {
			assert.Equal(t, i, m.SourceLineIndex)
		}
	})
}
