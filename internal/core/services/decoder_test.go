package services

import (
	"sync"
	"testing"
	"whatsapp-chat-viewer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingParser останавливает разбор на первой строке, пока не закрыт release.
type blockingParser struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingParser) Parse(raw string, idx int) (domain.ParsedMessage, bool) {
	p.once.Do(func() {
		close(p.started)
		<-p.release
	})
	return domain.ParsedMessage{Text: raw, SourceLineIndex: idx}, true
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\r\nb\n"))
	assert.Equal(t, []string{"single"}, SplitLines("single"))
}

func TestTranscriptDecoder(t *testing.T) {
	t.Run("Decode отбрасывает строки без заголовка и сохраняет порядок", func(t *testing.T) {
		res := newDecoder().Decode(sampleTranscript)

		require.Len(t, res.Messages, 5)
		assert.Len(t, res.Lines, 7)

		idx := make([]int, 0, len(res.Messages))
		for _, m := range res.Messages {
			idx = append(idx, m.SourceLineIndex)
		}
		assert.Equal(t, []int{1, 2, 3, 5, 6}, idx)
		assert.Equal(t, "Hello there", res.Messages[0].Text)
		assert.True(t, res.Messages[1].IsMediaPlaceholder)
	})

	t.Run("Decode детерминирован", func(t *testing.T) {
		d := newDecoder()
		assert.Equal(t, d.Decode(sampleTranscript), d.Decode(sampleTranscript))
	})

	t.Run("CRLF дает тот же результат", func(t *testing.T) {
		d := newDecoder()
		crlf := ""
		for i, l := range SplitLines(sampleTranscript) {
			if i > 0 {
				crlf += "\r\n"
			}
			crlf += l
		}
		assert.Equal(t, d.Decode(sampleTranscript).Messages, d.Decode(crlf).Messages)
	})

	t.Run("Пустой текст", func(t *testing.T) {
		res := newDecoder().Decode("")
		assert.Empty(t, res.Messages)
		assert.NotNil(t, res.Messages)
	})

	t.Run("DecodeRange ограничивает границы", func(t *testing.T) {
		d := newDecoder()
		lines := SplitLines(sampleTranscript)

		assert.Empty(t, d.DecodeRange(lines, 5, 2))
		assert.Len(t, d.DecodeRange(lines, -3, 100), 5)
		assert.Len(t, d.DecodeRange(lines, 0, 3), 2)
	})
}

func TestCursor(t *testing.T) {
	t.Run("Префикс и продолжение равны полному разбору для любой точки разбиения", func(t *testing.T) {
		d := newDecoder()
		text := longTranscript(40) + "\n" + sampleTranscript
		full := d.Decode(text)

		for split := 0; split <= len(full.Lines); split++ {
			c := d.NewCursor(SplitLines(text))
			head, err := c.Extend(split)
			require.NoError(t, err)
			tail, err := c.Rest()
			require.NoError(t, err)

			got := append(head, tail...)
			assert.Equal(t, full.Messages, got, "split=%d", split)
			assert.True(t, c.Done())
		}
	})

	t.Run("Позиция и завершение", func(t *testing.T) {
		c := newDecoder().NewCursor(SplitLines(sampleTranscript))
		assert.Equal(t, 7, c.Total())
		assert.False(t, c.Done())

		msgs, err := c.Extend(3)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
		assert.Equal(t, 3, c.Position())

		msgs, err = c.Extend(100)
		require.NoError(t, err)
		assert.Len(t, msgs, 3)
		assert.True(t, c.Done())

		msgs, err = c.Extend(10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Второй Extend во время первого получает ErrDecodeInProgress", func(t *testing.T) {
		p := &blockingParser{started: make(chan struct{}), release: make(chan struct{})}
		c := NewTranscriptDecoder(p).NewCursor([]string{"a", "b", "c"})

		done := make(chan error, 1)
		go func() {
			_, err := c.Extend(-1)
			done <- err
		}()

		<-p.started
		_, err := c.Extend(1)
		assert.ErrorIs(t, err, ErrDecodeInProgress)

		close(p.release)
		require.NoError(t, <-done)
		assert.True(t, c.Done())
	})
}
