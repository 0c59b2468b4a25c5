package services

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"
)

// ErrDecodeInProgress возвращается, если докодирование того же экспорта уже выполняется.
var ErrDecodeInProgress = errors.New("decode extension already in progress")

// SplitLines разбивает текст на строки по \n, отбрасывая завершающий \r.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// DecodeResult — результат разбора всего текста.
type DecodeResult struct {
	Messages []domain.ParsedMessage
	// Lines сохраняются для последующего докодирования.
	Lines []string
}

// TranscriptDecoder прогоняет LineParser по тексту экспорта.
// Порядок сообщений всегда совпадает с порядком строк.
type TranscriptDecoder struct {
	parser ports.LineParser
}

// NewTranscriptDecoder создает новый экземпляр TranscriptDecoder.
func NewTranscriptDecoder(parser ports.LineParser) *TranscriptDecoder {
	return &TranscriptDecoder{parser: parser}
}

// Decode разбирает весь текст за один проход.
func (d *TranscriptDecoder) Decode(text string) DecodeResult {
	lines := SplitLines(text)
	return DecodeResult{
		Messages: d.DecodeRange(lines, 0, len(lines)),
		Lines:    lines,
	}
}

// DecodeRange разбирает строки [start, end). Индексы абсолютные, поэтому
// результат не зависит от того, какими порциями разбирается текст.
func (d *TranscriptDecoder) DecodeRange(lines []string, start, end int) []domain.ParsedMessage {
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return []domain.ParsedMessage{}
	}

	messages := make([]domain.ParsedMessage, 0, end-start)
	for i := start; i < end; i++ {
		if msg, ok := d.parser.Parse(lines[i], i); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// NewCursor создает курсор над сохраненной последовательностью строк.
func (d *TranscriptDecoder) NewCursor(lines []string) *Cursor {
	return &Cursor{decoder: d, lines: lines}
}

// Cursor — позиция докодирования в сохраненном тексте.
// Одновременно может выполняться не более одного Extend.
type Cursor struct {
	decoder *TranscriptDecoder
	lines   []string

	busy atomic.Bool
	mu   sync.RWMutex
	next int
}

// Extend разбирает следующие n строк и сдвигает курсор.
// Если другой Extend еще не завершился, возвращает ErrDecodeInProgress.
func (c *Cursor) Extend(n int) ([]domain.ParsedMessage, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrDecodeInProgress
	}
	defer c.busy.Store(false)

	c.mu.RLock()
	start := c.next
	c.mu.RUnlock()

	end := len(c.lines)
	if n >= 0 && start+n < end {
		end = start + n
	}

	messages := c.decoder.DecodeRange(c.lines, start, end)

	c.mu.Lock()
	c.next = end
	c.mu.Unlock()

	return messages, nil
}

// Rest разбирает все оставшиеся строки.
func (c *Cursor) Rest() ([]domain.ParsedMessage, error) {
	return c.Extend(-1)
}

// Position возвращает количество уже разобранных строк.
func (c *Cursor) Position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.next
}

// Total возвращает общее количество строк.
func (c *Cursor) Total() int {
	return len(c.lines)
}

// Done сообщает, что все строки разобраны.
func (c *Cursor) Done() bool {
	return c.Position() >= len(c.lines)
}
