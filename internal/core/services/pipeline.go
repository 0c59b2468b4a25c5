package services

import (
	"sync"
	"sync/atomic"
	"whatsapp-chat-viewer/internal/domain"
)

// generationSeq выдает номера загрузок; у каждого Pipeline свой номер.
var generationSeq atomic.Uint64

// Pipeline — состояние одной загрузки: сохраненные строки, курсор
// докодирования, пул медиафайлов и текущий снимок индекса.
type Pipeline struct {
	generation uint64
	cursor     *Cursor
	library    *domain.MediaLibrary

	extending atomic.Bool

	mu         sync.RWMutex
	associator *MediaAssociator
	messages   []domain.ParsedMessage
	index      *domain.ChatIndex
}

// NewPipeline сохраняет строки текста, сразу разбирает первые initialLines
// строк и сопоставляет их с медиа. initialLines <= 0 означает разбор всего текста.
func NewPipeline(decoder *TranscriptDecoder, chatText string, library *domain.MediaLibrary, initialLines int) *Pipeline {
	if library == nil {
		library = domain.NewMediaLibrary(nil)
	}
	p := &Pipeline{
		generation: generationSeq.Add(1),
		cursor:     decoder.NewCursor(SplitLines(chatText)),
		library:    library,
		associator: NewMediaAssociator(library.Files()),
		messages:   []domain.ParsedMessage{},
	}
	p.index = BuildIndex(p.generation, p.messages, p.library)

	if initialLines <= 0 {
		initialLines = -1
	}
	// Новый Pipeline еще никому не доступен, ErrDecodeInProgress невозможен.
	_, _ = p.Extend(initialLines)
	return p
}

// Generation возвращает номер загрузки.
func (p *Pipeline) Generation() uint64 {
	return p.generation
}

// Index возвращает текущий снимок индекса.
func (p *Pipeline) Index() *domain.ChatIndex {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}

// Library возвращает медиатеку загрузки.
func (p *Pipeline) Library() *domain.MediaLibrary {
	return p.library
}

// Extend разбирает следующие n строк (при n < 0 все оставшиеся), сопоставляет
// новые сообщения с оставшимися медиафайлами и строит новый снимок индекса
// с тем же номером загрузки. Одновременно выполняется не более одного Extend.
func (p *Pipeline) Extend(n int) (*domain.ChatIndex, error) {
	if !p.extending.CompareAndSwap(false, true) {
		return nil, ErrDecodeInProgress
	}
	defer p.extending.Store(false)

	decoded, err := p.cursor.Extend(n)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(decoded) > 0 {
		resolved := p.associator.Associate(decoded)
		merged := make([]domain.ParsedMessage, 0, len(p.messages)+len(resolved))
		merged = append(merged, p.messages...)
		merged = append(merged, resolved...)
		p.messages = merged
		p.index = BuildIndex(p.generation, p.messages, p.library)
	}
	return p.index, nil
}

// Done сообщает, что весь текст разобран.
func (p *Pipeline) Done() bool {
	return p.cursor.Done()
}

// Progress возвращает количество разобранных строк и общее количество строк.
func (p *Pipeline) Progress() (decoded, total int) {
	return p.cursor.Position(), p.cursor.Total()
}

// UnassignedMedia возвращает количество медиафайлов, не доставшихся ни одному сообщению.
func (p *Pipeline) UnassignedMedia() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.associator.Remaining()
}

// Release освобождает содержимое медиафайлов загрузки. Повторные вызовы ничего не делают.
func (p *Pipeline) Release() {
	p.library.Release()
}
