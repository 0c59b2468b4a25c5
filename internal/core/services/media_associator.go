package services

import (
	"strings"
	"time"
	"whatsapp-chat-viewer/internal/domain"
)

// DateFragments возвращает фрагменты имени файла, построенные по дате сообщения:
// "-YYYYMMDD" (IMG-20230315-WA0001.jpg), "YYYYMMDD" и "YYYY-MM-DD" (PHOTO-2023-03-15-...).
func DateFragments(ts time.Time) []string {
	compact := ts.Format("20060102")
	return []string{"-" + compact, compact, ts.Format("2006-01-02")}
}

// MediaAssociator сопоставляет плейсхолдеры вложений с файлами из архива.
// Пул оставшихся файлов сохраняется между вызовами, поэтому сопоставление
// нескольких последовательных порций сообщений дает тот же результат,
// что и один проход. Не безопасен для одновременного использования.
type MediaAssociator struct {
	pool     []domain.MediaAttachment
	assigned int
}

// NewMediaAssociator создает ассоциатор над файлами в порядке их добавления.
func NewMediaAssociator(files []domain.MediaAttachment) *MediaAssociator {
	pool := make([]domain.MediaAttachment, len(files))
	copy(pool, files)
	return &MediaAssociator{pool: pool}
}

// Associate возвращает новый срез сообщений с заполненным Media там, где файл найден.
//
// Для каждого неразрешенного плейсхолдера сначала ищется первый оставшийся
// файл, имя которого содержит фрагмент даты сообщения; если такого нет,
// берется следующий оставшийся файл по порядку. Назначенный файл удаляется
// из пула и больше никому не достается. При пустом пуле Media остается nil.
//
// Позиционный запасной вариант может перепутать файлы, если количество
// плейсхолдеров и файлов расходится или несколько файлов относятся к одной дате.
func (a *MediaAssociator) Associate(messages []domain.ParsedMessage) []domain.ParsedMessage {
	out := make([]domain.ParsedMessage, len(messages))
	copy(out, messages)

	for i, msg := range out {
		if !msg.IsMediaPlaceholder || msg.Media != nil {
			continue
		}
		if len(a.pool) == 0 {
			continue
		}

		pick := a.matchByDate(msg.NormalizedTimestamp)
		if pick < 0 {
			pick = 0
		}

		att := a.pool[pick]
		a.pool = append(a.pool[:pick], a.pool[pick+1:]...)
		a.assigned++
		out[i] = msg.WithMedia(&att)
	}

	return out
}

func (a *MediaAssociator) matchByDate(ts time.Time) int {
	if ts.IsZero() {
		return -1
	}
	fragments := DateFragments(ts)
	for i, f := range a.pool {
		for _, frag := range fragments {
			if strings.Contains(f.Filename, frag) {
				return i
			}
		}
	}
	return -1
}

// Remaining возвращает количество еще не назначенных файлов.
func (a *MediaAssociator) Remaining() int {
	return len(a.pool)
}

// Assigned возвращает количество назначенных файлов.
func (a *MediaAssociator) Assigned() int {
	return a.assigned
}

// Associate сопоставляет все сообщения за один проход новым MediaAssociator.
func Associate(messages []domain.ParsedMessage, files []domain.MediaAttachment) []domain.ParsedMessage {
	return NewMediaAssociator(files).Associate(messages)
}
