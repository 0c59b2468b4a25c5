package domain

import (
	"strings"
	"time"
)

// ParsedMessage представляет одно сообщение, разобранное из строки экспорта чата.
// Значение неизменяемо после создания: все последующие этапы возвращают копии.
type ParsedMessage struct {
	// Дата в том виде, в каком она записана в экспорте (dd/mm/yy).
	Date string `json:"date"`
	// NormalizedTimestamp — полночь UTC даты с годом 20YY. Используется только для сравнений.
	NormalizedTimestamp time.Time `json:"-"`
	Time                string    `json:"time"`
	Sender              string    `json:"sender"`
	Text                string    `json:"text"`
	IsMediaPlaceholder  bool      `json:"is_media_placeholder"`
	// Media заполняется только ассоциатором и только для плейсхолдеров.
	Media *MediaAttachment `json:"media,omitempty"`
	// SourceLineIndex — позиция строки в исходном экспорте, стабильный ключ сообщения.
	SourceLineIndex int `json:"source_line_index"`
}

// WithMedia возвращает копию сообщения с привязанным медиафайлом.
func (m ParsedMessage) WithMedia(a *MediaAttachment) ParsedMessage {
	m.Media = a
	return m
}

// ChatSummary — сводная статистика чата в сериализуемом виде.
type ChatSummary struct {
	Generation   uint64   `json:"generation"`
	Participants []string `json:"participants"`
	TotalCount   int      `json:"total_messages"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	MediaCount   int      `json:"media_count"`
	MediaFiles   int      `json:"media_files"`
}

// ChatIndex — неизменяемый снимок разобранного чата.
// Индекс строится заново при каждой загрузке и никогда не сливается с предыдущим.
type ChatIndex struct {
	// Generation — номер загрузки. Снимки, полученные докодированием того же
	// экспорта, имеют тот же номер.
	Generation   uint64
	Messages     []ParsedMessage
	Participants []string
	TotalCount   int
	StartDate    string
	EndDate      string
	MediaCount   int
	// Library владеет содержимым медиафайлов этой загрузки.
	Library *MediaLibrary
}

// Summary возвращает сводку индекса.
func (ci *ChatIndex) Summary() ChatSummary {
	if ci == nil {
		return ChatSummary{Participants: []string{}}
	}
	participants := make([]string, len(ci.Participants))
	copy(participants, ci.Participants)
	return ChatSummary{
		Generation:   ci.Generation,
		Participants: participants,
		TotalCount:   ci.TotalCount,
		StartDate:    ci.StartDate,
		EndDate:      ci.EndDate,
		MediaCount:   ci.MediaCount,
		MediaFiles:   ci.Library.Len(),
	}
}

// FilterCriteria — набор активных фильтров. Нулевое значение поля означает отсутствие ограничения.
type FilterCriteria struct {
	SearchText  string
	DateFrom    time.Time
	DateTo      time.Time
	Participant string
}

// IsEmpty сообщает, что ни один фильтр не активен.
func (c FilterCriteria) IsEmpty() bool {
	return strings.TrimSpace(c.SearchText) == "" &&
		c.DateFrom.IsZero() &&
		c.DateTo.IsZero() &&
		strings.TrimSpace(c.Participant) == ""
}

// Normalized приводит фильтры к каноническому виду: поиск из одних пробелов
// становится пустым, имя участника обрезается.
func (c FilterCriteria) Normalized() FilterCriteria {
	if strings.TrimSpace(c.SearchText) == "" {
		c.SearchText = ""
	}
	c.Participant = strings.TrimSpace(c.Participant)
	return c
}

// Equal сравнивает два набора фильтров в каноническом виде.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	c, other = c.Normalized(), other.Normalized()
	return c.SearchText == other.SearchText &&
		c.DateFrom.Equal(other.DateFrom) &&
		c.DateTo.Equal(other.DateTo) &&
		c.Participant == other.Participant
}

// filterDateLayout — формат дат в фильтрах (как у <input type="date">).
const filterDateLayout = "2006-01-02"

// ParseFilterDate разбирает дату фильтра в формате YYYY-MM-DD.
// Пустая строка означает отсутствие ограничения.
func ParseFilterDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(filterDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &FilterDateError{Value: s, Err: err}
	}
	return t, nil
}

// FormatFilterDate форматирует дату фильтра обратно в YYYY-MM-DD.
func FormatFilterDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(filterDateLayout)
}

// WindowState — единственное изменяемое состояние сессии просмотра.
type WindowState struct {
	VisibleCount int `json:"visible_count"`
}

// CriteriaView — сериализуемое представление FilterCriteria.
type CriteriaView struct {
	Search      string `json:"search,omitempty"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
	Participant string `json:"participant,omitempty"`
}

// NewCriteriaView строит представление фильтров для ответа.
func NewCriteriaView(c FilterCriteria) CriteriaView {
	return CriteriaView{
		Search:      c.SearchText,
		DateFrom:    FormatFilterDate(c.DateFrom),
		DateTo:      FormatFilterDate(c.DateTo),
		Participant: c.Participant,
	}
}

// WindowView — то, что слой отображения получает для отрисовки.
type WindowView struct {
	Summary        ChatSummary     `json:"summary"`
	Criteria       CriteriaView    `json:"criteria"`
	Messages       []ParsedMessage `json:"messages"`
	Window         WindowState     `json:"window"`
	FilteredCount  int             `json:"filtered_count"`
	HasMore        bool            `json:"has_more"`
	DecodedLines   int             `json:"decoded_lines"`
	TotalLines     int             `json:"total_lines"`
	DecodeComplete bool            `json:"decode_complete"`
}

// Archive — результат распаковки архива экспорта.
type Archive struct {
	ChatText string
	// Media в порядке записей архива. Порядок важен для позиционного сопоставления.
	Media []MediaAttachment
}
