package parser

import (
	"regexp"
	"strings"
	"time"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"
)

// DefaultMediaOmittedMarker — текст, которым экспорт заменяет вложения.
const DefaultMediaOmittedMarker = "<Media omitted>"

// Разделитель полей: ASCII-пробел, неразрывный (U+00A0) или узкий неразрывный (U+202F).
const fieldSep = `[\s\x{00A0}\x{202F}]`

// lineRegexp разбирает строки вида "DD/MM/YY, TIME - SENDER: MESSAGE".
// Отправитель берется до первого двоеточия, сообщение может содержать двоеточия.
var lineRegexp = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2}),` + fieldSep + `(.+?)` + fieldSep + `-` + fieldSep + `([^:]+):` + fieldSep + `(.+)$`)

// LineParser реализует интерфейс LineParser для построчного формата экспорта.
type LineParser struct {
	mediaMarker string
}

// NewLineParser создает новый экземпляр LineParser.
// Пустой маркер заменяется на DefaultMediaOmittedMarker.
func NewLineParser(mediaMarker string) ports.LineParser {
	if strings.TrimSpace(mediaMarker) == "" {
		mediaMarker = DefaultMediaOmittedMarker
	}
	return &LineParser{mediaMarker: mediaMarker}
}

// Parse преобразует одну строку в сообщение.
// Заголовки, продолжения многострочных сообщений и системные уведомления
// без "SENDER:" отбрасываются.
func (p *LineParser) Parse(raw string, lineIndex int) (domain.ParsedMessage, bool) {
	match := lineRegexp.FindStringSubmatch(raw)
	if match == nil {
		return domain.ParsedMessage{}, false
	}

	ts, ok := normalizeDate(match[1])
	if !ok {
		return domain.ParsedMessage{}, false
	}

	text := match[4]
	return domain.ParsedMessage{
		Date:                match[1],
		NormalizedTimestamp: ts,
		Time:                match[2],
		Sender:              match[3],
		Text:                text,
		IsMediaPlaceholder:  p.isMediaPlaceholder(text),
		SourceLineIndex:     lineIndex,
	}, true
}

// isMediaPlaceholder проверяет маркер вложения, а также нестрогий признак в виде слова "media".
func (p *LineParser) isMediaPlaceholder(text string) bool {
	if strings.TrimSpace(text) == p.mediaMarker {
		return true
	}
	return strings.Contains(strings.ToLower(text), "media")
}

// normalizeDate превращает dd/mm/yy в полночь UTC даты 20yy-mm-dd.
// Несуществующие даты (31/02/23) отвергаются.
func normalizeDate(date string) (time.Time, bool) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", "20"+parts[2]+"-"+parts[1]+"-"+parts[0], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
