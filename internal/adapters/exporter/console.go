package exporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// ColumnWidths задает ширину колонок таблицы в терминальных ячейках.
type ColumnWidths struct {
	Date   int
	Time   int
	Sender int
	Text   int
}

// DefaultColumnWidths подходит для терминала шириной 120 колонок.
var DefaultColumnWidths = ColumnWidths{Date: 8, Time: 8, Sender: 20, Text: 70}

// ConsoleOption — функциональная опция для настройки ConsoleExporter.
type ConsoleOption func(*ConsoleExporter)

// WithWriter задает, куда выводится таблица.
func WithWriter(w io.Writer) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.out = w
	}
}

// WithColor включает ANSI-выделение отправителей и служебных строк.
func WithColor(enabled bool) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.color = enabled
	}
}

// WithColumnWidths задает ширину колонок.
func WithColumnWidths(widths ColumnWidths) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.widths = widths
	}
}

// ConsoleExporter реализует интерфейс Exporter для вывода окна просмотра в консоль.
type ConsoleExporter struct {
	out    io.Writer
	color  bool
	widths ColumnWidths
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(opts ...ConsoleOption) ports.Exporter {
	e := &ConsoleExporter{out: os.Stdout, widths: DefaultColumnWidths}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export выводит сводку чата и видимые сообщения в виде таблицы.
func (e *ConsoleExporter) Export(view domain.WindowView) error {
	var sb strings.Builder
	s := view.Summary

	sb.WriteString(e.style(ansiBold, "--- Chat Summary ---") + "\n")
	fmt.Fprintf(&sb, "Участники: %s\n", strings.Join(s.Participants, ", "))
	fmt.Fprintf(&sb, "Сообщений: %d, период: %s - %s\n", s.TotalCount, s.StartDate, s.EndDate)
	fmt.Fprintf(&sb, "Вложений: %d сопоставлено, %d файлов в архиве\n", s.MediaCount, s.MediaFiles)
	if !view.DecodeComplete {
		fmt.Fprintf(&sb, "%s\n", e.style(ansiDim, fmt.Sprintf("Разобрано строк: %d из %d", view.DecodedLines, view.TotalLines)))
	}
	if c := view.Criteria; c != (domain.CriteriaView{}) {
		fmt.Fprintf(&sb, "Фильтры: %s\n", describeCriteria(c))
	}
	sb.WriteString("\n")

	if len(view.Messages) == 0 {
		sb.WriteString("Нет сообщений.\n")
	} else {
		e.writeTable(&sb, view.Messages)
	}

	fmt.Fprintf(&sb, "\nПоказано %d из %d", len(view.Messages), view.FilteredCount)
	if view.HasMore {
		sb.WriteString(e.style(ansiDim, " (есть еще)"))
	}
	sb.WriteString("\n")

	_, err := io.WriteString(e.out, sb.String())
	return err
}

func (e *ConsoleExporter) writeTable(sb *strings.Builder, messages []domain.ParsedMessage) {
	w := e.widths
	e.writeRow(sb, []string{"Дата", "Время", "Отправитель", "Текст"}, false)
	fmt.Fprintf(sb, "|%s|%s|%s|%s|\n",
		strings.Repeat("-", w.Date+2), strings.Repeat("-", w.Time+2),
		strings.Repeat("-", w.Sender+2), strings.Repeat("-", w.Text+2))

	for _, m := range messages {
		text := strings.ReplaceAll(m.Text, "\n", " ")
		if m.Media != nil {
			text = fmt.Sprintf("[%s] %s", m.Media.Category, m.Media.Filename)
		}
		e.writeRow(sb, []string{m.Date, m.Time, m.Sender, text}, true)
	}
}

// writeRow печатает одну запись таблицы; длинные значения переносятся на следующие строки.
func (e *ConsoleExporter) writeRow(sb *strings.Builder, cells []string, highlightSender bool) {
	widths := []int{e.widths.Date, e.widths.Time, e.widths.Sender, e.widths.Text}

	wrapped := make([][]string, len(cells))
	maxLines := 0
	for i, c := range cells {
		wrapped[i] = wrapText(strings.ToValidUTF8(c, ""), widths[i])
		maxLines = max(maxLines, len(wrapped[i]))
	}

	for line := 0; line < maxLines; line++ {
		for i := range cells {
			part := ""
			if line < len(wrapped[i]) {
				part = wrapped[i][line]
			}
			padded := padRight(part, widths[i])
			if highlightSender && i == 2 {
				padded = e.style(ansiBold, padded)
			}
			sb.WriteString("| " + padded + " ")
		}
		sb.WriteString("|\n")
	}
}

func (e *ConsoleExporter) style(code, s string) string {
	if !e.color {
		return s
	}
	return code + s + ansiReset
}

func describeCriteria(c domain.CriteriaView) string {
	var parts []string
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("поиск %q", c.Search))
	}
	if c.DateFrom != "" || c.DateTo != "" {
		parts = append(parts, fmt.Sprintf("даты %s..%s", c.DateFrom, c.DateTo))
	}
	if c.Participant != "" {
		parts = append(parts, "участник "+c.Participant)
	}
	return strings.Join(parts, ", ")
}
