package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"

	"github.com/xuri/excelize/v2"
)

const (
	messagesSheet = "Сообщения"
	summarySheet  = "Сводка"
)

// ExcelExporter реализует интерфейс Exporter для выгрузки окна просмотра в xlsx.
type ExcelExporter struct {
	out io.Writer
	log *slog.Logger
}

// NewExcelExporter создает экспортер, который пишет книгу в out.
func NewExcelExporter(out io.Writer, logger *slog.Logger) ports.Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelExporter{out: out, log: logger}
}

// Export пишет книгу из двух листов: видимые сообщения и сводка чата.
func (e *ExcelExporter) Export(view domain.WindowView) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Error("failed to close excel file", slog.String("error", err.Error()))
		}
	}()

	for _, name := range []string{messagesSheet, summarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("не удалось создать лист: %w", err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("не удалось удалить лист по умолчанию: %w", err)
	}
	if index, err := f.GetSheetIndex(messagesSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("не удалось создать стиль: %w", err)
	}

	if err := writeMessages(f, view.Messages, headerStyle); err != nil {
		return err
	}
	if err := writeSummary(f, view, headerStyle); err != nil {
		return err
	}

	if err := f.Write(e.out); err != nil {
		return fmt.Errorf("не удалось записать excel: %w", err)
	}
	return nil
}

func writeMessages(f *excelize.File, messages []domain.ParsedMessage, headerStyle int) error {
	headers := []string{"Дата", "Время", "Отправитель", "Текст", "Вложение", "Тип", "Строка"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(messagesSheet, cell, h); err != nil {
			return fmt.Errorf("не удалось записать заголовок: %w", err)
		}
	}
	if err := f.SetCellStyle(messagesSheet, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("не удалось применить стиль: %w", err)
	}

	for i, m := range messages {
		row := i + 2
		values := []any{m.Date, m.Time, m.Sender, m.Text, "", "", m.SourceLineIndex + 1}
		if m.Media != nil {
			values[4] = m.Media.Filename
			values[5] = string(m.Media.Category)
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(messagesSheet, cell, &values); err != nil {
			return fmt.Errorf("не удалось записать строку %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(messagesSheet, "C", "C", 24)
	_ = f.SetColWidth(messagesSheet, "D", "D", 80)
	_ = f.SetColWidth(messagesSheet, "E", "E", 32)
	return nil
}

func writeSummary(f *excelize.File, view domain.WindowView, headerStyle int) error {
	s := view.Summary
	rows := [][]any{
		{"Участники", strings.Join(s.Participants, ", ")},
		{"Сообщений", s.TotalCount},
		{"Первая дата", s.StartDate},
		{"Последняя дата", s.EndDate},
		{"Сопоставлено вложений", s.MediaCount},
		{"Файлов в архиве", s.MediaFiles},
		{"Выгружено сообщений", len(view.Messages)},
		{"Подходит под фильтры", view.FilteredCount},
		{"Поиск", view.Criteria.Search},
		{"Дата с", view.Criteria.DateFrom},
		{"Дата по", view.Criteria.DateTo},
		{"Участник", view.Criteria.Participant},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("не удалось записать сводку: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return fmt.Errorf("не удалось применить стиль: %w", err)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 26)
	return nil
}
