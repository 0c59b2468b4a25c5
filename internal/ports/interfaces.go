package ports

import (
	"context"
	"whatsapp-chat-viewer/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// LineParser определяет интерфейс для разбора одной строки экспорта.
type LineParser interface {
	// Parse преобразует строку в сообщение. false означает, что строка не является сообщением.
	Parse(raw string, lineIndex int) (domain.ParsedMessage, bool)
}

// ArchiveExtractor определяет интерфейс для распаковки архива экспорта.
type ArchiveExtractor interface {
	// Extract возвращает текст чата и медиафайлы. Возвращается только после
	// того, как прочитаны все медиафайлы.
	Extract(ctx context.Context, data []byte) (*domain.Archive, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает снимок окна просмотра и выводит его.
	Export(view domain.WindowView) error
}
