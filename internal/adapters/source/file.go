package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"
)

// FileSource реализует интерфейс DataSource для чтения экспорта (txt или zip) с диска.
type FileSource struct {
	filePath string
	maxBytes int64
}

// NewFileSource создает новый экземпляр FileSource.
// maxBytes <= 0 снимает ограничение на размер файла.
func NewFileSource(filePath string, maxBytes int64) ports.DataSource {
	return &FileSource{filePath: filePath, maxBytes: maxBytes}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *FileSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, errors.New("не указан путь к файлу")
	}

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", s.filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", s.filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s является каталогом", s.filePath)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, fmt.Errorf("файл %s превышает допустимый размер (%d > %d байт)", s.filePath, info.Size(), s.maxBytes)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", s.filePath, domain.ErrEmptyInput)
	}

	return data, nil
}
